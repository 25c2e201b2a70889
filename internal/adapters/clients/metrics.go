package clients

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CircuitCollector exports the breaker of each client at scrape time. The
// circuit state is informational: an open breaker on a downstream does not
// make the service unready while it still has data to serve.
type CircuitCollector struct {
	clients []*Client

	state    *prometheus.Desc
	failures *prometheus.Desc
}

// NewCircuitCollector creates a collector over the given clients.
func NewCircuitCollector(clients ...*Client) *CircuitCollector {
	return &CircuitCollector{
		clients: clients,
		state: prometheus.NewDesc("http_client_circuit_state",
			"1 for the current circuit breaker state of a downstream, 0 for the others.",
			[]string{"downstream", "state"}, nil),
		failures: prometheus.NewDesc("http_client_circuit_failures",
			"Consecutive failures recorded by the circuit breaker.",
			[]string{"downstream"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *CircuitCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.state
	ch <- c.failures
}

// Collect implements prometheus.Collector.
func (c *CircuitCollector) Collect(ch chan<- prometheus.Metric) {
	for _, client := range c.clients {
		counts := client.CircuitCounts()

		for _, s := range []State{StateClosed, StateOpen, StateHalfOpen} {
			value := 0.0
			if s == counts.State {
				value = 1
			}

			ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, value, client.ServiceName(), s.String())
		}

		ch <- prometheus.MustNewConstMetric(c.failures, prometheus.GaugeValue, float64(counts.Failures), client.ServiceName())
	}
}
