package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StatsProvider is anything that can report cache statistics.
type StatsProvider interface {
	Stats() CacheStats
}

// CacheCollector exposes quote cache statistics as Prometheus metrics.
// Values are read from Stats at scrape time, so a scrape never triggers a
// refresh.
type CacheCollector struct {
	stats StatsProvider

	quotes      *prometheus.Desc
	years       *prometheus.Desc
	loaded      *prometheus.Desc
	ttl         *prometheus.Desc
	lastSuccess *prometheus.Desc
	lastAttempt *prometheus.Desc
	refreshes   *prometheus.Desc
}

// NewCacheCollector creates a collector over the given stats provider.
func NewCacheCollector(stats StatsProvider) *CacheCollector {
	return &CacheCollector{
		stats: stats,
		quotes: prometheus.NewDesc("quote_cache_quotes",
			"Number of quotes in the current snapshot.", nil, nil),
		years: prometheus.NewDesc("quote_cache_years",
			"Number of years in the current snapshot.", nil, nil),
		loaded: prometheus.NewDesc("quote_cache_loaded",
			"1 if a snapshot has been loaded, 0 otherwise.", nil, nil),
		ttl: prometheus.NewDesc("quote_cache_ttl_seconds",
			"Minimum time between refresh attempts.", nil, nil),
		lastSuccess: prometheus.NewDesc("quote_cache_last_refresh_success_timestamp_seconds",
			"Unix time of the last successful refresh.", nil, nil),
		lastAttempt: prometheus.NewDesc("quote_cache_last_refresh_attempt_timestamp_seconds",
			"Unix time of the last refresh attempt.", nil, nil),
		refreshes: prometheus.NewDesc("quote_cache_refresh_total",
			"Refresh attempts by result.", []string{"result"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *CacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.quotes
	ch <- c.years
	ch <- c.loaded
	ch <- c.ttl
	ch <- c.lastSuccess
	ch <- c.lastAttempt
	ch <- c.refreshes
}

// Collect implements prometheus.Collector.
func (c *CacheCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats.Stats()

	loaded := 0.0
	if s.Loaded {
		loaded = 1
	}

	ch <- prometheus.MustNewConstMetric(c.quotes, prometheus.GaugeValue, float64(s.Size))
	ch <- prometheus.MustNewConstMetric(c.years, prometheus.GaugeValue, float64(s.Years))
	ch <- prometheus.MustNewConstMetric(c.loaded, prometheus.GaugeValue, loaded)
	ch <- prometheus.MustNewConstMetric(c.ttl, prometheus.GaugeValue, s.TTL.Seconds())
	ch <- prometheus.MustNewConstMetric(c.lastSuccess, prometheus.GaugeValue, unixSeconds(s.LastRefreshSuccess))
	ch <- prometheus.MustNewConstMetric(c.lastAttempt, prometheus.GaugeValue, unixSeconds(s.LastRefreshAttempt))
	ch <- prometheus.MustNewConstMetric(c.refreshes, prometheus.CounterValue, float64(s.RefreshSuccesses), "success")
	ch <- prometheus.MustNewConstMetric(c.refreshes, prometheus.CounterValue, float64(s.RefreshFailures), "failure")
}

func unixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}

	return float64(t.UnixMilli()) / 1000
}
