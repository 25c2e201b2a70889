//go:build integration

package integration

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-cache-service/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-cache-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-cache-service/internal/platform/config"
)

const exampleDocument = `{
	"2018": {"1": ["a", "b"], "3": ["c"]},
	"2019": {"12": ["d"]}
}`

// testClientConfig returns a client config with short retry and breaker timings.
func testClientConfig(baseURL, serviceName string) *clients.Config {
	return &clients.Config{
		ServiceName: serviceName,
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       100 * time.Millisecond,
			HalfOpenLimit: 1,
		},
		Logger: discardLogger(),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// documentServer serves a quote document whose status and body can be
// swapped between requests.
type documentServer struct {
	*httptest.Server

	mu         sync.Mutex
	status     int
	body       string
	hits       atomic.Int32
	requestIDs []string
}

func newDocumentServer(t *testing.T, status int, body string) *documentServer {
	t.Helper()

	d := &documentServer{status: status, body: body}
	d.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.hits.Add(1)

		d.mu.Lock()
		status, body := d.status, d.body
		d.requestIDs = append(d.requestIDs, r.Header.Get(middleware.HeaderRequestID))
		d.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(d.Close)

	return d
}

func (d *documentServer) serve(status int, body string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.status = status
	d.body = body
}

func (d *documentServer) lastRequestID() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.requestIDs) == 0 {
		return ""
	}

	return d.requestIDs[len(d.requestIDs)-1]
}

func (d *documentServer) location() string {
	return d.URL + "/quotes.json"
}

// newQuoteSource builds the ACL source over a real instrumented client.
func newQuoteSource(t *testing.T, d *documentServer, mutate func(*clients.Config)) *acl.QuoteSource {
	t.Helper()

	cfg := testClientConfig(d.location(), "quote-source")
	if mutate != nil {
		mutate(cfg)
	}

	client, err := clients.New(cfg)
	require.NoError(t, err)

	return acl.NewQuoteSource(acl.QuoteSourceConfig{
		Client:           client,
		MaxDocumentBytes: 1 << 20,
		Logger:           discardLogger(),
	}, d.location())
}

// manualClock is a clock the test advances explicitly.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}
