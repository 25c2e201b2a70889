package clients

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-cache-service/internal/platform/config"
	"github.com/jsamuelsen/quote-cache-service/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/quote-cache-service/internal/adapters/clients"

	// defaultTimeout bounds one attempt when Config.Timeout is unset.
	defaultTimeout = 30 * time.Second

	// defaultMaxIdleConns bounds idle connections across hosts.
	defaultMaxIdleConns = 100

	// defaultMaxIdleConnsPerHost bounds idle connections to the downstream.
	defaultMaxIdleConnsPerHost = 10

	// defaultIdleConnTimeout closes connections idle for longer.
	defaultIdleConnTimeout = 90 * time.Second
)

// Config configures a Client.
type Config struct {
	// BaseURL prefixes every request path. It may point at a document, in
	// which case Get with an empty path fetches the URL itself.
	BaseURL string

	// ServiceName names the downstream in logs, spans and metrics.
	ServiceName string

	// Timeout bounds a single attempt. Retries and backoff come on top.
	Timeout time.Duration

	// Retry controls attempts and backoff. MaxAttempts below 1 means one
	// attempt.
	Retry config.RetryConfig

	// Circuit configures the breaker shared by all requests of this client.
	Circuit config.CircuitBreakerConfig

	// Transport tunes the connection pool. Zero values take the defaults.
	Transport config.TransportConfig

	// AuthFunc, if set, decorates every attempt.
	AuthFunc func(*http.Request)

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Client is an HTTP client for one downstream host with retries, a circuit
// breaker, tracing, metrics and request ID propagation.
type Client struct {
	http        *http.Client
	baseURL     string
	serviceName string
	cfg         *Config
	cb          *CircuitBreaker
	tracer      trace.Tracer

	duration metric.Float64Histogram
	total    metric.Int64Counter
}

// New returns a Client for cfg. cfg is retained and must not be modified.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	cfg.Retry.MaxAttempts = max(cfg.Retry.MaxAttempts, 1)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:   cfg.Circuit.MaxFailures,
		Timeout:       cfg.Circuit.Timeout,
		HalfOpenLimit: cfg.Circuit.HalfOpenLimit,
	})
	cb.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("downstream", cfg.ServiceName),
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	meter := otel.Meter(instrumentationName)

	duration, err := meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Duration of HTTP client requests including retries"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	total, err := meter.Int64Counter("http.client.request.total",
		metric.WithDescription("Total number of HTTP client requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout, Transport: newTransport(cfg.Transport)},
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceName: cfg.ServiceName,
		cfg:         cfg,
		cb:          cb,
		tracer:      otel.Tracer(instrumentationName),
		duration:    duration,
		total:       total,
	}, nil
}

func newTransport(tc config.TransportConfig) *http.Transport {
	orDefault := func(v, def int) int {
		if v > 0 {
			return v
		}

		return def
	}

	idle := tc.IdleConnTimeout
	if idle <= 0 {
		idle = defaultIdleConnTimeout
	}

	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        orDefault(tc.MaxIdleConns, defaultMaxIdleConns),
		MaxIdleConnsPerHost: orDefault(tc.MaxIdleConnsPerHost, defaultMaxIdleConnsPerHost),
		IdleConnTimeout:     idle,
	}
}

// Do sends req through the circuit breaker and retry loop.
//
// A response is returned for any status below 500, and for 5xx when the
// request is not retried. Retried 5xx responses and transport failures end
// in an error wrapping ErrMaxRetriesExceeded. Requests with a body are only
// retried when req.GetBody is set, and non-idempotent methods only on 429.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("downstream", c.serviceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.cb.Allow() {
		c.record(ctx, req.Method, 0, time.Since(start), "circuit_open")
		logger.Warn("request blocked by circuit breaker")

		return nil, ErrCircuitOpen
	}

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.serviceName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.Redacted()),
			attribute.String("peer.service", c.serviceName),
		),
	)
	defer span.End()

	c.injectHeaders(ctx, req)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, attempts, err := c.retry(ctx, req, logger)
	elapsed := time.Since(start)
	span.SetAttributes(attribute.Int("http.attempts", attempts))

	if err != nil {
		c.cb.RecordFailure()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.record(ctx, req.Method, 0, elapsed, failureResult(err))
		logger.Error("request failed",
			slog.Int("attempts", attempts),
			slog.Duration("duration", elapsed),
			slog.Any("error", err),
		)

		return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
	}

	// Un-retried 5xx replies (non-idempotent requests) still count against the circuit.
	if resp.StatusCode >= http.StatusInternalServerError {
		c.cb.RecordFailure()
	} else {
		c.cb.RecordSuccess()
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, "HTTP "+resp.Status)
	}

	c.record(ctx, req.Method, resp.StatusCode, elapsed, fmt.Sprintf("%dxx", resp.StatusCode/100))
	logging.FromContext(ctx).Log(ctx, logging.LevelTrace, "request completed",
		slog.String("downstream", c.serviceName),
		slog.Int("status", resp.StatusCode),
		slog.Int("attempts", attempts),
		slog.Duration("duration", elapsed),
	)

	return resp, nil
}

// Get sends a GET for path. An empty path requests the base URL.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return c.Do(ctx, req)
}

// Post sends body as JSON to path.
func (c *Client) Post(ctx context.Context, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return c.Do(ctx, req)
}

// PostJSON posts an encoded JSON payload. The body is replayed on retry.
func (c *Client) PostJSON(ctx context.Context, path string, payload []byte) (*http.Response, error) {
	return c.Post(ctx, path, bytes.NewReader(payload))
}

// CircuitState returns the breaker's state.
func (c *Client) CircuitState() State {
	return c.cb.State()
}

// CircuitCounts returns a snapshot of the breaker.
func (c *Client) CircuitCounts() Counts {
	return c.cb.Counts()
}

// ServiceName returns the downstream name.
func (c *Client) ServiceName() string {
	return c.serviceName
}

func (c *Client) injectHeaders(ctx context.Context, req *http.Request) {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}
}

func (c *Client) buildURL(path string) string {
	if path == "" {
		return c.baseURL
	}

	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) record(ctx context.Context, method string, status int, elapsed time.Duration, result string) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.serviceName),
		attribute.String("result", result),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	set := metric.WithAttributes(attrs...)
	c.duration.Record(ctx, elapsed.Seconds(), set)
	c.total.Add(ctx, 1, set)
}

func failureResult(err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "context_canceled"
	}

	return "error"
}
