package telemetry

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/jsamuelsen/quote-cache-service/internal/platform/telemetry"

	// HeaderTraceID carries the request's trace ID back to the caller.
	HeaderTraceID = "X-Trace-ID"

	// healthPrefix marks health and metrics routes, which are not traced.
	healthPrefix = "/-/"

	// unmatchedRoute labels requests that hit no route, keeping the route
	// attribute bounded.
	unmatchedRoute = "unmatched"
)

// serverMetrics are the HTTP server instruments.
type serverMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	active   metric.Int64UpDownCounter
}

func newServerMetrics(meter metric.Meter) (*serverMetrics, error) {
	duration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	total, err := meter.Int64Counter(
		"http.server.request.total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter(
		"http.server.active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &serverMetrics{duration: duration, total: total, active: active}, nil
}

// Middleware records request metrics and echoes the trace ID in the
// X-Trace-ID response header. Mount it after TracingMiddleware.
func Middleware(_ string) gin.HandlerFunc {
	metrics, err := newServerMetrics(otel.Meter(instrumentationName))
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		start := time.Now()
		ctx := c.Request.Context()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		base := metric.WithAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
		)

		if metrics != nil {
			metrics.active.Add(ctx, 1, base)
			defer metrics.active.Add(ctx, -1, base)
		}

		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.HasTraceID() {
			c.Header(HeaderTraceID, sc.TraceID().String())
		}

		c.Next()

		if metrics == nil {
			return
		}

		withStatus := metric.WithAttributes(attribute.Int("http.status_code", c.Writer.Status()))
		metrics.duration.Record(ctx, time.Since(start).Seconds(), base, withStatus)
		metrics.total.Add(ctx, 1, base, withStatus)
	}
}

// TracingMiddleware returns the otelgin server span middleware. Health
// routes are filtered out so liveness checks do not flood the exporter.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName,
		otelgin.WithFilter(func(r *http.Request) bool {
			return !strings.HasPrefix(r.URL.Path, healthPrefix)
		}),
	)
}
