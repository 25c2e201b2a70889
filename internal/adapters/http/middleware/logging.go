package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-cache-service/internal/platform/logging"
)

const healthPrefix = "/-/"

// Logging writes one "request completed" line per request, at warn for 4xx
// and error for 5xx. Health routes under /-/ and skipPaths stay silent.
func Logging(logger *slog.Logger, skipPaths ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if strings.HasPrefix(path, healthPrefix) || slices.Contains(skipPaths, path) {
			c.Next()
			return
		}

		if q := c.Request.URL.RawQuery; q != "" {
			path += "?" + q
		}

		log := requestLogger(c, logger)
		ctx := c.Request.Context()
		start := time.Now()

		log.DebugContext(ctx, "request started",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("client_ip", c.ClientIP()),
			slog.String("user_agent", c.Request.UserAgent()),
		)

		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()

		log.Log(ctx, levelFor(status), "request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("route", c.FullPath()),
			slog.Int("status", status),
			slog.Duration("latency", elapsed),
			slog.Int64("latency_ms", elapsed.Milliseconds()),
			slog.Int("bytes", c.Writer.Size()),
		)
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// requestLogger uses the context logger that RequestID installed. Without
// it, logger is tagged with the correlation ID if one was set.
func requestLogger(c *gin.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil || RequestIDFromContext(c.Request.Context()) != "" {
		return logging.FromContext(c.Request.Context())
	}

	if id := GetCorrelationID(c); id != "" {
		return logger.With(slog.String("correlation_id", id))
	}

	return logger
}
