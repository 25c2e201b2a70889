package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-cache-service/internal/platform/logging"
)

// Timeout returns middleware that puts a deadline on the request context.
//
// The handler runs on the request goroutine and is never abandoned: a cache
// refresh in progress finishes or observes the deadline itself. If the
// handler returns after the deadline without writing a response, a 504 with
// the TIMEOUT envelope is sent.
//
// Paths in skipPaths run without a deadline.
func Timeout(timeout time.Duration, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			handleTimeout(c, timeout)
		}
	}
}

// handleTimeout logs the timeout and writes the error envelope.
func handleTimeout(c *gin.Context, timeout time.Duration) {
	logging.FromContext(c.Request.Context()).Warn("request timeout",
		slog.String("path", c.Request.URL.Path),
		slog.String("method", c.Request.Method),
		slog.Duration("timeout", timeout),
	)

	dto.AbortWithErrorCode(c, dto.ErrorCodeTimeout, "request timeout exceeded")
}
