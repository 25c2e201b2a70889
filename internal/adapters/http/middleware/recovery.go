package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-cache-service/internal/platform/logging"
)

// Recovery returns middleware that recovers from panics.
// On panic it logs the value and stack at error level and answers 500 with
// the INTERNAL_ERROR envelope, unless a response was already started.
//
// Apply it first so it also covers the other middleware.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			reqLogger := logging.FromContext(c.Request.Context())
			if RequestIDFromContext(c.Request.Context()) == "" && logger != nil {
				reqLogger = logger
			}

			traceID := dto.GetTraceID(c)

			reqLogger.Error("panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("path", c.Request.URL.Path),
				slog.String("method", c.Request.Method),
				slog.String("trace_id", traceID),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			dto.AbortWithErrorCode(c, dto.ErrorCodeInternal, "an internal error occurred")
		}()

		c.Next()
	}
}
