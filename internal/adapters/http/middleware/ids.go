// Package middleware provides the gin middleware chain of the HTTP adapter.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-cache-service/internal/platform/logging"
)

const (
	// HeaderRequestID identifies a single inbound request. It is forwarded to
	// the quote host and the chat API.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID identifies a chain of requests across services,
	// such as one chat message flowing through the gateway and this service.
	HeaderCorrelationID = "X-Correlation-ID"

	// ContextKeyRequestID is the gin context key holding the request ID.
	ContextKeyRequestID = "request_id"

	// ContextKeyCorrelationID is the gin context key holding the correlation ID.
	ContextKeyCorrelationID = "correlation_id"
)

type idKey int

const (
	requestIDKey idKey = iota
	correlationIDKey
)

// tracedID describes one propagated identifier.
type tracedID struct {
	header  string
	ginKey  string
	ctxKey  idKey
	logWith func(context.Context, string) context.Context
}

var (
	requestID     = tracedID{HeaderRequestID, ContextKeyRequestID, requestIDKey, logging.WithRequestID}
	correlationID = tracedID{HeaderCorrelationID, ContextKeyCorrelationID, correlationIDKey, logging.WithCorrelationID}
)

// handler accepts the inbound header or mints a UUID, echoes it on the
// response and stores it in the gin context, the request context and the
// request logger.
func (t tracedID) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(t.header)
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(t.ginKey, id)
		c.Header(t.header, id)

		ctx := context.WithValue(c.Request.Context(), t.ctxKey, id)
		c.Request = c.Request.WithContext(t.logWith(ctx, id))

		c.Next()
	}
}

func (t tracedID) fromGin(c *gin.Context) string {
	return c.GetString(t.ginKey)
}

func (t tracedID) fromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(t.ctxKey).(string)

	return id
}

// RequestID returns middleware that assigns every request an X-Request-ID.
func RequestID() gin.HandlerFunc { return requestID.handler() }

// CorrelationID returns middleware that propagates X-Correlation-ID, starting
// a new chain when the caller sent none.
func CorrelationID() gin.HandlerFunc { return correlationID.handler() }

// GetRequestID returns the request ID stored by RequestID, or "".
func GetRequestID(c *gin.Context) string { return requestID.fromGin(c) }

// GetCorrelationID returns the correlation ID stored by CorrelationID, or "".
func GetCorrelationID(c *gin.Context) string { return correlationID.fromGin(c) }

// RequestIDFromContext returns the request ID carried by ctx. Outbound
// clients read it to forward the header.
func RequestIDFromContext(ctx context.Context) string { return requestID.fromContext(ctx) }

// CorrelationIDFromContext returns the correlation ID carried by ctx.
func CorrelationIDFromContext(ctx context.Context) string { return correlationID.fromContext(ctx) }

// ContextWithRequestID returns ctx carrying id as the request ID. Background
// refreshes use it to tag their outbound calls.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID returns ctx carrying id as the correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}
