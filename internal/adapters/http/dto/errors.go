// Package dto holds the HTTP wire shapes shared by handlers and middleware:
// the error envelope and request binding.
package dto

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quote-cache-service/internal/domain"
	"github.com/jsamuelsen/quote-cache-service/internal/platform/logging"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   ErrorDetail `json:"error"`
	TraceID string      `json:"traceId,omitempty"`
}

// ErrorDetail carries a machine-readable code and, for validation
// failures, a message per offending field.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Error codes.
const (
	ErrorCodeNotFound     = "NOT_FOUND"
	ErrorCodeConflict     = "CONFLICT"
	ErrorCodeValidation   = "VALIDATION_ERROR"
	ErrorCodeForbidden    = "FORBIDDEN"
	ErrorCodeUnauthorized = "UNAUTHORIZED"
	ErrorCodeUnavailable  = "SERVICE_UNAVAILABLE"
	ErrorCodeBadGateway   = "BAD_GATEWAY"
	ErrorCodeInternal     = "INTERNAL_ERROR"
	ErrorCodeTimeout      = "TIMEOUT"
	ErrorCodeBadRequest   = "BAD_REQUEST"
)

var statusByCode = map[string]int{
	ErrorCodeNotFound:     http.StatusNotFound,
	ErrorCodeConflict:     http.StatusConflict,
	ErrorCodeValidation:   http.StatusBadRequest,
	ErrorCodeBadRequest:   http.StatusBadRequest,
	ErrorCodeForbidden:    http.StatusForbidden,
	ErrorCodeUnauthorized: http.StatusUnauthorized,
	ErrorCodeUnavailable:  http.StatusServiceUnavailable,
	ErrorCodeBadGateway:   http.StatusBadGateway,
	ErrorCodeTimeout:      http.StatusGatewayTimeout,
}

// HTTPStatusFromCode returns the status for an error code, 500 for
// anything unknown.
func HTTPStatusFromCode(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// NewErrorResponse builds an envelope without details.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// domainMapping translates one error kind. message overrides err.Error()
// where the domain text is not meant for clients.
type domainMapping struct {
	is      func(error) bool
	code    string
	message string
}

// Order matters: an empty cache is also unavailable.
var domainMappings = []domainMapping{
	{is: domain.IsNotFound, code: ErrorCodeNotFound},
	{is: domain.IsConflict, code: ErrorCodeConflict},
	{is: domain.IsValidation, code: ErrorCodeValidation},
	{is: domain.IsForbidden, code: ErrorCodeForbidden},
	{is: domain.IsMalformedDocument, code: ErrorCodeBadGateway},
	{is: domain.IsEmptyCache, code: ErrorCodeUnavailable, message: "quotes are not loaded yet"},
	{is: domain.IsUnavailable, code: ErrorCodeUnavailable, message: "service temporarily unavailable"},
}

// MapDomainError returns the status and envelope for err. Errors outside
// the domain vocabulary become a generic 500 so internals never leak.
func MapDomainError(err error) (int, *ErrorResponse) {
	if err == nil {
		return http.StatusOK, nil
	}

	for _, m := range domainMappings {
		if !m.is(err) {
			continue
		}

		message := m.message
		if message == "" {
			message = err.Error()
		}

		resp := NewErrorResponse(m.code, message)

		var invalid *domain.ValidationError
		if errors.As(err, &invalid) && invalid.Field != "" {
			resp.Error.Details = map[string]string{invalid.Field: invalid.Message}
		}

		return HTTPStatusFromCode(m.code), resp
	}

	return http.StatusInternalServerError, NewErrorResponse(ErrorCodeInternal, "an internal error occurred")
}

// GetTraceID prefers the active span's trace ID, then a "trace_id" gin
// value, then the X-Request-ID header.
func GetTraceID(c *gin.Context) string {
	if sc := trace.SpanFromContext(c.Request.Context()).SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}

	if v, ok := c.Get("trace_id"); ok {
		id, _ := v.(string)
		return id
	}

	return c.GetHeader("X-Request-ID")
}

// HandleError writes the mapped response for err. 500s are logged in full
// because the client only sees a generic message.
func HandleError(c *gin.Context, err error) {
	status, resp := MapDomainError(err)
	resp.TraceID = GetTraceID(c)

	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("internal error",
			"error", err.Error(),
			"trace_id", resp.TraceID,
		)
	}

	c.JSON(status, resp)
}

// AbortWithErrorCode stops the chain with an adapter-level error.
func AbortWithErrorCode(c *gin.Context, code, message string) {
	resp := NewErrorResponse(code, message)
	resp.TraceID = GetTraceID(c)

	c.AbortWithStatusJSON(HTTPStatusFromCode(code), resp)
}

// RespondWithBindError answers a BindAndValidate failure with 400. Tag
// failures get per-field details, anything else is an unreadable body.
func RespondWithBindError(c *gin.Context, err error) {
	code, message := ErrorCodeBadRequest, "invalid request body"

	details := ValidationErrors(err)
	if len(details) > 0 {
		code, message = ErrorCodeValidation, "request validation failed"
	}

	resp := NewErrorResponse(code, message)
	resp.Error.Details = details
	resp.TraceID = GetTraceID(c)

	c.JSON(http.StatusBadRequest, resp)
}
