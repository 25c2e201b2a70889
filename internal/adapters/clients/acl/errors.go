package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-cache-service/internal/domain"
)

// ErrorResponse is the error body returned by the chat REST API.
//
//	{"message": "Unknown Channel", "code": 10003}
//
// Form validation failures add an "errors" tree which is kept raw.
type ErrorResponse struct {
	Message    string          `json:"message"`
	Code       int             `json:"code"`
	RetryAfter float64         `json:"retry_after,omitempty"`
	Errors     json.RawMessage `json:"errors,omitempty"`
}

// JSON error codes of the chat REST API that map to specific domain errors.
// Anything not listed falls back to the HTTP status mapping.
const (
	CodeUnknownChannel     = 10003
	CodeUnknownMessage     = 10008
	CodeMissingAccess      = 50001
	CodeCannotSendToUser   = 50007
	CodeMissingPermissions = 50013
	CodeInvalidFormBody    = 50035
)

// maxErrorBodyBytes bounds how much of an error body is read.
const maxErrorBodyBytes = 64 << 10

// ParseErrorResponse reads at most 64KiB of body. It returns nil unless the
// body is JSON carrying a code or a message.
func ParseErrorResponse(body io.Reader) *ErrorResponse {
	if body == nil {
		return nil
	}

	var errResp ErrorResponse
	if err := json.NewDecoder(io.LimitReader(body, maxErrorBodyBytes)).Decode(&errResp); err != nil {
		return nil
	}

	if errResp.Code == 0 && errResp.Message == "" {
		return nil
	}

	return &errResp
}

// MapHTTPError turns a failed exchange into a domain error. resp is nil
// when clientErr is set. A JSON error code the chat API documents wins over
// the bare status; entityID lands in NotFound errors.
func MapHTTPError(resp *http.Response, clientErr error, serviceName, operation, entityID string) error {
	switch {
	case clientErr != nil:
		return mapClientError(clientErr, serviceName, operation)
	case resp == nil:
		return domain.NewUnavailableError(serviceName, "no response received")
	case resp.StatusCode < http.StatusMultipleChoices:
		return nil
	}

	var errResp *ErrorResponse
	if resp.Body != nil {
		errResp = ParseErrorResponse(resp.Body)
	}

	if errResp != nil {
		if err := MapAPICode(errResp.Code, errResp.Message, serviceName, operation, entityID); err != nil {
			return err
		}
	}

	return mapStatusCode(resp, errResp, serviceName, operation, entityID)
}

func mapClientError(err error, serviceName, operation string) error {
	reason := fmt.Sprintf("%s failed: %v", operation, err)

	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		reason = "circuit breaker open during " + operation
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		reason = "max retries exceeded during " + operation
	}

	return domain.NewUnavailableError(serviceName, reason)
}

// statusMessages is used when the error body carries no message.
var statusMessages = map[int]string{
	http.StatusBadRequest:         "invalid request",
	http.StatusForbidden:          "access denied",
	http.StatusConflict:           "resource conflict",
	http.StatusServiceUnavailable: "service temporarily unavailable",
}

func mapStatusCode(resp *http.Response, errResp *ErrorResponse, serviceName, operation, entityID string) error {
	status := resp.StatusCode

	message, ok := statusMessages[status]
	if !ok {
		message = fmt.Sprintf("%s failed with status %d", operation, status)
	}

	if errResp != nil && errResp.Message != "" {
		message = errResp.Message
	}

	switch {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError(serviceName, entityID)
	case status == http.StatusConflict:
		return domain.NewConflictError(serviceName, message)
	case status == http.StatusUnauthorized:
		return domain.NewForbiddenError(operation, "authentication required")
	case status == http.StatusForbidden:
		return domain.NewForbiddenError(operation, message)
	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(serviceName, rateLimitMessage(resp, errResp))
	case status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(serviceName, message)
	default:
		// 400, 422 and anything else the caller got wrong.
		return domain.NewValidationError("", message)
	}
}

// rateLimitMessage prefers retry_after from the body over the header.
func rateLimitMessage(resp *http.Response, errResp *ErrorResponse) string {
	var wait float64
	if errResp != nil {
		wait = errResp.RetryAfter
	}

	if wait <= 0 {
		wait, _ = strconv.ParseFloat(resp.Header.Get("Retry-After"), 64)
	}

	if wait <= 0 {
		return "rate limit exceeded"
	}

	return fmt.Sprintf("rate limit exceeded, retry after %gs", wait)
}

// MapAPICode maps the chat API codes that have a domain meaning. It
// returns nil for the rest so the status decides.
func MapAPICode(code int, message, serviceName, operation, entityID string) error {
	switch code {
	case CodeUnknownChannel, CodeUnknownMessage:
		return domain.NewNotFoundError("channel", entityID)
	case CodeMissingAccess, CodeMissingPermissions, CodeCannotSendToUser:
		return domain.NewForbiddenError(operation, message)
	case CodeInvalidFormBody:
		return domain.NewValidationError("", message)
	}

	return nil
}
