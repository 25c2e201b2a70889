package acl

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-cache-service/internal/domain"
)

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestMapHTTPError_NotFound(t *testing.T) {
	err := MapHTTPError(response(http.StatusNotFound, ``), nil, "quote-source", "fetch quotes", "quotes.json")

	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err), "expected NotFoundError")

	var notFoundErr *domain.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "quotes.json", notFoundErr.ID)
}

func TestMapHTTPError_UnknownChannelCode(t *testing.T) {
	resp := response(http.StatusNotFound, `{"message":"Unknown Channel","code":10003}`)

	err := MapHTTPError(resp, nil, "chat-gateway", "send quote", "42")

	var notFoundErr *domain.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Equal(t, "channel", notFoundErr.Entity)
	assert.Equal(t, "42", notFoundErr.ID)
}

func TestMapHTTPError_MissingPermissionsCode(t *testing.T) {
	resp := response(http.StatusForbidden, `{"message":"Missing Permissions","code":50013}`)

	err := MapHTTPError(resp, nil, "chat-gateway", "send quote", "42")

	require.Error(t, err)
	assert.True(t, domain.IsForbidden(err))
	assert.Contains(t, err.Error(), "Missing Permissions")
}

func TestMapHTTPError_InvalidFormBodyCode(t *testing.T) {
	resp := response(http.StatusBadRequest,
		`{"message":"Invalid Form Body","code":50035,"errors":{"content":{"_errors":[]}}}`)

	err := MapHTTPError(resp, nil, "chat-gateway", "send text", "42")

	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "Invalid Form Body")
}

func TestMapHTTPError_StatusFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"conflict", http.StatusConflict, `{"message":"busy"}`, domain.IsConflict},
		{"bad request", http.StatusBadRequest, ``, domain.IsValidation},
		{"unprocessable", http.StatusUnprocessableEntity, ``, domain.IsValidation},
		{"forbidden", http.StatusForbidden, ``, domain.IsForbidden},
		{"unauthorized", http.StatusUnauthorized, `{"message":"401: Unauthorized","code":0}`, domain.IsForbidden},
		{"bad gateway", http.StatusBadGateway, ``, domain.IsUnavailable},
		{"server error", http.StatusInternalServerError, ``, domain.IsUnavailable},
		{"unknown 4xx", http.StatusTeapot, ``, domain.IsValidation},
		{"unmapped api code", http.StatusForbidden, `{"message":"nope","code":99999}`, domain.IsForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapHTTPError(response(tt.status, tt.body), nil, "chat-gateway", "send quote", "")

			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type: %v", err)
		})
	}
}

func TestMapHTTPError_RateLimited(t *testing.T) {
	resp := response(http.StatusTooManyRequests, `{"message":"You are being rate limited.","retry_after":1.5,"global":false}`)

	err := MapHTTPError(resp, nil, "chat-gateway", "send quote", "")

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.Contains(t, err.Error(), "retry after 1.5s")
}

func TestMapHTTPError_RateLimitedHeader(t *testing.T) {
	resp := response(http.StatusTooManyRequests, ``)
	resp.Header.Set("Retry-After", "3")

	err := MapHTTPError(resp, nil, "chat-gateway", "send quote", "")

	assert.Contains(t, err.Error(), "retry after 3s")
}

func TestMapHTTPError_ClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
	}{
		{"circuit open", clients.ErrCircuitOpen, "circuit breaker open during fetch quotes"},
		{"retries exhausted", clients.ErrMaxRetriesExceeded, "max retries exceeded during fetch quotes"},
		{"other", errors.New("dial tcp: refused"), "fetch quotes failed: dial tcp: refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapHTTPError(nil, tt.err, "quote-source", "fetch quotes", "")

			require.Error(t, err)
			assert.True(t, domain.IsUnavailable(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestMapHTTPError_SuccessReturnsNil(t *testing.T) {
	assert.NoError(t, MapHTTPError(response(http.StatusOK, `{}`), nil, "svc", "op", ""))
}

func TestMapHTTPError_NilResponse(t *testing.T) {
	err := MapHTTPError(nil, nil, "svc", "op", "")

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err))
	assert.Contains(t, err.Error(), "no response received")
}

func TestMapAPICode(t *testing.T) {
	tests := []struct {
		code  int
		check func(error) bool
	}{
		{CodeUnknownChannel, domain.IsNotFound},
		{CodeUnknownMessage, domain.IsNotFound},
		{CodeMissingAccess, domain.IsForbidden},
		{CodeMissingPermissions, domain.IsForbidden},
		{CodeCannotSendToUser, domain.IsForbidden},
		{CodeInvalidFormBody, domain.IsValidation},
	}

	for _, tt := range tests {
		err := MapAPICode(tt.code, "msg", "chat-gateway", "send quote", "1")
		require.Error(t, err, "code %d", tt.code)
		assert.True(t, tt.check(err), "code %d mapped to %v", tt.code, err)
	}

	assert.NoError(t, MapAPICode(0, "", "chat-gateway", "send quote", ""))
}

func TestParseErrorResponse(t *testing.T) {
	resp := ParseErrorResponse(strings.NewReader(`{"message":"Unknown Channel","code":10003}`))
	require.NotNil(t, resp)
	assert.Equal(t, CodeUnknownChannel, resp.Code)
	assert.Equal(t, "Unknown Channel", resp.Message)

	assert.Nil(t, ParseErrorResponse(strings.NewReader(`not json`)))
	assert.Nil(t, ParseErrorResponse(strings.NewReader(`{}`)), "no meaningful data")
	assert.Nil(t, ParseErrorResponse(nil))
}
