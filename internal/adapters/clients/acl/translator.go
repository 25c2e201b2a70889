package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/clients"
)

// ErrBodyTooLarge means a response outgrew the configured limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

var errNilBody = errors.New("response body is nil")

// BaseAdapter is embedded by the quote source and the chat sender. It runs
// requests through the instrumented client and turns every failed exchange
// into a domain error, so callers only ever see a readable 2xx body.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
}

// NewBaseAdapter names the downstream for error messages.
func NewBaseAdapter(client *clients.Client, serviceName string) BaseAdapter {
	return BaseAdapter{client: client, serviceName: serviceName}
}

// Client exposes the client, mainly for circuit state.
func (a *BaseAdapter) Client() *clients.Client { return a.client }

// ServiceName is the downstream's name.
func (a *BaseAdapter) ServiceName() string { return a.serviceName }

// Get fetches path. The caller closes the body.
func (a *BaseAdapter) Get(ctx context.Context, path, operation string) (io.ReadCloser, error) {
	resp, err := a.client.Get(ctx, path)
	return a.accept(resp, err, operation, "")
}

// PostJSON posts payload as JSON. entityID ends up in NotFound errors.
func (a *BaseAdapter) PostJSON(ctx context.Context, path string, payload any, operation, entityID string) (io.ReadCloser, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", operation, err)
	}

	resp, err := a.client.PostJSON(ctx, path, body)

	return a.accept(resp, err, operation, entityID)
}

// accept hands back the body of a successful exchange and maps the rest.
func (a *BaseAdapter) accept(resp *http.Response, err error, operation, entityID string) (io.ReadCloser, error) {
	switch {
	case err != nil:
		return nil, MapHTTPError(nil, err, a.serviceName, operation, entityID)
	case resp.StatusCode >= http.StatusBadRequest:
		defer func() { _ = resp.Body.Close() }()
		return nil, MapHTTPError(resp, nil, a.serviceName, operation, entityID)
	default:
		return resp.Body, nil
	}
}

// ReadLimited drains and closes body. More than limit bytes is an
// ErrBodyTooLarge; limit <= 0 reads everything.
func ReadLimited(body io.ReadCloser, limit int64) ([]byte, error) {
	if body == nil {
		return nil, errNilBody
	}
	defer func() { _ = body.Close() }()

	r := io.Reader(body)
	if limit > 0 {
		r = io.LimitReader(body, limit+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %d bytes", ErrBodyTooLarge, limit)
	}

	return data, nil
}

// DecodeResponse decodes a JSON body into a new T and closes the body.
func DecodeResponse[T any](body io.ReadCloser) (*T, error) {
	if body == nil {
		return nil, errNilBody
	}
	defer func() { _ = body.Close() }()

	out := new(T)
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return out, nil
}
