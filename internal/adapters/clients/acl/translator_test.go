package acl

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-cache-service/internal/domain"
	"github.com/jsamuelsen/quote-cache-service/internal/platform/config"
)

// testConfig returns a minimal client config for testing.
func testConfig(baseURL string) *clients.Config {
	return &clients.Config{
		ServiceName: "test-service",
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   5,
			Timeout:       time.Second,
			HalfOpenLimit: 2,
		},
	}
}

func newTestClient(t *testing.T, baseURL string) *clients.Client {
	t.Helper()

	client, err := clients.New(testConfig(baseURL))
	require.NoError(t, err)

	return client
}

func TestBaseAdapter_ServiceName(t *testing.T) {
	adapter := NewBaseAdapter(newTestClient(t, "http://example.com"), "my-service")

	assert.Equal(t, "my-service", adapter.ServiceName())
	assert.NotNil(t, adapter.Client())
}

func TestBaseAdapter_GetMapsErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	adapter := NewBaseAdapter(newTestClient(t, server.URL), "my-service")

	body, err := adapter.Get(context.Background(), "/thing", "get thing")

	require.Error(t, err)
	assert.Nil(t, body)
	assert.True(t, domain.IsForbidden(err))
}

func TestBaseAdapter_PostJSON(t *testing.T) {
	var received string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		received = string(data)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	defer server.Close()

	adapter := NewBaseAdapter(newTestClient(t, server.URL), "my-service")

	body, err := adapter.PostJSON(context.Background(), "/things", map[string]string{"name": "x"}, "create thing", "")
	require.NoError(t, err)

	out, err := DecodeResponse[struct {
		ID string `json:"id"`
	}](body)
	require.NoError(t, err)
	assert.Equal(t, "1", out.ID)
	assert.JSONEq(t, `{"name":"x"}`, received)
}

func TestBaseAdapter_PostJSONEncodingError(t *testing.T) {
	adapter := NewBaseAdapter(newTestClient(t, "http://example.invalid"), "my-service")

	_, err := adapter.PostJSON(context.Background(), "/things", make(chan int), "create thing", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding create thing payload")
}

func TestReadLimited(t *testing.T) {
	data, err := ReadLimited(io.NopCloser(strings.NewReader("hello")), 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = ReadLimited(io.NopCloser(strings.NewReader("hello!")), 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBodyTooLarge))

	data, err = ReadLimited(io.NopCloser(strings.NewReader("unbounded")), 0)
	require.NoError(t, err)
	assert.Equal(t, "unbounded", string(data))

	_, err = ReadLimited(nil, 5)
	assert.Error(t, err)
}

func TestDecodeResponse(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	out, err := DecodeResponse[payload](io.NopCloser(strings.NewReader(`{"name":"x"}`)))
	require.NoError(t, err)
	assert.Equal(t, "x", out.Name)

	_, err = DecodeResponse[payload](io.NopCloser(strings.NewReader(`{`)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")

	_, err = DecodeResponse[payload](nil)
	assert.Error(t, err)
}
