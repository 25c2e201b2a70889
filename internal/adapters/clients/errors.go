// Package clients provides the instrumented HTTP client shared by the quote
// source and the chat sender.
package clients

import (
	"errors"
	"fmt"
)

// Infrastructure failures. The acl package translates them into domain errors.
var (
	// ErrCircuitOpen means the request was refused without touching the network.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last attempt's error once retrying stops.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)

// statusError is an attempt that got a retryable 5xx response.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server error: %d", e.status)
}
