// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrUnavailable, ErrMalformedDocument, etc.)
//   - Keep interfaces small and focused (Interface Segregation Principle)
package ports

import (
	"context"

	"github.com/jsamuelsen/quote-cache-service/internal/domain"
)

// QuoteSource retrieves the full quote document from the remote source and
// translates it to a domain collection.
//
// Key considerations:
//   - Handle timeouts via context deadline
//   - Return a *domain.FetchError for transport failures
//   - Return a *domain.MalformedDocumentError when the top-level shape is invalid
type QuoteSource interface {
	// FetchQuotes performs one retrieval of the quote document.
	FetchQuotes(ctx context.Context) (*domain.QuoteCollection, error)

	// Location identifies the source for logging.
	Location() string
}

// MessageSender delivers replies through the chat messaging collaborator.
type MessageSender interface {
	// SendQuote renders and posts a quote to the given channel.
	SendQuote(ctx context.Context, channelID string, msg domain.QuoteMessage) error

	// SendText posts a plain text message to the given channel.
	SendText(ctx context.Context, channelID, text string) error
}
