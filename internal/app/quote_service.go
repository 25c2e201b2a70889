// Package app contains application services that orchestrate use cases.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/quote-cache-service/internal/domain"
	"github.com/jsamuelsen/quote-cache-service/internal/ports"
)

// QuoteStore is the read side of the quote cache.
type QuoteStore interface {
	Quotes(ctx context.Context) (*domain.QuoteCollection, error)
	Stats() CacheStats
}

// Outcome describes what an invocation did.
type Outcome string

const (
	// OutcomeIgnored means the message was not addressed to the bot.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeHelp means the help text was returned for a private message.
	OutcomeHelp Outcome = "help"
	// OutcomeQueryUnsupported means a query was given; queries do nothing yet.
	OutcomeQueryUnsupported Outcome = "query_unsupported"
	// OutcomeSent means a quote was selected and delivered.
	OutcomeSent Outcome = "sent"
	// OutcomeRendered means a quote was selected but no sender is configured.
	OutcomeRendered Outcome = "rendered"
)

// Invocation is an incoming chat message event.
type Invocation struct {
	Content     string
	ChannelID   string
	AuthorIsBot bool
	Private     bool
}

// InvocationResult reports what HandleInvocation did.
type InvocationResult struct {
	Outcome Outcome
	Query   string
	Quote   *domain.QuoteMessage
	Reply   string
}

// QuoteService orchestrates quote-related use cases.
// It depends on port interfaces, not concrete implementations.
type QuoteService struct {
	cache   QuoteStore
	sender  ports.MessageSender
	random  domain.IntNSource
	matcher *InvocationMatcher
	logger  *slog.Logger
}

// QuoteServiceConfig contains configuration for the quote service.
type QuoteServiceConfig struct {
	Cache QuoteStore

	// Sender delivers replies. When nil, invocations are rendered but not sent.
	Sender ports.MessageSender

	// Random overrides the selection source in tests.
	Random domain.IntNSource

	// BotUserID enables mention-style invocations.
	BotUserID string

	Logger *slog.Logger
}

// NewQuoteService creates a new quote service with the provided dependencies.
// Panics if Cache is nil.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Cache == nil {
		panic("QuoteService: Cache is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteService{
		cache:   cfg.Cache,
		sender:  cfg.Sender,
		random:  cfg.Random,
		matcher: NewInvocationMatcher(cfg.BotUserID),
		logger:  logger,
	}
}

// GetRandomQuote draws one quote uniformly from the current snapshot.
// Returns domain.ErrEmptyCache if nothing was ever loaded and a NotFound
// error if the loaded document holds no quotes.
func (s *QuoteService) GetRandomQuote(ctx context.Context) (domain.Quote, error) {
	collection, err := s.cache.Quotes(ctx)
	if err != nil {
		return domain.Quote{}, err
	}

	quote, ok := domain.SelectRandom(collection, s.random)
	if !ok {
		return domain.Quote{}, domain.NewNotFoundError("quote", "")
	}

	return quote, nil
}

// Stats returns the cache bookkeeping without triggering a refresh.
func (s *QuoteService) Stats() CacheStats {
	return s.cache.Stats()
}

// HandleInvocation runs one chat message through the bot: ignore it, answer
// with help, acknowledge a query, or pick a quote and send it.
//
// An empty cache is returned as domain.ErrEmptyCache so the caller can decline
// politely. Send failures are logged and returned.
func (s *QuoteService) HandleInvocation(ctx context.Context, inv Invocation) (InvocationResult, error) {
	if inv.AuthorIsBot {
		return InvocationResult{Outcome: OutcomeIgnored}, nil
	}

	query, ok := s.matcher.Match(inv.Content)
	if !ok {
		if !inv.Private {
			return InvocationResult{Outcome: OutcomeIgnored}, nil
		}

		if err := s.sendText(ctx, inv.ChannelID, HelpText); err != nil {
			return InvocationResult{}, err
		}

		return InvocationResult{Outcome: OutcomeHelp, Reply: HelpText}, nil
	}

	if query != "" {
		s.logger.DebugContext(ctx, "quote query is not supported, ignoring",
			slog.String("query", query),
		)

		return InvocationResult{Outcome: OutcomeQueryUnsupported, Query: query}, nil
	}

	quote, err := s.GetRandomQuote(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "declining invocation",
			slog.String("channel_id", inv.ChannelID),
			slog.Any("error", err),
		)

		return InvocationResult{}, err
	}

	msg := domain.NewQuoteMessage(quote)
	result := InvocationResult{Outcome: OutcomeRendered, Quote: &msg}

	if s.sender == nil {
		return result, nil
	}

	if err := s.sender.SendQuote(ctx, inv.ChannelID, msg); err != nil {
		s.logger.ErrorContext(ctx, "failed to send quote",
			slog.String("channel_id", inv.ChannelID),
			slog.Any("error", err),
		)

		return InvocationResult{}, fmt.Errorf("sending quote: %w", err)
	}

	s.logger.InfoContext(ctx, "sent quote",
		slog.String("channel_id", inv.ChannelID),
		slog.String("year", quote.Year),
		slog.String("month", quote.Month),
	)

	result.Outcome = OutcomeSent

	return result, nil
}

func (s *QuoteService) sendText(ctx context.Context, channelID, text string) error {
	if s.sender == nil {
		return nil
	}

	if err := s.sender.SendText(ctx, channelID, text); err != nil {
		s.logger.ErrorContext(ctx, "failed to send help text",
			slog.String("channel_id", channelID),
			slog.Any("error", err),
		)

		return fmt.Errorf("sending help text: %w", err)
	}

	return nil
}
