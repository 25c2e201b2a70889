package acl

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-cache-service/internal/domain"
	"github.com/jsamuelsen/quote-cache-service/internal/platform/logging"
)

const quoteSourceName = "quote-source"

// QuoteSourceConfig contains configuration for the quote source adapter.
type QuoteSourceConfig struct {
	// Client is the HTTP client. Its BaseURL must be the full document URL.
	Client *clients.Client

	// MaxDocumentBytes caps the document size. Zero disables the cap.
	MaxDocumentBytes int64

	Logger *slog.Logger
}

// QuoteSource implements ports.QuoteSource by fetching the quote document
// over HTTP and translating it with ParseQuoteDocument.
type QuoteSource struct {
	BaseAdapter

	location string
	maxBytes int64
	logger   *slog.Logger
}

// NewQuoteSource creates a new quote source adapter.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewQuoteSource(cfg QuoteSourceConfig, location string) *QuoteSource {
	if cfg.Client == nil {
		panic("QuoteSource: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteSource{
		BaseAdapter: NewBaseAdapter(cfg.Client, quoteSourceName),
		location:    redactLocation(location),
		maxBytes:    cfg.MaxDocumentBytes,
		logger:      logger,
	}
}

// FetchQuotes performs one GET of the document and parses it.
// Transport and HTTP failures come back as *domain.FetchError; a document
// with the wrong top-level shape as *domain.MalformedDocumentError.
// Implements ports.QuoteSource.
func (s *QuoteSource) FetchQuotes(ctx context.Context) (*domain.QuoteCollection, error) {
	s.logger.Log(ctx, logging.LevelTrace, "starting request", slog.String("source", s.location))

	body, err := s.Get(ctx, "", "fetch quotes")
	if err != nil {
		return nil, domain.NewFetchError(s.location, err)
	}

	raw, err := ReadLimited(body, s.maxBytes)
	if err != nil {
		return nil, domain.NewFetchError(s.location, err)
	}

	s.logger.Log(ctx, logging.LevelTrace, "request complete",
		slog.String("source", s.location),
		slog.Int("bytes", len(raw)))

	collection, count, err := ParseQuoteDocument(raw)
	if err != nil {
		return nil, err
	}

	s.logger.Log(ctx, logging.LevelTrace, "translated quote document",
		slog.Int("years", len(collection.YearLabels())),
		slog.Int("quotes", count))

	return collection, nil
}

// Location returns the document URL with any credentials redacted.
// Implements ports.QuoteSource.
func (s *QuoteSource) Location() string {
	return s.location
}

func redactLocation(location string) string {
	u, err := url.Parse(location)
	if err != nil {
		return location
	}

	return u.Redacted()
}
