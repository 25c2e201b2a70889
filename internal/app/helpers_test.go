package app

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jsamuelsen/quote-cache-service/internal/domain"
)

const testLocation = "http://quotes.test/quotes.json"

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// collectionOf builds a single-year, single-month collection.
func collectionOf(year, month string, texts ...string) *domain.QuoteCollection {
	quotes := make([]domain.Quote, 0, len(texts))
	for _, text := range texts {
		quotes = append(quotes, domain.Quote{Year: year, Month: month, Text: text})
	}

	return domain.NewQuoteCollection(map[string]*domain.QuoteYear{
		year: {Months: map[string]*domain.QuoteMonth{month: {Quotes: quotes}}},
	})
}

// fixedIndex always selects the same index.
type fixedIndex int

func (f fixedIndex) IntN(n int) int {
	return min(int(f), n-1)
}
