package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/jsamuelsen/quote-cache-service/internal/domain"
	"github.com/jsamuelsen/quote-cache-service/internal/ports"
)

const (
	instrumentationName = "github.com/jsamuelsen/quote-cache-service/internal/app"

	quoteCacheName = "quote-cache"

	// DefaultFetchTimeout bounds a refresh when the config leaves it unset.
	DefaultFetchTimeout = 15 * time.Second
)

// QuoteCacheConfig contains the dependencies and policy of a QuoteCache.
type QuoteCacheConfig struct {
	Source ports.QuoteSource

	// TTL is the minimum time between refresh attempts. Zero refreshes on
	// every call.
	TTL time.Duration

	// FetchTimeout bounds a single refresh. Defaults to DefaultFetchTimeout.
	FetchTimeout time.Duration

	Logger *slog.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// CacheStats is a point-in-time view of the cache. Reading it never
// triggers a refresh.
type CacheStats struct {
	Loaded             bool
	Size               int
	Years              int
	TTL                time.Duration
	LastRefreshAttempt time.Time
	LastRefreshSuccess time.Time
	RefreshSuccesses   uint64
	RefreshFailures    uint64
	LastError          string
}

// QuoteCache owns the current quote snapshot and refreshes it lazily from
// its source once the TTL has elapsed.
//
// Refresh happens inline on the caller of Quotes. A failed refresh keeps the
// previous snapshot and the next attempt waits a full TTL.
type QuoteCache struct {
	// mu serializes the staleness check, the fetch and the snapshot swap.
	mu sync.Mutex

	// stateMu guards the fields below for readers that must not wait on a
	// fetch. Writers hold both locks.
	stateMu     sync.RWMutex
	lastRefresh time.Time
	lastSuccess time.Time
	snapshot    *domain.QuoteCollection
	successes   uint64
	failures    uint64
	lastErr     string

	source       ports.QuoteSource
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	logger       *slog.Logger
	refreshes    metric.Int64Counter
}

// NewQuoteCache creates an empty cache. The first call to Quotes or Prime
// refreshes it. Panics if Source is nil.
func NewQuoteCache(cfg QuoteCacheConfig) *QuoteCache {
	if cfg.Source == nil {
		panic("QuoteCache: Source is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}

	refreshes, err := otel.Meter(instrumentationName).Int64Counter(
		"quote_cache.refresh.total",
		metric.WithDescription("Quote cache refresh attempts by result"),
	)
	if err != nil {
		logger.Warn("quote cache refresh counter unavailable", slog.Any("error", err))
		refreshes = noop.Int64Counter{}
	}

	return &QuoteCache{
		source:       cfg.Source,
		ttl:          max(cfg.TTL, 0),
		fetchTimeout: fetchTimeout,
		now:          now,
		logger:       logger.With(slog.String("component", "app.QuoteCache")),
		refreshes:    refreshes,
	}
}

// Prime performs the initial population. Unlike a lazy refresh, a failure is
// returned to the caller: a *domain.FetchError when the source could not be
// reached, a *domain.MalformedDocumentError when the document is broken.
func (c *QuoteCache) Prime(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refresh(ctx, c.now()); err != nil {
		return fmt.Errorf("priming quote cache from %s: %w", c.source.Location(), err)
	}

	return nil
}

// Quotes returns the current snapshot, refreshing it first when the TTL has
// elapsed. Refresh failures are logged and the previous snapshot is served.
// Returns domain.ErrEmptyCache if no refresh has ever succeeded.
func (c *QuoteCache) Quotes(ctx context.Context) (*domain.QuoteCollection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastRefresh) >= c.ttl {
		c.logger.InfoContext(ctx, "quote cache expired, refreshing",
			slog.String("source", c.source.Location()),
		)

		// Errors are already logged and counted; the stale snapshot stands.
		_ = c.refresh(ctx, now)
	}

	if c.snapshot == nil {
		return nil, domain.ErrEmptyCache
	}

	return c.snapshot, nil
}

// refresh fetches a new snapshot. The attempt time is recorded before the
// fetch so a failing source is retried only after a full TTL.
// Must be called with mu held.
func (c *QuoteCache) refresh(ctx context.Context, now time.Time) error {
	c.stateMu.Lock()
	c.lastRefresh = now
	c.stateMu.Unlock()

	// The refresh outlives a caller that hangs up: its result is shared, and
	// a canceled attempt would still hold off the next one for a full TTL.
	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
	defer cancel()

	collection, err := c.source.FetchQuotes(fetchCtx)
	if err == nil && collection == nil {
		err = domain.NewMalformedDocumentError("source returned no collection", nil)
	}

	if err != nil {
		c.stateMu.Lock()
		c.failures++
		c.lastErr = err.Error()
		c.stateMu.Unlock()

		c.refreshes.Add(ctx, 1, metric.WithAttributes(
			attribute.String("result", "failure"),
			attribute.Bool("malformed", domain.IsMalformedDocument(err)),
		))
		c.logger.ErrorContext(ctx, "quote cache refresh failed, keeping previous snapshot",
			slog.String("source", c.source.Location()),
			slog.Bool("has_snapshot", c.snapshot != nil),
			slog.Any("error", err),
		)

		return err
	}

	c.stateMu.Lock()
	c.snapshot = collection
	c.lastSuccess = now
	c.successes++
	c.lastErr = ""
	c.stateMu.Unlock()

	c.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "success")))
	c.logger.InfoContext(ctx, "quote cache refreshed",
		slog.Int("quotes", collection.Size()),
		slog.Int("years", len(collection.YearLabels())),
	)

	return nil
}

// Stats returns the cache bookkeeping without waiting on an in-flight refresh.
func (c *QuoteCache) Stats() CacheStats {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	return CacheStats{
		Loaded:             c.snapshot != nil,
		Size:               c.snapshot.Size(),
		Years:              len(c.snapshot.YearLabels()),
		TTL:                c.ttl,
		LastRefreshAttempt: c.lastRefresh,
		LastRefreshSuccess: c.lastSuccess,
		RefreshSuccesses:   c.successes,
		RefreshFailures:    c.failures,
		LastError:          c.lastErr,
	}
}

// Name returns the health check name.
// Implements ports.HealthChecker.
func (c *QuoteCache) Name() string {
	return quoteCacheName
}

// Check reports unhealthy until a snapshot has been loaded. It never
// triggers a refresh.
// Implements ports.HealthChecker.
func (c *QuoteCache) Check(_ context.Context) error {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	if c.snapshot == nil {
		return domain.ErrEmptyCache
	}

	return nil
}
