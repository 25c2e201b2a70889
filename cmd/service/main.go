// Package main is the entry point for the quote cache service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/clients"
	"github.com/jsamuelsen/quote-cache-service/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-cache-service/internal/adapters/http"
	"github.com/jsamuelsen/quote-cache-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-cache-service/internal/app"
	"github.com/jsamuelsen/quote-cache-service/internal/platform/config"
	"github.com/jsamuelsen/quote-cache-service/internal/platform/logging"
	"github.com/jsamuelsen/quote-cache-service/internal/platform/telemetry"
	"github.com/jsamuelsen/quote-cache-service/internal/ports"
)

// Set with -ldflags "-X main.Version=... -X main.Commit=... -X main.BuildTime=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := newLogger(cfg)
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.Duration("quote_ttl", cfg.Quotes.TTL),
	)

	tel, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		Insecure:     cfg.Telemetry.Insecure,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		// ctx is canceled by now; flushing gets its own budget.
		if err := tel.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", err))
		}
	}()

	source, err := newQuoteSource(cfg, logger)
	if err != nil {
		return err
	}

	cache := app.NewQuoteCache(app.QuoteCacheConfig{
		Source:       source,
		TTL:          cfg.Quotes.TTL,
		FetchTimeout: cfg.Quotes.FetchTimeout,
		Logger:       logger,
	})

	// Nothing to serve without one good load.
	if err := cache.Prime(ctx); err != nil {
		return err
	}

	// Downstream circuits show up in metrics only. The service stays ready
	// as long as the cache holds a snapshot, stale or not.
	downstreams := []*clients.Client{source.Client()}

	var sender ports.MessageSender

	if cfg.Gateway.Enabled {
		chat, err := newChatSender(cfg, logger)
		if err != nil {
			return err
		}

		sender = chat
		downstreams = append(downstreams, chat.Client())
	} else {
		logger.Info("chat gateway disabled, invocations are rendered but not sent")
	}

	health := ports.NewHealthRegistry(ports.DefaultCheckTimeout)
	if err := health.Register(cache); err != nil {
		return fmt.Errorf("registering %s health check: %w", cache.Name(), err)
	}

	quotes := app.NewQuoteService(app.QuoteServiceConfig{
		Cache:     cache,
		Sender:    sender,
		BotUserID: cfg.Gateway.BotUserID,
		Logger:    logger,
	})

	metrics := prometheus.NewRegistry()
	metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		app.NewCacheCollector(cache),
		clients.NewCircuitCollector(downstreams...),
	)

	server := http.New(&cfg.Server, logger)

	routes := http.NewDefaultRouterConfig(logger, &cfg.App,
		handlers.NewHealthHandler(health, handlers.NewBuildInfo(Version, Commit, BuildTime)).WithGatherer(metrics))
	routes.QuoteHandler = handlers.NewQuoteHandler(quotes)
	routes.InvocationHandler = handlers.NewInvocationHandler(quotes)
	routes.InvocationToken = cfg.Gateway.InvocationToken
	// An expired cache refreshes inside the request.
	routes.Timeout = max(http.DefaultRequestTimeout, cfg.Quotes.FetchTimeout+5*time.Second)
	http.SetupRouter(server.Engine(), routes)

	return serve(ctx, logger, server, cfg.Server.ShutdownTimeout)
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
}

// newQuoteSource builds the HTTP client for the quote document and wraps it
// in the ACL adapter.
func newQuoteSource(cfg *config.Config, logger *slog.Logger) (*acl.QuoteSource, error) {
	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Quotes.SourceURL,
		ServiceName: "quote-source",
		Timeout:     min(cfg.Client.Timeout, cfg.Quotes.FetchTimeout),
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating quote source client: %w", err)
	}

	return acl.NewQuoteSource(acl.QuoteSourceConfig{
		Client:           httpClient,
		MaxDocumentBytes: cfg.Quotes.MaxDocumentBytes,
		Logger:           logger,
	}, cfg.Quotes.SourceURL), nil
}

// newChatSender builds the client for the chat REST API.
func newChatSender(cfg *config.Config, logger *slog.Logger) (*acl.ChatSender, error) {
	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Gateway.BaseURL,
		ServiceName: "chat-gateway",
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		AuthFunc:    acl.BotAuthorization(cfg.Gateway.Token),
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat gateway client: %w", err)
	}

	return acl.NewChatSender(httpClient, logger), nil
}

// serve runs the server until ctx is canceled by a signal or the server
// fails, then drains in-flight requests within shutdownTimeout.
func serve(ctx context.Context, logger *slog.Logger, server *http.Server, shutdownTimeout time.Duration) error {
	serverErr := server.Start()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("received shutdown signal", slog.Duration("timeout", shutdownTimeout))
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}
