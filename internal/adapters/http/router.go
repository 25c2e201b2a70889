package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-cache-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-cache-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quote-cache-service/internal/platform/config"
	"github.com/jsamuelsen/quote-cache-service/internal/platform/telemetry"
)

// DefaultRequestTimeout bounds /api/v1 requests. It has to exceed the
// quote fetch timeout because an expired cache refreshes inline.
const DefaultRequestTimeout = 30 * time.Second

const defaultServiceName = "quote-cache-service"

// RouterConfig lists what SetupRouter mounts. Nil handlers are skipped.
type RouterConfig struct {
	Logger            *slog.Logger
	AppConfig         *config.AppConfig
	HealthHandler     *handlers.HealthHandler
	QuoteHandler      *handlers.QuoteHandler
	InvocationHandler *handlers.InvocationHandler

	// InvocationToken is the bearer token the gateway must present on
	// /api/v1/invocations. Empty leaves the endpoint open.
	InvocationToken string

	// Timeout applies to /api/v1 only. Zero disables it.
	Timeout time.Duration
}

// NewDefaultRouterConfig returns a config with DefaultRequestTimeout and no
// API handlers.
func NewDefaultRouterConfig(
	logger *slog.Logger,
	appCfg *config.AppConfig,
	healthHandler *handlers.HealthHandler,
) RouterConfig {
	return RouterConfig{
		Logger:        logger,
		AppConfig:     appCfg,
		HealthHandler: healthHandler,
		Timeout:       DefaultRequestTimeout,
	}
}

func (cfg RouterConfig) serviceName() string {
	if cfg.AppConfig == nil || cfg.AppConfig.Name == "" {
		return defaultServiceName
	}

	return cfg.AppConfig.Name
}

// SetupRouter installs the global middleware and every configured route.
//
// Global chain, outermost first: recovery, request ID, correlation ID,
// otelgin tracing, request metrics, access log. /-/ carries no auth and no
// timeout so health routes stay cheap.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	name := cfg.serviceName()

	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(name),
		telemetry.Middleware(name),
		middleware.Logging(cfg.Logger),
	)

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(engine.Group("/-"))
	}

	api := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		api.Use(middleware.Timeout(cfg.Timeout))
	}

	if cfg.QuoteHandler != nil {
		cfg.QuoteHandler.RegisterQuoteRoutes(api)
	}

	if cfg.InvocationHandler != nil {
		cfg.InvocationHandler.RegisterInvocationRoutes(
			api.Group("", middleware.RequireBearerToken(cfg.InvocationToken)),
		)
	}
}
