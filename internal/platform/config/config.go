// Package config loads the service configuration with koanf and validates it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Quote source and delivery defaults.
const (
	// DefaultQuoteTTL is how long a snapshot is served before the next read
	// refreshes it.
	DefaultQuoteTTL = 30 * time.Minute

	// DefaultQuoteFetchTimeout bounds one download of the quote document.
	DefaultQuoteFetchTimeout = 15 * time.Second

	// DefaultMaxDocumentBytes caps the quote document at 8MB.
	DefaultMaxDocumentBytes = 8 << 20

	// DefaultGatewayBaseURL is the chat REST API that receives quotes.
	DefaultGatewayBaseURL = "https://discord.com/api/v10"
)

// Server, client and log file defaults.
const (
	// DefaultServerPort is the HTTP listen port.
	DefaultServerPort = 8080

	// DefaultMaxRequestSize caps request bodies at 1MB.
	DefaultMaxRequestSize = 1 << 20

	// DefaultClientRetryMaxAttempts counts the first attempt.
	DefaultClientRetryMaxAttempts = 3

	// DefaultClientRetryMultiplier grows the backoff between attempts.
	DefaultClientRetryMultiplier = 2.0

	// DefaultClientRetryJitterFactor randomizes each backoff by ±25%.
	DefaultClientRetryJitterFactor = 0.25

	// DefaultClientCircuitMaxFailures is the run of failures that opens a circuit.
	DefaultClientCircuitMaxFailures = 5

	// DefaultClientCircuitHalfOpenLimit is the number of trial successes that
	// close it again.
	DefaultClientCircuitHalfOpenLimit = 3

	// DefaultTransportMaxIdleConns bounds idle connections across hosts.
	DefaultTransportMaxIdleConns = 100

	// DefaultTransportMaxIdleConnsPerHost bounds idle connections to one host.
	DefaultTransportMaxIdleConnsPerHost = 10

	// DefaultLogFileMaxSizeMB rotates the log file at this size.
	DefaultLogFileMaxSizeMB = 100

	// DefaultLogFileMaxBackups is the number of rotated files kept.
	DefaultLogFileMaxBackups = 3

	// DefaultLogFileMaxAgeDays removes rotated files older than this.
	DefaultLogFileMaxAgeDays = 28
)

// Config is the root configuration structure.
type Config struct {
	App       AppConfig       `koanf:"app"       validate:"required"`
	Server    ServerConfig    `koanf:"server"    validate:"required"`
	Log       LogConfig       `koanf:"log"       validate:"required"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Quotes    QuotesConfig    `koanf:"quotes"    validate:"required"`
	Gateway   GatewayConfig   `koanf:"gateway"`
	Client    ClientConfig    `koanf:"client"    validate:"required"`
}

// AppConfig contains application-level settings.
type AppConfig struct {
	Name        string `koanf:"name"        validate:"required"`
	Version     string `koanf:"version"     validate:"required"`
	Environment string `koanf:"environment" validate:"required,oneof=local dev qa prod test"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"             validate:"required,min=1,max=65535"`
	Host            string        `koanf:"host"             validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"required,min=1s"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"required,min=1s"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"required,min=1s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,min=1s"`
	MaxRequestSize  int64         `koanf:"max_request_size" validate:"required,min=1"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string        `koanf:"level"  validate:"required,oneof=trace debug info warn error"`
	Format string        `koanf:"format" validate:"required,oneof=json text pretty"`
	File   LogFileConfig `koanf:"file"`
}

// LogFileConfig contains rolling log file settings.
type LogFileConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Path       string `koanf:"path"        validate:"required_if=Enabled true"`
	MaxSizeMB  int    `koanf:"max_size"    validate:"omitempty,min=1,max=1024"`
	MaxBackups int    `koanf:"max_backups" validate:"omitempty,min=0,max=100"`
	MaxAgeDays int    `koanf:"max_age"     validate:"omitempty,min=0,max=365"`
	Compress   bool   `koanf:"compress"`
}

// TelemetryConfig contains OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"      validate:"required_if=Enabled true"`
	Insecure     bool    `koanf:"insecure"`
	ServiceName  string  `koanf:"service_name"  validate:"required_if=Enabled true"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
}

// QuotesConfig describes the remote quote document and its cache policy.
type QuotesConfig struct {
	SourceURL        string        `koanf:"source_url"         validate:"required,url"`
	TTL              time.Duration `koanf:"ttl"                validate:"min=0s"`
	FetchTimeout     time.Duration `koanf:"fetch_timeout"      validate:"required,min=1s,max=5m"`
	MaxDocumentBytes int64         `koanf:"max_document_bytes" validate:"required,min=1"`
}

// GatewayConfig contains settings for the chat messaging collaborator.
type GatewayConfig struct {
	Enabled bool   `koanf:"enabled"`
	BaseURL string `koanf:"base_url" validate:"required_if=Enabled true,omitempty,url"`
	// Token authenticates outbound messages. Never logged.
	Token     string `koanf:"token"       validate:"required_if=Enabled true"`
	BotUserID string `koanf:"bot_user_id"`
	// InvocationToken, when set, must be presented as a bearer token on
	// the invocation endpoint.
	InvocationToken string `koanf:"invocation_token"`
}

// ClientConfig contains HTTP client settings for downstream services.
type ClientConfig struct {
	Timeout        time.Duration        `koanf:"timeout"         validate:"required,min=100ms"`
	Retry          RetryConfig          `koanf:"retry"           validate:"required"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker" validate:"required"`
	Transport      TransportConfig      `koanf:"transport"       validate:"required"`
}

// RetryConfig contains retry settings for HTTP clients.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"     validate:"required,min=1,max=10"`
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required,min=10ms"`
	MaxInterval     time.Duration `koanf:"max_interval"     validate:"required,min=100ms"`
	Multiplier      float64       `koanf:"multiplier"       validate:"required,min=1.1,max=10"`
	JitterFactor    float64       `koanf:"jitter_factor"    validate:"min=0,max=1"`
}

// CircuitBreakerConfig contains circuit breaker settings for HTTP clients.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"    validate:"required,min=1"`
	Timeout       time.Duration `koanf:"timeout"         validate:"required,min=1s"`
	HalfOpenLimit int           `koanf:"half_open_limit" validate:"required,min=1"`
}

// TransportConfig contains HTTP transport pool settings.
type TransportConfig struct {
	MaxIdleConns        int           `koanf:"max_idle_conns"          validate:"required,min=1"`
	MaxIdleConnsPerHost int           `koanf:"max_idle_conns_per_host" validate:"required,min=1"`
	IdleConnTimeout     time.Duration `koanf:"idle_conn_timeout"       validate:"required,min=1s"`
}

func defaults() map[string]any {
	return map[string]any{
		"app.name":        "quote-cache-service",
		"app.version":     "dev",
		"app.environment": "local",

		"server.port":             DefaultServerPort,
		"server.host":             "0.0.0.0",
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "10s",
		"server.max_request_size": DefaultMaxRequestSize,

		"log.level":            "info",
		"log.format":           "json",
		"log.file.enabled":     false,
		"log.file.path":        "./logs/app.log",
		"log.file.max_size":    DefaultLogFileMaxSizeMB,
		"log.file.max_backups": DefaultLogFileMaxBackups,
		"log.file.max_age":     DefaultLogFileMaxAgeDays,
		"log.file.compress":    true,

		"telemetry.enabled":       false,
		"telemetry.endpoint":      "",
		"telemetry.insecure":      true,
		"telemetry.service_name":  "quote-cache-service",
		"telemetry.sampling_rate": 1.0,

		"quotes.source_url":         "",
		"quotes.ttl":                DefaultQuoteTTL.String(),
		"quotes.fetch_timeout":      DefaultQuoteFetchTimeout.String(),
		"quotes.max_document_bytes": DefaultMaxDocumentBytes,

		"gateway.enabled":          false,
		"gateway.base_url":         DefaultGatewayBaseURL,
		"gateway.token":            "",
		"gateway.bot_user_id":      "",
		"gateway.invocation_token": "",

		"client.timeout":                           "15s",
		"client.retry.max_attempts":                DefaultClientRetryMaxAttempts,
		"client.retry.initial_interval":            "100ms",
		"client.retry.max_interval":                "5s",
		"client.retry.multiplier":                  DefaultClientRetryMultiplier,
		"client.retry.jitter_factor":               DefaultClientRetryJitterFactor,
		"client.circuit_breaker.max_failures":      DefaultClientCircuitMaxFailures,
		"client.circuit_breaker.timeout":           "30s",
		"client.circuit_breaker.half_open_limit":   DefaultClientCircuitHalfOpenLimit,
		"client.transport.max_idle_conns":          DefaultTransportMaxIdleConns,
		"client.transport.max_idle_conns_per_host": DefaultTransportMaxIdleConnsPerHost,
		"client.transport.idle_conn_timeout":       "90s",
	}
}

// Load layers the configuration sources, later ones winning:
//
//	defaults < configs/base.yaml < configs/{profile}.yaml < BOT_* < APP_*
//
// Missing files are skipped. The result is not validated; call Validate.
func Load(profile string) (*Config, error) {
	k := koanf.New(".")

	layers := []struct {
		name string
		load func() error
	}{
		{"defaults", func() error { return k.Load(confmap.Provider(defaults(), "."), nil) }},
		{"configs/base.yaml", func() error { return loadOptionalFile(k, "configs/base.yaml") }},
		{"profile " + profile, func() error {
			if profile == "" {
				return nil
			}

			return loadOptionalFile(k, "configs/"+profile+".yaml")
		}},
		{"BOT_ env", func() error { return loadLegacyEnv(k) }},
		{"APP_ env", func() error { return k.Load(env.Provider("APP_", ".", envKeyMapper(defaults())), nil) }},
	}

	for _, layer := range layers {
		if err := layer.load(); err != nil {
			return nil, fmt.Errorf("loading %s: %w", layer.name, err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// envKeyMapper maps APP_ variables onto config keys. Keys with underscores
// in a segment (APP_QUOTES_SOURCE_URL -> quotes.source_url) are resolved
// against the known keys; anything else has every underscore turned into a dot.
func envKeyMapper(known map[string]any) func(string) string {
	flat := make(map[string]string, len(known))
	for key := range known {
		flat[strings.ReplaceAll(key, ".", "_")] = key
	}

	return func(s string) string {
		name := strings.ToLower(strings.TrimPrefix(s, "APP_"))
		if key, ok := flat[name]; ok {
			return key
		}

		return strings.ReplaceAll(name, "_", ".")
	}
}

// loadLegacyEnv applies the BOT_ variables. A bot deployed with only
// BOT_TOKEN set expects to be connected, so a non-empty token also turns the
// gateway on; APP_GATEWAY_ENABLED, loaded later, can still turn it off.
func loadLegacyEnv(k *koanf.Koanf) error {
	if err := k.Load(env.ProviderWithValue("BOT_", ".", legacyEnv), nil); err != nil {
		return err
	}

	if os.Getenv("BOT_TOKEN") == "" {
		return nil
	}

	return k.Set("gateway.enabled", true)
}

// legacyEnv maps the bot's original environment variables onto config keys.
// BOT_REQ_DELAY is in milliseconds; unparsable values are ignored so the
// default TTL applies. Returning an empty key skips the variable.
func legacyEnv(key, value string) (string, any) {
	switch key {
	case "BOT_URL":
		return "quotes.source_url", value
	case "BOT_TOKEN":
		return "gateway.token", value
	case "BOT_REQ_DELAY":
		ms, err := strconv.ParseInt(value, 10, 64)
		if err != nil || ms < 0 {
			return "", nil
		}

		return "quotes.ttl", (time.Duration(ms) * time.Millisecond).String()
	default:
		return "", nil
	}
}

func loadOptionalFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return k.Load(file.Provider(path), yaml.Parser())
}
