package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a configuration that passes Validate.
func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "quote-cache-service",
			Version:     "1.0.0",
			Environment: "local",
		},
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxRequestSize:  1 << 20,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Quotes: QuotesConfig{
			SourceURL:        "https://quotes.example/quotes.json",
			TTL:              30 * time.Minute,
			FetchTimeout:     15 * time.Second,
			MaxDocumentBytes: 8 << 20,
		},
		Client: ClientConfig{
			Timeout: 15 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:     3,
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     5 * time.Second,
				Multiplier:      2.0,
				JitterFactor:    0.25,
			},
			CircuitBreaker: CircuitBreakerConfig{
				MaxFailures:   5,
				Timeout:       30 * time.Second,
				HalfOpenLimit: 3,
			},
			Transport: TransportConfig{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   []string // substrings of the error; empty means valid
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:   "app name required",
			mutate: func(c *Config) { c.App.Name = "" },
			want:   []string{"app.name is required"},
		},
		{
			name:   "unknown environment",
			mutate: func(c *Config) { c.App.Environment = "staging" },
			want:   []string{"app.environment must be one of: local dev qa prod test"},
		},
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			want:   []string{"server.port must be at most 65535"},
		},
		{
			name:   "trace level accepted",
			mutate: func(c *Config) { c.Log.Level = "trace" },
		},
		{
			name:   "pretty format accepted",
			mutate: func(c *Config) { c.Log.Format = "pretty" },
		},
		{
			name:   "unknown log format",
			mutate: func(c *Config) { c.Log.Format = "xml" },
			want:   []string{"log.format must be one of"},
		},
		{
			name:   "log file needs a path",
			mutate: func(c *Config) { c.Log.File = LogFileConfig{Enabled: true} },
			want:   []string{"log.file.path is required when Enabled true"},
		},
		{
			name:   "log file size capped",
			mutate: func(c *Config) { c.Log.File = LogFileConfig{Enabled: true, Path: "x.log", MaxSizeMB: 4096} },
			want:   []string{"log.file.max_size must be at most 1024"},
		},
		{
			name:   "telemetry needs endpoint when enabled",
			mutate: func(c *Config) { c.Telemetry = TelemetryConfig{Enabled: true, ServiceName: "svc", SamplingRate: 1} },
			want:   []string{"telemetry.endpoint is required when"},
		},
		{
			name:   "sampling rate above one",
			mutate: func(c *Config) { c.Telemetry.SamplingRate = 1.5 },
			want:   []string{"telemetry.sampling_rate must be at most 1"},
		},
		{
			name:   "source url required",
			mutate: func(c *Config) { c.Quotes.SourceURL = "" },
			want:   []string{"quotes.source_url is required"},
		},
		{
			name:   "source url must be a url",
			mutate: func(c *Config) { c.Quotes.SourceURL = "not a url" },
			want:   []string{"quotes.source_url must be a valid URL"},
		},
		{
			name:   "zero ttl refreshes every read",
			mutate: func(c *Config) { c.Quotes.TTL = 0 },
		},
		{
			name:   "fetch timeout minimum",
			mutate: func(c *Config) { c.Quotes.FetchTimeout = 500 * time.Millisecond },
			want:   []string{"quotes.fetch_timeout must be at least 1s"},
		},
		{
			name:   "document cap required",
			mutate: func(c *Config) { c.Quotes.MaxDocumentBytes = 0 },
			want:   []string{"quotes.max_document_bytes is required"},
		},
		{
			name:   "gateway disabled needs nothing",
			mutate: func(c *Config) { c.Gateway = GatewayConfig{InvocationToken: "shared"} },
		},
		{
			name:   "gateway enabled needs a token",
			mutate: func(c *Config) { c.Gateway = GatewayConfig{Enabled: true, BaseURL: DefaultGatewayBaseURL} },
			want:   []string{"gateway.token is required when"},
		},
		{
			name:   "gateway enabled needs a base url",
			mutate: func(c *Config) { c.Gateway = GatewayConfig{Enabled: true, Token: "secret"} },
			want:   []string{"gateway.base_url is required when"},
		},
		{
			name: "gateway enabled",
			mutate: func(c *Config) {
				c.Gateway = GatewayConfig{Enabled: true, BaseURL: DefaultGatewayBaseURL, Token: "secret", BotUserID: "4242"}
			},
		},
		{
			name:   "client timeout minimum",
			mutate: func(c *Config) { c.Client.Timeout = 50 * time.Millisecond },
			want:   []string{"client.timeout must be at least 100ms"},
		},
		{
			name:   "retry attempts capped",
			mutate: func(c *Config) { c.Client.Retry.MaxAttempts = 11 },
			want:   []string{"client.retry.max_attempts must be at most 10"},
		},
		{
			name:   "multiplier minimum",
			mutate: func(c *Config) { c.Client.Retry.Multiplier = 1.0 },
			want:   []string{"client.retry.multiplier must be at least 1.1"},
		},
		{
			name:   "breaker needs failures",
			mutate: func(c *Config) { c.Client.CircuitBreaker.MaxFailures = 0 },
			want:   []string{"client.circuit_breaker.max_failures is required"},
		},
		{
			name: "every tag failure is reported",
			mutate: func(c *Config) {
				c.App.Name = ""
				c.App.Version = ""
				c.Quotes.SourceURL = ""
			},
			want: []string{"app.name", "app.version", "quotes.source_url"},
		},
		{
			name: "retry intervals inverted",
			mutate: func(c *Config) {
				c.Client.Retry.InitialInterval = 2 * time.Second
				c.Client.Retry.MaxInterval = time.Second
			},
			want: []string{"client.retry.max_interval (1s) is below client.retry.initial_interval (2s)"},
		},
		{
			name:   "fetch timeout must fit in a response",
			mutate: func(c *Config) { c.Quotes.FetchTimeout = time.Minute },
			want:   []string{"quotes.fetch_timeout (1m0s) must be below server.write_timeout (30s)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if len(tt.want) == 0 {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrInvalid)

			for _, want := range tt.want {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestConfig_Validate_Defaults(t *testing.T) {
	t.Setenv("APP_QUOTES_SOURCE_URL", "https://quotes.example/quotes.json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.NoError(t, cfg.Validate(), "defaults plus a source URL must be a runnable config")
}

func TestKeyPath(t *testing.T) {
	tests := map[string]string{
		"Config.quotes.source_url":       "quotes.source_url",
		"Config.client.retry.Multiplier": "client.retry.multiplier",
		"Config":                         "config",
	}

	for in, want := range tests {
		assert.Equal(t, want, keyPath(in), in)
	}
}

func TestDescribe_OneLinePerField(t *testing.T) {
	cfg := validConfig()
	cfg.App.Name = ""
	cfg.Server.Host = ""

	err := cfg.Validate()
	require.Error(t, err)

	lines := strings.Split(err.Error(), "\n")
	assert.Equal(t, []string{"invalid config:", "app.name is required", "server.host is required"}, lines)
}
