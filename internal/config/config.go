// Package config loads and validates client config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environments selecting the default API base URL.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config holds client configuration loaded from the environment.
type Config struct {
	// Env is the application mode ("development" or "production"); picks the default API base URL.
	Env string `mapstructure:"APP_ENV"`
	// APIBaseURL overrides the mode default when set.
	APIBaseURL string `mapstructure:"API_BASE_URL"`
	// APIDevURL is the local development API address.
	APIDevURL string `mapstructure:"API_DEV_URL"`
	// APIProdURL is the deployed API address.
	APIProdURL string `mapstructure:"API_PROD_URL"`
	// HTTPTimeout bounds a single HTTP exchange (e.g. "15s").
	HTTPTimeout string `mapstructure:"HTTP_TIMEOUT"`

	// StorageDriver is where the session is persisted: sqlite, postgres, or memory.
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	// StorageDSN is the sqlite file path or Postgres DSN.
	StorageDSN string `mapstructure:"STORAGE_DSN"`
	// StorageEncryptionKey is an optional base64 32-byte key; when set, persisted values are sealed.
	StorageEncryptionKey string `mapstructure:"STORAGE_ENCRYPTION_KEY"`

	// QueryStaleTime is how long fetched data is considered fresh (e.g. "30s").
	QueryStaleTime string `mapstructure:"QUERY_STALE_TIME"`
	// QueryRetryCount is how many times a read is retried after a network or 5xx failure.
	QueryRetryCount int `mapstructure:"QUERY_RETRY_COUNT"`
	// QueryRetryDelay is the fixed delay between read retries (e.g. "1s").
	QueryRetryDelay string `mapstructure:"QUERY_RETRY_DELAY"`
	// SearchDebounce is the quiet period before a search input triggers a fetch (e.g. "300ms").
	SearchDebounce string `mapstructure:"SEARCH_DEBOUNCE"`
	// RefreshSkew refreshes an access token this long before its exp; "0s" disables proactive refresh.
	RefreshSkew string `mapstructure:"TOKEN_REFRESH_SKEW"`

	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext to the collector even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("API_BASE_URL", "")
	v.SetDefault("API_DEV_URL", "http://localhost:8000/api")
	v.SetDefault("API_PROD_URL", "https://event-management-systems-alpha.vercel.app/api")
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("STORAGE_DRIVER", "sqlite")
	v.SetDefault("STORAGE_DSN", "eventctl.db")
	v.SetDefault("STORAGE_ENCRYPTION_KEY", "")
	v.SetDefault("QUERY_STALE_TIME", "30s")
	v.SetDefault("QUERY_RETRY_COUNT", 3)
	v.SetDefault("QUERY_RETRY_DELAY", "1s")
	v.SetDefault("SEARCH_DEBOUNCE", "300ms")
	v.SetDefault("TOKEN_REFRESH_SKEW", "10s")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env != EnvDevelopment && cfg.Env != EnvProduction {
		return nil, fmt.Errorf("config: APP_ENV must be %s or %s, got %q", EnvDevelopment, EnvProduction, cfg.Env)
	}

	switch cfg.StorageDriver {
	case "sqlite", "postgres", "memory":
	default:
		return nil, fmt.Errorf("config: STORAGE_DRIVER must be sqlite, postgres, or memory, got %q", cfg.StorageDriver)
	}
	if cfg.StorageDriver != "memory" && strings.TrimSpace(cfg.StorageDSN) == "" {
		return nil, errors.New("config: STORAGE_DSN must be set for sqlite and postgres storage")
	}

	if cfg.QueryRetryCount < 0 || cfg.QueryRetryCount > 10 {
		return nil, errors.New("config: QUERY_RETRY_COUNT must be between 0 and 10")
	}

	if cfg.BaseURL() == "" {
		return nil, errors.New("config: API base URL is empty")
	}

	return &cfg, nil
}

// BaseURL returns API_BASE_URL when set, otherwise the production or development address for Env.
func (c *Config) BaseURL() string {
	if u := strings.TrimSpace(c.APIBaseURL); u != "" {
		return strings.TrimRight(u, "/")
	}
	if c.Env == EnvProduction {
		return strings.TrimRight(c.APIProdURL, "/")
	}
	return strings.TrimRight(c.APIDevURL, "/")
}

// StaleTime parses QueryStaleTime. Returns 30s if unset or invalid.
func (c *Config) StaleTime() time.Duration {
	return parseDuration(c.QueryStaleTime, 30*time.Second, false)
}

// RetryDelay parses QueryRetryDelay. Returns 1s if unset or invalid; 0 is allowed.
func (c *Config) RetryDelay() time.Duration {
	return parseDuration(c.QueryRetryDelay, time.Second, true)
}

// Debounce parses SearchDebounce. Returns 300ms if unset or invalid.
func (c *Config) Debounce() time.Duration {
	return parseDuration(c.SearchDebounce, 300*time.Millisecond, false)
}

// Timeout parses HTTPTimeout. Returns 15s if unset or invalid.
func (c *Config) Timeout() time.Duration {
	return parseDuration(c.HTTPTimeout, 15*time.Second, false)
}

// Skew parses RefreshSkew. Returns 10s if unset or invalid; 0 disables proactive refresh.
func (c *Config) Skew() time.Duration {
	return parseDuration(c.RefreshSkew, 10*time.Second, true)
}

func parseDuration(s string, fallback time.Duration, allowZero bool) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return fallback
	}
	return d
}
