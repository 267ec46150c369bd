package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvDevelopment)
	}
	if cfg.BaseURL() != "http://localhost:8000/api" {
		t.Errorf("BaseURL = %q, want dev default", cfg.BaseURL())
	}
	if cfg.StorageDriver != "sqlite" {
		t.Errorf("StorageDriver = %q, want sqlite", cfg.StorageDriver)
	}
	if cfg.StorageDSN != "eventctl.db" {
		t.Errorf("StorageDSN = %q, want eventctl.db", cfg.StorageDSN)
	}
	if cfg.QueryRetryCount != 3 {
		t.Errorf("QueryRetryCount = %d, want 3", cfg.QueryRetryCount)
	}
	if cfg.StaleTime() != 30*time.Second {
		t.Errorf("StaleTime = %v, want 30s", cfg.StaleTime())
	}
	if cfg.RetryDelay() != time.Second {
		t.Errorf("RetryDelay = %v, want 1s", cfg.RetryDelay())
	}
	if cfg.Debounce() != 300*time.Millisecond {
		t.Errorf("Debounce = %v, want 300ms", cfg.Debounce())
	}
	if cfg.Timeout() != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Timeout())
	}
	if cfg.OTLPEndpoint != "" {
		t.Errorf("OTLPEndpoint = %q, want empty", cfg.OTLPEndpoint)
	}
}

func TestLoad_ProductionBaseURL(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL() != "https://event-management-systems-alpha.vercel.app/api" {
		t.Errorf("BaseURL = %q, want production default", cfg.BaseURL())
	}
}

func TestLoad_BaseURLOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")
	os.Setenv("API_BASE_URL", "https://staging.example.com/api/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL() != "https://staging.example.com/api" {
		t.Errorf("BaseURL = %q, want override without trailing slash", cfg.BaseURL())
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("STORAGE_DRIVER", "postgres")
	os.Setenv("STORAGE_DSN", "postgres://u:p@localhost:5432/client")
	os.Setenv("QUERY_RETRY_COUNT", "0")
	os.Setenv("QUERY_RETRY_DELAY", "0s")
	os.Setenv("SEARCH_DEBOUNCE", "50ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StorageDriver != "postgres" {
		t.Errorf("StorageDriver = %q, want postgres", cfg.StorageDriver)
	}
	if cfg.QueryRetryCount != 0 {
		t.Errorf("QueryRetryCount = %d, want 0", cfg.QueryRetryCount)
	}
	if cfg.RetryDelay() != 0 {
		t.Errorf("RetryDelay = %v, want 0", cfg.RetryDelay())
	}
	if cfg.Debounce() != 50*time.Millisecond {
		t.Errorf("Debounce = %v, want 50ms", cfg.Debounce())
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "staging")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail for unknown APP_ENV")
	}
}

func TestLoad_InvalidStorageDriver(t *testing.T) {
	os.Clearenv()
	os.Setenv("STORAGE_DRIVER", "redis")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail for unknown STORAGE_DRIVER")
	}
}

func TestLoad_RetryCountBounds(t *testing.T) {
	os.Clearenv()
	os.Setenv("QUERY_RETRY_COUNT", "11")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail for QUERY_RETRY_COUNT > 10")
	}
}

func TestDurations_InvalidFallBack(t *testing.T) {
	cfg := &Config{
		QueryStaleTime:  "soon",
		QueryRetryDelay: "-1s",
		SearchDebounce:  "0s",
		HTTPTimeout:     "",
		RefreshSkew:     "0s",
	}
	if cfg.StaleTime() != 30*time.Second {
		t.Errorf("StaleTime = %v, want fallback 30s", cfg.StaleTime())
	}
	if cfg.RetryDelay() != time.Second {
		t.Errorf("RetryDelay = %v, want fallback 1s", cfg.RetryDelay())
	}
	if cfg.Debounce() != 300*time.Millisecond {
		t.Errorf("Debounce = %v, want fallback 300ms", cfg.Debounce())
	}
	if cfg.Timeout() != 15*time.Second {
		t.Errorf("Timeout = %v, want fallback 15s", cfg.Timeout())
	}
	if cfg.Skew() != 0 {
		t.Errorf("Skew = %v, want 0 (disabled)", cfg.Skew())
	}
}
