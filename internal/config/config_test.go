package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configEnvVars = []string{
	"CONFIG_FILE", "DOTENV_FILE", "ENVIRONMENT", "PORT", "LOG_LEVEL",
	"GCP_PROJECT", "STORE_ID", "STORE_URL", "STORE_DOMAIN", "CURRENCY", "LOCALE",
	"TLS_FINGERPRINT", "REQUEST_TIMEOUT", "PRODUCT_CACHE_TTL",
	"PRODUCT_CACHE_ENTRIES", "PRODUCT_CACHE_DISABLED", "HYDRATION_CONCURRENCY",
	"STORAGE_BACKEND", "STORAGE_PATH", "REDIS_URL", "REDIS_NAMESPACE",
}

// clearEnv blanks every variable Load reads and points DOTENV_FILE at a
// missing file so the host environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvVars {
		t.Setenv(k, "")
	}
	t.Setenv("DOTENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STORE_URL", "https://shop.example.com")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CURRENCY", "eur")
	t.Setenv("LOCALE", "de-DE")
	t.Setenv("TLS_FINGERPRINT", "true")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("PRODUCT_CACHE_TTL", "2m")
	t.Setenv("PRODUCT_CACHE_ENTRIES", "50")
	t.Setenv("HYDRATION_CONCURRENCY", "4")
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.Store.StoreURL != "https://shop.example.com" {
		t.Errorf("StoreURL = %s, want https://shop.example.com", cfg.Store.StoreURL)
	}
	if cfg.Store.StoreDomain != "shop.example.com" {
		t.Errorf("StoreDomain = %s, want shop.example.com", cfg.Store.StoreDomain)
	}
	if cfg.Store.Currency != "EUR" {
		t.Errorf("Currency = %s, want EUR", cfg.Store.Currency)
	}
	if cfg.Store.Locale != "de-DE" {
		t.Errorf("Locale = %s, want de-DE", cfg.Store.Locale)
	}
	if !cfg.Store.Fingerprint {
		t.Error("Fingerprint = false, want true")
	}
	if cfg.Store.RequestTimeout.Std() != 5*time.Second {
		t.Errorf("RequestTimeout = %v, want 5s", cfg.Store.RequestTimeout.Std())
	}
	if cfg.Store.CacheTTL.Std() != 2*time.Minute {
		t.Errorf("CacheTTL = %v, want 2m", cfg.Store.CacheTTL.Std())
	}
	if cfg.Store.CacheEntries != 50 {
		t.Errorf("CacheEntries = %d, want 50", cfg.Store.CacheEntries)
	}
	if cfg.Store.HydrationConcurrency != 4 {
		t.Errorf("HydrationConcurrency = %d, want 4", cfg.Store.HydrationConcurrency)
	}
	if cfg.Storage.Backend != BackendRedis {
		t.Errorf("Backend = %s, want redis", cfg.Storage.Backend)
	}
	if cfg.Storage.Namespace != "storefront:" {
		t.Errorf("Namespace = %s, want storefront: (default)", cfg.Storage.Namespace)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_URL", "https://shop.example.com")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "8080" || cfg.Environment != "development" || cfg.LogLevel != "info" {
		t.Errorf("server defaults = %s/%s/%s", cfg.Port, cfg.Environment, cfg.LogLevel)
	}
	if cfg.Store.Currency != "USD" || cfg.Store.Locale != "en-US" {
		t.Errorf("currency defaults = %s/%s", cfg.Store.Currency, cfg.Store.Locale)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("Backend = %s, want memory", cfg.Storage.Backend)
	}
	if cfg.IsProduction() {
		t.Error("IsProduction() = true for development")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "test.env", "STORE_URL=https://dotenv-shop.com\nPORT=7070\n")
	t.Setenv("DOTENV_FILE", path)
	// godotenv skips variables present in the environment, even empty ones.
	// clearEnv registered the restore, so unsetting here is safe.
	os.Unsetenv("STORE_URL")
	// Already-set variables win over the file.
	t.Setenv("PORT", "6060")

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Store.StoreURL != "https://dotenv-shop.com" {
		t.Errorf("StoreURL = %s, want https://dotenv-shop.com", cfg.Store.StoreURL)
	}
	if cfg.Port != "6060" {
		t.Errorf("Port = %s, want 6060", cfg.Port)
	}
}

func TestLoadProductionRequirements(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T)
		wantErr string
	}{
		{
			name:    "missing GCP project",
			setup:   func(t *testing.T) { t.Setenv("STORE_ID", "shop") },
			wantErr: "GCP_PROJECT required",
		},
		{
			name:    "missing store id",
			setup:   func(t *testing.T) { t.Setenv("GCP_PROJECT", "proj") },
			wantErr: "STORE_ID required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("ENVIRONMENT", "production")
			tt.setup(t)

			_, err := Load(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingRequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T)
		wantErr string
	}{
		{
			name:    "missing store_url",
			setup:   func(t *testing.T) {},
			wantErr: "store_url is required",
		},
		{
			name: "file backend without path",
			setup: func(t *testing.T) {
				t.Setenv("STORE_URL", "https://shop.com")
				t.Setenv("STORAGE_BACKEND", "file")
			},
			wantErr: "path is required",
		},
		{
			name: "redis backend without url",
			setup: func(t *testing.T) {
				t.Setenv("STORE_URL", "https://shop.com")
				t.Setenv("STORAGE_BACKEND", "redis")
			},
			wantErr: "redis_url is required",
		},
		{
			name: "unknown backend",
			setup: func(t *testing.T) {
				t.Setenv("STORE_URL", "https://shop.com")
				t.Setenv("STORAGE_BACKEND", "sqlite")
			},
			wantErr: "backend must be one of",
		},
		{
			name: "bad currency",
			setup: func(t *testing.T) {
				t.Setenv("STORE_URL", "https://shop.com")
				t.Setenv("CURRENCY", "XYZW")
			},
			wantErr: "invalid currency",
		},
		{
			name: "bad duration",
			setup: func(t *testing.T) {
				t.Setenv("STORE_URL", "https://shop.com")
				t.Setenv("REQUEST_TIMEOUT", "soon")
			},
			wantErr: "REQUEST_TIMEOUT",
		},
		{
			name: "bad concurrency",
			setup: func(t *testing.T) {
				t.Setenv("STORE_URL", "https://shop.com")
				t.Setenv("HYDRATION_CONCURRENCY", "many")
			},
			wantErr: "HYDRATION_CONCURRENCY",
		},
		{
			name: "non-http store url",
			setup: func(t *testing.T) {
				t.Setenv("STORE_URL", "ftp://shop.com")
			},
			wantErr: "scheme must be http or https",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			tt.setup(t)

			_, err := Load(context.Background())
			if err == nil {
				t.Fatalf("Expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error = %q, want containing %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `{
		"port": "9090",
		"environment": "development",
		"log_level": "debug",
		"store_id": "file-shop",
		"store": {
			"store_url": "https://file-shop.com",
			"currency": "GBP",
			"request_timeout": "3s",
			"product_cache_ttl": 30
		},
		"storage": {
			"backend": "file",
			"path": "/tmp/storefront.json"
		}
	}`
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeFile(t, "config.json", content))

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %s, want 9090", cfg.Port)
	}
	if cfg.StoreID != "file-shop" {
		t.Errorf("StoreID = %s, want file-shop", cfg.StoreID)
	}
	if cfg.Store.StoreDomain != "file-shop.com" {
		t.Errorf("StoreDomain = %s, want file-shop.com (derived)", cfg.Store.StoreDomain)
	}
	if cfg.Store.RequestTimeout.Std() != 3*time.Second {
		t.Errorf("RequestTimeout = %v, want 3s", cfg.Store.RequestTimeout.Std())
	}
	if cfg.Store.CacheTTL.Std() != 30*time.Second {
		t.Errorf("CacheTTL = %v, want 30s", cfg.Store.CacheTTL.Std())
	}
	if cfg.Storage.Backend != BackendFile || cfg.Storage.Path != "/tmp/storefront.json" {
		t.Errorf("Storage = %+v", cfg.Storage)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	content := `
port: "7070"
store:
  store_url: https://yaml-shop.com/
  locale: fr-FR
  tls_fingerprint: true
  product_cache_ttl: 90s
  hydration_concurrency: 2
storage:
  backend: memory
`
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeFile(t, "config.yaml", content))

	cfg, err := Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("Port = %s, want 7070", cfg.Port)
	}
	if cfg.Store.Locale != "fr-FR" || !cfg.Store.Fingerprint {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Store.CacheTTL.Std() != 90*time.Second {
		t.Errorf("CacheTTL = %v, want 90s", cfg.Store.CacheTTL.Std())
	}
	if cfg.Store.HydrationConcurrency != 2 {
		t.Errorf("HydrationConcurrency = %d, want 2", cfg.Store.HydrationConcurrency)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Run("file not found", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", "/nonexistent/config.json")
		if _, err := Load(context.Background()); err == nil {
			t.Error("expected error for nonexistent file")
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", writeFile(t, "config.json", "{invalid json"))
		if _, err := Load(context.Background()); err == nil {
			t.Error("expected error for invalid JSON")
		}
	})

	t.Run("invalid YAML duration", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", writeFile(t, "config.yml", "store:\n  request_timeout: later\n"))
		_, err := Load(context.Background())
		if err == nil || !strings.Contains(err.Error(), "invalid duration") {
			t.Errorf("expected duration error, got: %v", err)
		}
	})

	t.Run("missing store_url", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", writeFile(t, "config.json", `{"store_id": "test"}`))
		_, err := Load(context.Background())
		if err == nil || !strings.Contains(err.Error(), "store_url is required") {
			t.Errorf("expected store_url error, got: %v", err)
		}
	})

	t.Run("unknown environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", writeFile(t, "config.json",
			`{"environment": "staging", "store": {"store_url": "https://shop.com"}}`))
		_, err := Load(context.Background())
		if err == nil || !strings.Contains(err.Error(), "environment must be") {
			t.Errorf("expected environment error, got: %v", err)
		}
	})
}

func TestApplySecret(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Backend: BackendRedis, RedisURL: "redis://env:6379"}}
	err := cfg.applySecret([]byte(`{
		"store_url": "https://secret-shop.com",
		"currency": "CAD",
		"redis_url": "redis://:hunter2@cache:6379/1"
	}`))
	if err != nil {
		t.Fatalf("applySecret() error: %v", err)
	}
	if cfg.Store.StoreURL != "https://secret-shop.com" || cfg.Store.Currency != "CAD" {
		t.Errorf("Store = %+v", cfg.Store)
	}
	if cfg.Storage.RedisURL != "redis://:hunter2@cache:6379/1" {
		t.Errorf("RedisURL = %s, want secret value", cfg.Storage.RedisURL)
	}

	if err := cfg.applySecret([]byte("not json")); err == nil {
		t.Error("expected error for invalid secret JSON")
	}
}

func TestStoreAPIConfig(t *testing.T) {
	cfg := &Config{Store: StoreConfig{
		StoreURL:       "https://shop.example.com/",
		Fingerprint:    true,
		RequestTimeout: Duration(4 * time.Second),
		CacheTTL:       Duration(time.Minute),
		CacheEntries:   10,
		CacheDisabled:  true,
	}}

	sc := cfg.StoreAPIConfig()
	if sc.StoreURL != "https://shop.example.com" {
		t.Errorf("StoreURL = %s, want https://shop.example.com (no trailing slash)", sc.StoreURL)
	}
	if !sc.Fingerprint || sc.Timeout != 4*time.Second {
		t.Errorf("transport = %v/%v", sc.Fingerprint, sc.Timeout)
	}
	if sc.Cache.TTL != time.Minute || sc.Cache.MaxEntries != 10 || !sc.Cache.Disabled {
		t.Errorf("Cache = %+v", sc.Cache)
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://shop.example.com", "shop.example.com"},
		{"https://shop.example.com/", "shop.example.com"},
		{"https://shop.example.com/path/to/page", "shop.example.com"},
		{"http://shop.example.com:8080", "shop.example.com:8080"},
		{"https://sub.shop.example.com", "sub.shop.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := extractDomain(tt.url)
			if got != tt.want {
				t.Errorf("extractDomain(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "custom")
	if got := envOrDefault("TEST_ENV_VAR", "default"); got != "custom" {
		t.Errorf("envOrDefault with set var = %q, want custom", got)
	}

	t.Setenv("TEST_ENV_VAR_UNSET", "")
	if got := envOrDefault("TEST_ENV_VAR_UNSET", "default"); got != "default" {
		t.Errorf("envOrDefault with unset var = %q, want default", got)
	}
}

func TestWithDefault(t *testing.T) {
	if got := withDefault("value", "default"); got != "value" {
		t.Errorf("withDefault(value, default) = %q, want value", got)
	}
	if got := withDefault("", "default"); got != "default" {
		t.Errorf("withDefault('', default) = %q, want default", got)
	}
}
