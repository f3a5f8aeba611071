// Package config handles loading and validation of service configuration.
// Supports both development (env vars, .env, CONFIG_FILE) and production
// (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"storefront-engine/internal/storeapi"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config holds all service configuration.
// Environment determines whether store settings load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	StoreID    string // Secret name holding the store settings

	Store   StoreConfig
	Storage StorageConfig
}

// StoreConfig contains the storefront the engine talks to.
// In production, this is loaded from Secret Manager as JSON.
type StoreConfig struct {
	StoreURL    string `json:"store_url" yaml:"store_url" validate:"required,url"`
	StoreDomain string `json:"store_domain" yaml:"store_domain"` // Derived from StoreURL if not set

	Currency string `json:"currency" yaml:"currency" validate:"omitempty,iso4217"`
	Locale   string `json:"locale" yaml:"locale" validate:"omitempty,bcp47_language_tag"`

	// Chrome TLS fingerprint for storefronts behind bot protection
	Fingerprint    bool     `json:"tls_fingerprint" yaml:"tls_fingerprint"`
	RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`

	CacheTTL      Duration `json:"product_cache_ttl" yaml:"product_cache_ttl"`
	CacheEntries  int      `json:"product_cache_entries" yaml:"product_cache_entries" validate:"gte=0"`
	CacheDisabled bool     `json:"product_cache_disabled" yaml:"product_cache_disabled"`

	HydrationConcurrency int `json:"hydration_concurrency" yaml:"hydration_concurrency" validate:"gte=0,lte=64"`
}

// StorageConfig selects the repository backend for per-client state.
type StorageConfig struct {
	Backend   string `json:"backend" yaml:"backend" validate:"oneof=memory file redis"`
	Path      string `json:"path" yaml:"path" validate:"required_if=Backend file"`
	RedisURL  string `json:"redis_url" yaml:"redis_url" validate:"required_if=Backend redis"`
	Namespace string `json:"namespace" yaml:"namespace"`
}

// Duration reads "15s" style strings or whole seconds from JSON and YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) set(v any) error {
	switch val := v.(type) {
	case nil:
		*d = 0
	case float64:
		*d = Duration(time.Duration(val * float64(time.Second)))
	case int:
		*d = Duration(time.Duration(val) * time.Second)
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

// fileConfig matches the CONFIG_FILE layout (JSON or YAML).
type fileConfig struct {
	Port        string        `json:"port" yaml:"port"`
	Environment string        `json:"environment" yaml:"environment"`
	LogLevel    string        `json:"log_level" yaml:"log_level"`
	StoreID     string        `json:"store_id" yaml:"store_id"`
	Store       StoreConfig   `json:"store" yaml:"store"`
	Storage     StorageConfig `json:"storage" yaml:"storage"`
}

// secretPayload is the Secret Manager document: store settings plus the
// redis URL, which usually carries a password.
type secretPayload struct {
	StoreConfig
	RedisURL string `json:"redis_url"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Outside production a .env file in the working directory (or DOTENV_FILE)
// seeds the environment without overriding variables already set.
func Load(ctx context.Context) (*Config, error) {
	if os.Getenv("ENVIRONMENT") != "production" {
		if err := loadDotEnv(envOrDefault("DOTENV_FILE", ".env")); err != nil {
			return nil, err
		}
	}

	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		StoreID:     os.Getenv("STORE_ID"),
	}

	cfg.loadStorageFromEnv()

	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.StoreID == "" {
			return nil, fmt.Errorf("STORE_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("reading %s: %w", path, err)
}

// loadFromFile reads all configuration from a JSON or YAML file, chosen by
// extension.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fc.Port, "8080"),
		Environment: withDefault(fc.Environment, "development"),
		LogLevel:    withDefault(fc.LogLevel, "info"),
		StoreID:     fc.StoreID,
		Store:       fc.Store,
		Storage:     fc.Storage,
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches store config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{store_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StoreID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	return c.applySecret(result.Payload.Data)
}

func (c *Config) applySecret(data []byte) error {
	var payload secretPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	c.Store = payload.StoreConfig
	if payload.RedisURL != "" {
		c.Storage.RedisURL = payload.RedisURL
	}
	return nil
}

// loadFromEnv reads store config from individual environment variables.
func (c *Config) loadFromEnv() error {
	c.Store = StoreConfig{
		StoreURL:    os.Getenv("STORE_URL"),
		StoreDomain: os.Getenv("STORE_DOMAIN"),
		Currency:    os.Getenv("CURRENCY"),
		Locale:      os.Getenv("LOCALE"),
	}

	var err error
	if c.Store.Fingerprint, err = envBool("TLS_FINGERPRINT"); err != nil {
		return err
	}
	if c.Store.CacheDisabled, err = envBool("PRODUCT_CACHE_DISABLED"); err != nil {
		return err
	}
	if c.Store.RequestTimeout, err = envDuration("REQUEST_TIMEOUT"); err != nil {
		return err
	}
	if c.Store.CacheTTL, err = envDuration("PRODUCT_CACHE_TTL"); err != nil {
		return err
	}
	if c.Store.CacheEntries, err = envInt("PRODUCT_CACHE_ENTRIES"); err != nil {
		return err
	}
	if c.Store.HydrationConcurrency, err = envInt("HYDRATION_CONCURRENCY"); err != nil {
		return err
	}
	return nil
}

// loadStorageFromEnv reads the repository backend settings. These are not
// secret and come from the environment in every mode.
func (c *Config) loadStorageFromEnv() {
	c.Storage = StorageConfig{
		Backend:   os.Getenv("STORAGE_BACKEND"),
		Path:      os.Getenv("STORAGE_PATH"),
		RedisURL:  os.Getenv("REDIS_URL"),
		Namespace: os.Getenv("REDIS_NAMESPACE"),
	}
}

func (c *Config) applyDefaults() {
	if c.Store.StoreDomain == "" && c.Store.StoreURL != "" {
		c.Store.StoreDomain = extractDomain(c.Store.StoreURL)
	}
	c.Store.Currency = strings.ToUpper(withDefault(c.Store.Currency, "USD"))
	c.Store.Locale = withDefault(c.Store.Locale, "en-US")
	c.Storage.Backend = withDefault(c.Storage.Backend, BackendMemory)
	c.Storage.Namespace = withDefault(c.Storage.Namespace, "storefront:")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their config file names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validate checks that all required configuration fields are present and
// well formed.
func (c *Config) validate() error {
	switch c.Environment {
	case "development", "production":
	default:
		return fmt.Errorf("environment must be development or production, got %q", c.Environment)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}

	if err := validate.Struct(c.Store); err != nil {
		return validationError(err)
	}
	if err := validate.Struct(c.Storage); err != nil {
		return validationError(err)
	}

	u, err := url.ParseRequestURI(c.Store.StoreURL)
	if err != nil {
		return fmt.Errorf("invalid store_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid store_url: scheme must be http or https")
	}
	if c.Store.RequestTimeout < 0 || c.Store.CacheTTL < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// validationError reports the first failing field the way the rest of the
// config errors read ("store_url is required").
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Errorf("%s is required", fe.Field())
	case "oneof":
		return fmt.Errorf("%s must be one of %s, got %q", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Errorf("invalid %s: %v (%s)", fe.Field(), fe.Value(), fe.Tag())
	}
}

// StoreAPIConfig builds the storefront client configuration.
func (c *Config) StoreAPIConfig() storeapi.Config {
	return storeapi.Config{
		StoreURL:    strings.TrimSuffix(c.Store.StoreURL, "/"),
		Timeout:     c.Store.RequestTimeout.Std(),
		Fingerprint: c.Store.Fingerprint,
		Cache: storeapi.CacheConfig{
			TTL:        c.Store.CacheTTL.Std(),
			MaxEntries: c.Store.CacheEntries,
			Disabled:   c.Store.CacheDisabled,
		},
	}
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// extractDomain parses the domain from a URL string.
func extractDomain(storeURL string) string {
	u, err := url.Parse(storeURL)
	if err != nil {
		// Fallback: strip protocol prefix manually
		domain := strings.TrimPrefix(storeURL, "https://")
		domain = strings.TrimPrefix(domain, "http://")
		return strings.Split(domain, "/")[0]
	}
	return u.Host
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envBool(key string) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", key, err)
	}
	return b, nil
}

func envInt(key string) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string) (Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return Duration(d), nil
}
