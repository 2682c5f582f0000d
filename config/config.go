// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Quota    QuotaConfig    `yaml:"quota"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// UpstreamConfig configures the Brandfetch endpoints. The logo endpoint
// and the brand API carry separate credentials and separate timeouts
// because their latency profiles differ by an order of magnitude.
type UpstreamConfig struct {
	LogoBaseURL  string        `yaml:"logo_base_url"`
	BrandBaseURL string        `yaml:"brand_base_url"`
	LogoAPIKey   string        `yaml:"logo_api_key"`
	BrandAPIKey  string        `yaml:"brand_api_key"`
	ClientID     string        `yaml:"client_id"`
	LogoTimeout  time.Duration `yaml:"logo_timeout"`
	BrandTimeout time.Duration `yaml:"brand_timeout"`
	SearchLimit  int           `yaml:"search_limit"`

	// TimeoutIsMiss treats a logo-endpoint timeout as a definitive miss
	// rather than a transient failure. Defaults to true; a pointer so an
	// explicit false in the file survives defaulting.
	TimeoutIsMiss *bool `yaml:"timeout_is_miss"`
}

// QuotaConfig configures the metered-call budget.
type QuotaConfig struct {
	MonthlyLimit       int64   `yaml:"monthly_limit"`
	WarnThresholdRatio float64 `yaml:"warn_threshold_ratio"`
}

// DatabaseConfig configures the usage ledger store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "memory"
	DSN    string `yaml:"dsn"`
}

// CacheConfig configures lookup-result caching. RedisURL adds a shared
// tier on top of the in-process cache; empty means in-process only.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	RedisURL   string        `yaml:"redis_url"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // default: /metrics
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for Docker deployments where no config file is needed.
//
// Environment variables:
//
//	BRANDFETCH_BRAND_API_KEY   - Brand API key (required)
//	BRANDFETCH_LOGO_API_KEY    - Logo endpoint key
//	BRANDFETCH_CLIENT_ID       - Client ID for CDN hotlink compliance
//	BRANDFETCH_MONTHLY_LIMIT   - Metered calls per month (default: 250)
//	BRANDFETCH_WARN_RATIO      - Warning threshold ratio (default: 0.8)
//	BRANDFETCH_DATABASE_DSN    - Ledger database path (default: brandfetch.db)
//	BRANDFETCH_REDIS_URL       - Optional shared cache tier
//	BRANDFETCH_CACHE_TTL       - Cache TTL (default: 24h)
//	BRANDFETCH_SERVER_HOST     - Server host (default: 0.0.0.0)
//	BRANDFETCH_SERVER_PORT     - Server port (default: 8080)
//	BRANDFETCH_LOG_LEVEL       - Log level (default: info)
//	BRANDFETCH_LOG_FORMAT      - json or console (default: json)
//	BRANDFETCH_METRICS_ENABLED - Enable /metrics endpoint (default: true)
//	BRANDFETCH_TIMEOUT_IS_MISS - Treat logo timeouts as misses (default: true)
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables. This is the recommended method for Docker deployments.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if HasEnvConfig() {
		return LoadFromEnv()
	}

	return nil, fmt.Errorf("no configuration found: provide config file or set BRANDFETCH_BRAND_API_KEY")
}

// HasEnvConfig returns true if essential environment variables are set.
func HasEnvConfig() bool {
	return os.Getenv("BRANDFETCH_BRAND_API_KEY") != ""
}

// applyEnvOverrides applies BRANDFETCH_* environment variables to the
// config. Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BRANDFETCH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("BRANDFETCH_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("BRANDFETCH_LOGO_BASE_URL"); v != "" {
		cfg.Upstream.LogoBaseURL = v
	}
	if v := os.Getenv("BRANDFETCH_BRAND_BASE_URL"); v != "" {
		cfg.Upstream.BrandBaseURL = v
	}
	if v := os.Getenv("BRANDFETCH_LOGO_API_KEY"); v != "" {
		cfg.Upstream.LogoAPIKey = v
	}
	if v := os.Getenv("BRANDFETCH_BRAND_API_KEY"); v != "" {
		cfg.Upstream.BrandAPIKey = v
	}
	if v := os.Getenv("BRANDFETCH_CLIENT_ID"); v != "" {
		cfg.Upstream.ClientID = v
	}
	if v := os.Getenv("BRANDFETCH_LOGO_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Upstream.LogoTimeout = d
		}
	}
	if v := os.Getenv("BRANDFETCH_BRAND_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Upstream.BrandTimeout = d
		}
	}
	if v := os.Getenv("BRANDFETCH_TIMEOUT_IS_MISS"); v != "" {
		b := parseBool(v)
		cfg.Upstream.TimeoutIsMiss = &b
	}

	if v := os.Getenv("BRANDFETCH_MONTHLY_LIMIT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Quota.MonthlyLimit = n
		}
	}
	if v := os.Getenv("BRANDFETCH_WARN_RATIO"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Quota.WarnThresholdRatio = r
		}
	}

	if v := os.Getenv("BRANDFETCH_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("BRANDFETCH_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	if v := os.Getenv("BRANDFETCH_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if v := os.Getenv("BRANDFETCH_REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}

	if v := os.Getenv("BRANDFETCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BRANDFETCH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	if v := os.Getenv("BRANDFETCH_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("BRANDFETCH_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Upstream.LogoTimeout == 0 {
		cfg.Upstream.LogoTimeout = 8 * time.Second
	}
	if cfg.Upstream.BrandTimeout == 0 {
		cfg.Upstream.BrandTimeout = 30 * time.Second
	}
	if cfg.Upstream.SearchLimit == 0 {
		cfg.Upstream.SearchLimit = 10
	}
	if cfg.Upstream.TimeoutIsMiss == nil {
		b := true
		cfg.Upstream.TimeoutIsMiss = &b
	}

	if cfg.Quota.MonthlyLimit == 0 {
		cfg.Quota.MonthlyLimit = 250
	}
	if cfg.Quota.WarnThresholdRatio == 0 {
		cfg.Quota.WarnThresholdRatio = 0.8
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "brandfetch.db"
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 24 * time.Hour
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 4096
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Upstream.BrandAPIKey == "" {
		return fmt.Errorf("upstream.brand_api_key is required")
	}

	if cfg.Quota.MonthlyLimit < 0 {
		return fmt.Errorf("quota.monthly_limit must not be negative, got %d", cfg.Quota.MonthlyLimit)
	}
	if r := cfg.Quota.WarnThresholdRatio; r <= 0 || r > 1 {
		return fmt.Errorf("quota.warn_threshold_ratio must be in (0, 1], got %v", r)
	}

	validDrivers := map[string]bool{"sqlite": true, "memory": true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'sqlite' or 'memory', got %q", cfg.Database.Driver)
	}

	if cfg.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	return nil
}
