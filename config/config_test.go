package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/djmoore711/brandfetch-mcp/config"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090

upstream:
  brand_api_key: "bf_brand_key"
  logo_api_key: "bf_logo_key"
  client_id: "cid123"
  logo_timeout: 5s
  brand_timeout: 20s

quota:
  monthly_limit: 250
  warn_threshold_ratio: 0.9

database:
  driver: "sqlite"
  dsn: ":memory:"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Upstream.BrandAPIKey != "bf_brand_key" {
		t.Errorf("BrandAPIKey = %s, want bf_brand_key", cfg.Upstream.BrandAPIKey)
	}
	if cfg.Upstream.ClientID != "cid123" {
		t.Errorf("ClientID = %s, want cid123", cfg.Upstream.ClientID)
	}
	if cfg.Upstream.LogoTimeout != 5*time.Second {
		t.Errorf("LogoTimeout = %v, want 5s", cfg.Upstream.LogoTimeout)
	}
	if cfg.Upstream.BrandTimeout != 20*time.Second {
		t.Errorf("BrandTimeout = %v, want 20s", cfg.Upstream.BrandTimeout)
	}
	if cfg.Quota.MonthlyLimit != 250 {
		t.Errorf("MonthlyLimit = %d, want 250", cfg.Quota.MonthlyLimit)
	}
	if cfg.Quota.WarnThresholdRatio != 0.9 {
		t.Errorf("WarnThresholdRatio = %v, want 0.9", cfg.Quota.WarnThresholdRatio)
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
upstream:
  brand_api_key: "bf_brand_key"
`

	cfg := writeAndLoad(t, content)

	// Check defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Quota.MonthlyLimit != 250 {
		t.Errorf("default MonthlyLimit = %d, want 250", cfg.Quota.MonthlyLimit)
	}
	if cfg.Quota.WarnThresholdRatio != 0.8 {
		t.Errorf("default WarnThresholdRatio = %v, want 0.8", cfg.Quota.WarnThresholdRatio)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default Database.Driver = %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "brandfetch.db" {
		t.Errorf("default Database.DSN = %s, want brandfetch.db", cfg.Database.DSN)
	}
	if cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("default Cache.TTL = %v, want 24h", cfg.Cache.TTL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %s, want info", cfg.Logging.Level)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("default Metrics.Path = %s, want /metrics", cfg.Metrics.Path)
	}
	if cfg.Upstream.TimeoutIsMiss == nil || !*cfg.Upstream.TimeoutIsMiss {
		t.Error("default TimeoutIsMiss should be true")
	}
}

func TestLoad_TimeoutIsMissExplicitFalse(t *testing.T) {
	content := `
upstream:
  brand_api_key: "bf_brand_key"
  timeout_is_miss: false
`

	cfg := writeAndLoad(t, content)

	if cfg.Upstream.TimeoutIsMiss == nil || *cfg.Upstream.TimeoutIsMiss {
		t.Error("explicit timeout_is_miss: false was overridden by the default")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	os.Setenv("TEST_BRAND_KEY", "bf_from_env")
	defer os.Unsetenv("TEST_BRAND_KEY")

	content := `
upstream:
  brand_api_key: "${TEST_BRAND_KEY}"
`

	cfg := writeAndLoad(t, content)

	if cfg.Upstream.BrandAPIKey != "bf_from_env" {
		t.Errorf("BrandAPIKey = %s, want bf_from_env", cfg.Upstream.BrandAPIKey)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	os.Setenv("BRANDFETCH_MONTHLY_LIMIT", "42")
	os.Setenv("BRANDFETCH_WARN_RATIO", "0.5")
	os.Setenv("BRANDFETCH_TIMEOUT_IS_MISS", "false")
	defer func() {
		os.Unsetenv("BRANDFETCH_MONTHLY_LIMIT")
		os.Unsetenv("BRANDFETCH_WARN_RATIO")
		os.Unsetenv("BRANDFETCH_TIMEOUT_IS_MISS")
	}()

	content := `
upstream:
  brand_api_key: "bf_brand_key"

quota:
  monthly_limit: 250
`

	cfg := writeAndLoad(t, content)

	if cfg.Quota.MonthlyLimit != 42 {
		t.Errorf("MonthlyLimit = %d, env override should win, want 42", cfg.Quota.MonthlyLimit)
	}
	if cfg.Quota.WarnThresholdRatio != 0.5 {
		t.Errorf("WarnThresholdRatio = %v, want 0.5", cfg.Quota.WarnThresholdRatio)
	}
	if cfg.Upstream.TimeoutIsMiss == nil || *cfg.Upstream.TimeoutIsMiss {
		t.Error("TimeoutIsMiss env override to false was lost")
	}
}

func TestLoad_MissingBrandKey(t *testing.T) {
	_, err := writeAndLoadErr(t, `
quota:
  monthly_limit: 100
`)
	if err == nil {
		t.Fatal("Load accepted a config without upstream.brand_api_key")
	}
	if !strings.Contains(err.Error(), "brand_api_key") {
		t.Errorf("error %q does not name the missing field", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad warn ratio": `
upstream:
  brand_api_key: "k"
quota:
  warn_threshold_ratio: 1.5
`,
		"bad driver": `
upstream:
  brand_api_key: "k"
database:
  driver: "postgres"
`,
		"bad log level": `
upstream:
  brand_api_key: "k"
logging:
  level: "verbose"
`,
		"bad log format": `
upstream:
  brand_api_key: "k"
logging:
  format: "xml"
`,
	}

	for name, content := range cases {
		if _, err := writeAndLoadErr(t, content); err == nil {
			t.Errorf("%s: Load accepted invalid config", name)
		}
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := config.Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("Load accepted a missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("BRANDFETCH_BRAND_API_KEY", "bf_env_key")
	os.Setenv("BRANDFETCH_DATABASE_DSN", "/tmp/test.db")
	defer func() {
		os.Unsetenv("BRANDFETCH_BRAND_API_KEY")
		os.Unsetenv("BRANDFETCH_DATABASE_DSN")
	}()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Upstream.BrandAPIKey != "bf_env_key" {
		t.Errorf("BrandAPIKey = %s", cfg.Upstream.BrandAPIKey)
	}
	if cfg.Database.DSN != "/tmp/test.db" {
		t.Errorf("DSN = %s", cfg.Database.DSN)
	}
}

func TestLoadWithFallback(t *testing.T) {
	// No file, no env: error.
	if _, err := config.LoadWithFallback(""); err == nil && !config.HasEnvConfig() {
		t.Error("LoadWithFallback succeeded with no configuration")
	}

	// Env only.
	os.Setenv("BRANDFETCH_BRAND_API_KEY", "bf_env_key")
	defer os.Unsetenv("BRANDFETCH_BRAND_API_KEY")

	cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback: %v", err)
	}
	if cfg.Upstream.BrandAPIKey != "bf_env_key" {
		t.Errorf("BrandAPIKey = %s", cfg.Upstream.BrandAPIKey)
	}
}

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return config.Load(path)
}
