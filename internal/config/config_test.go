package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8501", cfg.Server.Addr)
	assert.Equal(t, ProviderSina, cfg.DataSource.Provider)
	assert.Equal(t, DefaultHistoryURL, cfg.DataSource.HistoryURL)
	assert.Equal(t, DefaultQuoteURL, cfg.DataSource.QuoteURL)
	assert.Equal(t, "Asia/Shanghai", cfg.Session.Timezone)
	assert.Equal(t, "0 21 * * *", cfg.Session.CutoverCron)
	assert.Equal(t, "data", cfg.Cache.Dir)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.EqualValues(t, 5, cfg.Breaker.MaxRequests)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
data_source:
  history_start: "2015-06-01"
  timeout_seconds: 5
session:
  cutover_cron: "0 21 * * 1-5"
cache:
  dir: "/tmp/futures"
`)
	t.Setenv("CACHE_DIR", "/var/cache/futures")
	t.Setenv("SESSION_TZ", "UTC")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "/var/cache/futures", cfg.Cache.Dir)
	assert.Equal(t, "UTC", cfg.Session.Timezone)
	assert.Equal(t, "0 21 * * 1-5", cfg.Session.CutoverCron)
	assert.Equal(t, 5*time.Second, cfg.Timeout())

	start, err := cfg.HistoryStart()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC), start)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unterminated"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad history start", func(c *Config) { c.DataSource.HistoryStart = "1990/01/01" }},
		{"bad timezone", func(c *Config) { c.Session.Timezone = "Mars/Olympus" }},
		{"bad cron", func(c *Config) { c.Session.CutoverCron = "every evening" }},
		{"root cache dir", func(c *Config) { c.Cache.Dir = "/" }},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "yahoo" }},
		{"negative timeout", func(c *Config) { c.DataSource.TimeoutSeconds = -1 }},
		{"unparsable proxy", func(c *Config) { c.Proxy = "://nope" }},
		{"proxy without scheme", func(c *Config) { c.Proxy = "proxy.local:8080" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_AcceptsProxyURL(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	cfg.Proxy = "http://127.0.0.1:7890"
	assert.NoError(t, cfg.Validate())
}
