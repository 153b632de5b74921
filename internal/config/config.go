package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Default provider endpoints.
const (
	DefaultHistoryURL = "https://stock2.finance.sina.com.cn/futures/api/jsonp.php/var%20_data=/InnerFuturesNewService.getDailyKLine"
	DefaultQuoteURL   = "https://hq.sinajs.cn"
)

// Supported data_source.provider values.
const (
	ProviderSina = "sina"
	ProviderMock = "mock"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	DataSource struct {
		Provider       string `yaml:"provider"`
		HistoryURL     string `yaml:"history_url"`
		QuoteURL       string `yaml:"quote_url"`
		HistoryStart   string `yaml:"history_start"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"data_source"`
	Session struct {
		Timezone    string `yaml:"timezone"`
		CutoverCron string `yaml:"cutover_cron"`
	} `yaml:"session"`
	Cache struct {
		Dir string `yaml:"dir"`
	} `yaml:"cache"`
	Breaker struct {
		MaxRequests     uint32 `yaml:"max_requests"`
		IntervalSeconds int    `yaml:"interval_seconds"`
		TimeoutSeconds  int    `yaml:"timeout_seconds"`
	} `yaml:"breaker"`
	Proxy string `yaml:"proxy"`
}

// Load reads .env, then the YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	// .env is optional; plain environment variables work without it
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("SINA_HISTORY_URL"); v != "" {
		cfg.DataSource.HistoryURL = v
	}
	if v := os.Getenv("SINA_QUOTE_URL"); v != "" {
		cfg.DataSource.QuoteURL = v
	}
	if v := os.Getenv("SESSION_TZ"); v != "" {
		cfg.Session.Timezone = v
	}
	if v := os.Getenv("SESSION_CUTOVER_CRON"); v != "" {
		cfg.Session.CutoverCron = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8501"
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = ProviderSina
	}
	if cfg.DataSource.HistoryURL == "" {
		cfg.DataSource.HistoryURL = DefaultHistoryURL
	}
	if cfg.DataSource.QuoteURL == "" {
		cfg.DataSource.QuoteURL = DefaultQuoteURL
	}
	if cfg.DataSource.HistoryStart == "" {
		cfg.DataSource.HistoryStart = "1990-01-01"
	}
	if cfg.DataSource.TimeoutSeconds == 0 {
		cfg.DataSource.TimeoutSeconds = 30
	}
	if cfg.Session.Timezone == "" {
		cfg.Session.Timezone = "Asia/Shanghai"
	}
	if cfg.Session.CutoverCron == "" {
		cfg.Session.CutoverCron = "0 21 * * *"
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "data"
	}
	if cfg.Breaker.MaxRequests == 0 {
		cfg.Breaker.MaxRequests = 5
	}
	if cfg.Breaker.IntervalSeconds == 0 {
		cfg.Breaker.IntervalSeconds = 60
	}
	if cfg.Breaker.TimeoutSeconds == 0 {
		cfg.Breaker.TimeoutSeconds = 30
	}

	return cfg, nil
}

// Validate checks that all fields are usable.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderSina, ProviderMock:
	default:
		return fmt.Errorf("data_source.provider: unknown provider %q", c.DataSource.Provider)
	}
	if _, err := c.HistoryStart(); err != nil {
		return fmt.Errorf("data_source.history_start: %w", err)
	}
	if c.DataSource.TimeoutSeconds < 0 {
		return fmt.Errorf("data_source.timeout_seconds must not be negative")
	}
	if _, err := time.LoadLocation(c.Session.Timezone); err != nil {
		return fmt.Errorf("session.timezone: %w", err)
	}
	if _, err := cron.ParseStandard(c.Session.CutoverCron); err != nil {
		return fmt.Errorf("session.cutover_cron: %w", err)
	}
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required")
	}
	if filepath.Clean(c.Cache.Dir) == "/" {
		return fmt.Errorf("cache.dir must not be the filesystem root")
	}
	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("proxy: invalid URL %q", c.Proxy)
		}
	}
	return nil
}

// HistoryStart parses data_source.history_start.
func (c *Config) HistoryStart() (time.Time, error) {
	return time.Parse("2006-01-02", c.DataSource.HistoryStart)
}

// Timeout is the provider request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.DataSource.TimeoutSeconds) * time.Second
}
