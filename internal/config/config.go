package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Pipeline struct {
		Workers       int `yaml:"workers"`
		Limit         int `yaml:"limit"`           // 0 = unlimited
		RunTimeoutMin int `yaml:"run_timeout_min"` // 0 = no run timeout
	} `yaml:"pipeline"`

	Retry RetryConfig `yaml:"retry"`

	RateLimit struct {
		RequestsPerSec float64 `yaml:"requests_per_sec"`
		Burst          int     `yaml:"burst"`
	} `yaml:"rate_limit"`

	Sources struct {
		MyJobMag MyJobMagConfig `yaml:"myjobmag"`
		Email    EmailConfig    `yaml:"email"`
	} `yaml:"sources"`

	Rewrite   RewriteConfig   `yaml:"rewrite"`
	WordPress WordPressConfig `yaml:"wordpress"`
}

type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts"`
	BaseDelayMs int     `yaml:"base_delay_ms"`
	MaxDelayMs  int     `yaml:"max_delay_ms"`
	Multiplier  float64 `yaml:"multiplier"`
	Jitter      bool    `yaml:"jitter"`
}

type MyJobMagConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BaseURL  string `yaml:"base_url"`
	MaxPages int    `yaml:"max_pages"`
}

type EmailConfig struct {
	Enabled          bool     `yaml:"enabled"`
	IMAPHost         string   `yaml:"imap_host"`
	IMAPPort         int      `yaml:"imap_port"`
	Username         string   `yaml:"username"`
	Mailbox          string   `yaml:"mailbox"`
	SearchSubjectAny []string `yaml:"search_subject_any"`
}

type RewriteConfig struct {
	Endpoint   string `yaml:"endpoint"`
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

type WordPressConfig struct {
	APIURL     string `yaml:"api_url"` // e.g. https://example.com/wp-json/wp/v2
	User       string `yaml:"user"`
	Status     string `yaml:"status"` // publish | draft
	TimeoutSec int    `yaml:"timeout_sec"`
}

// Env override names for secrets that must not live in the config file.
const (
	RewriteAPIKeyEnv = "JOBPRESS_REWRITE_API_KEY"
	WPPasswordEnv    = "JOBPRESS_WP_PASS"
	IMAPPasswordEnv  = "JOBPRESS_IMAP_PASS"
)

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.DataDir == "" {
		c.App.DataDir = "."
	}
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = 4
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.BaseDelayMs <= 0 {
		c.Retry.BaseDelayMs = 1000
	}
	if c.Retry.MaxDelayMs <= 0 {
		c.Retry.MaxDelayMs = 30000
	}
	if c.Retry.Multiplier < 1.0 {
		c.Retry.Multiplier = 2.0
	}
	if c.RateLimit.RequestsPerSec <= 0 {
		c.RateLimit.RequestsPerSec = 1.0
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 2
	}
	if c.Sources.MyJobMag.MaxPages <= 0 {
		c.Sources.MyJobMag.MaxPages = 10
	}
	if c.Sources.Email.Mailbox == "" {
		c.Sources.Email.Mailbox = "INBOX"
	}
	if c.Rewrite.TimeoutSec <= 0 {
		c.Rewrite.TimeoutSec = 30
	}
	if c.WordPress.TimeoutSec <= 0 {
		c.WordPress.TimeoutSec = 15
	}
	if c.WordPress.Status == "" {
		c.WordPress.Status = "publish"
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(RewriteAPIKeyEnv); v != "" {
		c.Rewrite.APIKey = v
	}
}

func (c *RetryConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMs) * time.Millisecond
}

func (c *RetryConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMs) * time.Millisecond
}
