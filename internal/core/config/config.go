package config

import (
	"time"

	redisclient "github.com/vietddude/paydash/internal/infra/redis"
	"github.com/vietddude/paydash/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	API      APIConfig          `yaml:"api"`
	Session  SessionConfig      `yaml:"session"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
	Journal  JournalConfig      `yaml:"journal"`
	Server   ServerConfig       `yaml:"server"`
	Probe    ProbeConfig        `yaml:"probe"`
	Logging  LoggingConfig      `yaml:"logging"`
}

// APIConfig holds the backend client settings.
type APIConfig struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"` // per attempt
	RefreshPath   string        `yaml:"refresh_path"`
	AuthLoginPath string        `yaml:"auth_login_path"`
	LoginPath     string        `yaml:"login_path"` // navigation target on forced logout

	ServerRetries       *int          `yaml:"server_retries"`
	NetworkRetries      *int          `yaml:"network_retries"`
	NetworkRetryDelay   time.Duration `yaml:"network_retry_delay"`
	MaxRateLimitRetries *int          `yaml:"max_rate_limit_retries"` // negative = unbounded
}

// SessionConfig selects where the token pair lives.
type SessionConfig struct {
	Backend      string `yaml:"backend"` // memory, redis
	Key          string `yaml:"key"`
	AccessToken  string `yaml:"access_token"`
	RefreshToken string `yaml:"refresh_token"`
}

// JournalConfig holds failure journal retention.
type JournalConfig struct {
	Retain        int           `yaml:"retain"` // 0 = keep everything
	PruneInterval time.Duration `yaml:"prune_interval"`
}

// ServerConfig holds admin HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// ProbeConfig holds backend probe settings.
type ProbeConfig struct {
	Path     string        `yaml:"path"`
	Interval time.Duration `yaml:"interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// RateLimitRetries returns the configured 429 cap.
func (c APIConfig) RateLimitRetries() int {
	if c.MaxRateLimitRetries == nil {
		return DefaultMaxRateLimitRetries
	}
	return *c.MaxRateLimitRetries
}

// ServerRetryCount returns the 5xx retry budget. An explicit 0 disables retries.
func (c APIConfig) ServerRetryCount() int {
	if c.ServerRetries == nil {
		return DefaultServerRetries
	}
	return *c.ServerRetries
}

// NetworkRetryCount returns the connectivity retry budget.
func (c APIConfig) NetworkRetryCount() int {
	if c.NetworkRetries == nil {
		return DefaultNetworkRetries
	}
	return *c.NetworkRetries
}
