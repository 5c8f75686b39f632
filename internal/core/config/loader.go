package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultTimeout             = 50 * time.Second
	DefaultMaxRateLimitRetries = 5
	DefaultServerRetries       = 3
	DefaultNetworkRetries      = 2
)

// Load reads configuration from a YAML file. An empty path yields the
// defaults.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Expand environment variables in the YAML content
		expandedData := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = os.Getenv("PAYDASH_API_URL")
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = DefaultTimeout
	}
	if cfg.API.RefreshPath == "" {
		cfg.API.RefreshPath = "/auth/refresh"
	}
	if cfg.API.AuthLoginPath == "" {
		cfg.API.AuthLoginPath = "/auth/login"
	}
	if cfg.API.LoginPath == "" {
		cfg.API.LoginPath = "/login"
	}
	if cfg.API.NetworkRetryDelay == 0 {
		cfg.API.NetworkRetryDelay = 2 * time.Second
	}

	if cfg.Session.Backend == "" {
		cfg.Session.Backend = "memory"
	}
	if cfg.Session.Key == "" {
		cfg.Session.Key = "default"
	}

	if cfg.Journal.PruneInterval == 0 {
		cfg.Journal.PruneInterval = 10 * time.Minute
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Probe.Path == "" {
		cfg.Probe.Path = "/health"
	}
	if cfg.Probe.Interval == 0 {
		cfg.Probe.Interval = 30 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks settings that have no usable default.
func (c *AppConfig) Validate() error {
	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("session backend redis requires redis.url")
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	if c.API.ServerRetryCount() < 0 || c.API.NetworkRetryCount() < 0 {
		return fmt.Errorf("retry counts must not be negative")
	}
	return nil
}
