package app

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"15s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// DataDir is the root the reporting pipeline publishes snapshot files
	// into: index.json plus one directory per report.
	DataDir string `envconfig:"DATA_DIR" default:"./data"`

	// RedisAddr empty disables the snapshot cache and the worker queue.
	RedisAddr    string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisTimeout time.Duration `envconfig:"REDIS_TIMEOUT" default:"5s"`
	CacheTTL     time.Duration `envconfig:"CACHE_TTL" default:"15m"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"12h"`

	GotenbergURL string `envconfig:"GOTENBERG_URL" default:""`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.DataDir == "" {
		return nil, errors.New("data dir must be provided")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
