// Package config loads process settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every process setting, read from the environment.
type Config struct {
	Addr        string `env:"ADDR" envDefault:":8080" validate:"required"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"opsconsole.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)" validate:"required"`

	RemoteBaseURL   string        `env:"REMOTE_BASE_URL" envDefault:"https://api.losnotables.cloud" validate:"required,url"`
	SyncPath        string        `env:"SYNC_PATH" envDefault:"/api/offline-sync" validate:"required,startswith=/"`
	SyncInterval    time.Duration `env:"SYNC_INTERVAL" envDefault:"30s" validate:"gte=0"`
	SyncHTTPTimeout time.Duration `env:"SYNC_HTTP_TIMEOUT" envDefault:"15s" validate:"gt=0"`
	// 0 leaves the exponential backoff uncapped.
	SyncMaxBackoff       time.Duration `env:"SYNC_MAX_BACKOFF" envDefault:"0s" validate:"gte=0"`
	ConnectivityInterval time.Duration `env:"CONNECTIVITY_INTERVAL" envDefault:"15s" validate:"gte=0"`

	BusinessUTCOffsetHours int    `env:"BUSINESS_UTC_OFFSET_HOURS" envDefault:"-3" validate:"gte=-12,lte=14"`
	AppVersion             string `env:"APP_VERSION" envDefault:"1.0.0" validate:"required"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`

	SeedEnabled bool `env:"SEED_ENABLED" envDefault:"false"`
}

// Load reads a .env file when files are given (or ./.env when none are)
// and then parses the environment. A missing .env is not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks cfg against its validate tags and reports the first failure.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
