// Package config loads runtime settings from the environment.
//
// The loading sequence is:
//  1. Load .env via godotenv (non-fatal if absent, never overrides).
//  2. Populate Config from envconfig tags.
//  3. Validate with go-playground/validator.
package config

import (
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ErrorType categorizes configuration loading failures.
type ErrorType string

const (
	ErrParsing    ErrorType = "PARSING_FAILED"
	ErrValidation ErrorType = "VALIDATION_FAILED"
)

// Error is returned by Load.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Config holds every setting shared by the commands.
type Config struct {
	Addr     string `envconfig:"ADDR" default:":8080" validate:"required"`
	Timezone string `envconfig:"TZ_NAME" default:"UTC"`
	Location string `envconfig:"LOCATION_LABEL"`

	DatabasePath string `envconfig:"DATABASE_PATH" default:"data/runsafe.db" validate:"required"`
	ValkeyAddr   string `envconfig:"VALKEY_ADDR" validate:"omitempty,hostname_port|url"`

	ConditionsTTL time.Duration `envconfig:"CONDITIONS_TTL" default:"5m" validate:"gte=0"`
	PulseTTL      time.Duration `envconfig:"PULSE_TTL" default:"1m" validate:"gte=0"`

	// RemoteURL is the deployed site the client and probe talk to.
	RemoteURL string `envconfig:"REMOTE_URL" default:"https://runsafetonight.com" validate:"omitempty,url"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
}

type loader struct {
	dotenv  func() error
	process func(prefix string, dst any) error
}

func defaultLoader() loader {
	return loader{
		dotenv:  func() error { return godotenv.Load() },
		process: envconfig.Process,
	}
}

// Load reads and validates the configuration.
func Load() (*Config, error) {
	return defaultLoader().load()
}

func (l loader) load() (*Config, error) {
	_ = l.dotenv()

	var cfg Config
	if err := l.process("", &cfg); err != nil {
		return nil, &Error{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags. Commands call it again after applying
// flag overrides.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return &Error{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}
	return nil
}

// TimeLocation resolves Timezone, falling back to UTC with a warning.
func (c *Config) TimeLocation(logger *slog.Logger) *time.Location {
	if c.Timezone == "" || c.Timezone == "UTC" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, using UTC", "timezone", c.Timezone, "error", err)
		return time.UTC
	}
	return loc
}
