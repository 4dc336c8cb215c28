package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Malformed record policies
const (
	MalformedSkip  = "skip"
	MalformedAbort = "abort"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration
type Config struct {
	LogLevel  string `env:"PAYMENTS_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"PAYMENTS_LOG_FORMAT" envDefault:"console"`

	Shards          int    `env:"PAYMENTS_SHARDS"           envDefault:"1"`
	ShardBuffer     int    `env:"PAYMENTS_SHARD_BUFFER"     envDefault:"256"`
	MalformedPolicy string `env:"PAYMENTS_MALFORMED_POLICY" envDefault:"skip"`
	StrictDisputes  bool   `env:"PAYMENTS_STRICT_DISPUTES"  envDefault:"false"`

	NATSURL            string        `env:"NATS_URL"`
	NATSSubject        string        `env:"NATS_SUBJECT"         envDefault:"payments.accounts"`
	NATSConnectTimeout time.Duration `env:"NATS_CONNECT_TIMEOUT" envDefault:"5s"`

	RedisAddr      string `env:"REDIS_ADDR"`
	RedisKeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"payments:account:"`
}

// Load loads configuration from the process environment
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom loads configuration from the given variables only
func LoadFrom(environ map[string]string) (Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks option values
func (c Config) Validate() error {
	switch c.MalformedPolicy {
	case MalformedSkip, MalformedAbort:
	default:
		return fmt.Errorf("%w: malformed policy %q", ErrInvalidConfig, c.MalformedPolicy)
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.LogFormat)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}

	if c.Shards < 0 {
		return fmt.Errorf("%w: shards must not be negative", ErrInvalidConfig)
	}
	if c.ShardBuffer < 0 {
		return fmt.Errorf("%w: shard buffer must not be negative", ErrInvalidConfig)
	}
	return nil
}

// NATSEnabled reports whether snapshots are published to NATS
func (c Config) NATSEnabled() bool {
	return c.NATSURL != ""
}

// RedisEnabled reports whether snapshots are exported to Redis
func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}
