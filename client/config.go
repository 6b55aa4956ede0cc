package client

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/adamwoolhether/rapidhttp/internal/validate"
)

// envPrefix namespaces the variables read by [LoadConfig], e.g.
// RAPIDHTTP_MAX_IDLE_CONNS_PER_HOST.
const envPrefix = "RAPIDHTTP"

const (
	DefaultMaxIdleConnsPerHost = 100
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultTimeout             = 30 * time.Second
	DefaultMaxRedirects        = 10
)

// Config holds the pool and timeout settings applied to every
// *http.Client the package builds, pooled or dedicated.
type Config struct {
	// MaxIdleConnsPerHost bounds the idle connections kept per host.
	MaxIdleConnsPerHost int `envconfig:"MAX_IDLE_CONNS_PER_HOST" default:"100" validate:"gte=0"`
	// IdleConnTimeout evicts idle connections after this much inactivity.
	IdleConnTimeout time.Duration `envconfig:"IDLE_CONN_TIMEOUT" default:"90s" validate:"gte=0"`
	// Timeout is the per-request deadline unless a call overrides it.
	// Zero disables it.
	Timeout time.Duration `envconfig:"TIMEOUT" default:"30s" validate:"gte=0"`
	// MaxRedirects caps the redirects followed by the pooled client.
	MaxRedirects int `envconfig:"MAX_REDIRECTS" default:"10" validate:"gte=0"`
}

// DefaultConfig returns the built-in pool settings.
func DefaultConfig() Config {
	return Config{
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
		Timeout:             DefaultTimeout,
		MaxRedirects:        DefaultMaxRedirects,
	}
}

// LoadConfig reads a Config from RAPIDHTTP_* environment variables,
// falling back to the defaults for anything unset.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports field errors for out of range settings.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}
