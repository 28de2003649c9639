// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all service settings. Flags in cmd/server overlay these.
type Config struct {
	ListenAddr    string        `env:"LISTEN_ADDR" envDefault:":8080"`
	MetricsAddr   string        `env:"METRICS_ADDR" envDefault:":9090"`
	PostgresDSN   string        `env:"POSTGRES_DSN"`
	ClickhouseDSN string        `env:"CLICKHOUSE_DSN"`
	UseMemory     bool          `env:"USE_MEMORY" envDefault:"false"`
	Verbose       bool          `env:"VERBOSE" envDefault:"false"`
	LuckyWindow   int           `env:"LUCKY_WINDOW" envDefault:"50"`
	ShutdownGrace time.Duration `env:"SHUTDOWN_GRACE" envDefault:"30s"`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks that the storage settings are usable.
func (c *Config) Validate() error {
	if !c.UseMemory && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set USE_MEMORY=true for in-memory storage)")
	}
	if c.LuckyWindow <= 0 {
		return fmt.Errorf("LUCKY_WINDOW must be positive")
	}
	return nil
}
