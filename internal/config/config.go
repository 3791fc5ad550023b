// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	ServerPort     string `env:"SERVER_PORT" envDefault:"8080"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	DatabasePath   string `env:"DATABASE_PATH" envDefault:"trendingblock.db"`
	GateSeconds    int    `env:"GATE_SECONDS" envDefault:"3"`
	ProgressTickMS int    `env:"PROGRESS_TICK_MS" envDefault:"800"`
	AdClientID     string `env:"AD_CLIENT_ID"`
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate log level
	validLogLevels := []string{"debug", "info", "warn", "error"}
	logLevel := strings.ToLower(c.LogLevel)
	isValidLevel := false
	for _, level := range validLogLevels {
		if logLevel == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return fmt.Errorf("invalid log level %q, must be one of: %v", c.LogLevel, validLogLevels)
	}

	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH cannot be empty")
	}

	if c.GateSeconds < 1 {
		return fmt.Errorf("GATE_SECONDS must be at least 1, got: %d", c.GateSeconds)
	}

	if c.ProgressTickMS < 1 {
		return fmt.Errorf("PROGRESS_TICK_MS must be at least 1, got: %d", c.ProgressTickMS)
	}

	return nil
}
