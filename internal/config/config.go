// Package config loads the fake server configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/liamcoop/fakerules/internal/logger"
)

// Config is the fake server configuration.
type Config struct {
	ListenAddr      string        `yaml:"listen_addr"`
	DatabaseURL     string        `yaml:"database_url"`
	MigrationsPath  string        `yaml:"migrations_path"`
	LogLevel        string        `yaml:"log_level"`
	ExprCostLimit   uint64        `yaml:"expr_cost_limit"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	JournalTimeout  time.Duration `yaml:"journal_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		LogLevel:        "info",
		ExprCostLimit:   1_000_000,
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		JournalTimeout:  2 * time.Second,
	}
}

// Load reads the YAML file at path, if any, on top of Default and then
// applies environment overrides. An empty path falls back to
// FAKE_SERVER_CONFIG.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("FAKE_SERVER_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		c.ListenAddr = ":" + strings.TrimPrefix(port, ":")
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.DatabaseURL = url
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr is required")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if c.ExprCostLimit == 0 {
		return errors.New("expr_cost_limit must be positive")
	}
	if c.RequestTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return errors.New("request_timeout and shutdown_timeout must be positive")
	}
	if c.JournalTimeout < 0 {
		return errors.New("journal_timeout cannot be negative")
	}
	return nil
}
