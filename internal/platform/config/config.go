// Package config loads application configuration from environment variables.
// All variables use the HTL1_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Cache       CacheConfig
	Grading     GradingConfig
	Class       ClassConfig
	Log         LogConfig
	LessonsPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL means
// run without a database, on in-memory stores.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL disables the
// leaderboard cache.
type CacheConfig struct {
	URL string
}

// GradingConfig holds speech grading service settings.
type GradingConfig struct {
	URL string
}

// ClassConfig identifies the class this deployment serves.
type ClassConfig struct {
	ID string
	// SeedRoster controls whether an empty directory is seeded on boot.
	SeedRoster bool
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with HTL1_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("HTL1_SERVER_PORT", 8080),
			Host: envStr("HTL1_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("HTL1_DATABASE_URL", ""),
			MaxConns: envInt("HTL1_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("HTL1_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			URL: envStr("HTL1_CACHE_URL", ""),
		},
		Grading: GradingConfig{
			URL: envStr("HTL1_GRADING_URL", ""),
		},
		Class: ClassConfig{
			ID:         envStr("HTL1_CLASS_ID", "1A3"),
			SeedRoster: envBool("HTL1_CLASS_SEED_ROSTER", true),
		},
		Log: LogConfig{
			Level:  envStr("HTL1_LOG_LEVEL", "info"),
			Format: envStr("HTL1_LOG_FORMAT", "json"),
		},
		LessonsPath: envStr("HTL1_LESSONS_PATH", "./lessons"),
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTL1_SERVER_PORT must be 1-65535, got %d", c.Server.Port)
	}

	if c.Class.ID == "" {
		return fmt.Errorf("HTL1_CLASS_ID must not be empty")
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("HTL1_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
