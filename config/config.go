// Package config provides configuration for the debate service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Archive database
	ArchiveDSN string

	// Journal
	JournalCapacity int

	// Defaults applied to start requests that omit budgets
	DefaultMaxRounds int
	DefaultMaxWall   time.Duration

	// Scheduler cooperative yield between turns and rounds
	YieldInterval time.Duration

	// Stream keep-alive cadence
	KeepAliveInterval time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:          getEnvInt("HTTP_PORT", 8080),
		ArchiveDSN:        getEnv("ARCHIVE_DSN", "file:arbiter.db?cache=shared&mode=rwc"),
		JournalCapacity:   getEnvInt("JOURNAL_CAPACITY", 500),
		DefaultMaxRounds:  getEnvInt("DEFAULT_MAX_ROUNDS", 3),
		DefaultMaxWall:    time.Duration(getEnvInt("DEFAULT_MAX_WALL_MS", 60000)) * time.Millisecond,
		YieldInterval:     time.Duration(getEnvInt("YIELD_MS", 5)) * time.Millisecond,
		KeepAliveInterval: time.Duration(getEnvInt("KEEPALIVE_MS", 25000)) * time.Millisecond,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
