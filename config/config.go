package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port string

	// Database configuration. When DatabaseURL is set the server uses
	// PostgreSQL; otherwise it falls back to the embedded SQLite file.
	DatabaseURL string
	SQLitePath  string

	// Session configuration
	SessionSecret string
	RedisURL      string

	// Email configuration
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	EmailFrom     string
	EmailFromName string

	// Base URL used to build verification links
	BaseURL string
}

// Load creates a new Config instance from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "5001"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		SQLitePath:    getEnv("SQLITE_PATH", "sushi.db"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		RedisURL:      os.Getenv("REDIS_URL"),
		SMTPHost:      os.Getenv("SMTP_HOST"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  os.Getenv("SMTP_USERNAME"),
		SMTPPassword:  os.Getenv("SMTP_PASSWORD"),
		EmailFrom:     getEnv("EMAIL_FROM", "noreply@sushihost.local"),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "Sushi Host"),
		BaseURL:       getEnv("BASE_URL", "http://localhost:5001"),
	}

	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
	}

	return cfg, nil
}

// UsesPostgres reports whether the client/server backend is active.
// Production deploys always set DATABASE_URL, so this doubles as the
// "is production" signal for cookie flags and the schema guard.
func (c *Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
