// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application settings from OPARKING_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"OPARKING_DB_PATH" envDefault:"./data/oparking.db"`
	SessionSecret string `env:"OPARKING_SESSION_SECRET"`
	ServerHost    string `env:"OPARKING_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"OPARKING_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"OPARKING_ENV" envDefault:"development"`
	LogLevel      string `env:"OPARKING_LOG_LEVEL" envDefault:"info"`

	// Billing
	HourlyRate float64 `env:"OPARKING_HOURLY_RATE" envDefault:"10"`
	Currency   string  `env:"OPARKING_CURRENCY" envDefault:"Rs"`

	// Cache configuration
	RedisURL    string `env:"OPARKING_REDIS_URL"`
	CachePrefix string `env:"OPARKING_CACHE_PREFIX" envDefault:"oparking:"`
	CacheTTL    int    `env:"OPARKING_CACHE_TTL" envDefault:"60"` // seconds

	// Domain events
	AMQPURL   string `env:"OPARKING_AMQP_URL"`
	AMQPQueue string `env:"OPARKING_AMQP_QUEUE" envDefault:"parking.events"`

	// Seeding (migrate command)
	AdminEmail    string `env:"OPARKING_ADMIN_EMAIL" envDefault:"admin@parking.com"`
	AdminPassword string `env:"OPARKING_ADMIN_PASSWORD"`
	AdminName     string `env:"OPARKING_ADMIN_NAME" envDefault:"Admin"`

	// Scheduled jobs
	StaleAfterHours    int `env:"OPARKING_STALE_AFTER_HOURS" envDefault:"24"`
	EventRetentionDays int `env:"OPARKING_EVENT_RETENTION_DAYS" envDefault:"90"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// UseAMQP returns true if a message broker is configured.
func (c Config) UseAMQP() bool {
	return c.AMQPURL != ""
}

// CacheDuration returns CacheTTL as a duration.
func (c Config) CacheDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// StaleAfter returns how long a reservation may stay active before it is
// reported.
func (c Config) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterHours) * time.Hour
}

// EventRetention returns how long audit events are kept.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and validates them.
// The session secret is checked separately by ValidateSessionSecret, since
// the migrate command does not need one.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	switch c.Env {
	case "development", "production":
	default:
		errs = append(errs, fmt.Errorf("OPARKING_ENV must be development or production, got %q", c.Env))
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("OPARKING_SERVER_PORT out of range: %d", c.ServerPort))
	}
	if c.HourlyRate <= 0 {
		errs = append(errs, fmt.Errorf("OPARKING_HOURLY_RATE must be positive, got %v", c.HourlyRate))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("OPARKING_CACHE_TTL must be positive, got %d", c.CacheTTL))
	}
	if c.StaleAfterHours <= 0 {
		errs = append(errs, fmt.Errorf("OPARKING_STALE_AFTER_HOURS must be positive, got %d", c.StaleAfterHours))
	}
	if c.EventRetentionDays <= 0 {
		errs = append(errs, fmt.Errorf("OPARKING_EVENT_RETENTION_DAYS must be positive, got %d", c.EventRetentionDays))
	}
	if strings.TrimSpace(c.AdminEmail) == "" {
		errs = append(errs, errors.New("OPARKING_ADMIN_EMAIL must not be empty"))
	}

	return errors.Join(errs...)
}

// ValidateSessionSecret checks the secret used for session and CSRF keys.
func (c *Config) ValidateSessionSecret() error {
	if c.SessionSecret == "" {
		return errors.New("OPARKING_SESSION_SECRET is required; " +
			"generate one with: openssl rand -base64 32")
	}

	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("OPARKING_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return errors.New("OPARKING_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(c.SessionSecret) {
		slog.Warn("OPARKING_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
