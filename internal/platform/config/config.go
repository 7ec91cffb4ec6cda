// Copyright (c) 2026 Trekora. All rights reserved.
// Author: dev@trekora.app

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, TokenService) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Trekora API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// AppBaseURL is the externally reachable origin of this deployment.
	// It is embedded into password-reset links sent by email.
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Identity token signing.
	//
	// JWTSecret is the HMAC signing key. JWTExpiresIn bounds the token's
	// validity window, and JWTCookieExpiresDays bounds the browser cookie
	// that carries it. Both can be rotated per deployment without a code change.
	JWTSecret            string        `env:"JWT_SECRET,required"`
	JWTExpiresIn         time.Duration `env:"JWT_EXPIRES_IN"           envDefault:"2160h"`
	JWTCookieExpiresDays int           `env:"JWT_COOKIE_EXPIRES_DAYS"  envDefault:"90"`

	// Outbound email (Postmark). Tokens are optional so development
	// environments can fall back to the file-based sender.
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	EmailSender          string `env:"EMAIL_SENDER"     envDefault:"no-reply@trekora.app"`
	EmailOutboxDir       string `env:"EMAIL_OUTBOX_DIR" envDefault:"./tmp/outbox"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
//
// Production mode flips security-sensitive behavior: session cookies are
// marked Secure and the CORS allow-list is enforced.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CookieTTL converts the configured cookie lifetime (in days) to a duration.
func (c *Config) CookieTTL() time.Duration {
	return time.Duration(c.JWTCookieExpiresDays) * 24 * time.Hour
}
