// Package config loads application settings from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config holds every setting the server needs. Required fields fail fast at
// startup rather than at first use.
type Config struct {
	// Address the HTTP server binds to. ENV: ADDRESS
	Address string `env:"ADDRESS,default=0.0.0.0:5000"`
	// AllowedOrigin for CORS. ENV: ALLOWED_ORIGIN
	AllowedOrigin string `env:"ALLOWED_ORIGIN,default=http://localhost:5000"`
	// MaxAge caps CORS preflight caching, in seconds. ENV: MAX_AGE
	MaxAge int `env:"MAX_AGE,default=3600"`

	// DatabaseURL is the lib/pq connection string. ENV: DATABASE_URL
	DatabaseURL string `env:"DATABASE_URL,required"`
	// MaxConnections caps the database pool. ENV: MAX_CONNECTIONS
	MaxConnections int `env:"MAX_CONNECTIONS,default=15"`

	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`

	// TokenSecret signs access tokens. ENV: JWT_SECRET_KEY
	TokenSecret string `env:"JWT_SECRET_KEY,required"`
	// TokenMinutesValid is the sliding validity window for access tokens,
	// in minutes. ENV: JWT_MINS_VALID_FOR
	TokenMinutesValid int `env:"JWT_MINS_VALID_FOR,default=30"`
}

// Load populates Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.TokenMinutesValid <= 0 {
		return Config{}, fmt.Errorf("config: JWT_MINS_VALID_FOR must be positive, got %d", cfg.TokenMinutesValid)
	}
	return cfg, nil
}

// TokenValidity returns the token validity window as a duration.
func (c Config) TokenValidity() time.Duration {
	return time.Duration(c.TokenMinutesValid) * time.Minute
}
