package config

import (
	"fmt"
	"time"
)

// AuthConfig holds configuration for JWT bearer authentication of the /v1 API.
// Authentication is disabled when JWTSecret is empty.
type AuthConfig struct {
	JWTSecret       string `mapstructure:"jwt_secret"`
	Issuer          string `mapstructure:"issuer"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
}

// Enabled reports whether requests must carry a bearer token.
func (c AuthConfig) Enabled() bool {
	return c.JWTSecret != ""
}

// Expiration returns the lifetime of issued tokens.
func (c AuthConfig) Expiration() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

// normalize validates the configuration.
func (c AuthConfig) normalize() error {
	if !c.Enabled() {
		return nil
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("config error: 'server.auth.jwt_secret' must be at least 16 characters")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("config error: 'server.auth.expiration_hours' must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
