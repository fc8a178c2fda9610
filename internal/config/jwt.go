package config

import (
	"fmt"
	"time"
)

// JWTConfig holds configuration for JWT token generation and validation.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// AuthEnabled reports whether the HTTP surface requires bearer tokens.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// JWT returns the token settings. It fails when no secret is configured.
func (c *Config) JWT() (*JWTConfig, error) {
	jwtConfig := &JWTConfig{
		Secret:          c.JWTSecret,
		ExpirationHours: c.JWTExpirationHours,
	}
	if jwtConfig.ExpirationHours == 0 {
		jwtConfig.ExpirationHours = DefaultJWTExpirationHours
	}
	if err := jwtConfig.normalize(); err != nil {
		return nil, err
	}
	return jwtConfig, nil
}

// Expiration returns the token lifetime.
func (c *JWTConfig) Expiration() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

// normalize validates the configuration.
func (c *JWTConfig) normalize() error {
	if c.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required but not set")
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.ExpirationHours)
	}
	return nil
}
