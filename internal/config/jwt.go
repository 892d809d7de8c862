package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	envProxySecret   = "API_JWT_SECRET"
	envProxyTokenTTL = "API_JWT_EXPIRATION_HOURS"

	defaultProxyTokenHours = 24
)

// JWTConfig controls the bearer tokens that guard the local hh.ru proxy.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// TTL is how long an issued proxy token stays valid.
func (c *JWTConfig) TTL() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}

// JWTEnabled reports whether the proxy should require bearer tokens.
func JWTEnabled() bool {
	return getEnvString(envProxySecret, "") != ""
}

// NewJWTConfig reads the proxy token settings from the environment.
func NewJWTConfig() (*JWTConfig, error) {
	secret := getEnvString(envProxySecret, "")
	if secret == "" {
		return nil, errors.New(envProxySecret + " is required to issue or check proxy tokens")
	}
	hours, err := getEnvInt(envProxyTokenTTL, defaultProxyTokenHours)
	if err != nil {
		return nil, err
	}
	if hours < 1 {
		return nil, fmt.Errorf("%s must be at least 1 hour, got %d", envProxyTokenTTL, hours)
	}
	return &JWTConfig{Secret: secret, ExpirationHours: hours}, nil
}
