package ratelimit

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the bucket shape for one method and path. A Path ending
// in "/" matches every path below it.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int // requests per Window
	Window time.Duration
	Burst  int // defaults to Limit
}

// Defaults used when the matching RATE_LIMIT_* variable is unset or invalid.
const (
	defaultLimit           = 600
	defaultWindow          = time.Minute
	defaultCleanupInterval = 5 * time.Minute
	defaultIdleTimeout     = time.Hour
)

// LoadConfig builds the limiter configuration from RATE_LIMIT_* variables.
func LoadConfig() *Config {
	if !envBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    envInt("RATE_LIMIT_DEFAULT_LIMIT", defaultLimit),
		DefaultWindow:   envDuration("RATE_LIMIT_DEFAULT_WINDOW", defaultWindow),
		CleanupInterval: envDuration("RATE_LIMIT_CLEANUP_INTERVAL", defaultCleanupInterval),
		IdleTimeout:     envDuration("RATE_LIMIT_IDLE_TIMEOUT", defaultIdleTimeout),
		Whitelist:       clientSet(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       clientSet(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-endpoint tiers. Every call behind
// these routes costs at least one hh.ru request; mass responses cost one
// per target and send real applications.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		{Path: "/api/respond/mass", Method: http.MethodPost, Limit: 10, Window: time.Hour, Burst: 2},

		{Path: "/api/respond", Method: http.MethodPost, Limit: 60, Window: time.Minute, Burst: 5},
		{Path: "/api/settings", Method: http.MethodPut, Limit: 30, Window: time.Minute, Burst: 5},

		{Path: "/api/search", Method: http.MethodPost, Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/api/can-respond", Method: http.MethodPost, Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/api/vacancies/", Method: http.MethodGet, Limit: 120, Window: time.Minute, Burst: 20},
	}
}

// lookup returns the trimmed value of key and whether it is set.
func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func envInt(key string, fallback int) int {
	if v, ok := lookup(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, ok := lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := lookup(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// clientSet splits a comma- or space-separated client list.
func clientSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, id := range strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' }) {
		set[id] = true
	}
	return set
}
