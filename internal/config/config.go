// Package config provides configuration loading and validation for the CLI
// and the proxy server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/hhcli/internal/schemas"
)

// Defaults applied when neither the config file nor the environment set a value.
const (
	DefaultAPIBase           = "https://api.hh.ru"
	DefaultRedirectURI       = "http://localhost:8501"
	DefaultUserAgent         = "hhcli/0.1 (+https://example.local)"
	DefaultRequestsPerSecond = 5.0
)

// Config represents the CLI configuration stored in ~/.hhcli/config.json.
// Environment variables take precedence over the file (see ApplyEnv).
type Config struct {
	// OAuth application and tokens
	ClientID       string `json:"client_id,omitempty"`
	ClientSecret   string `json:"client_secret,omitempty"`
	RedirectURI    string `json:"redirect_uri,omitempty"`
	AccessToken    string `json:"access_token,omitempty"`
	RefreshToken   string `json:"refresh_token,omitempty"`
	TokenExpiresAt int64  `json:"token_expires_at,omitempty"` // unix seconds

	// Upstream
	UserAgent         string  `json:"user_agent,omitempty"`
	APIBase           string  `json:"api_base,omitempty"`
	RequestsPerSecond float64 `json:"requests_per_second,omitempty"` // client-side throttle for all upstream calls

	// Storage
	DatabaseURL  string `json:"database_url,omitempty"`  // PostgreSQL URL; enables history and DB-backed settings
	SettingsPath string `json:"settings_path,omitempty"` // settings file when no database is configured
}

// Dir returns the directory holding hhcli state (~/.hhcli).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hhcli"
	}
	return filepath.Join(home, ".hhcli")
}

// DefaultPath returns the config file path, honoring HHCLI_CONFIG.
func DefaultPath() string {
	if p := os.Getenv("HHCLI_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.json")
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		RedirectURI:       DefaultRedirectURI,
		UserAgent:         DefaultUserAgent,
		APIBase:           DefaultAPIBase,
		RequestsPerSecond: DefaultRequestsPerSecond,
		SettingsPath:      filepath.Join(Dir(), "settings.json"),
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read, parsed or fails schema validation.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := schemas.Validate(schemas.Config, data); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Load reads the config file at path if it exists, fills defaults and applies
// the environment overlay. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, os.ErrNotExist):
			// first run
		default:
			return Config{}, err
		}
	}

	merged := cfg.MergeWithDefaults(Defaults())
	merged.ApplyEnv()
	if err := merged.Validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}

// Save writes cfg to path with owner-only permissions.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays HH_* and DATABASE_URL environment variables.
func (c *Config) ApplyEnv() {
	c.ClientID = getEnvString("HH_CLIENT_ID", c.ClientID)
	c.ClientSecret = getEnvString("HH_CLIENT_SECRET", c.ClientSecret)
	c.RedirectURI = getEnvString("HH_REDIRECT_URI", c.RedirectURI)
	c.UserAgent = getEnvString("HH_USER_AGENT", c.UserAgent)
	c.AccessToken = getEnvString("HH_ACCESS_TOKEN", c.AccessToken)
	c.RefreshToken = getEnvString("HH_REFRESH_TOKEN", c.RefreshToken)
	c.APIBase = getEnvString("HH_API_BASE", c.APIBase)
	c.RequestsPerSecond = getEnvFloat("HH_REQUESTS_PER_SECOND", c.RequestsPerSecond)
	c.DatabaseURL = getEnvString("DATABASE_URL", c.DatabaseURL)
	c.SettingsPath = getEnvString("HHCLI_SETTINGS", c.SettingsPath)
}

// Validate checks that the configuration has valid values.
// Note: a missing access token is not an error here; commands that call
// authenticated endpoints check it themselves.
func (c *Config) Validate() error {
	if c.APIBase != "" {
		u, err := url.Parse(c.APIBase)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: 'api_base' must be an absolute URL, got %q", c.APIBase)
		}
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("config error: 'requests_per_second' must be non-negative")
	}
	if c.TokenExpiresAt < 0 {
		return fmt.Errorf("config error: 'token_expires_at' must be non-negative")
	}
	return nil
}

// RequireToken returns an error when no access token is configured.
func (c *Config) RequireToken() error {
	if strings.TrimSpace(c.AccessToken) == "" {
		return fmt.Errorf("no access_token configured: set HH_ACCESS_TOKEN or access_token in %s", DefaultPath())
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.ClientID == "" {
		result.ClientID = defaults.ClientID
	}
	if result.ClientSecret == "" {
		result.ClientSecret = defaults.ClientSecret
	}
	if result.RedirectURI == "" {
		result.RedirectURI = defaults.RedirectURI
	}
	if result.AccessToken == "" {
		result.AccessToken = defaults.AccessToken
	}
	if result.RefreshToken == "" {
		result.RefreshToken = defaults.RefreshToken
	}
	if result.UserAgent == "" {
		result.UserAgent = defaults.UserAgent
	}
	if result.APIBase == "" {
		result.APIBase = defaults.APIBase
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.SettingsPath == "" {
		result.SettingsPath = defaults.SettingsPath
	}

	if result.TokenExpiresAt == 0 {
		result.TokenExpiresAt = defaults.TokenExpiresAt
	}
	if result.RequestsPerSecond == 0 {
		result.RequestsPerSecond = defaults.RequestsPerSecond
	}

	return result
}
