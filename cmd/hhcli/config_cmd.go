package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/hhcli/internal/config"
	"github.com/jonathan/hhcli/internal/logging"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or edit the config file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets redacted",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set one key in the config file",
	Long: "Set one key in the config file. Keys: " + strings.Join(configKeys(), ", ") +
		". An empty VALUE removes the key.",
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), configPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// configSetters maps config keys to the field they assign.
var configSetters = map[string]func(c *config.Config, v string) error{
	"client_id":     func(c *config.Config, v string) error { c.ClientID = v; return nil },
	"client_secret": func(c *config.Config, v string) error { c.ClientSecret = v; return nil },
	"redirect_uri":  func(c *config.Config, v string) error { c.RedirectURI = v; return nil },
	"access_token":  func(c *config.Config, v string) error { c.AccessToken = v; return nil },
	"refresh_token": func(c *config.Config, v string) error { c.RefreshToken = v; return nil },
	"user_agent":    func(c *config.Config, v string) error { c.UserAgent = v; return nil },
	"api_base":      func(c *config.Config, v string) error { c.APIBase = v; return nil },
	"database_url":  func(c *config.Config, v string) error { c.DatabaseURL = v; return nil },
	"settings_path": func(c *config.Config, v string) error { c.SettingsPath = v; return nil },
	"requests_per_second": func(c *config.Config, v string) error {
		if v == "" {
			c.RequestsPerSecond = 0
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("requests_per_second must be a number: %w", err)
		}
		c.RequestsPerSecond = f
		return nil
	},
	"token_expires_at": func(c *config.Config, v string) error {
		if v == "" {
			c.TokenExpiresAt = 0
			return nil
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("token_expires_at must be unix seconds: %w", err)
		}
		c.TokenExpiresAt = n
		return nil
	},
}

func configKeys() []string {
	keys := make([]string, 0, len(configSetters))
	for k := range configSetters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// updateConfigFile applies fn to the config file as stored, without defaults
// or environment overrides, and writes it back.
func updateConfigFile(fn func(c *config.Config) error) error {
	cfg := &config.Config{}
	loaded, err := config.LoadConfig(configPath)
	switch {
	case err == nil:
		cfg = loaded
	case errors.Is(err, os.ErrNotExist):
	default:
		return err
	}

	if err := fn(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return config.Save(configPath, *cfg)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg.ClientSecret = logging.Redact(cfg.ClientSecret)
	cfg.AccessToken = logging.Redact(cfg.AccessToken)
	cfg.RefreshToken = logging.Redact(cfg.RefreshToken)
	if cfg.DatabaseURL != "" {
		cfg.DatabaseURL = logging.Redact(cfg.DatabaseURL)
	}
	return writeJSON(cmd.OutOrStdout(), cfg)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := strings.ToLower(strings.TrimSpace(args[0])), strings.TrimSpace(args[1])
	set, ok := configSetters[key]
	if !ok {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(configKeys(), ", "))
	}
	if err := updateConfigFile(func(c *config.Config) error { return set(c, value) }); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s updated in %s\n", key, configPath)
	return nil
}
