package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/hhcli/internal/config"
	"github.com/jonathan/hhcli/internal/db"
	"github.com/jonathan/hhcli/internal/hh"
	"github.com/jonathan/hhcli/internal/logging"
	"github.com/jonathan/hhcli/internal/settings"
)

// app bundles the configuration, logger and API client a command runs with.
type app struct {
	cfg    config.Config
	log    *zap.Logger
	client *hh.Client
}

// newApp loads the config file, applies the environment and builds the client.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(verbose)
	if err != nil {
		return nil, err
	}
	logger.Debug("config loaded",
		zap.String("path", configPath),
		zap.String("api_base", cfg.APIBase),
		logging.Token("access_token", cfg.AccessToken),
		zap.Bool("database", cfg.DatabaseURL != ""),
	)
	return &app{cfg: cfg, log: logger, client: newClient(cmd.Context(), cfg, logger)}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

// requireToken fails early for commands that only make authenticated calls.
func (a *app) requireToken() error {
	return a.cfg.RequireToken()
}

func oauthApp(cfg config.Config) hh.OAuthApp {
	return hh.OAuthApp{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		APIBase:      cfg.APIBase,
		UserAgent:    cfg.UserAgent,
	}
}

func newClient(ctx context.Context, cfg config.Config, logger *zap.Logger) *hh.Client {
	opts := []hh.Option{
		hh.WithBaseURL(cfg.APIBase),
		hh.WithUserAgent(cfg.UserAgent),
		hh.WithRateLimit(cfg.RequestsPerSecond),
		hh.WithLogger(logger),
	}
	if cfg.AccessToken != "" {
		var expiresAt time.Time
		if cfg.TokenExpiresAt > 0 {
			expiresAt = time.Unix(cfg.TokenExpiresAt, 0)
		}
		ts := oauthApp(cfg).TokenSource(ctx, cfg.AccessToken, cfg.RefreshToken, expiresAt)
		opts = append(opts, hh.WithTokenSource(ts))
	}
	return hh.New(opts...)
}

// stores returns the settings store and, when DATABASE_URL is configured, the
// database that also keeps the response history. The caller closes the database.
func (a *app) stores(ctx context.Context) (settings.Store, *db.DB, error) {
	if a.cfg.DatabaseURL == "" {
		return settings.NewFileStore(a.cfg.SettingsPath), nil, nil
	}
	database, err := db.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, nil, err
	}
	return database.Settings(), database, nil
}

// resolveResume returns flagValue, or the saved resume when it is blank.
func resolveResume(flagValue string, saved settings.Settings) (string, error) {
	if id := strings.TrimSpace(flagValue); id != "" {
		return id, nil
	}
	if saved.ResumeID != "" {
		return saved.ResumeID, nil
	}
	return "", errors.New("no resume selected: pass --resume or run 'hhcli settings set --resume ID'")
}

// resolveMessage picks the cover letter: --message-file, then --message, then
// the saved template.
func resolveMessage(cmd *cobra.Command, message, messageFile string, saved settings.Settings) (string, error) {
	if messageFile != "" {
		data, err := os.ReadFile(messageFile)
		if err != nil {
			return "", fmt.Errorf("failed to read message file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	if cmd.Flags().Changed("message") {
		return message, nil
	}
	return saved.Message, nil
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
