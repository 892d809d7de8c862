package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/hhcli/internal/config"
	"github.com/jonathan/hhcli/internal/logging"
	"github.com/jonathan/hhcli/internal/server"
)

var (
	servePort    int
	serveOrigins []string
	serveSubject string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local HTTP proxy",
	Long: `Start a local HTTP server that exposes search, eligibility checks and
responses as JSON endpoints under /api.

When API_JWT_SECRET is set every endpoint except /api/health requires a bearer
token; pass --issue-token to print one for the given subject on startup.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origins", nil, "Allowed CORS origins (default: any)")
	serveCmd.Flags().StringVar(&serveSubject, "issue-token", "", "Print a bearer token for this subject on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.NewServer(verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, log: logger, client: newClient(ctx, cfg, logger)}
	store, database, err := a.stores(ctx)
	if err != nil {
		return err
	}
	srvCfg := server.Config{
		Port:           servePort,
		Client:         a.client,
		Settings:       store,
		Logger:         logger,
		AllowedOrigins: serveOrigins,
	}
	if database != nil {
		defer database.Close()
		srvCfg.History = database
	}
	if config.JWTEnabled() {
		jwtCfg, err := config.NewJWTConfig()
		if err != nil {
			return err
		}
		srvCfg.JWT = jwtCfg
	} else if serveSubject != "" {
		return fmt.Errorf("--issue-token requires API_JWT_SECRET")
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		return err
	}
	if serveSubject != "" {
		token, err := srv.JWT().GenerateToken(serveSubject)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
	}

	if cfg.AccessToken == "" {
		logger.Warn("no access token configured; authenticated endpoints will return 401")
	}
	logger.Info("starting proxy", zap.Int("port", servePort), zap.Bool("history", database != nil))
	return srv.Start(ctx)
}
