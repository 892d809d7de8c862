package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/jonathan/hhcli/internal/config"
	"github.com/jonathan/hhcli/internal/server"
)

var (
	tokenState     string
	tokenRefresh   string
	tokenExpiresIn int
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Obtain and store hh.ru OAuth tokens",
	Long: `Obtain hh.ru OAuth tokens and store them in the config file.

  1. hhcli token url           open the printed URL and grant access
  2. hhcli token exchange CODE paste the code (or the whole redirect URL)

Tokens are refreshed automatically while client_id, client_secret and a
refresh token are configured; 'hhcli token refresh' forces it.`,
}

var tokenURLCmd = &cobra.Command{
	Use:   "url",
	Short: "Print the authorization URL",
	Args:  cobra.NoArgs,
	RunE:  runTokenURL,
}

var tokenExchangeCmd = &cobra.Command{
	Use:   "exchange CODE|REDIRECT_URL",
	Short: "Exchange an authorization code for tokens",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenExchange,
}

var tokenRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the access token now",
	Args:  cobra.NoArgs,
	RunE:  runTokenRefresh,
}

var tokenSetCmd = &cobra.Command{
	Use:   "set ACCESS_TOKEN",
	Short: "Store an access token obtained elsewhere",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenSet,
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue SUBJECT",
	Short: "Issue a bearer token for the local proxy",
	Long:  "Issue a bearer token for 'hhcli serve'. Requires API_JWT_SECRET.",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenIssue,
}

func init() {
	tokenURLCmd.Flags().StringVar(&tokenState, "state", "", "OAuth state parameter (default: random)")
	tokenSetCmd.Flags().StringVar(&tokenRefresh, "refresh", "", "Refresh token")
	tokenSetCmd.Flags().IntVar(&tokenExpiresIn, "expires-in", 0, "Seconds until the access token expires")

	tokenCmd.AddCommand(tokenURLCmd)
	tokenCmd.AddCommand(tokenExchangeCmd)
	tokenCmd.AddCommand(tokenRefreshCmd)
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}

// authCode accepts a bare code or a redirect URL carrying ?code=.
func authCode(arg string) string {
	arg = strings.TrimSpace(arg)
	if !strings.Contains(arg, "://") {
		return arg
	}
	u, err := url.Parse(arg)
	if err != nil {
		return arg
	}
	if code := u.Query().Get("code"); code != "" {
		return code
	}
	return arg
}

func storeToken(tok *oauth2.Token) error {
	return updateConfigFile(func(c *config.Config) error {
		c.AccessToken = tok.AccessToken
		if tok.RefreshToken != "" {
			c.RefreshToken = tok.RefreshToken
		}
		c.TokenExpiresAt = 0
		if !tok.Expiry.IsZero() {
			c.TokenExpiresAt = tok.Expiry.Unix()
		}
		return nil
	})
}

func printTokenSaved(cmd *cobra.Command, tok *oauth2.Token) {
	msg := "token saved to " + configPath
	if !tok.Expiry.IsZero() {
		msg += fmt.Sprintf(" (expires %s)", tok.Expiry.Local().Format(time.RFC3339))
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
}

func runTokenURL(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	state := tokenState
	if state == "" {
		state = uuid.NewString()
	}
	u, err := oauthApp(cfg).AuthCodeURL(state)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), u)
	return nil
}

func runTokenExchange(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	tok, err := oauthApp(cfg).Exchange(cmd.Context(), authCode(args[0]))
	if err != nil {
		return err
	}
	if err := storeToken(tok); err != nil {
		return err
	}
	printTokenSaved(cmd, tok)
	return nil
}

func runTokenRefresh(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	tok, err := oauthApp(cfg).Refresh(cmd.Context(), cfg.RefreshToken)
	if err != nil {
		return err
	}
	if err := storeToken(tok); err != nil {
		return err
	}
	printTokenSaved(cmd, tok)
	return nil
}

func runTokenSet(cmd *cobra.Command, args []string) error {
	if tokenExpiresIn < 0 {
		return fmt.Errorf("--expires-in must not be negative")
	}
	tok := &oauth2.Token{AccessToken: strings.TrimSpace(args[0]), RefreshToken: tokenRefresh}
	if tok.AccessToken == "" {
		return fmt.Errorf("access token is empty")
	}
	if tokenExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(tokenExpiresIn) * time.Second)
	}
	if err := storeToken(tok); err != nil {
		return err
	}
	printTokenSaved(cmd, tok)
	return nil
}

func runTokenIssue(cmd *cobra.Command, args []string) error {
	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	token, err := server.NewJWTService(jwtCfg).GenerateToken(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
