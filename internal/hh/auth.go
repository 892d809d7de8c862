package hh

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// DefaultAuthURL is where applicants grant access to an application.
const DefaultAuthURL = "https://hh.ru/oauth/authorize"

// DefaultScopes are the scopes hhcli asks for.
var DefaultScopes = []string{"read", "resumes", "negotiations"}

// OAuthApp identifies a registered hh.ru application.
type OAuthApp struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	APIBase      string // token endpoint lives at APIBase + "/token"
	AuthURL      string
	UserAgent    string
}

func (a OAuthApp) config() *oauth2.Config {
	base := a.APIBase
	if base == "" {
		base = DefaultBaseURL
	}
	authURL := a.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	return &oauth2.Config{
		ClientID:     a.ClientID,
		ClientSecret: a.ClientSecret,
		RedirectURL:  a.RedirectURI,
		Scopes:       DefaultScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  base + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// withUserAgent makes oauth2 token requests carry the configured user agent.
func (a OAuthApp) withUserAgent(ctx context.Context) context.Context {
	ua := a.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	hc := &http.Client{
		Timeout:   DefaultTimeout,
		Transport: &uaTransport{ua: ua, base: http.DefaultTransport},
	}
	return context.WithValue(ctx, oauth2.HTTPClient, hc)
}

// AuthCodeURL returns the URL the user opens to grant access.
func (a OAuthApp) AuthCodeURL(state string) (string, error) {
	if a.ClientID == "" {
		return "", fmt.Errorf("client_id is not configured")
	}
	return a.config().AuthCodeURL(state), nil
}

// Exchange trades an authorization code for tokens.
func (a OAuthApp) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code is empty")
	}
	tok, err := a.config().Exchange(a.withUserAgent(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

// Refresh obtains a new access token from a refresh token.
func (a OAuthApp) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh_token configured")
	}
	// An expired token forces the source to hit the token endpoint.
	expired := &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Unix(1, 0)}
	tok, err := a.config().TokenSource(a.withUserAgent(ctx), expired).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh access token: %w", err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	return tok, nil
}

// TokenSource returns a source that serves accessToken and, when a refresh
// token and client credentials are available, refreshes it after expiry.
func (a OAuthApp) TokenSource(ctx context.Context, accessToken, refreshToken string, expiresAt time.Time) oauth2.TokenSource {
	tok := &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer", RefreshToken: refreshToken, Expiry: expiresAt}
	if refreshToken == "" || a.ClientID == "" || expiresAt.IsZero() {
		return oauth2.StaticTokenSource(tok)
	}
	return a.config().TokenSource(a.withUserAgent(ctx), tok)
}

type uaTransport struct {
	ua   string
	base http.RoundTripper
}

func (t *uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.ua)
	req.Header.Set("HH-User-Agent", t.ua)
	return t.base.RoundTrip(req)
}
