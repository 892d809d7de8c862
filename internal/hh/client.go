// Package hh is a client for the hh.ru applicant API.
package hh

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.hh.ru"

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is sent when no user agent is configured. hh.ru rejects
// requests without a descriptive one.
const DefaultUserAgent = "hhcli/0.1 (+https://example.local)"

const (
	defaultRetryAfter = time.Second
	maxRetryAfter     = 30 * time.Second
	bodyPreviewLen    = 500
)

// Client talks to the hh.ru API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	tokens     oauth2.TokenSource
	limiter    *rate.Limiter
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root (used by tests and proxies).
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithUserAgent sets the User-Agent and HH-User-Agent headers.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource sets where bearer tokens come from. Without one, calls to
// authenticated endpoints fail with ErrNoToken.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithToken is shorthand for a static bearer token.
func WithToken(accessToken string) Option {
	return func(c *Client) {
		if accessToken == "" {
			c.tokens = nil
			return
		}
		c.tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the production API.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     zap.NewNop(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one API call.
type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	auth        bool
}

// response is a fully read API response.
type response struct {
	status    int
	header    http.Header
	body      []byte
	requestID string
}

// do sends req, backing off once on HTTP 429, and returns an *APIError for
// any non-2xx status.
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.status == http.StatusTooManyRequests {
		delay := retryAfter(resp.header)
		c.logger.Warn("rate limited by upstream, backing off",
			zap.String("path", req.path),
			zap.Duration("delay", delay),
			zap.String("request_id", resp.requestID))
		if err := c.sleep(ctx, delay); err != nil {
			return nil, &TransportError{Method: req.method, Path: req.path, Cause: err}
		}
		resp, err = c.send(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	if resp.status < 200 || resp.status >= 300 {
		return nil, newAPIError(req.method, req.path, resp)
	}
	return resp, nil
}

// send performs exactly one HTTP round trip.
func (c *Client) send(ctx context.Context, req request) (*response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: req.method, Path: req.path, Cause: err}
		}
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, &TransportError{Method: req.method, Path: req.path, Cause: err}
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("HH-User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.auth {
		if c.tokens == nil {
			return nil, ErrNoToken
		}
		tok, err := c.tokens.Token()
		if err != nil {
			return nil, &TransportError{Method: req.method, Path: req.path, Cause: fmt.Errorf("obtain token: %w", err)}
		}
		tok.SetAuthHeader(httpReq)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: req.method, Path: req.path, Cause: err}
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Method: req.method, Path: req.path, Cause: fmt.Errorf("read body: %w", err)}
	}

	resp := &response{
		status: httpResp.StatusCode,
		header: httpResp.Header,
		body:   data,
	}
	resp.requestID = parseRequestID(httpResp.Header, data)

	c.logger.Debug("hh request",
		zap.String("method", req.method),
		zap.String("path", req.path),
		zap.String("query", req.query.Encode()),
		zap.Bool("auth", req.auth),
		zap.Int("status", resp.status),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", resp.requestID))

	return resp, nil
}

// getJSON issues a GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, auth bool, out any) error {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: path, query: query, auth: auth})
	if err != nil {
		return err
	}
	return decode(http.MethodGet, path, resp, out)
}

func decode(method, path string, resp *response, out any) error {
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &TransportError{Method: method, Path: path, Cause: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// parseRequestID reads the upstream request id from headers, falling back to
// a request_id field in a JSON body.
func parseRequestID(h http.Header, body []byte) string {
	if rid := h.Get("X-Request-Id"); rid != "" {
		return rid
	}
	if rid := h.Get("Request-Id"); rid != "" {
		return rid
	}
	var probe struct {
		RequestID string `json:"request_id"`
	}
	if len(body) > 0 && json.Unmarshal(body, &probe) == nil {
		return probe.RequestID
	}
	return ""
}

// retryAfter parses Retry-After as seconds or an HTTP date, clamped to
// (0, maxRetryAfter].
func retryAfter(h http.Header) time.Duration {
	raw := strings.TrimSpace(h.Get("Retry-After"))
	if raw == "" {
		return defaultRetryAfter
	}
	var d time.Duration
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		d = time.Duration(secs * float64(time.Second))
	} else if at, err := http.ParseTime(raw); err == nil {
		d = time.Until(at)
	} else {
		return defaultRetryAfter
	}
	if d <= 0 {
		return defaultRetryAfter
	}
	if d > maxRetryAfter {
		return maxRetryAfter
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
