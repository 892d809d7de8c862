package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/hhcli/internal/config"
	"github.com/jonathan/hhcli/internal/db"
	"github.com/jonathan/hhcli/internal/hh"
	"github.com/jonathan/hhcli/internal/respond"
	"github.com/jonathan/hhcli/internal/server/middleware"
	"github.com/jonathan/hhcli/internal/server/ratelimit"
	"github.com/jonathan/hhcli/internal/settings"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds graceful shutdown; a mass response in progress
// finishes its current target before the handler returns.
const shutdownTimeout = 30 * time.Second

// History records and lists sent responses. *db.DB implements it.
type History interface {
	LogOutcome(ctx context.Context, batchID uuid.UUID, cfg respond.Config, o respond.Outcome, dryRun bool) (uuid.UUID, error)
	LogResult(ctx context.Context, cfg respond.Config, r *respond.Result) error
	ListResponses(ctx context.Context, f db.ResponseFilter) ([]db.SentResponse, error)
}

var _ History = (*db.DB)(nil)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	client      *hh.Client
	store       settings.Store
	history     History
	log         *zap.Logger
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
}

// Config holds server configuration
type Config struct {
	Port           int
	Client         *hh.Client
	Settings       settings.Store
	History        History // nil disables /api/responses and history logging
	Logger         *zap.Logger
	JWT            *config.JWTConfig // nil disables bearer authentication
	AllowedOrigins []string          // empty allows any origin
	RateLimit      *ratelimit.Config // nil loads RATE_LIMIT_* from the environment
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("server config: hh client is required")
	}
	if cfg.Settings == nil {
		return nil, fmt.Errorf("server config: settings store is required")
	}

	s := &Server{
		client:  cfg.Client,
		store:   cfg.Settings,
		history: cfg.History,
		log:     cfg.Logger,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if cfg.JWT != nil {
		s.jwtService = NewJWTService(cfg.JWT)
	}

	rlConfig := cfg.RateLimit
	if rlConfig == nil {
		rlConfig = ratelimit.LoadConfig()
	}
	s.rateLimiter = ratelimit.NewLimiter(rlConfig)

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+ratelimit.HealthPath, s.handleHealth)
	s.route(mux, "GET /api/settings", s.handleGetSettings)
	s.route(mux, "PUT /api/settings", s.handlePutSettings)
	s.route(mux, "POST /api/search", s.handleSearch)
	s.route(mux, "GET /api/vacancies/{id}", s.handleGetVacancy)
	s.route(mux, "GET /api/resumes", s.handleResumes)
	s.route(mux, "POST /api/can-respond", s.handleCanRespond)
	s.route(mux, "POST /api/respond", s.handleRespond)
	s.route(mux, "POST /api/respond/mass", s.handleRespondMass)
	s.route(mux, "GET /api/responses", s.handleListResponses)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(corsHandler.Handler(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // mass responses are paced and may run for minutes
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// route registers an /api handler, behind bearer auth when enabled.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	if s.jwtService == nil {
		mux.Handle(pattern, h)
		return
	}
	mux.Handle(pattern, middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(h))
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// JWT returns the token service, or nil when authentication is disabled.
func (s *Server) JWT() *JWTService {
	return s.jwtService
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.rateLimiter.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("server starting", zap.String("addr", ln.Addr().String()), zap.Bool("auth", s.jwtService != nil))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

// statusRecorder captures the status code written by the next handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractClientID uses the remote IP; X-Forwarded-For is not trusted.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"limit":     info.Limit,
		"remaining": info.Remaining,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if secs := int(info.RetryAfter.Round(time.Second).Seconds()); info.RetryAfter > 0 {
		if secs < 1 {
			secs = 1
		}
		response["retry_after"] = secs
		w.Header().Set("Retry-After", fmt.Sprintf("%d", secs))
	}

	s.log.Warn("rate limit exceeded",
		zap.String("path", r.URL.Path),
		zap.String("client", s.extractClientID(r)),
		zap.Int("limit", info.Limit),
	)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// envelope wraps every successful response.
type envelope struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

// ok writes data inside the success envelope.
func (s *Server) ok(w http.ResponseWriter, data any) {
	s.jsonResponse(w, http.StatusOK, envelope{OK: true, Data: data})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	} else {
		s.log.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	s.errorResponse(w, status, err.Error())
}
