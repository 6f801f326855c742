package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/signal-outreach/internal/config"
	"github.com/jonathan/signal-outreach/internal/logger"
	"github.com/jonathan/signal-outreach/internal/pipeline"
	"github.com/jonathan/signal-outreach/internal/server/middleware"
	"github.com/jonathan/signal-outreach/internal/server/ratelimit"
	"github.com/jonathan/signal-outreach/internal/store"
	"github.com/jonathan/signal-outreach/internal/types"
)

// Runner executes the signal pipeline
type Runner interface {
	Run(ctx context.Context, in pipeline.Input) (pipeline.Result, error)
	RunAsync(ctx context.Context, in pipeline.Input) <-chan pipeline.Result
	Wait()
}

// SignalRepository reads and removes stored signals
type SignalRepository interface {
	Get(ctx context.Context, id string) (store.TypedEntry[types.StoredSignal], error)
	List(ctx context.Context) ([]types.StoredSignal, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Previewer renders a landing page to an image
type Previewer interface {
	Screenshot(ctx context.Context, html string) ([]byte, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	handler     http.Handler
	pipeline    Runner
	signals     SignalRepository
	previewer   Previewer
	previewType string
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	validator   *validator.Validate
	log         logger.Logger
}

// Config holds server configuration. JWT nil leaves the admin routes open;
// Previewer nil disables the preview route.
type Config struct {
	Port        int
	Pipeline    Runner
	Signals     SignalRepository
	Previewer   Previewer
	PreviewType string
	JWT         *config.JWTConfig
	RateLimit   *ratelimit.Config
	Logger      logger.Logger
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, fmt.Errorf("server: pipeline is required")
	}
	if cfg.Signals == nil {
		return nil, fmt.Errorf("server: signal repository is required")
	}

	s := &Server{
		pipeline:    cfg.Pipeline,
		signals:     cfg.Signals,
		previewer:   cfg.Previewer,
		previewType: cfg.PreviewType,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		validator:   newValidator(),
		log:         cfg.Logger,
	}
	if s.log == nil {
		s.log = logger.NewNop()
	}
	if s.previewType == "" {
		s.previewType = "image/png"
	}
	if cfg.JWT != nil {
		s.jwtService = NewJWTService(cfg.JWT)
	}

	var tokens middleware.TokenValidator
	if s.jwtService != nil {
		tokens = s.jwtService.AsTokenValidator()
	}
	admin := middleware.AuthMiddleware(tokens)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /webhooks/signals", s.handleWebhook)
	mux.HandleFunc("POST /signals", s.handleCreateSignal)
	mux.HandleFunc("POST /signals/stream", s.handleStreamSignal)
	mux.HandleFunc("GET /signals", s.handleListSignals)
	mux.HandleFunc("GET /signals/{id}", s.handleGetSignal)
	mux.HandleFunc("GET /signals/{id}/landing", s.handleLandingPage)
	mux.HandleFunc("GET /signals/{id}/preview", s.handlePreview)
	mux.Handle("POST /signals/{id}/regenerate", admin(http.HandlerFunc(s.handleRegenerate)))
	mux.Handle("DELETE /signals/{id}", admin(http.HandlerFunc(s.handleDeleteSignal)))

	s.handler = s.withRateLimit(s.withLogging(s.withCORS(mux)))
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // synchronous generation can take minutes
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins listening and blocks until SIGINT/SIGTERM, then drains
// in-flight requests and background pipeline runs.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		s.log.Info("Server starting", logger.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			s.rateLimiter.Stop()
			return fmt.Errorf("server error: %w", err)
		}
	case <-stop:
	}
	s.log.Info("Shutting down server")
	return s.Shutdown(context.Background())
}

// Shutdown stops accepting requests and waits for background runs
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	s.rateLimiter.Stop()
	s.pipeline.Wait()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)
		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)

		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, clientID, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps SSE streaming working through the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("HTTP request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("remote", r.RemoteAddr),
			logger.Int("status", rec.status),
			logger.Duration("elapsed", time.Since(start)),
		)
	})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("Error encoding JSON response", logger.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// errorFromErr maps a typed error onto its status and writes it
func (s *Server) errorFromErr(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", logger.Error(err))
	}
	s.errorResponse(w, status, err.Error())
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; X-Forwarded-For is not trusted.
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
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, clientID string, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		seconds := int(info.RetryAfter.Seconds())
		if seconds < 1 {
			seconds = 1
		}
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.log.Warn("Rate limit exceeded",
		logger.String("client", clientID),
		logger.Int("limit", info.Limit),
		logger.String("reset_at", info.ResetTime.Format(time.RFC3339)),
	)
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
