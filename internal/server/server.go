// Package server provides the HTTP API for answering career transition questions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/career-transitions/internal/server/middleware"
	"github.com/jonathan/career-transitions/internal/server/ratelimit"
	"github.com/jonathan/career-transitions/internal/types"
)

// Answerer answers free-text questions.
type Answerer interface {
	Answer(ctx context.Context, text string) *types.Result
}

// TransitionReader reads precomputed transitions.
type TransitionReader interface {
	ListTransitionsBySource(ctx context.Context, source string, limit int) ([]types.Transition, error)
}

// Options holds the collaborators of a Server. Answerer and Transitions are required.
type Options struct {
	Port        int
	Answerer    Answerer
	Transitions TransitionReader
	// JWT enables bearer-token auth on the query endpoints when set.
	JWT         *JWTService
	RateLimiter *ratelimit.Limiter
	Logger      *zap.Logger
	TopK        int
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	router      chi.Router
	answerer    Answerer
	transitions TransitionReader
	rateLimiter *ratelimit.Limiter
	validate    *validator.Validate
	logger      *zap.Logger
	topK        int
}

// New creates a new server instance
func New(opts Options) (*Server, error) {
	if opts.Answerer == nil {
		return nil, errors.New("server requires an answerer")
	}
	if opts.Transitions == nil {
		return nil, errors.New("server requires a transition reader")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.RateLimiter == nil {
		opts.RateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())
	}

	s := &Server{
		answerer:    opts.Answerer,
		transitions: opts.Transitions,
		rateLimiter: opts.RateLimiter,
		validate:    validator.New(),
		logger:      opts.Logger.Named("server"),
		topK:        opts.TopK,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(s.withLogging)
	r.Use(chimw.Recoverer)
	r.Use(s.withCORS)
	r.Use(s.withRateLimit)

	r.Get("/health", s.handleHealth)
	r.Group(func(r chi.Router) {
		if opts.JWT != nil {
			r.Use(middleware.AuthMiddleware(opts.JWT.AsTokenValidator()))
		}
		r.Post("/answer", s.handleAnswer)
		r.Get("/transitions", s.handleTransitions)
	})
	s.router = r

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // COMPARE enriches two samples
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens for requests until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.rateLimiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	defer s.rateLimiter.Stop()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients over their per-endpoint budget with 429.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		}
		if !info.Allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging logs each request with its status and latency.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// clientID identifies the caller by remote IP.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":   "rate_limit_exceeded",
		"message": "Rate limit exceeded. Please try again later.",
		"limit":   info.Limit,
	}
	if info.RetryAfter > 0 {
		seconds := max(int(info.RetryAfter.Seconds()), 1)
		response["retry_after"] = seconds
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
	}

	s.logger.Warn("rate limit exceeded",
		zap.String("client", clientID(r)), zap.String("path", r.URL.Path), zap.Int("limit", info.Limit))
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response with the status for err.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	s.jsonResponse(w, HTTPStatus(err), map[string]string{"error": err.Error()})
}
