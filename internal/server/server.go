// Package server holds the HTTP router and the middleware chain of the
// gateway: request IDs, request logging, error rendering, authentication
// and rate limiting.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tjfontaine/travel-gateway/internal/auth"
	"github.com/tjfontaine/travel-gateway/internal/core/domain"
	"github.com/tjfontaine/travel-gateway/internal/core/ports"
)

// DefaultRequestTimeout bounds a request when none is configured.
const DefaultRequestTimeout = 30 * time.Second

// Config configures the router.
type Config struct {
	// Version is reported by the health endpoint
	Version string

	// Production redacts INTERNAL_ERROR messages
	Production bool

	RequestTimeout time.Duration
}

// Server is the gateway router.
type Server struct {
	Router    *chi.Mux
	logger    *slog.Logger
	validator *auth.Validator
	limiter   ports.RateLimiter
}

// New builds the router with the public health endpoint mounted.
// Authenticated routes are added through Protected.
func New(cfg Config, logger *slog.Logger, validator *auth.Validator, limiter ports.RateLimiter) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(ErrorMiddleware(logger, cfg.Production))
	r.Use(TimeoutMiddleware(cfg.RequestTimeout))

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "travel-gateway")
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, domain.ErrResourceNotFound("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, domain.NewAPIError(domain.ErrorCodeInvalidRequest, "method not allowed").
			WithStatus(http.StatusMethodNotAllowed))
	})

	r.Get("/v1/health", healthHandler(cfg.Version))

	return &Server{
		Router:    r,
		logger:    logger,
		validator: validator,
		limiter:   limiter,
	}
}

// Protected registers routes behind authentication and rate limiting.
func (s *Server) Protected(register func(r chi.Router)) {
	s.Router.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.validator))
		r.Use(RateLimitMiddleware(s.limiter))
		register(r)
	})
}

type healthResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Version string `json:"version"`
}

func healthHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, healthResponse{Success: true, Status: "ok", Version: version})
	}
}
