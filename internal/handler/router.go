package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gamereviews/gamereviews/internal/metrics"
	"github.com/gamereviews/gamereviews/internal/middleware"
)

// RouterConfig wires handlers and middleware into a router.
type RouterConfig struct {
	Logger   *slog.Logger
	Accounts *AccountHandler
	Reviews  *ReviewHandler
	Health   *HealthHandler
	// Metrics is optional; /metrics is only mounted when set.
	Metrics *MetricsHandler

	Verifier     middleware.TokenVerifier
	AuthHeader   string
	AuthRecorder metrics.Recorder

	IsDevelopment      bool
	AllowedOrigins     []string
	MaxRequestBodySize int64
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	h := New()
	r := chi.NewRouter()

	corsCfg := middleware.DefaultCORSConfig(cfg.AuthHeader)
	corsCfg.AllowedOrigins = cfg.AllowedOrigins

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	// Health endpoints (no auth required)
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}

	// Root info endpoint
	r.Get("/", h.Hello)

	requireAuth := middleware.Auth(middleware.AuthConfig{
		Logger:     cfg.Logger,
		Verifier:   cfg.Verifier,
		HeaderName: cfg.AuthHeader,
		Metrics:    cfg.AuthRecorder,
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", cfg.Accounts.Register)
		r.Post("/login", cfg.Accounts.Login)
		r.With(requireAuth).Get("/me", cfg.Accounts.Me)
	})

	r.Route("/api/reviews", func(r chi.Router) {
		// Reads are public.
		r.Get("/", cfg.Reviews.List)
		r.Get("/user/{userId}", cfg.Reviews.ListByUser)
		r.Get("/game/{title}", cfg.Reviews.ListByGame)
		r.Get("/game/{title}/rating", cfg.Reviews.GameRating)
		r.Get("/{id}", cfg.Reviews.Get)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", cfg.Reviews.Create)
			r.Put("/{id}", cfg.Reviews.Update)
			r.Delete("/{id}", cfg.Reviews.Delete)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
