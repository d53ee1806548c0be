package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/GeigerTiger55/messagely/internal/api/middleware"
	"github.com/GeigerTiger55/messagely/internal/handlers"
	"github.com/GeigerTiger55/messagely/internal/store"
	"github.com/GeigerTiger55/messagely/internal/token"
)

// NewRouter creates and configures the HTTP router. redisStore may be nil;
// rate limiting is skipped without it.
func NewRouter(logger zerolog.Logger, h *handlers.Handler, tokens *token.Service, redisStore *store.RedisStore, rateLimitWhitelist []string) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body
	r.Use(middleware.RequireJSON)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - allow all origins
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Token verification runs on every request so the rate limiter can key
	// message sends by caller identity.
	auth := middleware.NewAuthenticator(tokens)
	r.Use(auth.Authenticate)

	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore.Client(), logger, rateLimitWhitelist)
		r.Use(limiter.Middleware)
	}

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/health", h.Health)
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)

	// Authenticated routes
	r.With(middleware.RequireAuth).Get("/users", h.ListUsers)

	r.Route("/users/{username}", func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Get("/", h.GetUser)
		r.Get("/to", h.Inbox)
		r.Get("/from", h.Outbox)
	})

	r.Route("/messages", func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/", h.SendMessage)
		r.Get("/{id}", h.GetMessage)
		r.Post("/{id}/read", h.MarkMessageRead)
	})

	return r
}
