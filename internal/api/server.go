// Package api assembles the HTTP router: middleware stack, swagger UI, and
// the /api/v1 routes.
package api

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/albapepper/pricewatch/internal/api/handler"
	"github.com/albapepper/pricewatch/internal/cache"
	"github.com/albapepper/pricewatch/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and
// routes. ctx bounds background work started by requests.
func NewRouter(ctx context.Context, t handler.Tracker, db handler.Pinger, appCache *cache.Cache, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(ctx, t, db, appCache, logger)

	// --- Routes ---

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plans", h.GetPlans)

		// Sweeps
		r.Post("/sweeps", h.StartSweep)
		r.Get("/sweeps/status", h.GetSweepStatus)

		// Products
		r.Route("/products/{productID}", func(r chi.Router) {
			r.Post("/check", h.CheckProduct)
			r.Get("/history", h.GetHistory)
			r.Get("/trend", h.GetTrend)
		})

		// Per-user product management
		r.Post("/users/{userID}/products", h.AddProduct)
		r.Delete("/users/{userID}/products/{productID}", h.RemoveProduct)
	})

	return r
}
