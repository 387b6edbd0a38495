// Package handler provides HTTP handlers for all API endpoints. Handlers
// delegate to the tracker; history and trend responses are cached with
// ETags.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/albapepper/pricewatch/internal/analysis"
	"github.com/albapepper/pricewatch/internal/api/respond"
	"github.com/albapepper/pricewatch/internal/cache"
	"github.com/albapepper/pricewatch/internal/models"
	"github.com/albapepper/pricewatch/internal/plan"
	"github.com/albapepper/pricewatch/internal/tracker"
)

// Tracker is the subset of *tracker.Tracker the API uses.
type Tracker interface {
	StartSweep(ctx context.Context, interval plan.Interval) (string, error)
	State() tracker.State
	LastRun() (tracker.RunStats, bool)
	CheckSingle(ctx context.Context, productID int64) (tracker.CheckResult, error)
	AddProduct(ctx context.Context, userID int64, ref string, target *float64) (models.TrackedProduct, error)
	RemoveProduct(ctx context.Context, userID, productID int64) error
	History(ctx context.Context, productID int64, limit int) ([]models.HistoryEntry, error)
	Trend(ctx context.Context, productID int64) (analysis.TrendResult, error)
}

// Pinger verifies database connectivity.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	tracker  Tracker
	db       Pinger
	cache    *cache.Cache
	validate *validator.Validate
	logger   *slog.Logger

	// Background sweeps outlive the request; they stop with the server.
	baseCtx context.Context
}

// New creates a Handler with shared dependencies. baseCtx bounds work that
// continues after a response is sent.
func New(baseCtx context.Context, t Tracker, db Pinger, c *cache.Cache, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		tracker:  t,
		db:       db,
		cache:    c,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
		baseCtx:  baseCtx,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "PriceWatch API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status, sweep state, and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"sweep_state": h.tracker.State(),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		h.logger.Warn("Database health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns response cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
