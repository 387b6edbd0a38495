// Command api is the PriceWatch service: HTTP API, sweep scheduler,
// new-product listener, and maintenance tickers in one process.
//
// Usage:
//
//	pricewatch-api
//	API_PORT=8080 pricewatch-api

// @title PriceWatch API
// @version 1.0.0
// @description Price tracking service: scheduled sweeps over tracked product pages, price history and trends, and drop alerts.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name PriceWatch
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/pricewatch/internal/api"
	"github.com/albapepper/pricewatch/internal/cache"
	"github.com/albapepper/pricewatch/internal/config"
	"github.com/albapepper/pricewatch/internal/db"
	"github.com/albapepper/pricewatch/internal/listener"
	"github.com/albapepper/pricewatch/internal/maintenance"
	"github.com/albapepper/pricewatch/internal/notify"
	"github.com/albapepper/pricewatch/internal/quote"
	"github.com/albapepper/pricewatch/internal/scheduler"
	"github.com/albapepper/pricewatch/internal/store"
	"github.com/albapepper/pricewatch/internal/tracker"

	_ "github.com/albapepper/pricewatch/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Quote source (HTTP + cache)
	fetcher, closeQuotes := quote.NewFromConfig(ctx, cfg, logger)
	defer closeQuotes()

	// Alert delivery
	sender, closeSender, err := notify.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize notifier", "error", err)
		os.Exit(1)
	}
	defer closeSender()
	logger.Info("Notifier initialized", "kind", cfg.Notifier)

	t := tracker.New(store.New(pool.Pool), fetcher, sender, tracker.OptionsFromConfig(cfg), logger)

	// Background workers; each returns when ctx is cancelled.
	var wg sync.WaitGroup

	sched, err := scheduler.New(scheduler.FromConfig(cfg), t, logger)
	if err != nil {
		logger.Error("Failed to configure scheduler", "error", err)
		os.Exit(1)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Start(ctx)
	}()

	if cfg.ListenerEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			listener.Start(ctx, cfg.DatabaseURL, t, logger)
		}()
	} else {
		logger.Info("Product listener disabled (LISTENER_ENABLED=false)")
	}

	maintCfg := maintenance.DefaultConfig()
	maintCfg.CleanupInterval = cfg.MaintenanceInterval
	maintCfg.HistoryKeep = cfg.HistoryKeepPerProduct
	maintCfg.AlertRetention = cfg.AlertLogRetention
	maintCfg.CatchUpPacing = cfg.PacingBaseDelay
	wg.Add(1)
	go func() {
		defer wg.Done()
		maintenance.Start(ctx, pool.Pool, t, maintCfg, logger)
	}()

	// Response cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Create router
	router := api.NewRouter(ctx, t, pool, appCache, cfg, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute, // manual checks retry with backoff
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting PriceWatch API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}

	// A running sweep stops at the next product boundary.
	wg.Wait()
	logger.Info("Server stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
