// Package maintenance runs periodic background tasks as Go tickers: bounding
// price history, purging the alert audit log, and catching up first checks
// missed while the listener was down.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/pricewatch/internal/listener"
	"github.com/albapepper/pricewatch/internal/retry"
)

// DB is the subset of *pgxpool.Pool the tasks use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	CleanupInterval time.Duration // History trim + alert log purge
	CatchUpInterval time.Duration // First checks missed by the listener

	HistoryKeep    int           // Newest entries kept per product
	AlertRetention time.Duration // Age after which price_alerts rows go

	CatchUpBatch  int           // Products claimed per catch-up run
	CatchUpPacing time.Duration // Delay between catch-up fetches

	// Sleep waits between catch-up fetches. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		CleanupInterval: 6 * time.Hour,
		CatchUpInterval: 15 * time.Minute,
		HistoryKeep:     500,
		AlertRetention:  90 * 24 * time.Hour,
		CatchUpBatch:    50,
		CatchUpPacing:   3 * time.Second,
	}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`. checker may be nil, which
// disables the catch-up task.
func Start(ctx context.Context, db DB, checker listener.Checker, cfg Config, logger *slog.Logger) {
	logger.Info("Maintenance tickers started",
		"cleanup", cfg.CleanupInterval,
		"catchup", cfg.CatchUpInterval,
		"history_keep", cfg.HistoryKeep)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.CleanupInterval > 0 {
		t := time.NewTicker(cfg.CleanupInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "cleanup", func() { cleanup(ctx, db, cfg, logger) })
	}

	if cfg.CatchUpInterval > 0 && checker != nil {
		t := time.NewTicker(cfg.CatchUpInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, "catchup", func() { catchUp(ctx, db, checker, cfg, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, name string, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// TrimHistory deletes all but the newest keep entries of every product's
// price history. Returns the number of rows removed.
func TrimHistory(ctx context.Context, db DB, keep int) (int64, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be at least 1, got %d", keep)
	}
	tag, err := db.Exec(ctx, `
		DELETE FROM price_history
		WHERE id IN (
			SELECT id FROM (
				SELECT id, row_number() OVER (
					PARTITION BY product_id ORDER BY recorded_at DESC, id DESC
				) AS rn
				FROM price_history
			) ranked
			WHERE rn > $1
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("trim price history: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PurgeAlerts deletes alert audit rows older than retention.
func PurgeAlerts(ctx context.Context, db DB, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %s", retention)
	}
	tag, err := db.Exec(ctx, `
		DELETE FROM price_alerts
		WHERE created_at < NOW() - make_interval(secs => $1)`, retention.Seconds())
	if err != nil {
		return 0, fmt.Errorf("purge price alerts: %w", err)
	}
	return tag.RowsAffected(), nil
}

func cleanup(ctx context.Context, db DB, cfg Config, logger *slog.Logger) {
	if n, err := TrimHistory(ctx, db, cfg.HistoryKeep); err != nil {
		logger.Warn("Cleanup: failed to trim price history", "error", err)
	} else if n > 0 {
		logger.Info("Cleanup: trimmed price history", "count", n)
	}

	if n, err := PurgeAlerts(ctx, db, cfg.AlertRetention); err != nil {
		logger.Warn("Cleanup: failed to purge alert log", "error", err)
	} else if n > 0 {
		logger.Info("Cleanup: purged alert log", "count", n)
	}
}

// catchUp runs the first check for active products that were added more
// than a few minutes ago but never checked (NOTIFY missed during listener
// downtime). Each product is claimed once: one that fails its first check
// is left to the regular sweeps, which treat never-checked products as due.
func catchUp(ctx context.Context, db DB, checker listener.Checker, cfg Config, logger *slog.Logger) {
	batch := cfg.CatchUpBatch
	if batch < 1 {
		batch = DefaultConfig().CatchUpBatch
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = retry.Sleep
	}

	rows, err := db.Query(ctx, `
		UPDATE tracked_products SET catchup_at = NOW()
		WHERE id IN (
			SELECT id FROM tracked_products
			WHERE is_active
			  AND last_checked_at IS NULL
			  AND catchup_at IS NULL
			  AND created_at < NOW() - INTERVAL '5 minutes'
			ORDER BY created_at
			LIMIT $1
		)
		RETURNING id`, batch)
	if err != nil {
		logger.Warn("Catch-up: failed to claim unchecked products", "error", err)
		return
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		logger.Warn("Catch-up: failed to scan unchecked products", "error", err)
		return
	}

	failed := 0
	for i, id := range ids {
		if i > 0 {
			if err := sleep(ctx, cfg.CatchUpPacing); err != nil {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		if _, err := checker.CheckSingle(ctx, id); err != nil {
			failed++
			logger.Warn("Catch-up: first check failed", "product_id", id, "error", err)
		}
	}
	if len(ids) > 0 {
		logger.Info("Catch-up: ran missed first checks", "count", len(ids), "failed", failed)
	}
}
