// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/pricewatch/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, StmtHealthCheck).Scan(&n)
}

// Prepared statement names.
const (
	StmtHealthCheck         = "health_check"
	StmtDueCandidates       = "due_candidates"
	StmtCandidateByID       = "candidate_by_id"
	StmtUserByID            = "user_by_id"
	StmtUpdatePrice         = "update_price"
	StmtAppendHistory       = "append_history"
	StmtUpdateAlertState    = "update_alert_state"
	StmtRecordAlert         = "record_alert"
	StmtCountActiveProducts = "count_active_products"
	StmtCreateProduct       = "create_product"
	StmtDeactivateProduct   = "deactivate_product"
	StmtRecentHistory       = "recent_history"
)

const candidateColumns = `
	p.id, p.user_id, p.source_ref, p.title, p.current_price, p.target_price,
	p.currency, p.last_checked_at, p.last_alerted_price, p.last_alerted_at,
	p.is_active, p.created_at,
	u.id, u.plan, u.check_interval, u.max_products, u.is_active`

// Statements returns every prepared statement by name.
func Statements() map[string]string {
	return map[string]string{
		// Health
		StmtHealthCheck: "SELECT 1",

		// Sweep: active products of active owners, owner then creation order
		StmtDueCandidates: `SELECT` + candidateColumns + `
			FROM tracked_products p
			JOIN users u ON u.id = p.user_id
			WHERE p.is_active AND u.is_active
			ORDER BY p.user_id, p.created_at, p.id`,

		StmtCandidateByID: `SELECT` + candidateColumns + `
			FROM tracked_products p
			JOIN users u ON u.id = p.user_id
			WHERE p.id = $1`,

		StmtUserByID: "SELECT id, plan, check_interval, max_products, is_active FROM users WHERE id = $1",

		// Check results
		StmtUpdatePrice: `UPDATE tracked_products
			SET current_price = $2,
			    title = COALESCE(NULLIF($3, ''), title),
			    currency = COALESCE(NULLIF($4, ''), currency),
			    last_checked_at = $5
			WHERE id = $1`,
		StmtAppendHistory: "INSERT INTO price_history (product_id, price, recorded_at) VALUES ($1, $2, $3)",
		StmtUpdateAlertState: `UPDATE tracked_products
			SET last_alerted_price = $2, last_alerted_at = $3
			WHERE id = $1`,
		StmtRecordAlert: `INSERT INTO price_alerts
			(product_id, user_id, old_price, new_price, priority, reason, status, last_error)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))`,

		// Product management
		StmtCountActiveProducts: "SELECT count(*) FROM tracked_products WHERE user_id = $1 AND is_active",
		StmtCreateProduct: `INSERT INTO tracked_products (user_id, source_ref, title, target_price, currency)
			VALUES ($1, $2, '', $3, $4)
			RETURNING id, created_at`,
		StmtDeactivateProduct: `UPDATE tracked_products SET is_active = false
			WHERE id = $1 AND user_id = $2 AND is_active`,
		StmtRecentHistory: `SELECT product_id, price, recorded_at FROM price_history
			WHERE product_id = $1
			ORDER BY recorded_at DESC, id DESC
			LIMIT $2`,
	}
}

// registerPreparedStatements registers all statements the tracker and API
// use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range Statements() {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
