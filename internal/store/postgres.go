// Package store implements the tracker's persistence on Postgres. Every
// query runs through a statement prepared by internal/db.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/pricewatch/internal/db"
	"github.com/albapepper/pricewatch/internal/models"
)

const uniqueViolation = "23505"

// Postgres is a tracker.Store backed by a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// New wraps pool.
func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

// DueCandidates returns every active product of an active owner, ordered by
// owner and creation time.
func (s *Postgres) DueCandidates(ctx context.Context) ([]models.Candidate, error) {
	rows, err := s.pool.Query(ctx, db.StmtDueCandidates)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var out []models.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Candidate loads one product with its owner, active or not.
func (s *Postgres) Candidate(ctx context.Context, productID int64) (models.Candidate, error) {
	c, err := scanCandidate(s.pool.QueryRow(ctx, db.StmtCandidateByID, productID))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Candidate{}, models.ErrNotFound
	}
	if err != nil {
		return models.Candidate{}, fmt.Errorf("get product %d: %w", productID, err)
	}
	return c, nil
}

// User loads one user.
func (s *Postgres) User(ctx context.Context, userID int64) (models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx, db.StmtUserByID, userID).
		Scan(&u.ID, &u.PlanID, &u.CheckInterval, &u.MaxProducts, &u.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, models.ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user %d: %w", userID, err)
	}
	return u, nil
}

// CountActiveProducts counts userID's active products.
func (s *Postgres) CountActiveProducts(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, db.StmtCountActiveProducts, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// RecentHistory returns up to limit entries, newest first.
func (s *Postgres) RecentHistory(ctx context.Context, productID int64, limit int) ([]models.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx, db.StmtRecentHistory, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]models.HistoryEntry, 0, limit)
	for rows.Next() {
		var h models.HistoryEntry
		if err := rows.Scan(&h.ProductID, &h.Price, &h.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// --------------------------------------------------------------------------
// Writes
// --------------------------------------------------------------------------

// UpdatePrice stores a successful quote. An empty title or currency keeps
// the stored value.
func (s *Postgres) UpdatePrice(ctx context.Context, productID int64, q models.Quote, checkedAt time.Time) error {
	return s.execOne(ctx, db.StmtUpdatePrice, productID, q.Price, q.Title, q.Currency, checkedAt)
}

// AppendHistory records an observed price.
func (s *Postgres) AppendHistory(ctx context.Context, productID int64, price float64, at time.Time) error {
	if _, err := s.pool.Exec(ctx, db.StmtAppendHistory, productID, price, at); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// UpdateAlertState remembers the price the owner was last alerted at.
func (s *Postgres) UpdateAlertState(ctx context.Context, productID int64, price float64, at time.Time) error {
	return s.execOne(ctx, db.StmtUpdateAlertState, productID, price, at)
}

// RecordAlert appends an audit row for a delivery attempt.
func (s *Postgres) RecordAlert(ctx context.Context, rec models.AlertRecord) error {
	_, err := s.pool.Exec(ctx, db.StmtRecordAlert,
		rec.ProductID, rec.UserID, rec.OldPrice, rec.NewPrice,
		rec.Priority, rec.Reason, rec.Status, rec.Error)
	if err != nil {
		return fmt.Errorf("record alert: %w", err)
	}
	return nil
}

// CreateProduct inserts an active product. A second active row for the same
// user and reference is rejected with models.ErrAlreadyTracked.
func (s *Postgres) CreateProduct(ctx context.Context, np models.NewProduct) (models.TrackedProduct, error) {
	p := models.TrackedProduct{
		UserID:      np.UserID,
		SourceRef:   np.SourceRef,
		TargetPrice: np.TargetPrice,
		Currency:    np.Currency,
		Active:      true,
	}
	err := s.pool.QueryRow(ctx, db.StmtCreateProduct, np.UserID, np.SourceRef, np.TargetPrice, np.Currency).
		Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.TrackedProduct{}, models.ErrAlreadyTracked
		}
		return models.TrackedProduct{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

// DeactivateProduct soft-deletes a product owned by userID. Reports false
// when there was no such active product.
func (s *Postgres) DeactivateProduct(ctx context.Context, userID, productID int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, db.StmtDeactivateProduct, productID, userID)
	if err != nil {
		return false, fmt.Errorf("deactivate product: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func (s *Postgres) execOne(ctx context.Context, stmt string, args ...any) error {
	tag, err := s.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", stmt, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", stmt, models.ErrNotFound)
	}
	return nil
}

func scanCandidate(row pgx.Row) (models.Candidate, error) {
	var c models.Candidate
	p, u := &c.Product, &c.Owner
	err := row.Scan(
		&p.ID, &p.UserID, &p.SourceRef, &p.Title, &p.CurrentPrice, &p.TargetPrice,
		&p.Currency, &p.LastCheckedAt, &p.LastAlertedPrice, &p.LastAlertedAt,
		&p.Active, &p.CreatedAt,
		&u.ID, &u.PlanID, &u.CheckInterval, &u.MaxProducts, &u.Active,
	)
	return c, err
}
