package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/albapepper/pricewatch/internal/analysis"
	"github.com/albapepper/pricewatch/internal/currency"
	"github.com/albapepper/pricewatch/internal/models"
	"github.com/albapepper/pricewatch/internal/plan"
)

// AddProduct registers ref for userID after checking the owner's plan
// quota. The first price arrives with the first check.
func (t *Tracker) AddProduct(ctx context.Context, userID int64, ref string, target *float64) (models.TrackedProduct, error) {
	u, err := t.store.User(ctx, userID)
	if err != nil {
		return models.TrackedProduct{}, fmt.Errorf("load user %d: %w", userID, err)
	}
	if !u.Active {
		return models.TrackedProduct{}, ErrInactive
	}

	limits := plan.Resolve(u)
	n, err := t.store.CountActiveProducts(ctx, userID)
	if err != nil {
		return models.TrackedProduct{}, fmt.Errorf("count products: %w", err)
	}
	if n >= limits.MaxProducts {
		return models.TrackedProduct{}, fmt.Errorf("%w: %d of %d on plan %s", ErrQuotaExceeded, n, limits.MaxProducts, limits.Plan)
	}

	p, err := t.store.CreateProduct(ctx, models.NewProduct{
		UserID:      userID,
		SourceRef:   strings.TrimSpace(ref),
		TargetPrice: target,
		Currency:    currency.Default,
	})
	if err != nil {
		return models.TrackedProduct{}, fmt.Errorf("create product: %w", err)
	}

	t.logger.Info("Product added", "product_id", p.ID, "user_id", userID, "tracked", n+1, "limit", limits.MaxProducts)
	return p, nil
}

// RemoveProduct deactivates a product. History is kept.
func (t *Tracker) RemoveProduct(ctx context.Context, userID, productID int64) error {
	ok, err := t.store.DeactivateProduct(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("deactivate product %d: %w", productID, err)
	}
	if !ok {
		return models.ErrNotFound
	}
	t.logger.Info("Product removed", "product_id", productID, "user_id", userID)
	return nil
}

// History returns up to limit of the newest history entries, newest first.
func (t *Tracker) History(ctx context.Context, productID int64, limit int) ([]models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 30
	}
	h, err := t.store.RecentHistory(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return h, nil
}

// Trend classifies the product's recent price movement.
func (t *Tracker) Trend(ctx context.Context, productID int64) (analysis.TrendResult, error) {
	h, err := t.store.RecentHistory(ctx, productID, t.opts.TrendWindow)
	if err != nil {
		return analysis.TrendResult{}, fmt.Errorf("load history: %w", err)
	}
	return analysis.ClassifyTrend(h, t.opts.TrendWindow, t.engine.MinDropPercent), nil
}
