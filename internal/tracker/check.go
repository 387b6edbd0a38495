package tracker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/albapepper/pricewatch/internal/alert"
	"github.com/albapepper/pricewatch/internal/analysis"
	"github.com/albapepper/pricewatch/internal/models"
	"github.com/albapepper/pricewatch/internal/plan"
	"github.com/albapepper/pricewatch/internal/retry"
)

// Alert log statuses.
const (
	alertSent   = "sent"
	alertFailed = "failed"
)

// CheckResult is the outcome of checking one product.
type CheckResult struct {
	ProductID int64           `json:"product_id"`
	Title     string          `json:"title"`
	OldPrice  *float64        `json:"old_price"`
	NewPrice  float64         `json:"new_price"`
	Notified  bool            `json:"notified"`
	Change    analysis.Change `json:"change"`
	Decision  alert.Decision  `json:"decision"`
}

// CheckSingle checks one product immediately, regardless of its schedule.
// Fetch failures are returned to the caller as-is so they can be shown to
// the user. It waits for a product being checked by a sweep to finish.
func (t *Tracker) CheckSingle(ctx context.Context, productID int64) (CheckResult, error) {
	t.itemMu.Lock()
	defer t.itemMu.Unlock()

	c, err := t.store.Candidate(ctx, productID)
	if err != nil {
		return CheckResult{}, fmt.Errorf("load product %d: %w", productID, err)
	}
	if !c.Product.Active || !c.Owner.Active {
		return CheckResult{}, ErrInactive
	}

	res, _, err := t.check(ctx, c, t.logger.With("product_id", productID))
	return res, err
}

// checkDue reloads a sweep candidate under the item lock, so a check that
// finished since the sweep loaded it is seen, and checks it if it is still
// active and due.
func (t *Tracker) checkDue(ctx context.Context, productID int64, interval plan.Interval, logger *slog.Logger) (outcome, error) {
	t.itemMu.Lock()
	defer t.itemMu.Unlock()

	c, err := t.store.Candidate(ctx, productID)
	if err != nil {
		return outcome{errored: true}, fmt.Errorf("reload product: %w", err)
	}
	if !c.Product.Active || !c.Owner.Active {
		logger.Debug("Product deactivated during sweep", "product_id", productID)
		return outcome{skipped: true}, nil
	}
	if res := t.opts.Eligibility.Check(interval, c.Product.LastCheckedAt, t.opts.Now()); !res.Eligible {
		logger.Debug("Product checked during sweep", "product_id", productID, "reason", res.Reason)
		return outcome{skipped: true}, nil
	}

	_, out, err := t.check(ctx, c, logger)
	return out, err
}

// check runs fetch → persist → decide → notify for one product. A panic
// anywhere inside is converted into an error outcome. The caller holds
// itemMu.
func (t *Tracker) check(ctx context.Context, c models.Candidate, logger *slog.Logger) (res CheckResult, out outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = outcome{errored: true}
			err = fmt.Errorf("panic checking product %d: %v", c.Product.ID, r)
		}
	}()

	p := c.Product
	res.ProductID = p.ID
	res.OldPrice = p.CurrentPrice

	q, err := retry.FetchQuote(ctx, t.opts.Retry, t.fetcher, p.SourceRef)
	if err != nil {
		out.errored = true
		return res, out, fmt.Errorf("fetch %s: %w", p.SourceRef, err)
	}

	now := t.opts.Now()
	if q.Title == "" {
		q.Title = p.Title
	}
	if err := t.store.UpdatePrice(ctx, p.ID, q, now); err != nil {
		out.errored = true
		return res, out, fmt.Errorf("update price: %w", err)
	}
	if err := t.store.AppendHistory(ctx, p.ID, q.Price, now); err != nil {
		out.errored = true
		return res, out, fmt.Errorf("append history: %w", err)
	}
	out.checked = true

	oldPrice := p.Price()
	p.Title = q.Title
	if q.Currency != "" {
		p.Currency = q.Currency
	}
	res.Title = p.Title
	res.NewPrice = q.Price

	decision := t.engine.Decide(p, oldPrice, q.Price)
	res.Decision = decision
	res.Change = decision.Change
	out.dropped = decision.Change.Direction == analysis.Down

	if !decision.ShouldAlert {
		logger.Debug("No alert", "product_id", p.ID, "reason", decision.Reason)
		return res, out, nil
	}

	rec := models.AlertRecord{
		ProductID: p.ID,
		UserID:    p.UserID,
		OldPrice:  oldPrice,
		NewPrice:  q.Price,
		Priority:  string(decision.Priority),
		Reason:    decision.Reason,
		Status:    alertSent,
	}

	msg := alert.BuildMessage(p, decision, oldPrice, q.Price)
	if sendErr := t.notifier.Send(ctx, p.UserID, msg); sendErr != nil {
		logger.Warn("Alert delivery failed",
			"product_id", p.ID, "user_id", p.UserID, "error", sendErr)
		out.notifyFailed = true
		rec.Status = alertFailed
		rec.Error = sendErr.Error()
		t.recordAlert(ctx, rec, logger)
		return res, out, nil
	}

	out.notified = true
	res.Notified = true
	logger.Info("Alert sent",
		"product_id", p.ID, "user_id", p.UserID,
		"priority", decision.Priority, "reason", decision.Reason)

	// The alert went out; a lost state write may repeat it on the next check.
	if err := t.store.UpdateAlertState(ctx, p.ID, q.Price, now); err != nil {
		out.alertStateFailed = true
		logger.Error("Failed to save alert state",
			"product_id", p.ID, "price", q.Price, "error", err)
	}
	t.recordAlert(ctx, rec, logger)
	return res, out, nil
}

// recordAlert writes the audit row. Failures only warn.
func (t *Tracker) recordAlert(ctx context.Context, rec models.AlertRecord, logger *slog.Logger) {
	if err := t.store.RecordAlert(ctx, rec); err != nil {
		logger.Warn("Failed to record alert", "product_id", rec.ProductID, "error", err)
	}
}
