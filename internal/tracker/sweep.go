package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/albapepper/pricewatch/internal/models"
	"github.com/albapepper/pricewatch/internal/plan"
)

// ownerGroup is one owner's products with the owner's plan resolved once.
type ownerGroup struct {
	owner  models.User
	limits plan.Limits
	items  []models.Candidate
}

// RunSweep checks every due product whose owner's effective interval is
// interval, or every active product when interval is empty. Products are
// processed one at a time with a paced delay between fetches; a failure on
// one product never stops the next. Only a failure to load the candidates
// aborts the sweep.
//
// Returns ErrSweepInProgress if another sweep is running.
func (t *Tracker) RunSweep(ctx context.Context, interval plan.Interval) (RunStats, error) {
	if !t.running.CompareAndSwap(false, true) {
		return RunStats{}, ErrSweepInProgress
	}
	return t.sweep(ctx, interval, uuid.NewString())
}

// StartSweep claims the sweep slot and runs the sweep in the background.
// The returned run id matches the RunStats later reported by LastRun.
//
// Returns ErrSweepInProgress if another sweep is running.
func (t *Tracker) StartSweep(ctx context.Context, interval plan.Interval) (string, error) {
	if !t.running.CompareAndSwap(false, true) {
		return "", ErrSweepInProgress
	}
	runID := uuid.NewString()
	go func() {
		if _, err := t.sweep(ctx, interval, runID); err != nil {
			t.logger.Error("Background sweep failed", "run_id", runID, "error", err)
		}
	}()
	return runID, nil
}

// sweep runs one sweep. The caller must hold the running flag; sweep
// releases it.
func (t *Tracker) sweep(ctx context.Context, interval plan.Interval, runID string) (RunStats, error) {
	defer t.running.Store(false)
	defer t.setState(StateIdle)

	stats := RunStats{
		RunID:     runID,
		Interval:  interval,
		StartedAt: t.opts.Now(),
	}
	logger := t.logger.With("run_id", stats.RunID)

	// 1. Load
	t.setState(StateLoading)
	candidates, err := t.store.DueCandidates(ctx)
	if err != nil {
		stats.Duration = t.opts.Now().Sub(stats.StartedAt)
		logger.Error("Sweep aborted: failed to load candidates", "error", err)
		t.finish(stats)
		return stats, fmt.Errorf("load candidates: %w", err)
	}

	groups := groupByOwner(candidates, interval)
	for _, g := range groups {
		stats.Candidates += len(g.items)
	}
	logger.Info("Sweep started", "interval", interval, "owners", len(groups), "candidates", stats.Candidates)

	// 2. Process
	t.setState(StateProcessing)
	t.process(ctx, groups, &stats, logger)

	// 3. Summarize
	t.setState(StateSummarizing)
	stats.Duration = t.opts.Now().Sub(stats.StartedAt)
	logger.Info("Sweep complete", "summary", stats.Summary())
	t.finish(stats)
	return stats, nil
}

func (t *Tracker) process(ctx context.Context, groups []ownerGroup, stats *RunStats, logger *slog.Logger) {
	fetched := 0
	for _, g := range groups {
		for _, c := range g.items {
			// Stop at an item boundary on shutdown; untouched items are
			// picked up by the next sweep.
			if ctx.Err() != nil {
				stats.Interrupted = true
				logger.Warn("Sweep interrupted", "error", ctx.Err())
				return
			}

			res := t.opts.Eligibility.Check(g.limits.Interval, c.Product.LastCheckedAt, t.opts.Now())
			if !res.Eligible {
				stats.Skipped++
				logger.Debug("Product not due", "product_id", c.Product.ID, "reason", res.Reason)
				continue
			}

			if fetched > 0 {
				if err := t.opts.Sleep(ctx, t.pacingDelay()); err != nil {
					stats.Interrupted = true
					logger.Warn("Sweep interrupted", "error", err)
					return
				}
			}
			fetched++

			out, err := t.checkDue(ctx, c.Product.ID, g.limits.Interval, logger)
			if err != nil {
				logger.Warn("Product check failed",
					"product_id", c.Product.ID, "user_id", c.Owner.ID, "error", err)
			}
			stats.add(out)
		}
	}
}

func (t *Tracker) finish(stats RunStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastRun = &stats
}

// groupByOwner keeps only active products of active owners, resolves each
// owner's plan once and, for a non-empty interval, keeps only owners on
// that interval. Owners stay in first-seen order and products in creation
// order.
func groupByOwner(candidates []models.Candidate, interval plan.Interval) []ownerGroup {
	index := make(map[int64]int)
	var groups []ownerGroup

	for _, c := range candidates {
		if !c.Product.Active || !c.Owner.Active {
			continue
		}
		i, ok := index[c.Owner.ID]
		if !ok {
			groups = append(groups, ownerGroup{owner: c.Owner, limits: plan.Resolve(c.Owner)})
			i = len(groups) - 1
			index[c.Owner.ID] = i
		}
		groups[i].items = append(groups[i].items, c)
	}

	filtered := groups[:0]
	for _, g := range groups {
		if interval != "" && g.limits.Interval != interval {
			continue
		}
		sort.SliceStable(g.items, func(a, b int) bool {
			pa, pb := g.items[a].Product, g.items[b].Product
			if !pa.CreatedAt.Equal(pb.CreatedAt) {
				return pa.CreatedAt.Before(pb.CreatedAt)
			}
			return pa.ID < pb.ID
		})
		filtered = append(filtered, g)
	}
	return filtered
}
