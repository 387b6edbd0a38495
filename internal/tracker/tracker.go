// Package tracker coordinates price checks: scheduled sweeps over every due
// product, on-demand single checks, and product registration.
//
// Pipeline per product: eligibility → paced fetch with retry → persist price
// and history → alert decision → notify → persist alert state.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/albapepper/pricewatch/internal/alert"
	"github.com/albapepper/pricewatch/internal/analysis"
	"github.com/albapepper/pricewatch/internal/eligibility"
	"github.com/albapepper/pricewatch/internal/models"
	"github.com/albapepper/pricewatch/internal/retry"
)

var (
	ErrSweepInProgress = errors.New("a sweep is already running")
	ErrQuotaExceeded   = errors.New("product limit for plan reached")
	ErrInactive        = errors.New("product or owner is inactive")
)

// --------------------------------------------------------------------------
// Collaborators
// --------------------------------------------------------------------------

// Store is the persistence the tracker needs. Every write touches one row.
type Store interface {
	DueCandidates(ctx context.Context) ([]models.Candidate, error)
	Candidate(ctx context.Context, productID int64) (models.Candidate, error)
	User(ctx context.Context, userID int64) (models.User, error)

	UpdatePrice(ctx context.Context, productID int64, q models.Quote, checkedAt time.Time) error
	AppendHistory(ctx context.Context, productID int64, price float64, at time.Time) error
	UpdateAlertState(ctx context.Context, productID int64, price float64, at time.Time) error
	RecordAlert(ctx context.Context, rec models.AlertRecord) error

	CountActiveProducts(ctx context.Context, userID int64) (int, error)
	CreateProduct(ctx context.Context, p models.NewProduct) (models.TrackedProduct, error)
	DeactivateProduct(ctx context.Context, userID, productID int64) (bool, error)
	RecentHistory(ctx context.Context, productID int64, limit int) ([]models.HistoryEntry, error)
}

// Fetcher produces a quote for a product reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (models.Quote, error)
}

// Notifier delivers a message to a product owner.
type Notifier interface {
	Send(ctx context.Context, ownerID int64, message string) error
}

// --------------------------------------------------------------------------
// Tracker
// --------------------------------------------------------------------------

// Options tunes a Tracker. Zero values fall back to defaults.
type Options struct {
	Retry        retry.Policy
	PacingBase   time.Duration
	PacingJitter time.Duration
	TrendWindow  int

	MinDropPercent float64
	Eligibility    eligibility.Evaluator

	// Now and Sleep are injectable for tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Tracker runs sweeps and single checks. Safe for concurrent use; at most
// one sweep runs at a time and at most one product is checked at a time.
type Tracker struct {
	store    Store
	fetcher  Fetcher
	notifier Notifier
	engine   alert.Engine
	opts     Options
	logger   *slog.Logger

	running atomic.Bool
	state   atomic.Value // State

	// Held across one product's load, fetch, decide and notify. Sweeps and
	// single checks from the API, CLI, listener and catch-up all take it.
	itemMu sync.Mutex

	mu      sync.Mutex
	lastRun *RunStats
}

// New creates a Tracker.
func New(store Store, fetcher Fetcher, notifier Notifier, opts Options, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = retry.Sleep
	}
	if opts.Retry.Sleep == nil {
		opts.Retry.Sleep = opts.Sleep
	}
	if opts.TrendWindow < 2 {
		opts.TrendWindow = analysis.DefaultTrendWindow
	}
	if opts.Eligibility.Location == nil {
		opts.Eligibility = eligibility.New(opts.Eligibility.WeeklyAnchor, nil)
	}

	t := &Tracker{
		store:    store,
		fetcher:  fetcher,
		notifier: notifier,
		engine:   alert.NewEngine(opts.MinDropPercent),
		opts:     opts,
		logger:   logger,
	}
	t.state.Store(StateIdle)
	return t
}

// IsEligible reports whether p is due for a check at now.
func (t *Tracker) IsEligible(u models.User, p models.TrackedProduct, now time.Time) eligibility.Result {
	return t.opts.Eligibility.IsEligible(u, p, now)
}

// State returns the sweep state.
func (t *Tracker) State() State {
	return t.state.Load().(State)
}

// LastRun returns the statistics of the most recent finished sweep.
func (t *Tracker) LastRun() (RunStats, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastRun == nil {
		return RunStats{}, false
	}
	return *t.lastRun, true
}

func (t *Tracker) setState(s State) {
	t.state.Store(s)
}

func (t *Tracker) pacingDelay() time.Duration {
	d := t.opts.PacingBase
	if t.opts.PacingJitter > 0 {
		d += time.Duration(rand.Int64N(int64(t.opts.PacingJitter)))
	}
	return d
}
