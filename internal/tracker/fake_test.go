package tracker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/albapepper/pricewatch/internal/eligibility"
	"github.com/albapepper/pricewatch/internal/models"
	"github.com/albapepper/pricewatch/internal/retry"
)

// --------------------------------------------------------------------------
// In-memory store
// --------------------------------------------------------------------------

type memStore struct {
	mu       sync.Mutex
	users    map[int64]models.User
	products []*models.TrackedProduct
	history  []models.HistoryEntry
	alerts   []models.AlertRecord
	nextID   int64

	loadErr        error
	updatePriceErr map[int64]error
	alertStateErr  error
}

func newMemStore() *memStore {
	return &memStore{users: make(map[int64]models.User), nextID: 1}
}

func (s *memStore) addUser(u models.User) {
	u.Active = true
	s.users[u.ID] = u
}

func (s *memStore) addProduct(p models.TrackedProduct) *models.TrackedProduct {
	p.Active = true
	if p.ID == 0 {
		p.ID = s.nextID
	}
	s.nextID = max(s.nextID, p.ID) + 1
	cp := p
	s.products = append(s.products, &cp)
	return &cp
}

func (s *memStore) product(id int64) *models.TrackedProduct {
	for _, p := range s.products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *memStore) DueCandidates(ctx context.Context) ([]models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	var out []models.Candidate
	for _, p := range s.products {
		u := s.users[p.UserID]
		if p.Active && u.Active {
			out = append(out, models.Candidate{Product: *p, Owner: u})
		}
	}
	return out, nil
}

func (s *memStore) Candidate(ctx context.Context, productID int64) (models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.product(productID)
	if p == nil {
		return models.Candidate{}, models.ErrNotFound
	}
	return models.Candidate{Product: *p, Owner: s.users[p.UserID]}, nil
}

func (s *memStore) User(ctx context.Context, userID int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func (s *memStore) UpdatePrice(ctx context.Context, productID int64, q models.Quote, checkedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updatePriceErr[productID]; err != nil {
		return err
	}
	p := s.product(productID)
	price := q.Price
	p.CurrentPrice = &price
	if q.Title != "" {
		p.Title = q.Title
	}
	at := checkedAt
	p.LastCheckedAt = &at
	return nil
}

func (s *memStore) AppendHistory(ctx context.Context, productID int64, price float64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, models.HistoryEntry{ProductID: productID, Price: price, RecordedAt: at})
	return nil
}

func (s *memStore) UpdateAlertState(ctx context.Context, productID int64, price float64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.alertStateErr != nil {
		return s.alertStateErr
	}
	p := s.product(productID)
	p.LastAlertedPrice = &price
	t := at
	p.LastAlertedAt = &t
	return nil
}

func (s *memStore) RecordAlert(ctx context.Context, rec models.AlertRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, rec)
	return nil
}

func (s *memStore) CountActiveProducts(ctx context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.products {
		if p.UserID == userID && p.Active {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CreateProduct(ctx context.Context, np models.NewProduct) (models.TrackedProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.UserID == np.UserID && p.SourceRef == np.SourceRef && p.Active {
			return models.TrackedProduct{}, models.ErrAlreadyTracked
		}
	}
	p := s.addProduct(models.TrackedProduct{
		UserID:      np.UserID,
		SourceRef:   np.SourceRef,
		TargetPrice: np.TargetPrice,
		Currency:    np.Currency,
	})
	return *p, nil
}

func (s *memStore) DeactivateProduct(ctx context.Context, userID, productID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.product(productID)
	if p == nil || p.UserID != userID || !p.Active {
		return false, nil
	}
	p.Active = false
	return true, nil
}

func (s *memStore) RecentHistory(ctx context.Context, productID int64, limit int) ([]models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.HistoryEntry
	for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
		if s.history[i].ProductID == productID {
			out = append(out, s.history[i])
		}
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Fetcher and notifier
// --------------------------------------------------------------------------

type fakeFetcher struct {
	mu     sync.Mutex
	prices map[string]float64
	fail   map[string]error
	panics map[string]bool
	calls  []string
	block  chan struct{}
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeFetcher) Fetch(ctx context.Context, ref string) (models.Quote, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ref)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if f.panics[ref] {
		panic("boom")
	}
	if err := f.fail[ref]; err != nil {
		return models.Quote{}, err
	}
	p, ok := f.prices[ref]
	if !ok {
		return models.Quote{}, errors.New("no such product")
	}
	return models.Quote{Title: "Item " + ref, Price: p}, nil
}

type sentMessage struct {
	ownerID int64
	message string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *fakeNotifier) Send(ctx context.Context, ownerID int64, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{ownerID, message})
	return nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// 2026-03-02 is a Monday.
var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type sleepLog struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (l *sleepLog) sleep(ctx context.Context, d time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.delays = append(l.delays, d)
	return ctx.Err()
}

func newTestTracker(store Store, fetcher Fetcher, notifier Notifier, sleeps *sleepLog) *Tracker {
	opts := Options{
		Retry:          retry.Policy{MaxRetries: 1},
		PacingBase:     3 * time.Second,
		PacingJitter:   2 * time.Second,
		MinDropPercent: 2.0,
		Eligibility:    eligibility.New(time.Monday, time.UTC),
		Now:            func() time.Time { return testNow },
		Sleep:          sleeps.sleep,
	}
	return New(store, fetcher, notifier, opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func price(v float64) *float64 { return &v }

func at(d time.Duration) *time.Time {
	t := testNow.Add(-d)
	return &t
}
