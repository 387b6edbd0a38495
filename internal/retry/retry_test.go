package retry

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/albapepper/pricewatch/internal/models"
)

type scriptedFetcher struct {
	results []func() (models.Quote, error)
	calls   int
}

func (f *scriptedFetcher) Fetch(ctx context.Context, ref string) (models.Quote, error) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		return models.Quote{}, errors.New("unexpected call")
	}
	return f.results[i]()
}

func ok(price float64) func() (models.Quote, error) {
	return func() (models.Quote, error) { return models.Quote{Title: "Kettle", Price: price}, nil }
}

func fail(msg string) func() (models.Quote, error) {
	return func() (models.Quote, error) { return models.Quote{}, errors.New(msg) }
}

func recordSleeps(slept *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
}

func TestFetchQuoteSucceedsAfterFailures(t *testing.T) {
	var slept []time.Duration
	p := Policy{MaxRetries: 2, BaseDelay: time.Second, Jitter: 500 * time.Millisecond, Sleep: recordSleeps(&slept)}
	f := &scriptedFetcher{results: []func() (models.Quote, error){fail("timeout"), fail("503"), ok(99.9)}}

	q, err := FetchQuote(context.Background(), p, f, "https://shop.example/p/1")
	if err != nil {
		t.Fatalf("FetchQuote() error = %v", err)
	}
	if q.Price != 99.9 {
		t.Fatalf("Price = %v, want 99.9", q.Price)
	}
	if f.calls != 3 {
		t.Fatalf("calls = %d, want 3", f.calls)
	}
	if len(slept) != 2 {
		t.Fatalf("sleeps = %d, want 2", len(slept))
	}
	for _, d := range slept {
		if d < time.Second || d >= 1500*time.Millisecond {
			t.Fatalf("delay %v outside [1s, 1.5s)", d)
		}
	}
}

func TestFetchQuoteExhausted(t *testing.T) {
	var slept []time.Duration
	p := Policy{MaxRetries: 2, Sleep: recordSleeps(&slept)}
	f := &scriptedFetcher{results: []func() (models.Quote, error){fail("a"), fail("b"), fail("blocked")}}

	_, err := FetchQuote(context.Background(), p, f, "ref")
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("error = %v, want ErrExhausted", err)
	}
	if f.calls != 3 {
		t.Fatalf("calls = %d, want maxRetries+1 = 3", f.calls)
	}
	if len(slept) != 2 {
		t.Fatalf("sleeps = %d, want 2 (no sleep after the last attempt)", len(slept))
	}
}

func TestFetchQuoteRejectsUnusablePrice(t *testing.T) {
	p := Policy{MaxRetries: 3, Sleep: func(context.Context, time.Duration) error { return nil }}
	f := &scriptedFetcher{results: []func() (models.Quote, error){ok(0), ok(-5), ok(math.NaN()), ok(math.Inf(1))}}

	_, err := FetchQuote(context.Background(), p, f, "ref")
	if !errors.Is(err, ErrNoPrice) {
		t.Fatalf("error = %v, want ErrNoPrice", err)
	}
	if f.calls != 4 {
		t.Fatalf("calls = %d, want 4", f.calls)
	}
}

func TestFetchQuoteRecoversPanic(t *testing.T) {
	p := Policy{MaxRetries: 1, Sleep: func(context.Context, time.Duration) error { return nil }}
	f := &scriptedFetcher{results: []func() (models.Quote, error){
		func() (models.Quote, error) { panic("parser exploded") },
		ok(10),
	}}

	q, err := FetchQuote(context.Background(), p, f, "ref")
	if err != nil {
		t.Fatalf("FetchQuote() error = %v", err)
	}
	if q.Price != 10 {
		t.Fatalf("Price = %v, want 10", q.Price)
	}
}

func TestDoStopsWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, Policy{MaxRetries: 5, BaseDelay: time.Hour}, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("down")
	})
	if err == nil {
		t.Fatal("Do() error = nil, want error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestAttempts(t *testing.T) {
	if got := (Policy{}).Attempts(); got != 1 {
		t.Fatalf("zero policy Attempts() = %d, want 1", got)
	}
	if got := (Policy{MaxRetries: -3}).Attempts(); got != 1 {
		t.Fatalf("negative MaxRetries Attempts() = %d, want 1", got)
	}
}
