// Package retry provides the bounded retry policy used for quote fetches.
// A policy makes at most MaxRetries+1 attempts and waits BaseDelay plus a
// random jitter between them.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/albapepper/pricewatch/internal/models"
)

var (
	// ErrExhausted wraps the last attempt's error once every attempt failed.
	ErrExhausted = errors.New("all fetch attempts failed")

	// ErrNoPrice marks a quote that arrived without a usable price.
	ErrNoPrice = errors.New("quote has no usable price")
)

// Policy is a bounded retry policy. The zero value makes a single attempt.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Jitter     time.Duration

	// Sleep waits between attempts. Nil means a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Attempts is the total number of calls a policy will make.
func (p Policy) Attempts() int {
	return max(p.MaxRetries, 0) + 1
}

// Delay returns the wait before the next attempt.
func (p Policy) Delay() time.Duration {
	d := p.BaseDelay
	if p.Jitter > 0 {
		d += time.Duration(rand.Int64N(int64(p.Jitter)))
	}
	return d
}

// Do calls fn until it succeeds or the attempts run out. A panic inside fn
// counts as a failed attempt. The returned error wraps ErrExhausted and the
// last failure, or the context error if ctx ends while waiting.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := p.Attempts()
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err := call(ctx, fn)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		if err := p.sleep(ctx, p.Delay()); err != nil {
			return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempt, lastErr)
		}
	}
	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, attempts, lastErr)
}

// Fetcher is anything that can produce a quote for a reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (models.Quote, error)
}

// FetchQuote fetches ref under p. A quote without a positive finite price is
// treated as a failed attempt.
func FetchQuote(ctx context.Context, p Policy, f Fetcher, ref string) (models.Quote, error) {
	return Do(ctx, p, func(ctx context.Context) (models.Quote, error) {
		q, err := f.Fetch(ctx, ref)
		if err != nil {
			return models.Quote{}, err
		}
		if q.Price <= 0 || math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
			return models.Quote{}, ErrNoPrice
		}
		return q, nil
	})
}

func call[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	return Sleep(ctx, d)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
