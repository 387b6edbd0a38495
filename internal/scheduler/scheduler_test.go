package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/albapepper/pricewatch/internal/plan"
	"github.com/albapepper/pricewatch/internal/tracker"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSweeper struct {
	calls []plan.Interval
	err   error
}

func (f *fakeSweeper) RunSweep(ctx context.Context, interval plan.Interval) (tracker.RunStats, error) {
	f.calls = append(f.calls, interval)
	return tracker.RunStats{Interval: interval}, f.err
}

func TestJobs(t *testing.T) {
	cfg := Config{DailyHour: 9, WeeklyHour: 10, WeeklyDay: time.Monday}

	jobs := Jobs(cfg)
	if len(jobs) != 2 {
		t.Fatalf("Jobs() without hourly = %d entries, want 2", len(jobs))
	}
	if jobs[0].Spec != "0 9 * * *" || jobs[0].Interval != plan.Daily {
		t.Errorf("daily job = %+v", jobs[0])
	}
	if jobs[1].Spec != "0 10 * * 1" || jobs[1].Interval != plan.Weekly {
		t.Errorf("weekly job = %+v", jobs[1])
	}

	cfg.HourlyEnabled = true
	jobs = Jobs(cfg)
	if len(jobs) != 3 || jobs[2].Spec != "0 * * * *" || jobs[2].Interval != plan.Hourly {
		t.Fatalf("Jobs() with hourly = %+v", jobs)
	}
}

func TestWeeklySpecFiresOnAnchorDay(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	jobs := Jobs(Config{DailyHour: 9, WeeklyHour: 10, WeeklyDay: time.Thursday})

	sched, err := cron.ParseStandard(jobs[1].Spec)
	if err != nil {
		t.Fatalf("ParseStandard(%q) error = %v", jobs[1].Spec, err)
	}
	// Monday 2026-03-02 12:00 Moscow.
	next := sched.Next(time.Date(2026, 3, 2, 12, 0, 0, 0, loc))
	want := time.Date(2026, 3, 5, 10, 0, 0, 0, loc)
	if !next.Equal(want) {
		t.Fatalf("next weekly run = %v, want %v", next, want)
	}
}

func TestNewRejectsBadHour(t *testing.T) {
	if _, err := New(Config{DailyHour: 25, WeeklyHour: 10}, &fakeSweeper{}, discard); err == nil {
		t.Fatal("New() with hour 25 error = nil")
	}
}

func TestRunLogsOverlap(t *testing.T) {
	sw := &fakeSweeper{err: tracker.ErrSweepInProgress}
	s, err := New(Config{DailyHour: 9, WeeklyHour: 10}, sw, discard)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.run(plan.Daily)
	sw.err = nil
	s.run(plan.Weekly)

	if len(sw.calls) != 2 || sw.calls[0] != plan.Daily || sw.calls[1] != plan.Weekly {
		t.Fatalf("sweeps = %v", sw.calls)
	}
}

func TestRunSkipsAfterShutdown(t *testing.T) {
	sw := &fakeSweeper{}
	s, err := New(Config{DailyHour: 9, WeeklyHour: 10}, sw, discard)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx) // returns at once
	s.run(plan.Daily)

	if len(sw.calls) != 0 {
		t.Fatalf("sweeps after shutdown = %v, want none", sw.calls)
	}
}
