// Package scheduler triggers interval sweeps on a cron calendar: the daily
// sweep at a fixed hour, the weekly sweep on the anchor day, and an optional
// hourly sweep at minute 0.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/albapepper/pricewatch/internal/config"
	"github.com/albapepper/pricewatch/internal/plan"
	"github.com/albapepper/pricewatch/internal/tracker"
)

// Sweeper runs one sweep for an interval.
type Sweeper interface {
	RunSweep(ctx context.Context, interval plan.Interval) (tracker.RunStats, error)
}

// Config is the sweep calendar.
type Config struct {
	Location      *time.Location
	HourlyEnabled bool
	DailyHour     int
	WeeklyHour    int
	WeeklyDay     time.Weekday
}

// FromConfig extracts the calendar from the service config.
func FromConfig(cfg *config.Config) Config {
	return Config{
		Location:      cfg.Timezone,
		HourlyEnabled: cfg.HourlySweepEnabled,
		DailyHour:     cfg.DailySweepHour,
		WeeklyHour:    cfg.WeeklySweepHour,
		WeeklyDay:     cfg.WeeklyAnchorDay,
	}
}

// Job is one scheduled sweep.
type Job struct {
	Spec     string
	Interval plan.Interval
}

// Jobs returns the cron entries for cfg, in registration order.
func Jobs(cfg Config) []Job {
	jobs := []Job{
		{Spec: fmt.Sprintf("0 %d * * *", cfg.DailyHour), Interval: plan.Daily},
		{Spec: fmt.Sprintf("0 %d * * %d", cfg.WeeklyHour, int(cfg.WeeklyDay)), Interval: plan.Weekly},
	}
	if cfg.HourlyEnabled {
		jobs = append(jobs, Job{Spec: "0 * * * *", Interval: plan.Hourly})
	}
	return jobs
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	logger  *slog.Logger

	// Set by Start before the cron runs any job.
	ctx context.Context

	// Jobs firing at the same minute queue behind each other instead of
	// colliding on the tracker's single-sweep guard.
	mu sync.Mutex
}

// New registers the jobs for cfg. Nothing runs until Start.
func New(cfg Config, sweeper Sweeper, logger *slog.Logger) (*Scheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{logger: logger}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		sweeper: sweeper,
		logger:  logger,
		ctx:     context.Background(),
	}

	for _, j := range Jobs(cfg) {
		interval := j.Interval
		if _, err := s.cron.AddFunc(j.Spec, func() { s.run(interval) }); err != nil {
			return nil, fmt.Errorf("schedule %s sweep %q: %w", interval, j.Spec, err)
		}
		logger.Info("Sweep scheduled", "interval", interval, "spec", j.Spec, "location", loc.String())
	}
	return s, nil
}

// Start runs the cron and blocks until ctx is cancelled. A sweep in
// progress at shutdown sees the cancelled context and stops at the next
// product boundary; Start waits for it.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	<-ctx.Done()

	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) run(interval plan.Interval) {
	ctx := s.ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	stats, err := s.sweeper.RunSweep(ctx, interval)
	switch {
	case errors.Is(err, tracker.ErrSweepInProgress):
		s.logger.Warn("Scheduled sweep skipped: another sweep is running", "interval", interval)
	case err != nil:
		s.logger.Error("Scheduled sweep failed", "interval", interval, "run_id", stats.RunID, "error", err)
	default:
		s.logger.Info("Scheduled sweep finished", "interval", interval, "summary", stats.Summary())
	}
}

// cronLogger routes cron's internal logging into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
