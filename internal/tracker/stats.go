package tracker

import (
	"fmt"
	"time"

	"github.com/albapepper/pricewatch/internal/plan"
)

// State of the sweep state machine.
type State string

const (
	StateIdle        State = "idle"
	StateLoading     State = "loading"
	StateProcessing  State = "processing"
	StateSummarizing State = "summarizing"
)

// RunStats tracks the outcome of a sweep.
type RunStats struct {
	RunID        string        `json:"run_id"`
	Interval     plan.Interval `json:"interval,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Candidates   int           `json:"candidates"`
	Checked      int           `json:"checked"`
	Skipped      int           `json:"skipped"`
	Dropped      int           `json:"dropped"`
	Notified     int           `json:"notified"`
	NotifyFailed int           `json:"notify_failed"`
	Errors       int           `json:"errors"`

	// Alerts sent whose alert state could not be saved.
	AlertStateErrors int  `json:"alert_state_errors"`
	Interrupted      bool `json:"interrupted,omitempty"`
}

// Summary returns a human-readable summary.
func (s *RunStats) Summary() string {
	interval := string(s.Interval)
	if interval == "" {
		interval = "all"
	}
	return fmt.Sprintf(
		"interval=%s candidates=%d checked=%d skipped=%d dropped=%d notified=%d notify_failed=%d alert_state_errors=%d errors=%d dur=%s",
		interval, s.Candidates, s.Checked, s.Skipped, s.Dropped,
		s.Notified, s.NotifyFailed, s.AlertStateErrors, s.Errors, s.Duration.Round(time.Second))
}

// outcome is what processing one product produced.
type outcome struct {
	checked          bool
	skipped          bool
	dropped          bool
	notified         bool
	notifyFailed     bool
	alertStateFailed bool
	errored          bool
}

func (s *RunStats) add(o outcome) {
	if o.checked {
		s.Checked++
	}
	if o.skipped {
		s.Skipped++
	}
	if o.dropped {
		s.Dropped++
	}
	if o.notified {
		s.Notified++
	}
	if o.notifyFailed {
		s.NotifyFailed++
	}
	if o.alertStateFailed {
		s.AlertStateErrors++
	}
	if o.errored {
		s.Errors++
	}
}
