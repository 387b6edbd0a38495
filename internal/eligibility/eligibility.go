// Package eligibility decides whether a tracked product is due for a check
// given its owner's effective interval and the time of its last check.
package eligibility

import (
	"fmt"
	"time"

	"github.com/albapepper/pricewatch/internal/models"
	"github.com/albapepper/pricewatch/internal/plan"
)

const (
	HourlyMinGap = 60 * time.Minute
	// DailyMinGap is below 24h so a sweep that starts a little earlier than
	// yesterday's still picks the product up.
	DailyMinGap  = 20 * time.Hour
	WeeklyMinGap = 6 * 24 * time.Hour
)

// Result is an eligibility verdict with a human-readable reason.
type Result struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason"`
}

// Evaluator holds the calendar settings eligibility depends on.
type Evaluator struct {
	WeeklyAnchor time.Weekday
	Location     *time.Location
}

// New returns an Evaluator anchored on the given weekday in loc.
func New(anchor time.Weekday, loc *time.Location) Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	return Evaluator{WeeklyAnchor: anchor, Location: loc}
}

// IsEligible reports whether p, owned by u, is due at now. Pure: it reads
// only its arguments and the evaluator's settings.
func (e Evaluator) IsEligible(u models.User, p models.TrackedProduct, now time.Time) Result {
	return e.Check(plan.Resolve(u).Interval, p.LastCheckedAt, now)
}

// Check is IsEligible for an already resolved interval.
func (e Evaluator) Check(interval plan.Interval, lastChecked *time.Time, now time.Time) Result {
	switch interval {
	case plan.Hourly:
		return sinceLast(lastChecked, now, HourlyMinGap)
	case plan.Daily:
		return sinceLast(lastChecked, now, DailyMinGap)
	default:
		loc := e.Location
		if loc == nil {
			loc = time.UTC
		}
		if day := now.In(loc).Weekday(); day != e.WeeklyAnchor {
			return Result{Reason: fmt.Sprintf("weekly checks run on %s, today is %s", e.WeeklyAnchor, day)}
		}
		return sinceLast(lastChecked, now, WeeklyMinGap)
	}
}

func sinceLast(lastChecked *time.Time, now time.Time, gap time.Duration) Result {
	if lastChecked == nil {
		return Result{Eligible: true, Reason: "never checked"}
	}
	elapsed := now.Sub(*lastChecked)
	if elapsed >= gap {
		return Result{Eligible: true, Reason: fmt.Sprintf("last checked %s ago", elapsed.Round(time.Minute))}
	}
	return Result{Reason: fmt.Sprintf("checked %s ago, next check after %s", elapsed.Round(time.Minute), gap)}
}
