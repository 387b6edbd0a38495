// Package alert decides whether a freshly observed price deserves a
// notification and renders the notification text.
//
// Rules run in a fixed order and the first match wins:
//
//  1. no drop                      -> no alert
//  2. not below the last alerted   -> no alert (suppressed)
//  3. at or below the target price -> alert, high priority
//  4. meaningful drop              -> alert, normal priority
//  5. anything else                -> no alert
package alert

import (
	"fmt"

	"github.com/albapepper/pricewatch/internal/analysis"
	"github.com/albapepper/pricewatch/internal/currency"
	"github.com/albapepper/pricewatch/internal/models"
)

// Priority of an alert.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Reasons for decisions without an alert.
const (
	ReasonNoDrop        = "price did not drop"
	ReasonBelowMinDrop  = "drop below threshold"
	ReasonTargetReached = "target reached"
)

// Decision is the outcome of Decide.
type Decision struct {
	ShouldAlert   bool            `json:"should_alert"`
	Reason        string          `json:"reason"`
	Priority      Priority        `json:"priority,omitempty"`
	TargetReached bool            `json:"target_reached,omitempty"`
	Change        analysis.Change `json:"change"`
}

// Engine applies the alert rules with a configured minimum drop.
type Engine struct {
	MinDropPercent float64
}

// NewEngine returns an Engine; a non-positive minimum uses the default.
func NewEngine(minDropPercent float64) Engine {
	if minDropPercent <= 0 {
		minDropPercent = analysis.DefaultMinDropPercent
	}
	return Engine{MinDropPercent: minDropPercent}
}

// Decide evaluates p's move from oldPrice to newPrice. It is pure; the
// caller persists the alert state after a successful send.
func (e Engine) Decide(p models.TrackedProduct, oldPrice, newPrice float64) Decision {
	change := analysis.ComputeChange(oldPrice, newPrice, e.MinDropPercent)
	d := Decision{Change: change}

	if change.Direction != analysis.Down {
		d.Reason = ReasonNoDrop
		return d
	}

	if p.LastAlertedPrice != nil && newPrice >= *p.LastAlertedPrice {
		d.Reason = fmt.Sprintf("already alerted at %s", currency.Format(*p.LastAlertedPrice, p.Currency))
		return d
	}

	if p.TargetPrice != nil && newPrice <= *p.TargetPrice {
		d.ShouldAlert = true
		d.TargetReached = true
		d.Priority = PriorityHigh
		d.Reason = ReasonTargetReached
		return d
	}

	if change.Meaningful {
		d.ShouldAlert = true
		d.Priority = PriorityNormal
		d.Reason = fmt.Sprintf("price dropped %.1f%%", change.Percent)
		return d
	}

	d.Reason = ReasonBelowMinDrop
	return d
}
