// Package analysis classifies price movements: the change between two
// observed prices and the trend over recent history.
package analysis

import "math"

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// DefaultMinDropPercent is the smallest drop worth alerting on.
	DefaultMinDropPercent = 2.0

	// Tolerance absorbs float noise; moves within it are Unchanged.
	Tolerance = 0.01

	// DefaultTrendWindow is how many of the newest history entries a trend spans.
	DefaultTrendWindow = 5
)

// Direction of a price move.
type Direction string

const (
	Down      Direction = "down"
	Up        Direction = "up"
	Unchanged Direction = "unchanged"
)

// Change describes the move from an old price to a new one. Absolute and
// Percent are positive for drops.
type Change struct {
	Absolute   float64   `json:"absolute_change"`
	Percent    float64   `json:"percent_change"`
	Direction  Direction `json:"direction"`
	Meaningful bool      `json:"is_meaningful"`
}

// ComputeChange compares oldPrice to newPrice. A missing or non-positive
// price on either side yields a neutral Unchanged result. A non-positive
// minDropPercent means DefaultMinDropPercent.
func ComputeChange(oldPrice, newPrice, minDropPercent float64) Change {
	if !usable(oldPrice) || !usable(newPrice) {
		return Change{Direction: Unchanged}
	}
	if minDropPercent <= 0 {
		minDropPercent = DefaultMinDropPercent
	}

	diff := oldPrice - newPrice
	c := Change{
		Absolute:  diff,
		Percent:   diff / oldPrice * 100,
		Direction: Unchanged,
	}
	switch {
	case diff > Tolerance:
		c.Direction = Down
	case diff < -Tolerance:
		c.Direction = Up
	}
	c.Meaningful = c.Direction == Down && math.Abs(c.Percent) >= minDropPercent
	return c
}

func usable(p float64) bool {
	return p > 0 && !math.IsNaN(p) && !math.IsInf(p, 0)
}
