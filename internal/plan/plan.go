// Package plan is the subscription tier registry. Each tier fixes how often
// its owners' products are checked and how many products they may track.
package plan

import (
	"sort"
	"strings"

	"github.com/albapepper/pricewatch/internal/models"
)

// Interval is a check cadence.
type Interval string

const (
	Hourly Interval = "hourly"
	Daily  Interval = "daily"
	Weekly Interval = "weekly"
)

// ParseInterval maps a stored or user-supplied value to an Interval.
// Anything unrecognized falls back to Weekly.
func ParseInterval(s string) Interval {
	switch Interval(strings.ToLower(strings.TrimSpace(s))) {
	case Hourly:
		return Hourly
	case Daily:
		return Daily
	default:
		return Weekly
	}
}

// ValidInterval reports whether s names an interval exactly.
func ValidInterval(s string) bool {
	switch Interval(s) {
	case Hourly, Daily, Weekly:
		return true
	}
	return false
}

// ID identifies a plan.
type ID string

const (
	Free     ID = "free"
	Pro      ID = "pro"
	Business ID = "business"
)

// Plan is one row of the tier table.
type Plan struct {
	ID          ID       `json:"id"`
	Name        string   `json:"name"`
	Interval    Interval `json:"interval"`
	MaxProducts int      `json:"max_products"`
}

// --------------------------------------------------------------------------
// Plan registry
// --------------------------------------------------------------------------

var Registry = map[ID]Plan{
	Free:     {ID: Free, Name: "Free", Interval: Weekly, MaxProducts: 5},
	Pro:      {ID: Pro, Name: "Pro", Interval: Daily, MaxProducts: 50},
	Business: {ID: Business, Name: "Business", Interval: Hourly, MaxProducts: 200},
}

// Lookup returns the plan for id, falling back to Free for unknown ids.
func Lookup(id string) Plan {
	if p, ok := Registry[ID(strings.ToLower(id))]; ok {
		return p
	}
	return Registry[Free]
}

// All returns the registry ordered by product cap.
func All() []Plan {
	plans := make([]Plan, 0, len(Registry))
	for _, p := range Registry {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].MaxProducts < plans[j].MaxProducts })
	return plans
}

// Limits is what a user is actually entitled to after overrides.
type Limits struct {
	Plan        ID       `json:"plan"`
	Interval    Interval `json:"interval"`
	MaxProducts int      `json:"max_products"`
}

// Resolve returns the effective limits for u. An explicit per-user interval
// or product cap wins over the plan default.
func Resolve(u models.User) Limits {
	p := Lookup(u.PlanID)
	l := Limits{Plan: p.ID, Interval: p.Interval, MaxProducts: p.MaxProducts}
	if u.CheckInterval != "" {
		l.Interval = ParseInterval(u.CheckInterval)
	}
	if u.MaxProducts > 0 {
		l.MaxProducts = u.MaxProducts
	}
	return l
}
