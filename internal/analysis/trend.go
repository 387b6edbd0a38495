package analysis

import (
	"sort"

	"github.com/albapepper/pricewatch/internal/models"
)

// Trend is the coarse direction over recent history.
type Trend string

const (
	TrendDown   Trend = "DOWN"
	TrendUp     Trend = "UP"
	TrendStable Trend = "STABLE"
)

// TrendResult is a trend plus the window it was computed over.
type TrendResult struct {
	Trend   Trend   `json:"trend"`
	Percent float64 `json:"percent_change"`
	Oldest  float64 `json:"oldest_price"`
	Newest  float64 `json:"newest_price"`
	Samples int     `json:"samples"`
}

// ClassifyTrend compares the oldest and newest entries among the newest
// window entries of history. Input order does not matter. Moves of at least
// thresholdPercent either way are DOWN or UP; fewer than two usable samples
// are STABLE.
func ClassifyTrend(history []models.HistoryEntry, window int, thresholdPercent float64) TrendResult {
	if window < 2 {
		window = DefaultTrendWindow
	}
	if thresholdPercent <= 0 {
		thresholdPercent = DefaultMinDropPercent
	}

	entries := make([]models.HistoryEntry, 0, len(history))
	for _, h := range history {
		if usable(h.Price) {
			entries = append(entries, h)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].RecordedAt.Before(entries[j].RecordedAt)
	})
	if len(entries) > window {
		entries = entries[len(entries)-window:]
	}

	res := TrendResult{Trend: TrendStable, Samples: len(entries)}
	if len(entries) < 2 {
		return res
	}

	res.Oldest = entries[0].Price
	res.Newest = entries[len(entries)-1].Price
	res.Percent = (res.Newest - res.Oldest) / res.Oldest * 100

	switch {
	case res.Percent <= -thresholdPercent:
		res.Trend = TrendDown
	case res.Percent >= thresholdPercent:
		res.Trend = TrendUp
	}
	return res
}
