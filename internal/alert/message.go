package alert

import (
	"fmt"
	"strings"

	"github.com/albapepper/pricewatch/internal/currency"
	"github.com/albapepper/pricewatch/internal/models"
)

const maxTitleLen = 120

// BuildMessage renders the notification text for an alerting decision.
func BuildMessage(p models.TrackedProduct, d Decision, oldPrice, newPrice float64) string {
	var b strings.Builder

	if d.TargetReached {
		b.WriteString("🎯 Target price reached!\n")
	} else {
		b.WriteString("📉 Price drop!\n")
	}

	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = p.SourceRef
	}
	b.WriteString(truncate(title, maxTitleLen))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s → %s (-%.1f%%)\n",
		currency.Format(oldPrice, p.Currency),
		currency.Format(newPrice, p.Currency),
		d.Change.Percent)

	if p.TargetPrice != nil {
		fmt.Fprintf(&b, "Target: %s\n", currency.Format(*p.TargetPrice, p.Currency))
	}

	b.WriteString(p.SourceRef)
	return b.String()
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
