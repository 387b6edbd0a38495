package alert

import (
	"strings"
	"testing"

	"github.com/albapepper/pricewatch/internal/models"
)

func f(v float64) *float64 { return &v }

func TestDecide(t *testing.T) {
	e := NewEngine(2.0)

	tests := []struct {
		name         string
		product      models.TrackedProduct
		old, new     float64
		wantAlert    bool
		wantPriority Priority
		wantReason   string
	}{
		{
			name: "price rose", old: 100, new: 110,
			wantReason: ReasonNoDrop,
		},
		{
			name: "unchanged", old: 100, new: 100,
			wantReason: ReasonNoDrop,
		},
		{
			name:    "target reached with small drop",
			product: models.TrackedProduct{TargetPrice: f(500)},
			old:     485, new: 480,
			wantAlert: true, wantPriority: PriorityHigh, wantReason: ReasonTargetReached,
		},
		{
			name: "meaningful drop", old: 1000, new: 900,
			wantAlert: true, wantPriority: PriorityNormal, wantReason: "price dropped 10.0%",
		},
		{
			name: "drop below threshold", old: 1000, new: 990,
			wantReason: ReasonBelowMinDrop,
		},
		{
			name:    "suppressed at last alerted price",
			product: models.TrackedProduct{LastAlertedPrice: f(100), TargetPrice: f(200)},
			old:     150, new: 100,
			wantReason: "already alerted at 100.00 ₽",
		},
		{
			name:    "below last alerted alerts again",
			product: models.TrackedProduct{LastAlertedPrice: f(100)},
			old:     100, new: 90,
			wantAlert: true, wantPriority: PriorityNormal, wantReason: "price dropped 10.0%",
		},
		{
			name:    "first observation never alerts",
			product: models.TrackedProduct{TargetPrice: f(1000)},
			old:     0, new: 10,
			wantReason: ReasonNoDrop,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Decide(tt.product, tt.old, tt.new)
			if got.ShouldAlert != tt.wantAlert {
				t.Fatalf("ShouldAlert = %v, want %v (%+v)", got.ShouldAlert, tt.wantAlert, got)
			}
			if got.Priority != tt.wantPriority {
				t.Fatalf("Priority = %q, want %q", got.Priority, tt.wantPriority)
			}
			if got.Reason != tt.wantReason {
				t.Fatalf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}

func TestDecideNeverAlertsAtOrAboveLastAlerted(t *testing.T) {
	e := NewEngine(2.0)
	p := models.TrackedProduct{LastAlertedPrice: f(100), TargetPrice: f(1000)}

	for _, newPrice := range []float64{100, 100.5, 120, 999} {
		if d := e.Decide(p, newPrice+50, newPrice); d.ShouldAlert {
			t.Fatalf("Decide(new=%v) alerted, want suppressed", newPrice)
		}
	}
}

func TestReplayAfterAlertIsSuppressed(t *testing.T) {
	e := NewEngine(2.0)
	p := models.TrackedProduct{}

	first := e.Decide(p, 1000, 900)
	if !first.ShouldAlert {
		t.Fatal("first Decide did not alert")
	}

	// The coordinator persists the alerted price after a successful send.
	p.LastAlertedPrice = f(900)
	if again := e.Decide(p, 1000, 900); again.ShouldAlert {
		t.Fatalf("replayed Decide alerted: %+v", again)
	}
}

func TestBuildMessage(t *testing.T) {
	p := models.TrackedProduct{
		Title:       "Electric kettle",
		SourceRef:   "https://shop.example/p/42",
		Currency:    "RUB",
		TargetPrice: f(500),
	}
	d := NewEngine(2.0).Decide(p, 485, 480)

	msg := BuildMessage(p, d, 485, 480)
	for _, want := range []string{"Target price reached", "Electric kettle", "485.00 ₽ → 480.00 ₽", "Target: 500.00 ₽", p.SourceRef} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestBuildMessageFallsBackToRef(t *testing.T) {
	p := models.TrackedProduct{SourceRef: "https://shop.example/p/7", Currency: "USD"}
	d := NewEngine(2.0).Decide(p, 100, 80)

	msg := BuildMessage(p, d, 100, 80)
	if !strings.Contains(msg, "Price drop") || !strings.Contains(msg, "$100.00 → $80.00 (-20.0%)") {
		t.Fatalf("unexpected message:\n%s", msg)
	}
}
