package plan

import (
	"testing"

	"github.com/albapepper/pricewatch/internal/models"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		user         models.User
		wantInterval Interval
		wantMax      int
	}{
		{"free defaults", models.User{PlanID: "free"}, Weekly, 5},
		{"pro defaults", models.User{PlanID: "pro"}, Daily, 50},
		{"business defaults", models.User{PlanID: "business"}, Hourly, 200},
		{"unknown plan falls back to free", models.User{PlanID: "gold"}, Weekly, 5},
		{"case insensitive id", models.User{PlanID: "PRO"}, Daily, 50},
		{"interval override wins", models.User{PlanID: "free", CheckInterval: "hourly"}, Hourly, 5},
		{"cap override wins", models.User{PlanID: "pro", MaxProducts: 7}, Daily, 7},
		{"garbage override is weekly", models.User{PlanID: "business", CheckInterval: "fortnightly"}, Weekly, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.user)
			if got.Interval != tt.wantInterval {
				t.Fatalf("Interval = %q, want %q", got.Interval, tt.wantInterval)
			}
			if got.MaxProducts != tt.wantMax {
				t.Fatalf("MaxProducts = %d, want %d", got.MaxProducts, tt.wantMax)
			}
		})
	}
}

func TestParseInterval(t *testing.T) {
	cases := map[string]Interval{
		"hourly":  Hourly,
		" Daily ": Daily,
		"weekly":  Weekly,
		"":        Weekly,
		"monthly": Weekly,
	}
	for in, want := range cases {
		if got := ParseInterval(in); got != want {
			t.Fatalf("ParseInterval(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAllOrderedByCap(t *testing.T) {
	plans := All()
	if len(plans) != len(Registry) {
		t.Fatalf("len(All()) = %d, want %d", len(plans), len(Registry))
	}
	for i := 1; i < len(plans); i++ {
		if plans[i-1].MaxProducts > plans[i].MaxProducts {
			t.Fatalf("All() not ordered: %v", plans)
		}
	}
}
