package convert

import (
	"strings"
	"testing"
)

func TestOptimizeTitleShortPassesThrough(t *testing.T) {
	got := OptimizeTitle("Anker USB C Charger 20W", "Anker")
	if got != "Anker USB C Charger 20W" {
		t.Fatalf("got %q", got)
	}
}

func TestOptimizeTitleStripsNoise(t *testing.T) {
	got := OptimizeTitle("Widget Pro™ Amazon's Choice Gift Box Edition", "")
	if strings.Contains(got, "Amazon") || strings.Contains(got, "™") || strings.Contains(got, "Gift Box") {
		t.Fatalf("noise survived: %q", got)
	}
}

func TestOptimizeTitleFitsLimit(t *testing.T) {
	long := "Professional Stainless Steel Rechargeable Bluetooth Wireless Noise Cancelling Over Ear Headphones with Carrying Case and Charging Cable for Travel"
	got := OptimizeTitle(long, "")
	if len(got) > 80 {
		t.Fatalf("len = %d: %q", len(got), got)
	}
	if got == "" {
		t.Fatal("optimizer produced empty title")
	}
}

func TestOptimizeTitleNeverSplitsWord(t *testing.T) {
	long := strings.Repeat("Extraordinary ", 10) + "Item"
	got := OptimizeTitle(long, "")
	if len(got) > 80 {
		t.Fatalf("len = %d", len(got))
	}
	for _, w := range strings.Fields(got) {
		if !strings.Contains(long, w) {
			t.Fatalf("word %q is not from the source title", w)
		}
	}
}

func TestOptimizeTitleFrontLoadsBrand(t *testing.T) {
	got := OptimizeTitle("Insulated Water Bottle by Ozark Trail 24oz", "Ozark Trail")
	if !strings.HasPrefix(got, "Ozark Trail") {
		t.Fatalf("brand not front-loaded: %q", got)
	}
}

func TestOptimizeTitleAbbreviatesWhenLong(t *testing.T) {
	long := "Stainless Steel Vacuum Insulated Tumbler with Leakproof Flip Lid and Straw Pack of 2 Dishwasher Safe"
	got := OptimizeTitle(long, "")
	if len(got) > 80 {
		t.Fatalf("len = %d: %q", len(got), got)
	}
	if !strings.Contains(got, "SS") {
		t.Fatalf("expected Stainless Steel abbreviation in %q", got)
	}
}

func TestOptimizeTitleIdempotent(t *testing.T) {
	long := "Professional Stainless Steel Rechargeable Bluetooth Wireless Noise Cancelling Over Ear Headphones with Carrying Case for Travel"
	once := OptimizeTitle(long, "")
	twice := OptimizeTitle(once, "")
	if once != twice {
		t.Fatalf("not idempotent: %q vs %q", once, twice)
	}
}
