package pricing

import (
	"errors"
	"math"
	"testing"

	"relist-engine/internal/config"
)

func testEngine() *Engine {
	var cfg config.Config
	cfg.Pricing.DefaultShipping = 5.00
	cfg.Pricing.PaymentRatePct = 2.9
	cfg.Pricing.PaymentFixed = 0.30
	cfg.Pricing.DefaultFeePct = 13.25
	cfg.Pricing.CategoryFeesPct = map[string]float64{
		"books":                14.55,
		"jewelry":              15.50,
		"musical_instruments":  6.35,
		"business_industrial":  5.25,
	}
	return New(cfg)
}

func TestBreakdownItemizesFees(t *testing.T) {
	e := testEngine()
	b, err := e.Breakdown(10, 30, "")
	if err != nil {
		t.Fatal(err)
	}
	if b.MarketFee != 3.98 { // 30 * 13.25%
		t.Errorf("market fee = %v", b.MarketFee)
	}
	if b.PaymentFee != 1.17 { // 30 * 2.9% + 0.30
		t.Errorf("payment fee = %v", b.PaymentFee)
	}
	if b.ShippingCost != 5.00 {
		t.Errorf("shipping = %v", b.ShippingCost)
	}
	if b.Profit != 9.86 {
		t.Errorf("profit = %v", b.Profit)
	}
}

func TestBreakdownCategoryRate(t *testing.T) {
	e := testEngine()
	def, _ := e.Breakdown(10, 30, "")
	books, _ := e.Breakdown(10, 30, "books")
	if books.MarketFee <= def.MarketFee {
		t.Fatalf("books fee %v should exceed default %v", books.MarketFee, def.MarketFee)
	}
	instruments, _ := e.Breakdown(10, 30, "musical_instruments")
	if instruments.MarketFee >= def.MarketFee {
		t.Fatalf("instruments fee %v should undercut default %v", instruments.MarketFee, def.MarketFee)
	}
}

func TestBreakdownZeroSellPrice(t *testing.T) {
	e := testEngine()
	b, err := e.Breakdown(10, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	// Margin is undefined at sell price zero; it reports 0%, while
	// profit still carries the sunk cost.
	if b.Profit != -10 || b.MarginPct != 0 {
		t.Fatalf("breakdown = %+v", b)
	}
	zero, _ := e.Breakdown(0, 0, "")
	if zero.MarginPct != 0 || zero.Profit != 0 {
		t.Fatalf("zero cost zero price breakdown = %+v", zero)
	}
}

func TestBreakdownRejectsBadInput(t *testing.T) {
	e := testEngine()
	if _, err := e.Breakdown(-1, 30, ""); !errors.Is(err, ErrInvalidPricingInput) {
		t.Errorf("negative cost: %v", err)
	}
	if _, err := e.Breakdown(math.NaN(), 30, ""); !errors.Is(err, ErrInvalidPricingInput) {
		t.Errorf("NaN cost: %v", err)
	}
	if _, err := e.Breakdown(10, math.Inf(1), ""); !errors.Is(err, ErrInvalidPricingInput) {
		t.Errorf("Inf price: %v", err)
	}
	if _, err := e.Breakdown(10, -5, ""); !errors.Is(err, ErrInvalidPricingInput) {
		t.Errorf("negative price: %v", err)
	}
	if _, err := e.SuggestPrice(-1, 20, ""); !errors.Is(err, ErrInvalidPricingInput) {
		t.Errorf("suggest negative cost: %v", err)
	}
}

func TestSuggestPriceRoundTripsMargin(t *testing.T) {
	e := testEngine()
	for _, tc := range []struct {
		cost, margin float64
		category     string
	}{
		{10, 30, ""},
		{10, 20, "books"},
		{49.99, 15, "jewelry"},
		{20, 40, "musical_instruments"},
	} {
		price, err := e.SuggestPrice(tc.cost, tc.margin, tc.category)
		if err != nil {
			t.Fatal(err)
		}
		b, err := e.Breakdown(tc.cost, price, tc.category)
		if err != nil {
			t.Fatal(err)
		}
		if diff := math.Abs(b.MarginPct - tc.margin); diff > 0.01 {
			t.Errorf("cost=%v margin=%v cat=%q: price %v round-trips to %v (off %v)",
				tc.cost, tc.margin, tc.category, price, b.MarginPct, diff)
		}
	}
}

func TestSuggestPriceUnreachableMarginFallsBackToBreakEven(t *testing.T) {
	e := testEngine()
	price, err := e.SuggestPrice(10, 95, "")
	if err != nil {
		t.Fatal(err)
	}
	if want := e.BreakEven(10, ""); price != want {
		t.Fatalf("price = %v, want break-even %v", price, want)
	}
	b, _ := e.Breakdown(10, price, "")
	if math.Abs(b.Profit) > 0.02 {
		t.Fatalf("break-even profit = %v", b.Profit)
	}
}

func TestBreakEven(t *testing.T) {
	e := testEngine()
	price := e.BreakEven(10, "")
	// (10 + 5 + 0.30) / (1 - 0.1325 - 0.029)
	if want := 18.25; math.Abs(price-want) > 0.01 {
		t.Fatalf("break-even = %v, want ~%v", price, want)
	}
}
