// engine/internal/pricing/pricing.go
package pricing

import (
	"errors"
	"fmt"
	"log"
	"math"

	"relist-engine/internal/config"
	"relist-engine/internal/domain"
)

// ErrInvalidPricingInput marks a request with a negative cost or a
// non-finite number. Wrapped errors carry the offending value.
var ErrInvalidPricingInput = errors.New("invalid pricing input")

// Engine computes fee-aware profit breakdowns and suggested sell
// prices. Rates come from config as percentages and are stored here
// as fractions.
type Engine struct {
	shipping     float64
	payRate      float64
	payFixed     float64
	defaultFee   float64
	categoryFees map[string]float64
}

func New(cfg config.Config) *Engine {
	e := &Engine{
		shipping:     cfg.Pricing.DefaultShipping,
		payRate:      cfg.Pricing.PaymentRatePct / 100,
		payFixed:     cfg.Pricing.PaymentFixed,
		defaultFee:   cfg.Pricing.DefaultFeePct / 100,
		categoryFees: make(map[string]float64, len(cfg.Pricing.CategoryFeesPct)),
	}
	for k, pct := range cfg.Pricing.CategoryFeesPct {
		e.categoryFees[k] = pct / 100
	}
	return e
}

// FeeRate returns the marketplace final value fee fraction for a fee
// category key, or the default rate when the key is unknown or empty.
func (e *Engine) FeeRate(feeCategory string) float64 {
	if r, ok := e.categoryFees[feeCategory]; ok {
		return r
	}
	return e.defaultFee
}

// Breakdown itemizes the economics of selling at sellPrice. Money
// fields are rounded to cents; Profit and MarginPct are derived from
// the unrounded fees so a price produced by SuggestPrice reproduces
// its target margin to within a hundredth of a point.
func (e *Engine) Breakdown(cost, sellPrice float64, feeCategory string) (domain.ProfitBreakdown, error) {
	if err := checkInputs(cost, sellPrice); err != nil {
		return domain.ProfitBreakdown{}, err
	}
	if sellPrice < 0 {
		return domain.ProfitBreakdown{}, fmt.Errorf("%w: negative sell price %v", ErrInvalidPricingInput, sellPrice)
	}
	if sellPrice == 0 {
		// Margin is profit over sell price, undefined at zero; report
		// 0% rather than a division artifact.
		return domain.ProfitBreakdown{
			Cost:      cost,
			Profit:    roundCents(-cost),
			MarginPct: 0,
		}, nil
	}

	marketFee := sellPrice * e.FeeRate(feeCategory)
	paymentFee := sellPrice*e.payRate + e.payFixed
	profit := sellPrice - cost - marketFee - paymentFee - e.shipping
	margin := profit / sellPrice * 100

	return domain.ProfitBreakdown{
		Cost:         cost,
		SellPrice:    sellPrice,
		MarketFee:    roundCents(marketFee),
		PaymentFee:   roundCents(paymentFee),
		ShippingCost: e.shipping,
		Profit:       roundCents(profit),
		MarginPct:    math.Round(margin*100) / 100,
	}, nil
}

// SuggestPrice solves for the sell price where profit/sellPrice hits
// the target margin. The fee model is linear in sellPrice, so the
// fixed point has a closed form:
//
//	sell = (cost + shipping + fixedFee) / (1 - feeRate - payRate - margin)
//
// A margin high enough to push the denominator to zero or below is
// unreachable; the break-even price is returned instead.
func (e *Engine) SuggestPrice(cost, targetMarginPct float64, feeCategory string) (float64, error) {
	if err := checkInputs(cost, targetMarginPct); err != nil {
		return 0, err
	}
	margin := targetMarginPct / 100
	denom := 1 - e.FeeRate(feeCategory) - e.payRate - margin
	if denom <= 0 {
		log.Printf("[pricing] target margin %.0f%% exceeds fee headroom, using break-even", targetMarginPct)
		return e.BreakEven(cost, feeCategory), nil
	}
	return roundCents((cost + e.shipping + e.payFixed) / denom), nil
}

// BreakEven is the minimum sell price with zero profit.
func (e *Engine) BreakEven(cost float64, feeCategory string) float64 {
	denom := 1 - e.FeeRate(feeCategory) - e.payRate
	if denom <= 0 {
		return roundCents(cost * 2)
	}
	return roundCents((cost + e.shipping + e.payFixed) / denom)
}

func checkInputs(cost float64, vals ...float64) error {
	if cost < 0 {
		return fmt.Errorf("%w: negative cost %v", ErrInvalidPricingInput, cost)
	}
	for _, v := range append([]float64{cost}, vals...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", ErrInvalidPricingInput)
		}
	}
	return nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
