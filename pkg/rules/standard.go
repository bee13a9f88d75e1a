package rules

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/match"
)

// priceRule fails when the unit prices diverge beyond the relative tolerance
// or the absolute floor, whichever is looser. Deviation is the signed
// currency delta bill minus ledger.
type priceRule struct {
	relative decimal.Decimal
	absolute decimal.Decimal
	weight   float64
}

func newPriceRule(cfg Config, _ billing.TaxRates, weight float64) Rule {
	return &priceRule{
		relative: decimal.NewFromFloat(cfg.PriceToleranceRelative),
		absolute: decimal.NewFromFloat(cfg.PriceToleranceAbsolute),
		weight:   weight,
	}
}

func (r *priceRule) ID() string { return RulePrice }

func (r *priceRule) Evaluate(c match.Candidate) Verdict {
	v := Verdict{Rule: RulePrice, Unit: UnitCurrency, Weight: r.weight}
	v.Deviation = c.Bill.UnitPrice.Sub(c.Ledger.UnitPrice)

	tolerance := r.absolute
	if relative := c.Ledger.UnitPrice.Abs().Mul(r.relative); relative.GreaterThan(tolerance) {
		tolerance = relative
	}

	if v.Deviation.Abs().LessThanOrEqual(tolerance) {
		v.Outcome = OutcomePass
		return v
	}
	v.Outcome = OutcomeFail
	v.Note = fmt.Sprintf("unit price %s departs from ledger %s beyond tolerance %s",
		c.Bill.UnitPrice, c.Ledger.UnitPrice, tolerance)
	return v
}

// quantityRule fails on any non-zero quantity difference when exact matching
// is on; otherwise it always passes and only records the delta.
type quantityRule struct {
	exact  bool
	weight float64
}

func newQuantityRule(cfg Config, _ billing.TaxRates, weight float64) Rule {
	return &quantityRule{exact: cfg.QuantityExactMatch, weight: weight}
}

func (r *quantityRule) ID() string { return RuleQuantity }

func (r *quantityRule) Evaluate(c match.Candidate) Verdict {
	v := Verdict{Rule: RuleQuantity, Unit: UnitQuantity, Weight: r.weight}
	v.Deviation = c.Bill.Quantity.Sub(c.Ledger.Quantity)

	if !r.exact || v.Deviation.IsZero() {
		v.Outcome = OutcomePass
		return v
	}
	v.Outcome = OutcomeFail
	v.Note = fmt.Sprintf("billed quantity %s differs from ledger %s",
		c.Bill.Quantity, c.Ledger.Quantity)
	return v
}

// dateRule fails when the transaction dates are further apart than the
// configured window. Deviation is the signed day delta bill minus ledger.
type dateRule struct {
	windowDays int
	weight     float64
}

func newDateRule(cfg Config, _ billing.TaxRates, weight float64) Rule {
	return &dateRule{windowDays: cfg.DateWindowDays, weight: weight}
}

func (r *dateRule) ID() string { return RuleDate }

func (r *dateRule) Evaluate(c match.Candidate) Verdict {
	v := Verdict{Rule: RuleDate, Unit: UnitDays, Weight: r.weight}

	if c.Bill.Date.IsZero() || c.Ledger.Date.IsZero() {
		v.Outcome = OutcomeSkipped
		v.Weight = 0
		v.Note = "transaction date absent on one side"
		return v
	}

	days := signedDayDelta(c.Bill.Date.Time, c.Ledger.Date.Time)
	v.Deviation = decimal.NewFromInt(days)

	abs := days
	if abs < 0 {
		abs = -abs
	}
	if abs <= int64(r.windowDays) {
		v.Outcome = OutcomePass
		return v
	}
	v.Outcome = OutcomeFail
	v.Note = fmt.Sprintf("dates %d days apart, window is %d", abs, r.windowDays)
	return v
}

func signedDayDelta(a, b time.Time) int64 {
	day := func(t time.Time) int64 { return t.UTC().Truncate(24*time.Hour).Unix() / 86400 }
	return day(a) - day(b)
}

// taxRule recomputes the expected tax from the ledger subtotal and the
// vendor's tax rate, then checks the bill's reported tax against it. Without
// a configured rate for the vendor the rule degrades to a skipped verdict.
type taxRule struct {
	tolerance decimal.Decimal // fraction of expected tax
	rates     billing.TaxRates
	weight    float64
}

func newTaxRule(cfg Config, rates billing.TaxRates, weight float64) Rule {
	return &taxRule{
		tolerance: decimal.NewFromFloat(cfg.TaxToleranceFraction),
		rates:     rates,
		weight:    weight,
	}
}

func (r *taxRule) ID() string { return RuleTax }

func (r *taxRule) Evaluate(c match.Candidate) Verdict {
	v := Verdict{Rule: RuleTax, Unit: UnitCurrency, Weight: r.weight}

	rate, ok := r.rates.Rate(c.Ledger.Vendor)
	if !ok {
		v.Outcome = OutcomeSkipped
		v.Weight = 0
		v.Note = fmt.Sprintf("no tax rate configured for vendor %q", c.Ledger.Vendor)
		return v
	}

	expected := c.Ledger.Subtotal().Mul(rate)
	v.Deviation = c.Bill.Tax.Sub(expected)

	tolerance := expected.Abs().Mul(r.tolerance)
	if v.Deviation.Abs().LessThanOrEqual(tolerance) {
		v.Outcome = OutcomePass
		return v
	}
	v.Outcome = OutcomeFail
	v.Note = fmt.Sprintf("reported tax %s departs from recomputed %s", c.Bill.Tax, expected)
	return v
}
