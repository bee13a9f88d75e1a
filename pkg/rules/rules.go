// Package rules evaluates verification rules against matched bill/ledger
// pairs. A rule is a named, pure function from a pair to a Verdict; the
// engine holds the registered rule set and evaluates it in a fixed order.
// Rules are loaded from configuration: adding a rule kind means registering a
// new factory, not editing existing rules.
package rules

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/match"
)

// Outcome is the result classification of one rule evaluation.
type Outcome string

const (
	// OutcomePass means the rule's check held within tolerance.
	OutcomePass Outcome = "pass"
	// OutcomeFail means the rule detected a discrepancy.
	OutcomeFail Outcome = "fail"
	// OutcomeSkipped means the rule could not evaluate because a required
	// field was absent. Skipped verdicts contribute zero confidence weight
	// and never abort the job.
	OutcomeSkipped Outcome = "skipped"
)

// Unit names the business-meaningful unit of a verdict's deviation.
type Unit string

const (
	// UnitCurrency is a signed money amount.
	UnitCurrency Unit = "currency"
	// UnitDays is a signed whole-day delta.
	UnitDays Unit = "days"
	// UnitQuantity is a signed quantity delta.
	UnitQuantity Unit = "quantity"
)

// Verdict is the outcome of one rule applied to one matched pair.
type Verdict struct {
	Rule      string          `json:"rule" yaml:"rule"`
	Outcome   Outcome         `json:"outcome" yaml:"outcome"`
	Deviation decimal.Decimal `json:"deviation" yaml:"deviation"`
	Unit      Unit            `json:"unit" yaml:"unit"`
	Weight    float64         `json:"weight" yaml:"weight"` // confidence contribution in [0,1]
	Note      string          `json:"note,omitempty" yaml:"note,omitempty"`
}

// Rule is one verification check. Evaluate must be pure: no I/O, no clock,
// no mutation of the candidate.
type Rule interface {
	ID() string
	Evaluate(c match.Candidate) Verdict
}

// Standard rule identifiers.
const (
	RulePrice    = "price"
	RuleQuantity = "quantity"
	RuleDate     = "date"
	RuleTax      = "tax"
)

// Config carries the tolerances and weights for the standard rule set.
// Weights select the active rules: a rule with zero weight is disabled.
// Active weights must sum to 1 for the aggregator's confidence formula.
type Config struct {
	PriceToleranceRelative float64            `json:"priceToleranceRelative" yaml:"priceToleranceRelative" mapstructure:"price_tolerance_relative"`
	PriceToleranceAbsolute float64            `json:"priceToleranceAbsolute" yaml:"priceToleranceAbsolute" mapstructure:"price_tolerance_absolute"`
	QuantityExactMatch     bool               `json:"quantityExactMatch" yaml:"quantityExactMatch" mapstructure:"quantity_exact_match"`
	DateWindowDays         int                `json:"dateWindowDays" yaml:"dateWindowDays" mapstructure:"date_window_days"`
	TaxToleranceFraction   float64            `json:"taxToleranceFraction" yaml:"taxToleranceFraction" mapstructure:"tax_tolerance_fraction"`
	Weights                map[string]float64 `json:"ruleWeights" yaml:"ruleWeights" mapstructure:"rule_weights"`
}

// DefaultConfig returns the standard rule set with documented defaults:
// price 2% relative or 0.05 absolute, exact quantities, a 3-day date window,
// 1% tax tolerance, and diagnostic weights favoring price.
func DefaultConfig() Config {
	return Config{
		PriceToleranceRelative: 0.02,
		PriceToleranceAbsolute: 0.05,
		QuantityExactMatch:     true,
		DateWindowDays:         3,
		TaxToleranceFraction:   0.01,
		Weights: map[string]float64{
			RulePrice:    0.40,
			RuleQuantity: 0.25,
			RuleDate:     0.15,
			RuleTax:      0.20,
		},
	}
}

// Validate rejects rule configurations before any job runs.
func (c Config) Validate() error {
	if c.PriceToleranceRelative < 0 || c.PriceToleranceRelative > 1 {
		return errors.NewConfigError("rules", "price relative tolerance must be in [0,1]", nil)
	}
	if c.PriceToleranceAbsolute < 0 {
		return errors.NewConfigError("rules", "price absolute tolerance cannot be negative", nil)
	}
	if c.DateWindowDays < 0 {
		return errors.NewConfigError("rules", "date window cannot be negative", nil)
	}
	if c.TaxToleranceFraction < 0 || c.TaxToleranceFraction > 1 {
		return errors.NewConfigError("rules", "tax tolerance fraction must be in [0,1]", nil)
	}

	sum := 0.0
	for id, w := range c.Weights {
		if w < 0 || w > 1 {
			return errors.NewConfigError("rules", fmt.Sprintf("weight for rule %q must be in [0,1]", id), nil)
		}
		if _, known := factories[id]; !known && w > 0 {
			return errors.NewConfigError("rules", fmt.Sprintf("unknown rule %q", id), nil)
		}
		sum += w
	}
	if sum < 1-weightEpsilon || sum > 1+weightEpsilon {
		return errors.NewConfigError("rules",
			fmt.Sprintf("active rule weights must sum to 1, got %g", sum), nil)
	}
	return nil
}

const weightEpsilon = 1e-9

// Factory builds a rule from configuration. New rule kinds register a
// factory instead of branching inside existing rules.
type Factory func(cfg Config, rates billing.TaxRates, weight float64) Rule

var factories = map[string]Factory{
	RulePrice:    newPriceRule,
	RuleQuantity: newQuantityRule,
	RuleDate:     newDateRule,
	RuleTax:      newTaxRule,
}

// standardOrder fixes the evaluation order of the built-in rules; registered
// extras follow alphabetically.
var standardOrder = []string{RulePrice, RuleQuantity, RuleDate, RuleTax}

// Register adds a rule factory under a new identifier. Registering an
// existing identifier is an error.
func Register(id string, f Factory) error {
	if _, exists := factories[id]; exists {
		return errors.NewConfigError("rules", fmt.Sprintf("rule %q already registered", id), nil)
	}
	factories[id] = f
	return nil
}

// Engine evaluates the active rule set against match candidates.
type Engine struct {
	rules []Rule
}

// NewEngine builds the active rule set from configuration. Rule order is
// deterministic regardless of map iteration.
func NewEngine(cfg Config, rates billing.TaxRates) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	active := make([]Rule, 0, len(cfg.Weights))
	seen := make(map[string]bool)
	appendRule := func(id string) {
		w := cfg.Weights[id]
		if w <= 0 || seen[id] {
			return
		}
		seen[id] = true
		active = append(active, factories[id](cfg, rates, w))
	}

	for _, id := range standardOrder {
		if _, ok := cfg.Weights[id]; ok {
			appendRule(id)
		}
	}
	extras := make([]string, 0)
	for id := range cfg.Weights {
		if !seen[id] && cfg.Weights[id] > 0 {
			extras = append(extras, id)
		}
	}
	sort.Strings(extras)
	for _, id := range extras {
		appendRule(id)
	}

	return &Engine{rules: active}, nil
}

// Rules returns the active rules in evaluation order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate runs every active rule against the candidate and returns the
// verdicts in registry order. Rule-level degradation never aborts the pair.
func (e *Engine) Evaluate(c match.Candidate) []Verdict {
	verdicts := make([]Verdict, 0, len(e.rules))
	for _, r := range e.rules {
		verdicts = append(verdicts, r.Evaluate(c))
	}
	return verdicts
}
