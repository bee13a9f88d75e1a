package reconcile

import (
	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/match"
	"github.com/agentstation/tally/pkg/rules"
)

// options configures a reconciler.
type options struct {
	matchConfig match.Config
	ruleConfig  rules.Config
	taxRates    billing.TaxRates
	ladder      Ladder
}

func defaultOptions() *options {
	return &options{
		matchConfig: match.DefaultConfig(),
		ruleConfig:  rules.DefaultConfig(),
		taxRates:    billing.TaxRates{},
		ladder:      DefaultLadder(),
	}
}

// Option is a function that configures a Reconciler.
type Option func(*options) error

func newOptions(opts ...Option) (*options, error) {
	options := defaultOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// WithMatchConfig sets the matcher thresholds and weights.
func WithMatchConfig(cfg match.Config) Option {
	return func(o *options) error {
		o.matchConfig = cfg
		return nil
	}
}

// WithRuleConfig sets the rule tolerances and weights.
func WithRuleConfig(cfg rules.Config) Option {
	return func(o *options) error {
		o.ruleConfig = cfg
		return nil
	}
}

// WithTaxRates sets the vendor tax-rate reference data for the tax rule.
func WithTaxRates(rates billing.TaxRates) Option {
	return func(o *options) error {
		o.taxRates = rates
		return nil
	}
}

// WithSeverityLadder sets the severity cut points.
func WithSeverityLadder(ladder Ladder) Option {
	return func(o *options) error {
		o.ladder = ladder
		return nil
	}
}
