// Package config loads and validates the tally configuration surface from
// files and environment variables via Viper. Every option is validated at
// load time; a bad configuration is rejected before any job runs.
package config

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/agentstation/tally/internal/jobs"
	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/errors"
	"github.com/agentstation/tally/pkg/match"
	"github.com/agentstation/tally/pkg/reconcile"
	"github.com/agentstation/tally/pkg/rules"
)

// Config is the full recognized option surface.
type Config struct {
	Match    MatchSettings      `mapstructure:"match"`
	Rules    rules.Config       `mapstructure:"rules"`
	Severity []SeverityCut      `mapstructure:"severity_thresholds"`
	Jobs     jobs.Config        `mapstructure:"jobs"`
	Vendors  map[string]float64 `mapstructure:"vendor_tax_rates"`
}

// MatchSettings mirrors match.Config with plain scalars for Viper decoding.
type MatchSettings struct {
	ScoreThreshold       float64 `mapstructure:"score_threshold"`
	ExactAmountTolerance float64 `mapstructure:"exact_amount_tolerance"`
	DateWindowDays       int     `mapstructure:"date_window_days"`
	DescriptionWeight    float64 `mapstructure:"description_weight"`
	AmountWeight         float64 `mapstructure:"amount_weight"`
}

// SeverityCut mirrors reconcile.Cut with plain scalars for Viper decoding.
type SeverityCut struct {
	Severity      string  `mapstructure:"severity"`
	MinConfidence float64 `mapstructure:"min_confidence"`
	MaxDeviation  float64 `mapstructure:"max_deviation"`
}

// Load reads configuration from the given file (optional), the environment
// (TALLY_ prefix), and defaults, in that order of precedence, then validates
// the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TALLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.NewConfigError("config", "cannot decode configuration", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the documented default configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	cfg.Rules.Weights = rules.DefaultConfig().Weights
	cfg.Severity = defaultSeverity()
	return &cfg
}

func setDefaults(v *viper.Viper) {
	mc := match.DefaultConfig()
	v.SetDefault("match.score_threshold", mc.ScoreThreshold)
	v.SetDefault("match.exact_amount_tolerance", 0.01)
	v.SetDefault("match.date_window_days", mc.DateWindowDays)
	v.SetDefault("match.description_weight", mc.DescriptionWeight)
	v.SetDefault("match.amount_weight", mc.AmountWeight)

	rc := rules.DefaultConfig()
	v.SetDefault("rules.price_tolerance_relative", rc.PriceToleranceRelative)
	v.SetDefault("rules.price_tolerance_absolute", rc.PriceToleranceAbsolute)
	v.SetDefault("rules.quantity_exact_match", rc.QuantityExactMatch)
	v.SetDefault("rules.date_window_days", rc.DateWindowDays)
	v.SetDefault("rules.tax_tolerance_fraction", rc.TaxToleranceFraction)
	v.SetDefault("rules.rule_weights", rc.Weights)

	jc := jobs.DefaultConfig()
	v.SetDefault("jobs.max_retries", jc.MaxRetries)
	v.SetDefault("jobs.retry_backoff.base", jc.Backoff.Base)
	v.SetDefault("jobs.retry_backoff.multiplier", jc.Backoff.Multiplier)
	v.SetDefault("jobs.workers", jc.Workers)
	v.SetDefault("jobs.boundary_timeout", jc.BoundaryTimeout)
}

func defaultSeverity() []SeverityCut {
	cuts := make([]SeverityCut, 0, 3)
	for _, cut := range reconcile.DefaultLadder() {
		f, _ := cut.MaxDeviation.Float64()
		cuts = append(cuts, SeverityCut{
			Severity:      string(cut.Severity),
			MinConfidence: cut.MinConfidence,
			MaxDeviation:  f,
		})
	}
	return cuts
}

// Validate checks the whole configuration surface.
func (c *Config) Validate() error {
	if err := c.MatchConfig().Validate(); err != nil {
		return err
	}
	if err := c.Rules.Validate(); err != nil {
		return err
	}
	if err := c.Ladder().Validate(); err != nil {
		return err
	}
	if err := c.Jobs.Validate(); err != nil {
		return err
	}
	for vendor, rate := range c.Vendors {
		if rate < 0 || rate > 1 {
			return errors.NewConfigError("vendors",
				"tax rate for "+vendor+" must be in [0,1]", nil)
		}
	}
	return nil
}

// MatchConfig converts the decoded settings into the matcher's config.
func (c *Config) MatchConfig() match.Config {
	return match.Config{
		ScoreThreshold:       c.Match.ScoreThreshold,
		ExactAmountTolerance: decimal.NewFromFloat(c.Match.ExactAmountTolerance),
		DateWindowDays:       c.Match.DateWindowDays,
		DescriptionWeight:    c.Match.DescriptionWeight,
		AmountWeight:         c.Match.AmountWeight,
	}
}

// Ladder converts the decoded severity cut points into the aggregator's
// ladder. An empty list falls back to the documented defaults.
func (c *Config) Ladder() reconcile.Ladder {
	if len(c.Severity) == 0 {
		return reconcile.DefaultLadder()
	}
	ladder := make(reconcile.Ladder, 0, len(c.Severity))
	for _, cut := range c.Severity {
		ladder = append(ladder, reconcile.Cut{
			Severity:      reconcile.Severity(cut.Severity),
			MinConfidence: cut.MinConfidence,
			MaxDeviation:  decimal.NewFromFloat(cut.MaxDeviation),
		})
	}
	return ladder
}

// TaxRates converts the vendor table into the tax rule's reference data.
func (c *Config) TaxRates() billing.TaxRates {
	rates := make(billing.TaxRates, len(c.Vendors))
	for vendor, rate := range c.Vendors {
		rates[vendor] = decimal.NewFromFloat(rate)
	}
	return rates
}

// Reconciler builds the verification pipeline from this configuration.
func (c *Config) Reconciler() (reconcile.Reconciler, error) {
	return reconcile.New(
		reconcile.WithMatchConfig(c.MatchConfig()),
		reconcile.WithRuleConfig(c.Rules),
		reconcile.WithTaxRates(c.TaxRates()),
		reconcile.WithSeverityLadder(c.Ladder()),
	)
}
