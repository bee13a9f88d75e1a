// Package reconcile runs the verification pipeline for one bill/ledger input
// pair: match line items, evaluate the active rule set against every matched
// pair, and aggregate verdicts into a confidence-scored outcome. The pipeline
// is CPU-bound, pure, and side-effect-free; persistence and retry live with
// the job tracker.
package reconcile

import (
	"context"

	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/logging"
	"github.com/agentstation/tally/pkg/match"
	"github.com/agentstation/tally/pkg/rules"
)

// Reconciler runs the matching and verification pipeline on two normalized
// line-item collections.
type Reconciler interface {
	// Reconcile validates both inputs, pairs them, and evaluates the rule
	// set. Identical inputs and configuration always produce an identical
	// outcome.
	Reconcile(ctx context.Context, bill, ledger billing.Collection) (*Outcome, error)
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	matcher *match.Matcher
	engine  *rules.Engine
	agg     aggregator
}

// New creates a Reconciler with options. All configuration is validated here,
// before any job runs.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	matcher, err := match.New(options.matchConfig)
	if err != nil {
		return nil, err
	}
	engine, err := rules.NewEngine(options.ruleConfig, options.taxRates)
	if err != nil {
		return nil, err
	}
	if err := options.ladder.Validate(); err != nil {
		return nil, err
	}

	return &reconciler{
		matcher: matcher,
		engine:  engine,
		agg:     aggregator{ladder: options.ladder},
	}, nil
}

// Reconcile performs the pipeline with clean step-by-step flow.
func (r *reconciler) Reconcile(ctx context.Context, bill, ledger billing.Collection) (*Outcome, error) {
	logger := logging.FromContext(ctx)

	// Step 1: Validate inputs. Malformed input is terminal, never retried.
	if err := bill.Validate(); err != nil {
		return nil, err
	}
	if err := ledger.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Pair line items across the two collections.
	res := r.matcher.Match(bill, ledger)
	logger.Debug().
		Int("matches", len(res.Candidates)).
		Int("unmatched_bill", len(res.UnmatchedBill)).
		Int("unmatched_ledger", len(res.UnmatchedLedger)).
		Msg("Matched line items")

	// Step 3: Evaluate the rule set against every matched pair.
	matched := make([]PairResult, 0, len(res.Candidates))
	for _, c := range res.Candidates {
		verdicts := r.engine.Evaluate(c)
		matched = append(matched, r.agg.pair(c, verdicts))
	}

	// Step 4: Roll pairs and residues up to the job level.
	outcome := r.agg.outcome(matched, res)
	logger.Info().
		Int("pairs", len(outcome.Pairs)).
		Float64("overall_confidence", outcome.OverallConfidence).
		Str("total_deviation", outcome.TotalDeviation.String()).
		Msg("Aggregated discrepancies")

	return &outcome, nil
}
