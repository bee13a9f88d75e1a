package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/match"
	"github.com/agentstation/tally/pkg/rules"
)

// PairResult is one row of the aggregated outcome: a matched candidate with
// its verdicts, or a residue entry with a single side and severity unmatched.
// Residues carry confidence 0 so matched and unmatched rows aggregate
// uniformly.
type PairResult struct {
	Bill       *billing.LineItem
	Ledger     *billing.LineItem
	Score      float64
	Strategy   match.Strategy
	Verdicts   []rules.Verdict
	Confidence float64
	Deviation  decimal.Decimal // sum of |failing deviations| for the pair
	Severity   Severity
}

// Matched reports whether both sides of the pair are present.
func (p PairResult) Matched() bool {
	return p.Bill != nil && p.Ledger != nil
}

// Outcome is the job-level aggregation of every pair and residue.
type Outcome struct {
	Pairs             []PairResult
	UnmatchedBill     []billing.LineItem
	UnmatchedLedger   []billing.LineItem
	TotalDeviation    decimal.Decimal
	OverallConfidence float64
}

// aggregator folds verdicts into pair-level and job-level results.
type aggregator struct {
	ladder Ladder
}

// pair combines one candidate's verdicts: confidence is the weighted sum of
// passing rules, failing rules contribute their absolute deviation to the
// pair's total deviation and zero to confidence, skipped rules contribute
// neither.
func (a aggregator) pair(c match.Candidate, verdicts []rules.Verdict) PairResult {
	confidence := 0.0
	deviation := decimal.Zero
	for _, v := range verdicts {
		switch v.Outcome {
		case rules.OutcomePass:
			confidence += v.Weight
		case rules.OutcomeFail:
			deviation = deviation.Add(v.Deviation.Abs())
		}
	}
	if confidence > 1 {
		confidence = 1
	}

	bill, ledger := c.Bill, c.Ledger
	return PairResult{
		Bill:       &bill,
		Ledger:     &ledger,
		Score:      c.Score,
		Strategy:   c.Strategy,
		Verdicts:   verdicts,
		Confidence: confidence,
		Deviation:  deviation,
		Severity:   a.ladder.Classify(confidence, deviation),
	}
}

// residue synthesizes a PairResult-equivalent entry for an unmatched item.
func (a aggregator) residue(item billing.LineItem, side billing.Side) PairResult {
	p := PairResult{
		Severity:  SeverityUnmatched,
		Deviation: decimal.Zero,
	}
	bound := item
	if side == billing.SideBill {
		p.Bill = &bound
	} else {
		p.Ledger = &bound
	}
	return p
}

// outcome rolls pair results up to the job level. TotalDeviation is the sum
// of absolute pair deviations; OverallConfidence is the mean pair confidence
// with residues counted as zero. Two empty inputs reconcile vacuously clean.
func (a aggregator) outcome(matched []PairResult, res match.Result) Outcome {
	out := Outcome{
		Pairs:           matched,
		UnmatchedBill:   res.UnmatchedBill,
		UnmatchedLedger: res.UnmatchedLedger,
		TotalDeviation:  decimal.Zero,
	}

	for _, item := range res.UnmatchedBill {
		out.Pairs = append(out.Pairs, a.residue(item, billing.SideBill))
	}
	for _, item := range res.UnmatchedLedger {
		out.Pairs = append(out.Pairs, a.residue(item, billing.SideLedger))
	}

	if len(out.Pairs) == 0 {
		out.OverallConfidence = 1.0
		return out
	}

	sum := 0.0
	for _, p := range out.Pairs {
		out.TotalDeviation = out.TotalDeviation.Add(p.Deviation.Abs())
		sum += p.Confidence
	}
	out.OverallConfidence = sum / float64(len(out.Pairs))
	return out
}
