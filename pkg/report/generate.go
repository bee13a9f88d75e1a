package report

import (
	"fmt"

	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/reconcile"
	"github.com/agentstation/tally/pkg/rules"
)

// Generate renders an aggregated outcome into the external report schema.
// The result is a pure function of the outcome and the job identifier.
func Generate(jobID string, out *reconcile.Outcome) *Report {
	r := &Report{
		JobID:             jobID,
		Matches:           make([]Match, 0, len(out.Pairs)),
		TotalDeviation:    out.TotalDeviation,
		OverallConfidence: out.OverallConfidence,
	}

	for _, p := range out.Pairs {
		if !p.Matched() {
			continue
		}
		r.Matches = append(r.Matches, Match{
			BillRef:           p.Bill.Ref,
			LedgerRef:         p.Ledger.Ref,
			MatchScore:        p.Score,
			Strategy:          string(p.Strategy),
			Verdicts:          p.Verdicts,
			OverallConfidence: p.Confidence,
			Severity:          p.Severity,
		})
		for _, v := range p.Verdicts {
			if v.Outcome == rules.OutcomeFail {
				r.SuggestedCorrections = append(r.SuggestedCorrections, correction(p, v))
			}
		}
	}

	for _, item := range out.UnmatchedBill {
		r.UnmatchedBill = append(r.UnmatchedBill, line(item))
		r.SuggestedCorrections = append(r.SuggestedCorrections, Correction{
			Ref:        item.Ref,
			Suggestion: fmt.Sprintf("investigate bill line %s: no corresponding ledger record", item.Ref),
		})
	}
	for _, item := range out.UnmatchedLedger {
		r.UnmatchedLedger = append(r.UnmatchedLedger, line(item))
		r.SuggestedCorrections = append(r.SuggestedCorrections, Correction{
			Ref:        item.Ref,
			Suggestion: fmt.Sprintf("investigate ledger record %s: not present on the bill", item.Ref),
		})
	}

	return r
}

func line(item billing.LineItem) Line {
	return Line{
		Ref:         item.Ref,
		Vendor:      item.Vendor,
		Description: item.Description,
		Total:       item.Total,
	}
}

// correction derives a remediation suggestion mechanically from a failing
// verdict's deviation. The ledger is the source of truth, so suggestions
// move the bill's value toward the ledger's.
func correction(p reconcile.PairResult, v rules.Verdict) Correction {
	c := Correction{Ref: p.Bill.Ref, Rule: v.Rule}

	switch v.Rule {
	case rules.RulePrice:
		c.Suggestion = fmt.Sprintf("adjust unit price from %s to %s",
			p.Bill.UnitPrice, p.Ledger.UnitPrice)
	case rules.RuleQuantity:
		c.Suggestion = fmt.Sprintf("adjust quantity from %s to %s",
			p.Bill.Quantity, p.Ledger.Quantity)
	case rules.RuleDate:
		c.Suggestion = fmt.Sprintf("shift transaction date by %s days to %s",
			v.Deviation.Neg(), p.Ledger.Date.Format("2006-01-02"))
	case rules.RuleTax:
		expected := p.Bill.Tax.Sub(v.Deviation)
		c.Suggestion = fmt.Sprintf("adjust tax from %s to %s", p.Bill.Tax, expected)
	default:
		c.Suggestion = fmt.Sprintf("review rule %s: deviation %s %s", v.Rule, v.Deviation, v.Unit)
	}
	return c
}
