// Package report renders an aggregated reconciliation outcome into the
// stable external schema consumed by downstream collaborators. Rendering is
// deterministic and total: it never fails on well-formed aggregator output,
// and optional fields are omitted rather than null-padded.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/reconcile"
	"github.com/agentstation/tally/pkg/rules"
)

// Report is the discrepancy report for one reconciliation job. Field order
// is part of the external schema; reports with identical inputs are
// byte-identical in canonical form.
type Report struct {
	JobID                string          `json:"jobId" yaml:"jobId"`
	Matches              []Match         `json:"matches" yaml:"matches"`
	UnmatchedBill        []Line          `json:"unmatchedBill,omitempty" yaml:"unmatchedBill,omitempty"`
	UnmatchedLedger      []Line          `json:"unmatchedLedger,omitempty" yaml:"unmatchedLedger,omitempty"`
	TotalDeviation       decimal.Decimal `json:"totalDeviation" yaml:"totalDeviation"`
	OverallConfidence    float64         `json:"overallConfidence" yaml:"overallConfidence"`
	SuggestedCorrections []Correction    `json:"suggestedCorrections,omitempty" yaml:"suggestedCorrections,omitempty"`
}

// Match is one verified pair in the report.
type Match struct {
	BillRef           billing.Ref        `json:"billRef" yaml:"billRef"`
	LedgerRef         billing.Ref        `json:"ledgerRef" yaml:"ledgerRef"`
	MatchScore        float64            `json:"matchScore" yaml:"matchScore"`
	Strategy          string             `json:"strategy" yaml:"strategy"`
	Verdicts          []rules.Verdict    `json:"verdicts" yaml:"verdicts"`
	OverallConfidence float64            `json:"overallConfidence" yaml:"overallConfidence"`
	Severity          reconcile.Severity `json:"severity" yaml:"severity"`
}

// Line is the condensed projection of an unmatched line item.
type Line struct {
	Ref         billing.Ref     `json:"ref" yaml:"ref"`
	Vendor      string          `json:"vendor" yaml:"vendor"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Total       decimal.Decimal `json:"total" yaml:"total"`
}

// Correction is a mechanical remediation suggestion derived from one failing
// verdict or residue.
type Correction struct {
	Ref        billing.Ref `json:"ref" yaml:"ref"`
	Rule       string      `json:"rule,omitempty" yaml:"rule,omitempty"`
	Suggestion string      `json:"suggestion" yaml:"suggestion"`
}
