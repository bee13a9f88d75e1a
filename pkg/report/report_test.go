package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/shopspring/decimal"

	"github.com/agentstation/tally/pkg/billing"
	"github.com/agentstation/tally/pkg/reconcile"
	"github.com/agentstation/tally/pkg/rules"
)

func day(d int) utc.Time {
	return utc.Time{Time: time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)}
}

func item(ref string, idx int, qty, price, tax, total float64, date utc.Time) billing.LineItem {
	return billing.LineItem{
		Vendor:      "Acme Corp",
		Date:        date,
		Description: "widgets",
		Quantity:    decimal.NewFromFloat(qty),
		UnitPrice:   decimal.NewFromFloat(price),
		Tax:         decimal.NewFromFloat(tax),
		Total:       decimal.NewFromFloat(total),
		Ref:         billing.Ref(ref),
		LineIndex:   idx,
	}
}

func reconcileOutcome(t *testing.T, bill, ledger billing.Collection) *reconcile.Outcome {
	t.Helper()
	rec, err := reconcile.New(reconcile.WithTaxRates(
		billing.TaxRates{"Acme Corp": decimal.NewFromFloat(0.1)},
	))
	if err != nil {
		t.Fatalf("reconcile.New() error: %v", err)
	}
	out, err := rec.Reconcile(context.Background(), bill, ledger)
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	return out
}

func TestGenerate_CleanPair(t *testing.T) {
	out := reconcileOutcome(t,
		billing.Collection{Side: billing.SideBill, Items: []billing.LineItem{
			item("b-1", 0, 2, 10.00, 2.00, 22.00, day(10)),
		}},
		billing.Collection{Side: billing.SideLedger, Items: []billing.LineItem{
			item("l-1", 0, 2, 10.00, 2.00, 22.00, day(10)),
		}},
	)

	r := Generate("job-1", out)
	if r.JobID != "job-1" {
		t.Errorf("JobID = %q, want job-1", r.JobID)
	}
	if len(r.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(r.Matches))
	}
	m := r.Matches[0]
	if m.BillRef != "b-1" || m.LedgerRef != "l-1" {
		t.Errorf("refs = %s/%s, want b-1/l-1", m.BillRef, m.LedgerRef)
	}
	if m.Severity != reconcile.SeverityClean {
		t.Errorf("severity = %s, want clean", m.Severity)
	}
	if len(r.SuggestedCorrections) != 0 {
		t.Errorf("corrections = %d, want none for a clean pair", len(r.SuggestedCorrections))
	}
	if len(r.UnmatchedBill) != 0 || len(r.UnmatchedLedger) != 0 {
		t.Error("no residues expected")
	}
}

func TestGenerate_Corrections(t *testing.T) {
	out := reconcileOutcome(t,
		billing.Collection{Side: billing.SideBill, Items: []billing.LineItem{
			item("b-1", 0, 2, 12.00, 2.00, 26.00, day(10)),
		}},
		billing.Collection{Side: billing.SideLedger, Items: []billing.LineItem{
			item("l-1", 0, 2, 10.00, 2.00, 22.00, day(10)),
		}},
	)

	r := Generate("job-2", out)
	if len(r.SuggestedCorrections) != 1 {
		t.Fatalf("corrections = %d, want 1", len(r.SuggestedCorrections))
	}
	c := r.SuggestedCorrections[0]
	if c.Rule != rules.RulePrice {
		t.Errorf("rule = %s, want price", c.Rule)
	}
	if c.Ref != "b-1" {
		t.Errorf("ref = %s, want b-1", c.Ref)
	}
	if !strings.Contains(c.Suggestion, "10") {
		t.Errorf("suggestion %q should name the ledger price", c.Suggestion)
	}
}

func TestGenerate_Residues(t *testing.T) {
	billItem := item("b-1", 0, 1, 999.00, 99.90, 1098.90, day(2))
	billItem.Description = "annual license renewal"
	ledgerItem := item("l-1", 0, 3, 7.00, 2.10, 23.10, day(25))
	ledgerItem.Description = "office paper restock"

	out := reconcileOutcome(t,
		billing.Collection{Side: billing.SideBill, Items: []billing.LineItem{billItem}},
		billing.Collection{Side: billing.SideLedger, Items: []billing.LineItem{ledgerItem}},
	)

	r := Generate("job-3", out)
	if len(r.Matches) != 0 {
		t.Fatalf("matches = %d, want 0", len(r.Matches))
	}
	if len(r.UnmatchedBill) != 1 || r.UnmatchedBill[0].Ref != "b-1" {
		t.Errorf("unmatched bill = %v, want [b-1]", r.UnmatchedBill)
	}
	if len(r.UnmatchedLedger) != 1 || r.UnmatchedLedger[0].Ref != "l-1" {
		t.Errorf("unmatched ledger = %v, want [l-1]", r.UnmatchedLedger)
	}
	if len(r.SuggestedCorrections) != 2 {
		t.Fatalf("corrections = %d, want one per residue", len(r.SuggestedCorrections))
	}
	for _, c := range r.SuggestedCorrections {
		if !strings.Contains(c.Suggestion, "investigate") {
			t.Errorf("residue suggestion %q should ask for investigation", c.Suggestion)
		}
	}
}

func TestCanonicalJSON_Deterministic(t *testing.T) {
	bill := billing.Collection{Side: billing.SideBill, Items: []billing.LineItem{
		item("b-1", 0, 2, 12.00, 2.00, 26.00, day(10)),
	}}
	ledger := billing.Collection{Side: billing.SideLedger, Items: []billing.LineItem{
		item("l-1", 0, 2, 10.00, 2.00, 22.00, day(10)),
	}}

	first, err := Generate("job-4", reconcileOutcome(t, bill, ledger)).CanonicalJSON()
	if err != nil {
		t.Fatalf("CanonicalJSON() error: %v", err)
	}
	for i := 0; i < 5; i++ {
		got, err := Generate("job-4", reconcileOutcome(t, bill, ledger)).CanonicalJSON()
		if err != nil {
			t.Fatalf("CanonicalJSON() error: %v", err)
		}
		if !bytes.Equal(first, got) {
			t.Fatalf("run %d produced different canonical bytes", i)
		}
	}
}

func TestReport_Equal(t *testing.T) {
	bill := billing.Collection{Side: billing.SideBill, Items: []billing.LineItem{
		item("b-1", 0, 2, 10.00, 2.00, 22.00, day(10)),
	}}
	ledger := billing.Collection{Side: billing.SideLedger, Items: []billing.LineItem{
		item("l-1", 0, 2, 10.00, 2.00, 22.00, day(10)),
	}}

	a := Generate("job-5", reconcileOutcome(t, bill, ledger))
	b := Generate("job-5", reconcileOutcome(t, bill, ledger))
	if !a.Equal(b) {
		t.Error("reports for identical inputs should compare equal")
	}

	c := Generate("job-6", reconcileOutcome(t, bill, ledger))
	if a.Equal(c) {
		t.Error("reports with different job IDs should differ")
	}
	if a.Equal(nil) {
		t.Error("Equal(nil) should be false")
	}
}

func TestReport_YAML(t *testing.T) {
	bill := billing.Collection{Side: billing.SideBill, Items: []billing.LineItem{
		item("b-1", 0, 2, 10.00, 2.00, 22.00, day(10)),
	}}
	ledger := billing.Collection{Side: billing.SideLedger, Items: []billing.LineItem{
		item("l-1", 0, 2, 10.00, 2.00, 22.00, day(10)),
	}}

	data, err := Generate("job-7", reconcileOutcome(t, bill, ledger)).YAML()
	if err != nil {
		t.Fatalf("YAML() error: %v", err)
	}
	if !strings.Contains(string(data), "jobId: job-7") {
		t.Errorf("YAML output missing job id:\n%s", data)
	}
}
