// Package billing defines the shared value types of the reconciliation core:
// line items, collections, and vendor profiles. Line items are produced by
// upstream collaborators (document extraction, ledger export) and are
// read-only inputs; nothing in this package mutates them after construction.
package billing

import (
	"github.com/agentstation/utc"
	"github.com/shopspring/decimal"
)

// Side identifies which input collection a line item belongs to.
type Side string

const (
	// SideBill is the collection extracted from the vendor bill document.
	SideBill Side = "bill"
	// SideLedger is the collection drawn from the structured ledger.
	SideLedger Side = "ledger"
)

// Ref is an opaque reference back to the source of a line item: a
// document/page/line locator for bill items, a record key for ledger items.
type Ref string

// LineItem is one billed or ledgered transaction row. Both sides of a
// reconciliation share the same economic shape; only the reference semantics
// differ.
type LineItem struct {
	Vendor      string          `json:"vendor" yaml:"vendor"`
	Date        utc.Time        `json:"date" yaml:"date"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity" yaml:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice" yaml:"unitPrice"`
	Tax         decimal.Decimal `json:"tax" yaml:"tax"`
	Total       decimal.Decimal `json:"total" yaml:"total"`
	Ref         Ref             `json:"ref" yaml:"ref"`
	LineIndex   int             `json:"lineIndex" yaml:"lineIndex"`
}

// Subtotal returns the pre-tax amount of the line, quantity times unit price.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// Collection is a finite, ordered set of line items from one side.
type Collection struct {
	Side  Side       `json:"side" yaml:"side"`
	Ref   Ref        `json:"ref,omitempty" yaml:"ref,omitempty"`
	Items []LineItem `json:"items" yaml:"items"`
}

// Len returns the number of line items in the collection.
func (c Collection) Len() int {
	return len(c.Items)
}

// IsEmpty reports whether the collection has no line items.
func (c Collection) IsEmpty() bool {
	return len(c.Items) == 0
}

// VendorProfile carries per-vendor reference data used by verification rules.
type VendorProfile struct {
	Vendor  string          `json:"vendor" yaml:"vendor"`
	TaxRate decimal.Decimal `json:"taxRate" yaml:"taxRate"`
}

// TaxRates maps vendor identifiers to their expected tax rate.
type TaxRates map[string]decimal.Decimal

// Rate returns the tax rate for a vendor and whether one is configured.
func (t TaxRates) Rate(vendor string) (decimal.Decimal, bool) {
	rate, ok := t[vendor]
	return rate, ok
}
