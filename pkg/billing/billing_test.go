package billing

import (
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/shopspring/decimal"

	"github.com/agentstation/tally/pkg/errors"
)

func validItem(ref string) LineItem {
	return LineItem{
		Vendor:      "Acme Corp",
		Date:        utc.Time{Time: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)},
		Description: "widgets",
		Quantity:    decimal.NewFromInt(2),
		UnitPrice:   decimal.NewFromFloat(10.00),
		Tax:         decimal.NewFromFloat(2.00),
		Total:       decimal.NewFromFloat(22.00),
		Ref:         Ref(ref),
	}
}

func TestLineItem_Subtotal(t *testing.T) {
	item := validItem("b-1")
	want := decimal.NewFromInt(20)
	if !item.Subtotal().Equal(want) {
		t.Errorf("Subtotal() = %s, want %s", item.Subtotal(), want)
	}
}

func TestCollection_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LineItem)
		field   string
		wantErr bool
	}{
		{name: "valid item", mutate: func(*LineItem) {}, wantErr: false},
		{name: "missing ref", mutate: func(li *LineItem) { li.Ref = "" }, field: "ref", wantErr: true},
		{name: "missing vendor", mutate: func(li *LineItem) { li.Vendor = "" }, field: "vendor", wantErr: true},
		{name: "missing date", mutate: func(li *LineItem) { li.Date = utc.Time{} }, field: "date", wantErr: true},
		{name: "negative quantity", mutate: func(li *LineItem) { li.Quantity = decimal.NewFromInt(-1) }, field: "quantity", wantErr: true},
		{name: "negative unit price", mutate: func(li *LineItem) { li.UnitPrice = decimal.NewFromFloat(-0.01) }, field: "unitPrice", wantErr: true},
		{name: "negative tax", mutate: func(li *LineItem) { li.Tax = decimal.NewFromInt(-2) }, field: "tax", wantErr: true},
		{name: "negative total", mutate: func(li *LineItem) { li.Total = decimal.NewFromInt(-22) }, field: "total", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validItem("b-1")
			tt.mutate(&item)
			c := Collection{Side: SideBill, Items: []LineItem{item}}

			err := c.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want malformed input error")
			}
			if !errors.Is(err, errors.ErrMalformedInput) {
				t.Errorf("error does not match ErrMalformedInput: %v", err)
			}

			var malformed *errors.MalformedInputError
			if !errors.As(err, &malformed) {
				t.Fatalf("error is not a MalformedInputError: %v", err)
			}
			if malformed.Field != tt.field {
				t.Errorf("Field = %q, want %q", malformed.Field, tt.field)
			}
			if malformed.Collection != string(SideBill) {
				t.Errorf("Collection = %q, want %q", malformed.Collection, SideBill)
			}
		})
	}
}

func TestCollection_Validate_ReportsFirstViolation(t *testing.T) {
	bad := validItem("b-2")
	bad.Vendor = ""
	c := Collection{
		Side:  SideLedger,
		Items: []LineItem{validItem("b-1"), bad},
	}

	var malformed *errors.MalformedInputError
	err := c.Validate()
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedInputError, got %v", err)
	}
	if malformed.Ref != "b-2" {
		t.Errorf("Ref = %q, want %q", malformed.Ref, "b-2")
	}
}

func TestParseCollection(t *testing.T) {
	data := []byte(`
ref: invoice-42
items:
  - vendor: Acme Corp
    date: 2026-03-10T00:00:00Z
    description: widgets
    quantity: 2
    unitPrice: 10.00
    tax: 2.00
    total: 22.00
    ref: b-1
  - vendor: Acme Corp
    date: 2026-03-11T00:00:00Z
    description: gadgets
    quantity: 1
    unitPrice: 5.00
    tax: 0.50
    total: 5.50
    ref: b-2
`)

	c, err := ParseCollection(data, SideBill)
	if err != nil {
		t.Fatalf("ParseCollection() error: %v", err)
	}
	if c.Side != SideBill {
		t.Errorf("Side = %q, want %q", c.Side, SideBill)
	}
	if c.Ref != "invoice-42" {
		t.Errorf("Ref = %q, want invoice-42", c.Ref)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	// Line indexes default to document order.
	if c.Items[0].LineIndex != 0 || c.Items[1].LineIndex != 1 {
		t.Errorf("LineIndex = %d,%d, want 0,1", c.Items[0].LineIndex, c.Items[1].LineIndex)
	}
	if !c.Items[0].Total.Equal(decimal.NewFromFloat(22.00)) {
		t.Errorf("Total = %s, want 22", c.Items[0].Total)
	}
}

func TestParseCollection_ExplicitLineIndexes(t *testing.T) {
	// Items listed out of document order keep their explicit indexes,
	// including an explicit 0 on a later item.
	data := []byte(`
items:
  - vendor: Acme Corp
    date: 2026-03-10T00:00:00Z
    quantity: 1
    unitPrice: 5.00
    ref: b-2
    lineIndex: 1
  - vendor: Acme Corp
    date: 2026-03-10T00:00:00Z
    quantity: 2
    unitPrice: 10.00
    ref: b-1
    lineIndex: 0
  - vendor: Acme Corp
    date: 2026-03-10T00:00:00Z
    quantity: 3
    unitPrice: 1.00
    ref: b-3
`)

	c, err := ParseCollection(data, SideBill)
	if err != nil {
		t.Fatalf("ParseCollection() error: %v", err)
	}
	if c.Items[0].LineIndex != 1 {
		t.Errorf("first item LineIndex = %d, want explicit 1", c.Items[0].LineIndex)
	}
	if c.Items[1].LineIndex != 0 {
		t.Errorf("second item LineIndex = %d, want explicit 0", c.Items[1].LineIndex)
	}
	// The absent index still inherits document order.
	if c.Items[2].LineIndex != 2 {
		t.Errorf("third item LineIndex = %d, want defaulted 2", c.Items[2].LineIndex)
	}
}

func TestParseCollection_Malformed(t *testing.T) {
	data := []byte(`
items:
  - vendor: ""
    date: 2026-03-10T00:00:00Z
    quantity: 1
    unitPrice: 1.00
    ref: b-1
`)
	_, err := ParseCollection(data, SideBill)
	if !errors.Is(err, errors.ErrMalformedInput) {
		t.Fatalf("expected malformed input, got %v", err)
	}
}

func TestParseCollection_BadSyntax(t *testing.T) {
	if _, err := ParseCollection([]byte("items: [unclosed"), SideLedger); err == nil {
		t.Fatal("expected decode error for bad syntax")
	}
}

func TestTaxRates_Rate(t *testing.T) {
	rates := TaxRates{"Acme Corp": decimal.NewFromFloat(0.1)}

	rate, ok := rates.Rate("Acme Corp")
	if !ok {
		t.Fatal("expected a configured rate")
	}
	if !rate.Equal(decimal.NewFromFloat(0.1)) {
		t.Errorf("rate = %s, want 0.1", rate)
	}

	if _, ok := rates.Rate("Unknown Vendor"); ok {
		t.Error("expected no rate for unknown vendor")
	}
}
