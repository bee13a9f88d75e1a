package billing

import (
	"github.com/agentstation/tally/pkg/errors"
)

// Validate checks every line item against the normalized schema the core
// requires. The first violation is returned as a MalformedInputError carrying
// the offending line reference; a job seeing this error fails without retry.
func (c Collection) Validate() error {
	for i, item := range c.Items {
		if err := c.validateItem(i, item); err != nil {
			return err
		}
	}
	return nil
}

func (c Collection) validateItem(pos int, item LineItem) error {
	malformed := func(field, message string) error {
		return &errors.MalformedInputError{
			Collection: string(c.Side),
			Ref:        string(item.Ref),
			LineIndex:  item.LineIndex,
			Field:      field,
			Message:    message,
		}
	}

	if item.Ref == "" {
		return &errors.MalformedInputError{
			Collection: string(c.Side),
			Ref:        "",
			LineIndex:  pos,
			Field:      "ref",
			Message:    "missing source reference",
		}
	}
	if item.Vendor == "" {
		return malformed("vendor", "missing vendor identifier")
	}
	if item.Date.IsZero() {
		return malformed("date", "missing transaction date")
	}
	if item.Quantity.IsNegative() {
		return malformed("quantity", "quantity cannot be negative")
	}
	if item.UnitPrice.IsNegative() {
		return malformed("unitPrice", "unit price cannot be negative")
	}
	if item.Tax.IsNegative() {
		return malformed("tax", "tax cannot be negative")
	}
	if item.Total.IsNegative() {
		return malformed("total", "total cannot be negative")
	}
	return nil
}
