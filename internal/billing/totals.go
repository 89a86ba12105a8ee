// Package billing holds the pure money arithmetic of the invoicing subledger.
//
// All amounts are shopspring decimals. Rounding is to two decimal places,
// half away from zero (which is half-up for the non-negative values that can
// occur on an invoice).
package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places money is rounded to.
const MoneyPlaces = 2

// QuantityPlaces is the precision of the stored quantity column, decimal(18,4).
const QuantityPlaces = 4

// TaxRate is applied to the subtotal of every invoice.
var TaxRate = decimal.RequireFromString("0.10")

var (
	// ErrNoItems is returned when an invoice is computed without line items.
	ErrNoItems = errors.New("at least one line item is required")
	// ErrInvalidQuantity is wrapped when a line item quantity is zero or negative.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrQuantityPrecision is wrapped when a quantity has more than QuantityPlaces decimals.
	ErrQuantityPrecision = errors.New("quantity must have at most four decimal places")
	// ErrInvalidRate is wrapped when a line item rate is negative.
	ErrInvalidRate = errors.New("rate cannot be negative")
	// ErrInvalidAmount is wrapped when a monetary amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
)

// ValidationError names the input field that failed validation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Err.Error())
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError wraps err with the offending field name.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// LineItem is a billable quantity x rate entry.
type LineItem struct {
	Quantity decimal.Decimal
	Rate     decimal.Decimal
}

// Totals is the result of ComputeTotals.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	// Amounts holds the rounded quantity x rate of each item, in input order.
	Amounts []decimal.Decimal
}

// Round rounds d to MoneyPlaces.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// ValidateLineItem checks a single item; index is used in the field name.
func ValidateLineItem(index int, item LineItem) error {
	if !item.Quantity.IsPositive() {
		return NewValidationError(fmt.Sprintf("items[%d].quantity", index), ErrInvalidQuantity)
	}
	if !item.Quantity.Equal(item.Quantity.Round(QuantityPlaces)) {
		return NewValidationError(fmt.Sprintf("items[%d].quantity", index), ErrQuantityPrecision)
	}
	if item.Rate.IsNegative() {
		return NewValidationError(fmt.Sprintf("items[%d].rate", index), ErrInvalidRate)
	}
	return nil
}

// ComputeTotals turns an ordered list of line items into subtotal, tax and total.
//
// The subtotal is the exact sum of quantity x rate rounded once, so per-line
// rounding never drifts into the invoice total.
func ComputeTotals(items []LineItem) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, NewValidationError("items", ErrNoItems)
	}

	sum := decimal.Zero
	amounts := make([]decimal.Decimal, len(items))
	for i, item := range items {
		if err := ValidateLineItem(i, item); err != nil {
			return Totals{}, err
		}
		line := item.Quantity.Mul(item.Rate)
		amounts[i] = Round(line)
		sum = sum.Add(line)
	}

	subtotal := Round(sum)
	tax := Round(subtotal.Mul(TaxRate))

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
		Amounts:  amounts,
	}, nil
}
