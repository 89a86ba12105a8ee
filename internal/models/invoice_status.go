package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusUnpaid        InvoiceStatus = "UNPAID"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
)

// invoiceTransitions lists the statuses each status may move to.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:         {InvoiceStatusUnpaid, InvoiceStatusCancelled},
	InvoiceStatusUnpaid:        {InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusPartiallyPaid: {InvoiceStatusUnpaid, InvoiceStatusPaid, InvoiceStatusOverdue},
	InvoiceStatusOverdue:       {InvoiceStatusUnpaid, InvoiceStatusPartiallyPaid, InvoiceStatusPaid, InvoiceStatusCancelled},
	InvoiceStatusPaid:          {InvoiceStatusPartiallyPaid, InvoiceStatusUnpaid},
	InvoiceStatusCancelled:     {},
}

// InvalidTransitionError is returned for a status change the lifecycle does not allow.
type InvalidTransitionError struct {
	From InvoiceStatus
	To   InvoiceStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot change invoice status from %s to %s", e.From, e.To)
}

// IsValid reports whether s is a known invoice status.
func (s InvoiceStatus) IsValid() bool {
	_, ok := invoiceTransitions[s]
	return ok
}

// IsDerived reports whether s is only ever set from the payment balance.
func (s InvoiceStatus) IsDerived() bool {
	return s == InvoiceStatusPartiallyPaid || s == InvoiceStatusPaid
}

// AcceptsPayments reports whether payments may be recorded against an invoice in status s.
func (s InvoiceStatus) AcceptsPayments() bool {
	return s != InvoiceStatusDraft && s != InvoiceStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Staying in the same status is always allowed.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	if s == next {
		return s.IsValid()
	}
	for _, allowed := range invoiceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition returns next, or an *InvalidTransitionError when the move is not allowed.
func (s InvoiceStatus) Transition(next InvoiceStatus) (InvoiceStatus, error) {
	if !s.CanTransitionTo(next) {
		return s, &InvalidTransitionError{From: s, To: next}
	}
	return next, nil
}

// DeriveInvoiceStatus computes the status implied by the amount paid against total.
// DRAFT and CANCELLED invoices keep their status. OVERDUE is an overlay on any
// outstanding balance: it is kept until the invoice is paid in full.
func DeriveInvoiceStatus(current InvoiceStatus, total, paid decimal.Decimal) InvoiceStatus {
	switch current {
	case InvoiceStatusDraft, InvoiceStatusCancelled:
		return current
	}

	paidInFull := paid.IsPositive() && !paid.LessThan(total)
	switch {
	case paidInFull:
		return InvoiceStatusPaid
	case current == InvoiceStatusOverdue:
		return InvoiceStatusOverdue
	case !paid.IsPositive():
		return InvoiceStatusUnpaid
	default:
		return InvoiceStatusPartiallyPaid
	}
}
