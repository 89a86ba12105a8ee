package services

import (
	"errors"

	"github.com/yukikurage/case-billing-api/internal/billing"
)

// Billing errors. Handlers map them to HTTP statuses with errors.Is.
var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrClientNotFound  = errors.New("client not found")
	ErrCaseNotFound    = errors.New("case not found")

	ErrCannotDeleteInvoiceWithPayments = errors.New("cannot delete invoice with payments")
	ErrCannotCancelInvoiceWithPayments = errors.New("cannot cancel invoice with payments")
	ErrPaymentExceedsBalance           = errors.New("payment exceeds outstanding balance")
	ErrInvoiceNotPayable               = errors.New("payments cannot be recorded against a draft or cancelled invoice")
	ErrTotalBelowAmountPaid            = errors.New("invoice total cannot be less than the amount already paid")
	ErrInvoiceCancelled                = errors.New("cancelled invoices cannot be edited")
	ErrStatusConflictsWithPayments     = errors.New("invoice status conflicts with the payments recorded")
	ErrInvoiceNumberConflict           = errors.New("invoice number already exists")
	ErrClientHasInvoices               = errors.New("cannot delete client with invoices")
	ErrCaseHasInvoices                 = errors.New("cannot delete case with invoices")
)

// Validation causes wrapped in *billing.ValidationError.
var (
	errRequired       = errors.New("is required")
	errTooLong        = errors.New("is too long")
	errTooManyItems   = errors.New("too many line items")
	errInvalidStatus  = errors.New("is not a valid status")
	errStatusDerived  = errors.New("is derived from payments and cannot be set manually")
	errInvalidMethod  = errors.New("is not a valid payment method")
	errMoneyPrecision = errors.New("must have at most two decimal places")
	errCaseClient     = errors.New("does not belong to the client")
	errInvalidRange   = errors.New("must not be after the upper bound")
)

func invalid(field string, err error) error {
	return billing.NewValidationError(field, err)
}
