package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/case-billing-api/internal/billing"
	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/repository"
	"github.com/yukikurage/case-billing-api/internal/tenant"
	"gorm.io/gorm"
)

// PaymentService records payments against invoices and keeps the invoice
// status in line with the amount paid.
type PaymentService struct {
	invoiceRepo repository.InvoiceRepository
	paymentRepo repository.PaymentRepository
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(invoiceRepo repository.InvoiceRepository, paymentRepo repository.PaymentRepository) *PaymentService {
	return &PaymentService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
	}
}

// AddPaymentInput represents input for recording a payment
type AddPaymentInput struct {
	Amount      decimal.Decimal
	PaymentDate *time.Time
	Method      models.PaymentMethod
	Reference   string
	Notes       string
}

// ListPaymentsInput represents filters for listing payments
type ListPaymentsInput struct {
	InvoiceID *uint64
	Page      int
	PageSize  int
}

// AddPayment records a payment and re-derives the invoice status in the same
// transaction. Payments that would take the balance below zero are rejected.
func (s *PaymentService) AddPayment(ctx context.Context, scope tenant.Scope, invoiceID uint64, input AddPaymentInput) (*models.Payment, *models.Invoice, error) {
	if err := scope.Validate(); err != nil {
		return nil, nil, err
	}

	if !input.Amount.IsPositive() {
		return nil, nil, invalid("amount", billing.ErrInvalidAmount)
	}
	if !input.Amount.Equal(billing.Round(input.Amount)) {
		return nil, nil, invalid("amount", errMoneyPrecision)
	}
	if !input.Method.IsValid() {
		return nil, nil, invalid("method", errInvalidMethod)
	}

	paymentDate := time.Now().UTC()
	if input.PaymentDate != nil && !input.PaymentDate.IsZero() {
		paymentDate = input.PaymentDate.UTC()
	}

	payment := &models.Payment{
		OrganizationID: scope.OrganizationID,
		Amount:         input.Amount,
		PaymentDate:    paymentDate,
		Method:         input.Method,
		Reference:      strings.TrimSpace(input.Reference),
		Notes:          strings.TrimSpace(input.Notes),
		RecordedByID:   scope.UserID,
	}

	err := s.invoiceRepo.Modify(ctx, scope.OrganizationID, invoiceID, func(change *repository.InvoiceChange) error {
		invoice := change.Invoice
		if !invoice.Status.AcceptsPayments() {
			return ErrInvoiceNotPayable
		}

		paid := invoice.AmountPaid().Add(input.Amount)
		if paid.GreaterThan(invoice.Total) {
			return ErrPaymentExceedsBalance
		}

		change.AddPayment = payment
		invoice.Status = models.DeriveInvoiceStatus(invoice.Status, invoice.Total, paid)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvoiceNotFound
		}
		if isBillingError(err) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to record payment: %w", err)
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, scope.OrganizationID, invoiceID, invoiceDetail...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reload invoice: %w", err)
	}

	return payment, invoice, nil
}

// GetPayment returns a payment of the organization
func (s *PaymentService) GetPayment(ctx context.Context, scope tenant.Scope, id uint64) (*models.Payment, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	payment, err := s.paymentRepo.FindByID(ctx, scope.OrganizationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}

	return payment, nil
}

// ListPayments returns one page of the organization's payments
func (s *PaymentService) ListPayments(ctx context.Context, scope tenant.Scope, input ListPaymentsInput) ([]models.Payment, int64, error) {
	if err := scope.Validate(); err != nil {
		return nil, 0, err
	}

	if input.InvoiceID != nil {
		if _, err := s.invoiceRepo.FindByID(ctx, scope.OrganizationID, *input.InvoiceID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, ErrInvoiceNotFound
			}
			return nil, 0, fmt.Errorf("failed to find invoice: %w", err)
		}
	}

	payments, total, err := s.paymentRepo.List(ctx, repository.PaymentFilter{
		OrganizationID: scope.OrganizationID,
		InvoiceID:      input.InvoiceID,
		Page:           input.Page,
		PageSize:       input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}

	return payments, total, nil
}

// DeletePayment soft-deletes a payment and re-derives the status of its invoice
func (s *PaymentService) DeletePayment(ctx context.Context, scope tenant.Scope, id uint64) (*models.Invoice, error) {
	payment, err := s.GetPayment(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	err = s.invoiceRepo.Modify(ctx, scope.OrganizationID, payment.InvoiceID, func(change *repository.InvoiceChange) error {
		invoice := change.Invoice

		paid := decimal.Zero
		found := false
		for _, p := range invoice.Payments {
			if p.ID == id {
				found = true
				continue
			}
			paid = paid.Add(p.Amount)
		}
		if !found {
			return ErrPaymentNotFound
		}

		change.RemovePaymentID = id
		invoice.Status = models.DeriveInvoiceStatus(invoice.Status, invoice.Total, paid)
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		if isBillingError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete payment: %w", err)
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, scope.OrganizationID, payment.InvoiceID, invoiceDetail...)
	if err != nil {
		return nil, fmt.Errorf("failed to reload invoice: %w", err)
	}

	return invoice, nil
}
