package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/case-billing-api/internal/billing"
	"github.com/yukikurage/case-billing-api/internal/constants"
	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/repository"
	"github.com/yukikurage/case-billing-api/internal/tenant"
	"gorm.io/gorm"
)

// invoiceDetail is what Get and the write operations return
var invoiceDetail = []string{"Items", "Payments", "Client", "Case"}

// InvoiceService handles invoice business logic
type InvoiceService struct {
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	caseRepo    repository.CaseRepository
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo repository.InvoiceRepository, clientRepo repository.ClientRepository, caseRepo repository.CaseRepository) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		caseRepo:    caseRepo,
	}
}

// LineItemInput is a line item as submitted by the caller
type LineItemInput struct {
	Description string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
}

// CreateInvoiceInput represents input for creating an invoice
type CreateInvoiceInput struct {
	ClientID uint64
	CaseID   *uint64
	DueDate  *time.Time
	Notes    string
	Terms    string
	// Status is DRAFT or UNPAID; empty means UNPAID
	Status models.InvoiceStatus
	Items  []LineItemInput
}

// UpdateInvoiceInput represents a partial invoice update. Nil fields are left unchanged.
type UpdateInvoiceInput struct {
	DueDate *time.Time
	Notes   *string
	Terms   *string
	Status  *models.InvoiceStatus
	Items   *[]LineItemInput
}

// ListInvoicesInput represents filters for listing invoices
type ListInvoicesInput struct {
	Search    string
	StartDate *time.Time
	EndDate   *time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	Page      int
	PageSize  int
}

// CreateInvoice validates the input, computes totals, assigns the next invoice
// number and persists the invoice with its items.
func (s *InvoiceService) CreateInvoice(ctx context.Context, scope tenant.Scope, input CreateInvoiceInput) (*models.Invoice, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if input.ClientID == 0 {
		return nil, invalid("client_id", errRequired)
	}
	if input.DueDate == nil || input.DueDate.IsZero() {
		return nil, invalid("due_date", errRequired)
	}

	status := input.Status
	if status == "" {
		status = models.InvoiceStatusUnpaid
	}
	if status != models.InvoiceStatusUnpaid && status != models.InvoiceStatusDraft {
		return nil, invalid("status", errInvalidStatus)
	}

	items, totals, err := buildLineItems(input.Items)
	if err != nil {
		return nil, err
	}

	if _, err := s.clientRepo.FindByID(ctx, scope.OrganizationID, input.ClientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}

	if input.CaseID != nil {
		c, err := s.caseRepo.FindByID(ctx, scope.OrganizationID, *input.CaseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCaseNotFound
			}
			return nil, fmt.Errorf("failed to find case: %w", err)
		}
		if c.ClientID != input.ClientID {
			return nil, invalid("case_id", errCaseClient)
		}
	}

	invoice := &models.Invoice{
		OrganizationID: scope.OrganizationID,
		ClientID:       input.ClientID,
		CaseID:         input.CaseID,
		DueDate:        input.DueDate.UTC(),
		Notes:          strings.TrimSpace(input.Notes),
		Terms:          strings.TrimSpace(input.Terms),
		Status:         status,
		Subtotal:       totals.Subtotal,
		Tax:            totals.Tax,
		Total:          totals.Total,
		CreatedByID:    scope.UserID,
		Items:          items,
	}

	if err := s.invoiceRepo.Create(ctx, invoice); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrInvoiceNumberConflict
		}
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	return s.GetInvoice(ctx, scope, invoice.ID)
}

// GetInvoice returns an invoice with its items, payments, client and case
func (s *InvoiceService) GetInvoice(ctx context.Context, scope tenant.Scope, id uint64) (*models.Invoice, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, scope.OrganizationID, id, invoiceDetail...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("failed to find invoice: %w", err)
	}

	return invoice, nil
}

// ListInvoices returns one page of the organization's invoices, newest first
func (s *InvoiceService) ListInvoices(ctx context.Context, scope tenant.Scope, input ListInvoicesInput) ([]models.Invoice, int64, error) {
	if err := scope.Validate(); err != nil {
		return nil, 0, err
	}

	if input.StartDate != nil && input.EndDate != nil && input.StartDate.After(*input.EndDate) {
		return nil, 0, invalid("start_date", errInvalidRange)
	}
	if input.MinAmount != nil && input.MaxAmount != nil && input.MinAmount.GreaterThan(*input.MaxAmount) {
		return nil, 0, invalid("min_amount", errInvalidRange)
	}

	invoices, total, err := s.invoiceRepo.List(ctx, repository.InvoiceFilter{
		OrganizationID: scope.OrganizationID,
		Search:         input.Search,
		CreatedFrom:    input.StartDate,
		CreatedTo:      input.EndDate,
		MinAmount:      input.MinAmount,
		MaxAmount:      input.MaxAmount,
		Page:           input.Page,
		PageSize:       input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}

	return invoices, total, nil
}

// UpdateInvoice applies a partial update. Replacing items recomputes the
// totals, and the status is re-derived from the payments afterwards.
func (s *InvoiceService) UpdateInvoice(ctx context.Context, scope tenant.Scope, id uint64, input UpdateInvoiceInput) (*models.Invoice, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if input.DueDate != nil && input.DueDate.IsZero() {
		return nil, invalid("due_date", errRequired)
	}
	if input.Status != nil {
		if err := validateManualStatus(*input.Status); err != nil {
			return nil, err
		}
	}

	var (
		items  []models.InvoiceItem
		totals billing.Totals
	)
	if input.Items != nil {
		var err error
		items, totals, err = buildLineItems(*input.Items)
		if err != nil {
			return nil, err
		}
	}

	err := s.invoiceRepo.Modify(ctx, scope.OrganizationID, id, func(change *repository.InvoiceChange) error {
		invoice := change.Invoice
		paid := invoice.AmountPaid()

		if input.Items != nil {
			if invoice.Status == models.InvoiceStatusCancelled {
				return ErrInvoiceCancelled
			}
			if totals.Total.LessThan(paid) {
				return ErrTotalBelowAmountPaid
			}
			change.ReplaceItems = items
			invoice.Subtotal = totals.Subtotal
			invoice.Tax = totals.Tax
			invoice.Total = totals.Total
		}

		if input.DueDate != nil {
			invoice.DueDate = input.DueDate.UTC()
		}
		if input.Notes != nil {
			invoice.Notes = strings.TrimSpace(*input.Notes)
		}
		if input.Terms != nil {
			invoice.Terms = strings.TrimSpace(*input.Terms)
		}

		if input.Status != nil {
			if *input.Status == models.InvoiceStatusCancelled && paid.IsPositive() {
				return ErrCannotCancelInvoiceWithPayments
			}
			next, err := invoice.Status.Transition(*input.Status)
			if err != nil {
				return err
			}
			invoice.Status = next
		}

		invoice.Status = models.DeriveInvoiceStatus(invoice.Status, invoice.Total, paid)
		if input.Status != nil && !manualStatusHolds(*input.Status, invoice.Status) {
			return ErrStatusConflictsWithPayments
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		var transitionErr *models.InvalidTransitionError
		if errors.As(err, &transitionErr) || isBillingError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update invoice: %w", err)
	}

	return s.GetInvoice(ctx, scope, id)
}

// DeleteInvoice removes an invoice that has no payments
func (s *InvoiceService) DeleteInvoice(ctx context.Context, scope tenant.Scope, id uint64) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	if err := s.invoiceRepo.Delete(ctx, scope.OrganizationID, id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrInvoiceNotFound
		case errors.Is(err, repository.ErrInvoiceHasPayments):
			return ErrCannotDeleteInvoiceWithPayments
		default:
			return fmt.Errorf("failed to delete invoice: %w", err)
		}
	}

	return nil
}

// validateManualStatus rejects statuses a caller may not set directly
func validateManualStatus(status models.InvoiceStatus) error {
	if !status.IsValid() {
		return invalid("status", errInvalidStatus)
	}
	switch status {
	case models.InvoiceStatusUnpaid, models.InvoiceStatusOverdue, models.InvoiceStatusCancelled:
		return nil
	case models.InvoiceStatusDraft:
		return invalid("status", errInvalidStatus)
	default:
		return invalid("status", errStatusDerived)
	}
}

// manualStatusHolds reports whether the status derived from the balance still
// honours the status the caller asked for. UNPAID on a partially paid invoice
// only clears the OVERDUE overlay.
func manualStatusHolds(requested, derived models.InvoiceStatus) bool {
	if requested == derived {
		return true
	}
	return requested == models.InvoiceStatusUnpaid && derived == models.InvoiceStatusPartiallyPaid
}

// buildLineItems validates the submitted items and computes their totals
func buildLineItems(inputs []LineItemInput) ([]models.InvoiceItem, billing.Totals, error) {
	if len(inputs) > constants.MaxInvoiceItems {
		return nil, billing.Totals{}, invalid("items", errTooManyItems)
	}

	lines := make([]billing.LineItem, len(inputs))
	for i, in := range inputs {
		description := strings.TrimSpace(in.Description)
		if description == "" {
			return nil, billing.Totals{}, invalid(fmt.Sprintf("items[%d].description", i), errRequired)
		}
		if len(description) > 500 {
			return nil, billing.Totals{}, invalid(fmt.Sprintf("items[%d].description", i), errTooLong)
		}
		if !in.Rate.Equal(billing.Round(in.Rate)) {
			return nil, billing.Totals{}, invalid(fmt.Sprintf("items[%d].rate", i), errMoneyPrecision)
		}
		lines[i] = billing.LineItem{Quantity: in.Quantity, Rate: in.Rate}
	}

	totals, err := billing.ComputeTotals(lines)
	if err != nil {
		return nil, billing.Totals{}, err
	}

	items := make([]models.InvoiceItem, len(inputs))
	for i, in := range inputs {
		items[i] = models.InvoiceItem{
			Position:    i,
			Description: strings.TrimSpace(in.Description),
			Quantity:    in.Quantity,
			Rate:        in.Rate,
			Amount:      totals.Amounts[i],
		}
	}

	return items, totals, nil
}

func isBillingError(err error) bool {
	var validationErr *billing.ValidationError
	if errors.As(err, &validationErr) {
		return true
	}
	for _, sentinel := range []error{
		ErrInvoiceCancelled,
		ErrTotalBelowAmountPaid,
		ErrCannotCancelInvoiceWithPayments,
		ErrStatusConflictsWithPayments,
		ErrPaymentExceedsBalance,
		ErrInvoiceNotPayable,
		ErrPaymentNotFound,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
