package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/case-billing-api/internal/billing"
	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/tenant"
)

type PaymentServiceTestSuite struct {
	suite.Suite
	env     billingEnv
	ctx     context.Context
	scope   tenant.Scope
	other   tenant.Scope
	invoice *models.Invoice
}

func (s *PaymentServiceTestSuite) SetupTest() {
	s.env = newBillingEnv(s.T())
	s.ctx = context.Background()
	s.scope = createTenant(s.T(), s.env.db, "alice")
	s.other = createTenant(s.T(), s.env.db, "bob")

	client := createClient(s.T(), s.env, s.scope, "Acme Corp")
	invoice, err := s.env.invoices.CreateInvoice(s.ctx, s.scope, sampleInvoiceInput(client.ID))
	s.Require().NoError(err)
	s.invoice = invoice
}

func (s *PaymentServiceTestSuite) pay(amount string) (*models.Payment, *models.Invoice, error) {
	return s.env.payments.AddPayment(s.ctx, s.scope, s.invoice.ID, AddPaymentInput{
		Amount: dec(amount),
		Method: models.PaymentMethodCheck,
	})
}

func (s *PaymentServiceTestSuite) TestReconciliation() {
	first, invoice, err := s.pay("100")
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusPartiallyPaid, invoice.Status)
	s.Equal(s.scope.UserID, first.RecordedByID)
	s.Equal(s.invoice.ID, first.InvoiceID)
	s.False(first.PaymentDate.IsZero())
	s.True(invoice.Balance().Equal(dec("313.05")))

	_, _, err = s.pay("313.06")
	s.ErrorIs(err, ErrPaymentExceedsBalance)

	second, invoice, err := s.pay("313.05")
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusPaid, invoice.Status)
	s.Len(invoice.Payments, 2)
	s.True(invoice.Balance().IsZero())

	_, _, err = s.pay("0.01")
	s.ErrorIs(err, ErrPaymentExceedsBalance)

	invoice, err = s.env.payments.DeletePayment(s.ctx, s.scope, second.ID)
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusPartiallyPaid, invoice.Status)
	s.Len(invoice.Payments, 1)

	invoice, err = s.env.payments.DeletePayment(s.ctx, s.scope, first.ID)
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusUnpaid, invoice.Status)
	s.Empty(invoice.Payments)

	_, err = s.env.payments.DeletePayment(s.ctx, s.scope, first.ID)
	s.ErrorIs(err, ErrPaymentNotFound)
}

func (s *PaymentServiceTestSuite) TestReplacingItemsRederivesStatus() {
	_, _, err := s.pay("413.05")
	s.Require().NoError(err)

	items := []LineItemInput{lineItem("Extra hours", "5", "100")}
	invoice, err := s.env.invoices.UpdateInvoice(s.ctx, s.scope, s.invoice.ID, UpdateInvoiceInput{Items: &items})
	s.Require().NoError(err)
	s.True(invoice.Total.Equal(dec("550")))
	s.Equal(models.InvoiceStatusPartiallyPaid, invoice.Status)

	smaller := []LineItemInput{lineItem("Discounted", "1", "100")}
	_, err = s.env.invoices.UpdateInvoice(s.ctx, s.scope, s.invoice.ID, UpdateInvoiceInput{Items: &smaller})
	s.ErrorIs(err, ErrTotalBelowAmountPaid)
}

func (s *PaymentServiceTestSuite) TestCannotCancelInvoiceWithPayments() {
	_, _, err := s.pay("10")
	s.Require().NoError(err)

	cancelled := models.InvoiceStatusCancelled
	_, err = s.env.invoices.UpdateInvoice(s.ctx, s.scope, s.invoice.ID, UpdateInvoiceInput{Status: &cancelled})
	s.ErrorIs(err, ErrCannotCancelInvoiceWithPayments)
}

func (s *PaymentServiceTestSuite) TestPaymentsRejectedOnDraftAndCancelled() {
	cancelled := models.InvoiceStatusCancelled
	_, err := s.env.invoices.UpdateInvoice(s.ctx, s.scope, s.invoice.ID, UpdateInvoiceInput{Status: &cancelled})
	s.Require().NoError(err)

	_, _, err = s.pay("10")
	s.ErrorIs(err, ErrInvoiceNotPayable)

	input := sampleInvoiceInput(s.invoice.ClientID)
	input.Status = models.InvoiceStatusDraft
	draft, err := s.env.invoices.CreateInvoice(s.ctx, s.scope, input)
	s.Require().NoError(err)

	_, _, err = s.env.payments.AddPayment(s.ctx, s.scope, draft.ID, AddPaymentInput{Amount: dec("10"), Method: models.PaymentMethodCash})
	s.ErrorIs(err, ErrInvoiceNotPayable)
}

func (s *PaymentServiceTestSuite) TestOverdueInvoiceAcceptsPayments() {
	overdue := models.InvoiceStatusOverdue
	_, err := s.env.invoices.UpdateInvoice(s.ctx, s.scope, s.invoice.ID, UpdateInvoiceInput{Status: &overdue})
	s.Require().NoError(err)

	_, invoice, err := s.pay("413.05")
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusPaid, invoice.Status)
}

func (s *PaymentServiceTestSuite) TestOverdueOverlayOnOutstandingBalance() {
	setStatus := func(st models.InvoiceStatus) (*models.Invoice, error) {
		return s.env.invoices.UpdateInvoice(s.ctx, s.scope, s.invoice.ID, UpdateInvoiceInput{Status: &st})
	}

	_, invoice, err := s.pay("1.00")
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusPartiallyPaid, invoice.Status)

	invoice, err = setStatus(models.InvoiceStatusOverdue)
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusOverdue, invoice.Status)

	_, invoice, err = s.pay("10.00")
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusOverdue, invoice.Status)

	invoice, err = setStatus(models.InvoiceStatusUnpaid)
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusPartiallyPaid, invoice.Status)

	_, invoice, err = s.pay("402.05")
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusPaid, invoice.Status)

	_, err = setStatus(models.InvoiceStatusOverdue)
	s.ErrorIs(err, ErrStatusConflictsWithPayments)
	_, err = setStatus(models.InvoiceStatusUnpaid)
	s.ErrorIs(err, ErrStatusConflictsWithPayments)

	reloaded, err := s.env.invoices.GetInvoice(s.ctx, s.scope, s.invoice.ID)
	s.Require().NoError(err)
	s.Equal(models.InvoiceStatusPaid, reloaded.Status)
}

func (s *PaymentServiceTestSuite) TestValidation() {
	tests := []struct {
		name  string
		input AddPaymentInput
		field string
	}{
		{"zero amount", AddPaymentInput{Amount: dec("0"), Method: models.PaymentMethodCash}, "amount"},
		{"negative amount", AddPaymentInput{Amount: dec("-5"), Method: models.PaymentMethodCash}, "amount"},
		{"sub-cent amount", AddPaymentInput{Amount: dec("1.005"), Method: models.PaymentMethodCash}, "amount"},
		{"unknown method", AddPaymentInput{Amount: dec("5"), Method: "BARTER"}, "method"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, _, err := s.env.payments.AddPayment(s.ctx, s.scope, s.invoice.ID, tt.input)
			var validationErr *billing.ValidationError
			s.Require().True(errors.As(err, &validationErr), "got %v", err)
			s.Equal(tt.field, validationErr.Field)
		})
	}
}

func (s *PaymentServiceTestSuite) TestExplicitPaymentDate() {
	paidOn := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	payment, _, err := s.env.payments.AddPayment(s.ctx, s.scope, s.invoice.ID, AddPaymentInput{
		Amount:      dec("50"),
		PaymentDate: &paidOn,
		Method:      models.PaymentMethodOnline,
		Reference:   " TX-123 ",
	})
	s.Require().NoError(err)
	s.True(paidOn.Equal(payment.PaymentDate))
	s.Equal("TX-123", payment.Reference)
}

func (s *PaymentServiceTestSuite) TestTenantIsolation() {
	payment, _, err := s.pay("10")
	s.Require().NoError(err)

	_, _, err = s.env.payments.AddPayment(s.ctx, s.other, s.invoice.ID, AddPaymentInput{Amount: dec("10"), Method: models.PaymentMethodCash})
	s.ErrorIs(err, ErrInvoiceNotFound)

	_, err = s.env.payments.GetPayment(s.ctx, s.other, payment.ID)
	s.ErrorIs(err, ErrPaymentNotFound)

	_, err = s.env.payments.DeletePayment(s.ctx, s.other, payment.ID)
	s.ErrorIs(err, ErrPaymentNotFound)

	_, _, err = s.env.payments.ListPayments(s.ctx, s.other, ListPaymentsInput{InvoiceID: &s.invoice.ID, Page: 1, PageSize: 10})
	s.ErrorIs(err, ErrInvoiceNotFound)

	payments, total, err := s.env.payments.ListPayments(s.ctx, s.other, ListPaymentsInput{Page: 1, PageSize: 10})
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(payments)
}

func (s *PaymentServiceTestSuite) TestListPayments() {
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	_, _, err := s.env.payments.AddPayment(s.ctx, s.scope, s.invoice.ID, AddPaymentInput{Amount: dec("1"), PaymentDate: &older, Method: models.PaymentMethodCash})
	s.Require().NoError(err)
	_, _, err = s.env.payments.AddPayment(s.ctx, s.scope, s.invoice.ID, AddPaymentInput{Amount: dec("2"), PaymentDate: &newer, Method: models.PaymentMethodCash})
	s.Require().NoError(err)

	payments, total, err := s.env.payments.ListPayments(s.ctx, s.scope, ListPaymentsInput{InvoiceID: &s.invoice.ID, Page: 1, PageSize: 10})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(payments, 2)
	s.True(payments[0].Amount.Equal(dec("2")))

	page, total, err := s.env.payments.ListPayments(s.ctx, s.scope, ListPaymentsInput{Page: 2, PageSize: 1})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(page, 1)
	s.True(page[0].Amount.Equal(dec("1")))
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
