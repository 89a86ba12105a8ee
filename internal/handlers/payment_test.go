package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/case-billing-api/internal/dto"
	"github.com/yukikurage/case-billing-api/internal/models"
)

type PaymentHandlerTestSuite struct {
	suite.Suite
	env     *apiTestEnv
	alice   *apiClient
	invoice dto.InvoiceDTO
}

func (s *PaymentHandlerTestSuite) SetupTest() {
	s.env = setupAPITestEnv(s.T())
	s.alice = s.env.signup("alice")

	w := s.alice.do(http.MethodPost, "/api/clients", map[string]string{"name": "Acme Corp"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	client := decodeJSON[map[string]dto.ClientDTO](s.T(), w)["client"]

	w = s.alice.do(http.MethodPost, "/api/invoices", map[string]interface{}{
		"client_id": client.ID,
		"due_date":  "2030-01-31",
		"items": []map[string]interface{}{
			{"description": "Contract review", "quantity": "2", "rate": "150.00"},
			{"description": "Filing fee", "quantity": "1", "rate": "75.50"},
		},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.invoice = decodeJSON[map[string]dto.InvoiceDTO](s.T(), w)["invoice"]
}

type paymentResponse struct {
	Payment dto.PaymentDTO `json:"payment"`
	Invoice dto.InvoiceDTO `json:"invoice"`
}

func (s *PaymentHandlerTestSuite) pay(amount string) (int, paymentResponse) {
	w := s.alice.do(http.MethodPost, fmt.Sprintf("/api/invoices/%d/payments", s.invoice.ID), map[string]string{
		"amount":       amount,
		"method":       "bank_transfer",
		"payment_date": "2025-03-01",
		"reference":    "WIRE-1",
	})
	if w.Code != http.StatusCreated {
		return w.Code, paymentResponse{}
	}
	return w.Code, decodeJSON[paymentResponse](s.T(), w)
}

func (s *PaymentHandlerTestSuite) TestPaymentLifecycle() {
	status, first := s.pay("100")
	s.Require().Equal(http.StatusCreated, status)
	s.Equal("100.00", first.Payment.Amount)
	s.Equal(models.PaymentMethodBankTransfer, first.Payment.Method)
	s.Equal(2025, first.Payment.PaymentDate.Year())
	s.Equal(models.InvoiceStatusPartiallyPaid, first.Invoice.Status)
	s.Equal("100.00", first.Invoice.AmountPaid)
	s.Equal("313.05", first.Invoice.Balance)

	status, _ = s.pay("313.06")
	s.Equal(http.StatusConflict, status)

	status, second := s.pay("313.05")
	s.Require().Equal(http.StatusCreated, status)
	s.Equal(models.InvoiceStatusPaid, second.Invoice.Status)
	s.Equal("0.00", second.Invoice.Balance)
	s.Len(second.Invoice.Payments, 2)

	w := s.alice.do(http.MethodGet, fmt.Sprintf("/api/payments/%d", first.Payment.ID), nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("WIRE-1", decodeJSON[map[string]dto.PaymentDTO](s.T(), w)["payment"].Reference)

	w = s.alice.do(http.MethodGet, fmt.Sprintf("/api/payments?invoice_id=%d", s.invoice.ID), nil)
	s.Require().Equal(http.StatusOK, w.Code)
	list := decodeJSON[dto.PaymentListResponse](s.T(), w)
	s.Equal(int64(2), list.Pagination.Total)

	w = s.alice.do(http.MethodDelete, fmt.Sprintf("/api/payments/%d", second.Payment.ID), nil)
	s.Require().Equal(http.StatusOK, w.Code)
	deleted := decodeJSON[paymentResponse](s.T(), w)
	s.Equal(models.InvoiceStatusPartiallyPaid, deleted.Invoice.Status)
	s.Equal("313.05", deleted.Invoice.Balance)

	w = s.alice.do(http.MethodDelete, fmt.Sprintf("/api/payments/%d", second.Payment.ID), nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Payment not found", errorMessage(s.T(), w))
}

func (s *PaymentHandlerTestSuite) TestMarkOverdueAfterPayments() {
	path := fmt.Sprintf("/api/invoices/%d", s.invoice.ID)

	status, _ := s.pay("1.00")
	s.Require().Equal(http.StatusCreated, status)

	w := s.alice.do(http.MethodPatch, path, map[string]string{"status": "OVERDUE"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal(models.InvoiceStatusOverdue, decodeJSON[map[string]dto.InvoiceDTO](s.T(), w)["invoice"].Status)

	status, _ = s.pay("412.05")
	s.Require().Equal(http.StatusCreated, status)

	w = s.alice.do(http.MethodPatch, path, map[string]string{"status": "OVERDUE"})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("Invoice status conflicts with the payments recorded", errorMessage(s.T(), w))
}

func (s *PaymentHandlerTestSuite) TestPaymentValidation() {
	path := fmt.Sprintf("/api/invoices/%d/payments", s.invoice.ID)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"zero amount", map[string]interface{}{"amount": 0, "method": "CASH"}},
		{"negative amount", map[string]interface{}{"amount": "-1", "method": "CASH"}},
		{"fractional cents", map[string]interface{}{"amount": "1.001", "method": "CASH"}},
		{"unknown method", map[string]interface{}{"amount": "1", "method": "BITCOIN"}},
		{"bad date", map[string]interface{}{"amount": "1", "method": "CASH", "payment_date": "March 1st"}},
		{"amount not a number", map[string]interface{}{"amount": "ten", "method": "CASH"}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := s.alice.do(http.MethodPost, path, tt.body)
			s.Equal(http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func (s *PaymentHandlerTestSuite) TestCancelledInvoiceRejectsPayments() {
	w := s.alice.do(http.MethodPatch, fmt.Sprintf("/api/invoices/%d", s.invoice.ID), map[string]string{"status": "CANCELLED"})
	s.Require().Equal(http.StatusOK, w.Code)

	status, _ := s.pay("10")
	s.Equal(http.StatusConflict, status)
}

func (s *PaymentHandlerTestSuite) TestOtherOrganizationCannotSeePayments() {
	status, paid := s.pay("10")
	s.Require().Equal(http.StatusCreated, status)

	bob := s.env.signup("bob")

	w := bob.do(http.MethodGet, fmt.Sprintf("/api/payments/%d", paid.Payment.ID), nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = bob.do(http.MethodGet, fmt.Sprintf("/api/payments?invoice_id=%d", s.invoice.ID), nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Invoice not found", errorMessage(s.T(), w))

	w = bob.do(http.MethodPost, fmt.Sprintf("/api/invoices/%d/payments", s.invoice.ID), map[string]string{"amount": "1", "method": "CASH"})
	s.Equal(http.StatusNotFound, w.Code)

	w = bob.do(http.MethodDelete, fmt.Sprintf("/api/payments/%d", paid.Payment.ID), nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func TestPaymentHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentHandlerTestSuite))
}
