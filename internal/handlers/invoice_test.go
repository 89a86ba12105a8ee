package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/case-billing-api/internal/constants"
	"github.com/yukikurage/case-billing-api/internal/dto"
	"github.com/yukikurage/case-billing-api/internal/models"
)

type InvoiceHandlerTestSuite struct {
	suite.Suite
	env    *apiTestEnv
	alice  *apiClient
	client dto.ClientDTO
}

func (s *InvoiceHandlerTestSuite) SetupTest() {
	s.env = setupAPITestEnv(s.T())
	s.alice = s.env.signup("alice")

	w := s.alice.do(http.MethodPost, "/api/clients", map[string]string{"name": "Acme Corp", "email": "billing@acme.test"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.client = decodeJSON[map[string]dto.ClientDTO](s.T(), w)["client"]
}

func (s *InvoiceHandlerTestSuite) invoicePayload() map[string]interface{} {
	return map[string]interface{}{
		"client_id": s.client.ID,
		"due_date":  "2030-01-31",
		"notes":     "Thank you",
		"items": []map[string]interface{}{
			{"description": "Contract review", "quantity": 2, "rate": "150.00"},
			{"description": "Filing fee", "quantity": "1", "rate": 75.5},
		},
	}
}

func (s *InvoiceHandlerTestSuite) createInvoice() dto.InvoiceDTO {
	w := s.alice.do(http.MethodPost, "/api/invoices", s.invoicePayload())
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decodeJSON[map[string]dto.InvoiceDTO](s.T(), w)["invoice"]
}

func (s *InvoiceHandlerTestSuite) TestCreateInvoice() {
	invoice := s.createInvoice()

	s.Equal("000001", invoice.InvoiceNumber)
	s.Equal(models.InvoiceStatusUnpaid, invoice.Status)
	s.Equal("375.50", invoice.Subtotal)
	s.Equal("37.55", invoice.Tax)
	s.Equal("413.05", invoice.Total)
	s.Equal("0.00", invoice.AmountPaid)
	s.Equal("413.05", invoice.Balance)
	s.Require().Len(invoice.Items, 2)
	s.Equal("300.00", invoice.Items[0].Amount)
	s.Require().NotNil(invoice.Client)
	s.Equal("Acme Corp", invoice.Client.Name)
	s.Nil(invoice.Case)
	s.Empty(invoice.Payments)

	second := s.createInvoice()
	s.Equal("000002", second.InvoiceNumber)
}

func (s *InvoiceHandlerTestSuite) TestCreateInvoiceWithCase() {
	w := s.alice.do(http.MethodPost, "/api/cases", map[string]interface{}{"client_id": s.client.ID, "title": "Smith v. Jones"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	created := decodeJSON[map[string]dto.CaseDTO](s.T(), w)["case"]

	payload := s.invoicePayload()
	payload["case_id"] = created.ID
	w = s.alice.do(http.MethodPost, "/api/invoices", payload)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	invoice := decodeJSON[map[string]dto.InvoiceDTO](s.T(), w)["invoice"]
	s.Require().NotNil(invoice.Case)
	s.Equal("Smith v. Jones", invoice.Case.Title)

	w = s.alice.do(http.MethodDelete, fmt.Sprintf("/api/cases/%d", created.ID), nil)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *InvoiceHandlerTestSuite) TestCreateInvoiceValidation() {
	tests := []struct {
		name    string
		mutate  func(p map[string]interface{})
		status  int
		message string
	}{
		{"no items", func(p map[string]interface{}) { p["items"] = []interface{}{} }, http.StatusBadRequest, "items: at least one line item is required"},
		{"zero quantity", func(p map[string]interface{}) {
			p["items"] = []map[string]interface{}{{"description": "Work", "quantity": 0, "rate": 10}}
		}, http.StatusBadRequest, ""},
		{"missing due date", func(p map[string]interface{}) { delete(p, "due_date") }, http.StatusBadRequest, "due_date: is required"},
		{"bad due date", func(p map[string]interface{}) { p["due_date"] = "31/01/2030" }, http.StatusBadRequest, "Invalid request body"},
		{"unknown client", func(p map[string]interface{}) { p["client_id"] = 9999 }, http.StatusNotFound, "Client not found"},
		{"unknown case", func(p map[string]interface{}) { p["case_id"] = 9999 }, http.StatusNotFound, "Case not found"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			payload := s.invoicePayload()
			tt.mutate(payload)

			w := s.alice.do(http.MethodPost, "/api/invoices", payload)
			s.Equal(tt.status, w.Code, w.Body.String())
			if tt.message != "" {
				s.Equal(tt.message, errorMessage(s.T(), w))
			}
		})
	}
}

func (s *InvoiceHandlerTestSuite) TestRequiresAuthentication() {
	w := s.env.anonymous().do(http.MethodGet, "/api/invoices", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Unauthorized", errorMessage(s.T(), w))
}

func (s *InvoiceHandlerTestSuite) TestTenantIsolation() {
	invoice := s.createInvoice()
	bob := s.env.signup("bob")

	w := bob.do(http.MethodGet, fmt.Sprintf("/api/invoices/%d", invoice.ID), nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Invoice not found", errorMessage(s.T(), w))

	w = bob.do(http.MethodPatch, fmt.Sprintf("/api/invoices/%d", invoice.ID), map[string]string{"notes": "mine now"})
	s.Equal(http.StatusNotFound, w.Code)

	w = bob.do(http.MethodDelete, fmt.Sprintf("/api/invoices/%d", invoice.ID), nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = bob.do(http.MethodGet, "/api/invoices", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Empty(decodeJSON[dto.InvoiceListResponse](s.T(), w).Invoices)

	// bob's numbering starts independently
	w = bob.do(http.MethodPost, "/api/clients", map[string]string{"name": "Bob Client"})
	s.Require().Equal(http.StatusCreated, w.Code)
	bobClient := decodeJSON[map[string]dto.ClientDTO](s.T(), w)["client"]

	payload := s.invoicePayload()
	payload["client_id"] = bobClient.ID
	w = bob.do(http.MethodPost, "/api/invoices", payload)
	s.Require().Equal(http.StatusCreated, w.Code)
	s.Equal("000001", decodeJSON[map[string]dto.InvoiceDTO](s.T(), w)["invoice"].InvoiceNumber)

	// alice cannot bill bob's client
	payload["client_id"] = bobClient.ID
	w = s.alice.do(http.MethodPost, "/api/invoices", payload)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *InvoiceHandlerTestSuite) TestListInvoices() {
	for i := 0; i < 3; i++ {
		s.createInvoice()
	}

	w := s.alice.do(http.MethodGet, "/api/invoices?limit=2", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	page := decodeJSON[dto.InvoiceListResponse](s.T(), w)
	s.Len(page.Invoices, 2)
	s.Equal(int64(3), page.Pagination.Total)
	s.Equal(2, page.Pagination.TotalPages)
	s.Equal(1, page.Pagination.Page)
	s.Equal("000003", page.Invoices[0].InvoiceNumber)

	w = s.alice.do(http.MethodGet, "/api/invoices?limit=2&page=2", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(decodeJSON[dto.InvoiceListResponse](s.T(), w).Invoices, 1)

	w = s.alice.do(http.MethodGet, "/api/invoices?search=000002", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	found := decodeJSON[dto.InvoiceListResponse](s.T(), w)
	s.Require().Len(found.Invoices, 1)
	s.Equal("000002", found.Invoices[0].InvoiceNumber)

	w = s.alice.do(http.MethodGet, "/api/invoices?search=acme", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(int64(3), decodeJSON[dto.InvoiceListResponse](s.T(), w).Pagination.Total)

	w = s.alice.do(http.MethodGet, "/api/invoices?min_amount=413.05&max_amount=413.05", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(int64(3), decodeJSON[dto.InvoiceListResponse](s.T(), w).Pagination.Total)

	w = s.alice.do(http.MethodGet, "/api/invoices?min_amount=500", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Zero(decodeJSON[dto.InvoiceListResponse](s.T(), w).Pagination.Total)

	w = s.alice.do(http.MethodGet, "/api/invoices?start_date=2000-01-01&end_date=2000-12-31", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Zero(decodeJSON[dto.InvoiceListResponse](s.T(), w).Pagination.Total)
}

func (s *InvoiceHandlerTestSuite) TestListInvoicesRejectsBadFilters() {
	for _, query := range []string{
		"start_date=yesterday",
		"min_amount=lots",
		"min_amount=10&max_amount=5",
	} {
		w := s.alice.do(http.MethodGet, "/api/invoices?"+query, nil)
		s.Equal(http.StatusBadRequest, w.Code, query)
	}
}

func (s *InvoiceHandlerTestSuite) TestUpdateInvoice() {
	invoice := s.createInvoice()
	path := fmt.Sprintf("/api/invoices/%d", invoice.ID)

	w := s.alice.do(http.MethodPatch, path, map[string]interface{}{
		"notes": "Net 15",
		"items": []map[string]interface{}{
			{"description": "Deposition", "quantity": "3", "rate": "100.05"},
		},
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	updated := decodeJSON[map[string]dto.InvoiceDTO](s.T(), w)["invoice"]
	s.Equal("Net 15", updated.Notes)
	s.Equal("300.15", updated.Subtotal)
	s.Equal("30.02", updated.Tax)
	s.Equal("330.17", updated.Total)
	s.Require().Len(updated.Items, 1)
	s.Equal(invoice.InvoiceNumber, updated.InvoiceNumber)

	w = s.alice.do(http.MethodPatch, path, map[string]string{"status": "PAID"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.alice.do(http.MethodPatch, path, map[string]string{"status": "overdue"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(models.InvoiceStatusOverdue, decodeJSON[map[string]dto.InvoiceDTO](s.T(), w)["invoice"].Status)

	w = s.alice.do(http.MethodPatch, path, map[string]string{"status": "CANCELLED"})
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.alice.do(http.MethodPatch, path, map[string]string{"status": "UNPAID"})
	s.Equal(http.StatusConflict, w.Code)
}

func (s *InvoiceHandlerTestSuite) TestDeleteInvoice() {
	invoice := s.createInvoice()
	path := fmt.Sprintf("/api/invoices/%d", invoice.ID)

	w := s.alice.do(http.MethodPost, path+"/payments", map[string]interface{}{"amount": "10.00", "method": "CASH"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	payment := decodeJSON[map[string]dto.PaymentDTO](s.T(), w)["payment"]

	w = s.alice.do(http.MethodDelete, path, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Cannot delete invoice with payments", errorMessage(s.T(), w))

	w = s.alice.do(http.MethodDelete, fmt.Sprintf("/api/payments/%d", payment.ID), nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.alice.do(http.MethodDelete, path, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.alice.do(http.MethodGet, path, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.alice.do(http.MethodGet, "/api/invoices/abc", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *InvoiceHandlerTestSuite) TestDraftItemsUnavailableWithoutAI() {
	w := s.alice.do(http.MethodPost, "/api/invoices/draft-items", map[string]string{"narrative": "2h research"})
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Equal("AI service is not configured", errorMessage(s.T(), w))
}

func (s *InvoiceHandlerTestSuite) TestIdempotentCreate() {
	key := []string{constants.IdempotencyHeader, "create-invoice-1"}

	w := s.alice.do(http.MethodPost, "/api/invoices", s.invoicePayload(), key...)
	s.Require().Equal(http.StatusCreated, w.Code)
	first := decodeJSON[map[string]dto.InvoiceDTO](s.T(), w)["invoice"]

	w = s.alice.do(http.MethodPost, "/api/invoices", s.invoicePayload(), key...)
	s.Require().Equal(http.StatusCreated, w.Code)
	s.Equal("true", w.Header().Get("Idempotent-Replayed"))
	s.Equal(first.ID, decodeJSON[map[string]dto.InvoiceDTO](s.T(), w)["invoice"].ID)

	w = s.alice.do(http.MethodGet, "/api/invoices", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(int64(1), decodeJSON[dto.InvoiceListResponse](s.T(), w).Pagination.Total)
}

func TestInvoiceHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(InvoiceHandlerTestSuite))
}
