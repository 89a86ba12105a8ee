package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/case-billing-api/internal/billing"
	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/services"
	"github.com/yukikurage/case-billing-api/internal/utils"
)

// money renders an amount with exactly two decimal places
func money(d decimal.Decimal) string {
	return d.StringFixed(billing.MoneyPlaces)
}

// InvoiceItemDTO represents a line item in API responses
type InvoiceItemDTO struct {
	ID          uint64 `json:"id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Rate        string `json:"rate"`
	Amount      string `json:"amount"`
}

// InvoiceDTO represents an invoice with its items and payments
type InvoiceDTO struct {
	ID            uint64               `json:"id"`
	InvoiceNumber string               `json:"invoice_number"`
	ClientID      uint64               `json:"client_id"`
	CaseID        *uint64              `json:"case_id"`
	DueDate       time.Time            `json:"due_date"`
	Notes         string               `json:"notes"`
	Terms         string               `json:"terms"`
	Status        models.InvoiceStatus `json:"status"`
	Subtotal      string               `json:"subtotal"`
	Tax           string               `json:"tax"`
	Total         string               `json:"total"`
	AmountPaid    string               `json:"amount_paid"`
	Balance       string               `json:"balance"`
	CreatedByID   uint64               `json:"created_by_id"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	Client        *ClientSummaryDTO    `json:"client,omitempty"`
	Case          *CaseSummaryDTO      `json:"case,omitempty"`
	Items         []InvoiceItemDTO     `json:"items"`
	Payments      []PaymentDTO         `json:"payments"`
}

// InvoiceListItemDTO represents an invoice in list responses (no items or payments)
type InvoiceListItemDTO struct {
	ID            uint64               `json:"id"`
	InvoiceNumber string               `json:"invoice_number"`
	DueDate       time.Time            `json:"due_date"`
	Status        models.InvoiceStatus `json:"status"`
	Total         string               `json:"total"`
	CreatedAt     time.Time            `json:"created_at"`
	Client        *ClientSummaryDTO    `json:"client,omitempty"`
	Case          *CaseSummaryDTO      `json:"case,omitempty"`
}

// InvoiceListResponse represents a paginated list of invoices
type InvoiceListResponse struct {
	Invoices   []InvoiceListItemDTO     `json:"invoices"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

// DraftLineItemDTO is a line item suggested from a billing narrative
type DraftLineItemDTO struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Rate        string `json:"rate"`
	Amount      string `json:"amount"`
}

func ToInvoiceItemDTO(item models.InvoiceItem) InvoiceItemDTO {
	return InvoiceItemDTO{
		ID:          item.ID,
		Description: item.Description,
		Quantity:    item.Quantity.String(),
		Rate:        money(item.Rate),
		Amount:      money(item.Amount),
	}
}

func ToInvoiceDTO(invoice models.Invoice) InvoiceDTO {
	items := make([]InvoiceItemDTO, len(invoice.Items))
	for i, item := range invoice.Items {
		items[i] = ToInvoiceItemDTO(item)
	}

	payments := make([]PaymentDTO, len(invoice.Payments))
	for i, payment := range invoice.Payments {
		payments[i] = ToPaymentDTO(payment)
	}

	return InvoiceDTO{
		ID:            invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		ClientID:      invoice.ClientID,
		CaseID:        invoice.CaseID,
		DueDate:       invoice.DueDate,
		Notes:         invoice.Notes,
		Terms:         invoice.Terms,
		Status:        invoice.Status,
		Subtotal:      money(invoice.Subtotal),
		Tax:           money(invoice.Tax),
		Total:         money(invoice.Total),
		AmountPaid:    money(invoice.AmountPaid()),
		Balance:       money(invoice.Balance()),
		CreatedByID:   invoice.CreatedByID,
		CreatedAt:     invoice.CreatedAt,
		UpdatedAt:     invoice.UpdatedAt,
		Client:        ToClientSummaryDTO(invoice.Client),
		Case:          ToCaseSummaryDTO(invoice.Case),
		Items:         items,
		Payments:      payments,
	}
}

func ToInvoiceListItemDTO(invoice models.Invoice) InvoiceListItemDTO {
	return InvoiceListItemDTO{
		ID:            invoice.ID,
		InvoiceNumber: invoice.InvoiceNumber,
		DueDate:       invoice.DueDate,
		Status:        invoice.Status,
		Total:         money(invoice.Total),
		CreatedAt:     invoice.CreatedAt,
		Client:        ToClientSummaryDTO(invoice.Client),
		Case:          ToCaseSummaryDTO(invoice.Case),
	}
}

func ToInvoiceListResponse(invoices []models.Invoice, pagination utils.PaginationResponse) InvoiceListResponse {
	dtos := make([]InvoiceListItemDTO, len(invoices))
	for i, invoice := range invoices {
		dtos[i] = ToInvoiceListItemDTO(invoice)
	}
	return InvoiceListResponse{
		Invoices:   dtos,
		Pagination: pagination,
	}
}

func ToDraftLineItemDTOs(items []services.DraftLineItem) []DraftLineItemDTO {
	dtos := make([]DraftLineItemDTO, len(items))
	for i, item := range items {
		dtos[i] = DraftLineItemDTO{
			Description: item.Description,
			Quantity:    item.Quantity.String(),
			Rate:        money(item.Rate),
			Amount:      money(item.Amount),
		}
	}
	return dtos
}
