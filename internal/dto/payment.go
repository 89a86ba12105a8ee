package dto

import (
	"time"

	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/utils"
)

// PaymentDTO represents a payment in API responses
type PaymentDTO struct {
	ID           uint64               `json:"id"`
	InvoiceID    uint64               `json:"invoice_id"`
	Amount       string               `json:"amount"`
	PaymentDate  time.Time            `json:"payment_date"`
	Method       models.PaymentMethod `json:"method"`
	Reference    string               `json:"reference"`
	Notes        string               `json:"notes"`
	RecordedByID uint64               `json:"recorded_by_id"`
	CreatedAt    time.Time            `json:"created_at"`
}

// PaymentListResponse represents a paginated list of payments
type PaymentListResponse struct {
	Payments   []PaymentDTO             `json:"payments"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

func ToPaymentDTO(payment models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:           payment.ID,
		InvoiceID:    payment.InvoiceID,
		Amount:       money(payment.Amount),
		PaymentDate:  payment.PaymentDate,
		Method:       payment.Method,
		Reference:    payment.Reference,
		Notes:        payment.Notes,
		RecordedByID: payment.RecordedByID,
		CreatedAt:    payment.CreatedAt,
	}
}

func ToPaymentListResponse(payments []models.Payment, pagination utils.PaginationResponse) PaymentListResponse {
	dtos := make([]PaymentDTO, len(payments))
	for i, payment := range payments {
		dtos[i] = ToPaymentDTO(payment)
	}
	return PaymentListResponse{
		Payments:   dtos,
		Pagination: pagination,
	}
}
