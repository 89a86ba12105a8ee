package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yukikurage/case-billing-api/internal/dto"
	apierrors "github.com/yukikurage/case-billing-api/internal/errors"
	"github.com/yukikurage/case-billing-api/internal/middleware"
	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/services"
	"github.com/yukikurage/case-billing-api/internal/utils"
)

// PaymentHandler serves the payment ledger
type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// AddPayment records a payment against the invoice in the path
func (h *PaymentHandler) AddPayment(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}
	invoiceID, ok := parseIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	var req struct {
		Amount      decimal.Decimal      `json:"amount"`
		PaymentDate *Date                `json:"payment_date"`
		Method      models.PaymentMethod `json:"method"`
		Reference   string               `json:"reference"`
		Notes       string               `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	payment, invoice, err := h.paymentService.AddPayment(c.Request.Context(), scope, invoiceID, services.AddPaymentInput{
		Amount:      req.Amount,
		PaymentDate: req.PaymentDate.Ptr(),
		Method:      models.PaymentMethod(strings.ToUpper(string(req.Method))),
		Reference:   req.Reference,
		Notes:       req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment": dto.ToPaymentDTO(*payment),
		"invoice": dto.ToInvoiceDTO(*invoice),
	})
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}
	invoiceID, ok := queryUint(c, "invoice_id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), scope, services.ListPaymentsInput{
		InvoiceID: invoiceID,
		Page:      params.Page,
		PageSize:  params.Limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentListResponse(payments, utils.NewPaginationResponse(params, total)))
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "payment")
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), scope, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": dto.ToPaymentDTO(*payment)})
}

// DeletePayment removes a payment and returns the re-derived invoice
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "payment")
	if !ok {
		return
	}

	invoice, err := h.paymentService.DeletePayment(c.Request.Context(), scope, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment deleted successfully",
		"invoice": dto.ToInvoiceDTO(*invoice),
	})
}
