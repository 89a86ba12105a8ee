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

// InvoiceHandler serves invoice CRUD and AI line item drafting
type InvoiceHandler struct {
	invoiceService *services.InvoiceService
	aiService      *services.AIService
}

// NewInvoiceHandler creates a new InvoiceHandler. aiService may be nil.
func NewInvoiceHandler(invoiceService *services.InvoiceService, aiService *services.AIService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		aiService:      aiService,
	}
}

type lineItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
}

func toLineItemInputs(items []lineItemRequest) []services.LineItemInput {
	inputs := make([]services.LineItemInput, len(items))
	for i, item := range items {
		inputs[i] = services.LineItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
		}
	}
	return inputs
}

// CreateInvoice creates an invoice with its line items
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}

	var req struct {
		ClientID uint64               `json:"client_id"`
		CaseID   *uint64              `json:"case_id"`
		DueDate  *Date                `json:"due_date"`
		Notes    string               `json:"notes"`
		Terms    string               `json:"terms"`
		Status   models.InvoiceStatus `json:"status"`
		Items    []lineItemRequest    `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), scope, services.CreateInvoiceInput{
		ClientID: req.ClientID,
		CaseID:   req.CaseID,
		DueDate:  req.DueDate.Ptr(),
		Notes:    req.Notes,
		Terms:    req.Terms,
		Status:   models.InvoiceStatus(strings.ToUpper(string(req.Status))),
		Items:    toLineItemInputs(req.Items),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"invoice": dto.ToInvoiceDTO(*invoice)})
}

// ListInvoices returns a filtered page of invoices, newest first
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}

	startDate, ok := queryTime(c, "start_date", false)
	if !ok {
		return
	}
	endDate, ok := queryTime(c, "end_date", true)
	if !ok {
		return
	}
	minAmount, ok := queryDecimal(c, "min_amount")
	if !ok {
		return
	}
	maxAmount, ok := queryDecimal(c, "max_amount")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), scope, services.ListInvoicesInput{
		Search:    c.Query("search"),
		StartDate: startDate,
		EndDate:   endDate,
		MinAmount: minAmount,
		MaxAmount: maxAmount,
		Page:      params.Page,
		PageSize:  params.Limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInvoiceListResponse(invoices, utils.NewPaginationResponse(params, total)))
}

// GetInvoice returns an invoice with items, payments, client and case
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), scope, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": dto.ToInvoiceDTO(*invoice)})
}

// UpdateInvoice applies a partial update. Sending items replaces all of them.
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	var req struct {
		DueDate *Date                 `json:"due_date"`
		Notes   *string               `json:"notes"`
		Terms   *string               `json:"terms"`
		Status  *models.InvoiceStatus `json:"status"`
		Items   *[]lineItemRequest    `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateInvoiceInput{
		DueDate: req.DueDate.Ptr(),
		Notes:   req.Notes,
		Terms:   req.Terms,
	}
	if req.Status != nil {
		status := models.InvoiceStatus(strings.ToUpper(string(*req.Status)))
		input.Status = &status
	}
	if req.Items != nil {
		items := toLineItemInputs(*req.Items)
		input.Items = &items
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), scope, id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoice": dto.ToInvoiceDTO(*invoice)})
}

// DeleteInvoice removes an invoice that has no payments
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), scope, id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted successfully"})
}

// DraftLineItems suggests line items from a free-text billing narrative
func (h *InvoiceHandler) DraftLineItems(c *gin.Context) {
	if _, ok := middleware.MustScope(c); !ok {
		return
	}

	var req struct {
		Narrative   string           `json:"narrative" binding:"required"`
		DefaultRate *decimal.Decimal `json:"default_rate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	items, err := h.aiService.DraftLineItems(c.Request.Context(), req.Narrative, req.DefaultRate)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": dto.ToDraftLineItemDTOs(items)})
}
