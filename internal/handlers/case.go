package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/case-billing-api/internal/dto"
	apierrors "github.com/yukikurage/case-billing-api/internal/errors"
	"github.com/yukikurage/case-billing-api/internal/middleware"
	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/services"
	"github.com/yukikurage/case-billing-api/internal/utils"
)

// CaseHandler serves the organization's legal matters
type CaseHandler struct {
	caseService *services.CaseService
}

func NewCaseHandler(caseService *services.CaseService) *CaseHandler {
	return &CaseHandler{caseService: caseService}
}

func (h *CaseHandler) CreateCase(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}

	var req struct {
		ClientID    uint64            `json:"client_id" binding:"required"`
		Title       string            `json:"title"`
		Description string            `json:"description"`
		Status      models.CaseStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	created, err := h.caseService.CreateCase(c.Request.Context(), scope, services.CreateCaseInput{
		ClientID:    req.ClientID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"case": dto.ToCaseDTO(*created)})
}

func (h *CaseHandler) ListCases(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}

	clientID, ok := queryUint(c, "client_id")
	if !ok {
		return
	}

	var status *models.CaseStatus
	if raw := strings.ToUpper(strings.TrimSpace(c.Query("status"))); raw != "" {
		s := models.CaseStatus(raw)
		if !s.IsValid() {
			apierrors.BadRequest(c, "status must be OPEN or CLOSED")
			return
		}
		status = &s
	}

	params := utils.GetPaginationParams(c)
	cases, total, err := h.caseService.ListCases(c.Request.Context(), scope, services.ListCasesInput{
		ClientID: clientID,
		Status:   status,
		Search:   c.Query("search"),
		Page:     params.Page,
		PageSize: params.Limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCaseListResponse(cases, utils.NewPaginationResponse(params, total)))
}

func (h *CaseHandler) GetCase(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "case")
	if !ok {
		return
	}

	found, err := h.caseService.GetCase(c.Request.Context(), scope, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"case": dto.ToCaseDTO(*found)})
}

func (h *CaseHandler) UpdateCase(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "case")
	if !ok {
		return
	}

	var req struct {
		Title       *string            `json:"title"`
		Description *string            `json:"description"`
		Status      *models.CaseStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.caseService.UpdateCase(c.Request.Context(), scope, id, services.UpdateCaseInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"case": dto.ToCaseDTO(*updated)})
}

func (h *CaseHandler) DeleteCase(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "case")
	if !ok {
		return
	}

	if err := h.caseService.DeleteCase(c.Request.Context(), scope, id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Case deleted successfully"})
}
