package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/case-billing-api/internal/dto"
	apierrors "github.com/yukikurage/case-billing-api/internal/errors"
	"github.com/yukikurage/case-billing-api/internal/middleware"
	"github.com/yukikurage/case-billing-api/internal/services"
	"github.com/yukikurage/case-billing-api/internal/utils"
)

// ClientHandler serves the organization's client directory
type ClientHandler struct {
	clientService *services.ClientService
}

func NewClientHandler(clientService *services.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

func (h *ClientHandler) CreateClient(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}

	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	client, err := h.clientService.CreateClient(c.Request.Context(), scope, services.ClientInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"client": dto.ToClientDTO(*client)})
}

func (h *ClientHandler) ListClients(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	clients, total, err := h.clientService.ListClients(c.Request.Context(), scope, c.Query("search"), params.Page, params.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToClientListResponse(clients, utils.NewPaginationResponse(params, total)))
}

func (h *ClientHandler) GetClient(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "client")
	if !ok {
		return
	}

	client, err := h.clientService.GetClient(c.Request.Context(), scope, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": dto.ToClientDTO(*client)})
}

func (h *ClientHandler) UpdateClient(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "client")
	if !ok {
		return
	}

	var req struct {
		Name    *string `json:"name"`
		Email   *string `json:"email"`
		Phone   *string `json:"phone"`
		Address *string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	client, err := h.clientService.UpdateClient(c.Request.Context(), scope, id, services.UpdateClientInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": dto.ToClientDTO(*client)})
}

func (h *ClientHandler) DeleteClient(c *gin.Context) {
	scope, ok := middleware.MustScope(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id", "client")
	if !ok {
		return
	}

	if err := h.clientService.DeleteClient(c.Request.Context(), scope, id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}
