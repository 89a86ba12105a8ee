package dto

import (
	"time"

	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/utils"
)

// CaseDTO represents a case in API responses
type CaseDTO struct {
	ID          uint64            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      models.CaseStatus `json:"status"`
	ClientID    uint64            `json:"client_id"`
	CreatorID   uint64            `json:"creator_id"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Client      *ClientSummaryDTO `json:"client,omitempty"`
}

// CaseSummaryDTO is the case attached to invoices
type CaseSummaryDTO struct {
	ID     uint64            `json:"id"`
	Title  string            `json:"title"`
	Status models.CaseStatus `json:"status"`
}

// CaseListResponse represents a paginated list of cases
type CaseListResponse struct {
	Cases      []CaseDTO                `json:"cases"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

func ToCaseDTO(c models.Case) CaseDTO {
	return CaseDTO{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Status:      c.Status,
		ClientID:    c.ClientID,
		CreatorID:   c.CreatorID,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
		Client:      ToClientSummaryDTO(c.Client),
	}
}

func ToCaseSummaryDTO(c *models.Case) *CaseSummaryDTO {
	if c == nil || c.ID == 0 {
		return nil
	}
	return &CaseSummaryDTO{
		ID:     c.ID,
		Title:  c.Title,
		Status: c.Status,
	}
}

func ToCaseListResponse(cases []models.Case, pagination utils.PaginationResponse) CaseListResponse {
	dtos := make([]CaseDTO, len(cases))
	for i, c := range cases {
		dtos[i] = ToCaseDTO(c)
	}
	return CaseListResponse{
		Cases:      dtos,
		Pagination: pagination,
	}
}
