package dto

import (
	"time"

	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/utils"
)

// ClientDTO represents a client in API responses
type ClientDTO struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClientSummaryDTO is the client attached to invoices and cases
type ClientSummaryDTO struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// ClientListResponse represents a paginated list of clients
type ClientListResponse struct {
	Clients    []ClientDTO              `json:"clients"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

func ToClientDTO(client models.Client) ClientDTO {
	return ClientDTO{
		ID:        client.ID,
		Name:      client.Name,
		Email:     client.Email,
		Phone:     client.Phone,
		Address:   client.Address,
		CreatedAt: client.CreatedAt,
		UpdatedAt: client.UpdatedAt,
	}
}

// ToClientSummaryDTO returns nil for a relation that was not loaded
func ToClientSummaryDTO(client models.Client) *ClientSummaryDTO {
	if client.ID == 0 {
		return nil
	}
	return &ClientSummaryDTO{
		ID:    client.ID,
		Name:  client.Name,
		Email: client.Email,
	}
}

func ToClientListResponse(clients []models.Client, pagination utils.PaginationResponse) ClientListResponse {
	dtos := make([]ClientDTO, len(clients))
	for i, client := range clients {
		dtos[i] = ToClientDTO(client)
	}
	return ClientListResponse{
		Clients:    dtos,
		Pagination: pagination,
	}
}
