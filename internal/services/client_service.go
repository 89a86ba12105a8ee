package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/repository"
	"github.com/yukikurage/case-billing-api/internal/tenant"
	"gorm.io/gorm"
)

// ClientService handles client business logic
type ClientService struct {
	clientRepo repository.ClientRepository
}

// NewClientService creates a new ClientService
func NewClientService(clientRepo repository.ClientRepository) *ClientService {
	return &ClientService{clientRepo: clientRepo}
}

// ClientInput represents input for creating a client
type ClientInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// UpdateClientInput represents a partial client update
type UpdateClientInput struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

// CreateClient creates a client in the caller's organization
func (s *ClientService) CreateClient(ctx context.Context, scope tenant.Scope, input ClientInput) (*models.Client, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("name", errRequired)
	}

	client := &models.Client{
		OrganizationID: scope.OrganizationID,
		Name:           name,
		Email:          strings.TrimSpace(input.Email),
		Phone:          strings.TrimSpace(input.Phone),
		Address:        strings.TrimSpace(input.Address),
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// GetClient returns a client of the organization
func (s *ClientService) GetClient(ctx context.Context, scope tenant.Scope, id uint64) (*models.Client, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	client, err := s.clientRepo.FindByID(ctx, scope.OrganizationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}

	return client, nil
}

// ListClients returns one page of clients matching search
func (s *ClientService) ListClients(ctx context.Context, scope tenant.Scope, search string, page, pageSize int) ([]models.Client, int64, error) {
	if err := scope.Validate(); err != nil {
		return nil, 0, err
	}

	clients, total, err := s.clientRepo.List(ctx, repository.ClientFilter{
		OrganizationID: scope.OrganizationID,
		Search:         search,
		Page:           page,
		PageSize:       pageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list clients: %w", err)
	}

	return clients, total, nil
}

// UpdateClient updates the supplied client fields
func (s *ClientService) UpdateClient(ctx context.Context, scope tenant.Scope, id uint64, input UpdateClientInput) (*models.Client, error) {
	client, err := s.GetClient(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, invalid("name", errRequired)
		}
		client.Name = name
	}
	if input.Email != nil {
		client.Email = strings.TrimSpace(*input.Email)
	}
	if input.Phone != nil {
		client.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		client.Address = strings.TrimSpace(*input.Address)
	}

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	return client, nil
}

// DeleteClient removes a client and its cases when it has never been invoiced
func (s *ClientService) DeleteClient(ctx context.Context, scope tenant.Scope, id uint64) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	if err := s.clientRepo.Delete(ctx, scope.OrganizationID, id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrClientNotFound
		case errors.Is(err, repository.ErrClientHasInvoices):
			return ErrClientHasInvoices
		default:
			return fmt.Errorf("failed to delete client: %w", err)
		}
	}

	return nil
}
