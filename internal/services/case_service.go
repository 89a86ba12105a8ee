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

// CaseService handles case business logic
type CaseService struct {
	caseRepo   repository.CaseRepository
	clientRepo repository.ClientRepository
}

// NewCaseService creates a new CaseService
func NewCaseService(caseRepo repository.CaseRepository, clientRepo repository.ClientRepository) *CaseService {
	return &CaseService{
		caseRepo:   caseRepo,
		clientRepo: clientRepo,
	}
}

// CreateCaseInput represents input for opening a case
type CreateCaseInput struct {
	ClientID    uint64
	Title       string
	Description string
	Status      models.CaseStatus
}

// UpdateCaseInput represents a partial case update
type UpdateCaseInput struct {
	Title       *string
	Description *string
	Status      *models.CaseStatus
}

// ListCasesInput represents filters for listing cases
type ListCasesInput struct {
	ClientID *uint64
	Status   *models.CaseStatus
	Search   string
	Page     int
	PageSize int
}

// CreateCase opens a case for a client of the organization
func (s *CaseService) CreateCase(ctx context.Context, scope tenant.Scope, input CreateCaseInput) (*models.Case, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title", errRequired)
	}
	if input.ClientID == 0 {
		return nil, invalid("client_id", errRequired)
	}

	status := input.Status
	if status == "" {
		status = models.CaseStatusOpen
	}
	if !status.IsValid() {
		return nil, invalid("status", errInvalidStatus)
	}

	if _, err := s.clientRepo.FindByID(ctx, scope.OrganizationID, input.ClientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}

	c := &models.Case{
		Title:          title,
		Description:    strings.TrimSpace(input.Description),
		Status:         status,
		ClientID:       input.ClientID,
		CreatorID:      scope.UserID,
		OrganizationID: scope.OrganizationID,
	}

	if err := s.caseRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create case: %w", err)
	}

	return s.GetCase(ctx, scope, c.ID)
}

// GetCase returns a case with its client
func (s *CaseService) GetCase(ctx context.Context, scope tenant.Scope, id uint64) (*models.Case, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	c, err := s.caseRepo.FindByID(ctx, scope.OrganizationID, id, "Client")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to find case: %w", err)
	}

	return c, nil
}

// ListCases returns one page of the organization's cases
func (s *CaseService) ListCases(ctx context.Context, scope tenant.Scope, input ListCasesInput) ([]models.Case, int64, error) {
	if err := scope.Validate(); err != nil {
		return nil, 0, err
	}

	if input.Status != nil && !input.Status.IsValid() {
		return nil, 0, invalid("status", errInvalidStatus)
	}

	cases, total, err := s.caseRepo.List(ctx, repository.CaseFilter{
		OrganizationID: scope.OrganizationID,
		ClientID:       input.ClientID,
		Status:         input.Status,
		Search:         input.Search,
		Page:           input.Page,
		PageSize:       input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cases: %w", err)
	}

	return cases, total, nil
}

// UpdateCase updates the supplied case fields
func (s *CaseService) UpdateCase(ctx context.Context, scope tenant.Scope, id uint64, input UpdateCaseInput) (*models.Case, error) {
	c, err := s.GetCase(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, invalid("title", errRequired)
		}
		c.Title = title
	}
	if input.Description != nil {
		c.Description = strings.TrimSpace(*input.Description)
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, invalid("status", errInvalidStatus)
		}
		c.Status = *input.Status
	}

	if err := s.caseRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to update case: %w", err)
	}

	return c, nil
}

// DeleteCase removes a case that has never been invoiced
func (s *CaseService) DeleteCase(ctx context.Context, scope tenant.Scope, id uint64) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	if err := s.caseRepo.Delete(ctx, scope.OrganizationID, id); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return ErrCaseNotFound
		case errors.Is(err, repository.ErrCaseHasInvoices):
			return ErrCaseHasInvoices
		default:
			return fmt.Errorf("failed to delete case: %w", err)
		}
	}

	return nil
}
