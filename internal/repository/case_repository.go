package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/case-billing-api/internal/database"
	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/utils"
	"gorm.io/gorm"
)

// GormCaseRepository is a GORM implementation of CaseRepository
type GormCaseRepository struct {
	db *gorm.DB
}

// NewCaseRepository creates a new CaseRepository
func NewCaseRepository(db *gorm.DB) CaseRepository {
	return &GormCaseRepository{db: db}
}

// Create creates a new case
func (r *GormCaseRepository) Create(ctx context.Context, c *models.Case) error {
	return r.db.WithContext(ctx).Omit("Client", "Creator", "Organization").Create(c).Error
}

// FindByID finds a case in the organization with optional preloading
func (r *GormCaseRepository) FindByID(ctx context.Context, organizationID, id uint64, preload ...string) (*models.Case, error) {
	var c models.Case
	query := r.db.WithContext(ctx).Scopes(database.ForOrganization("", organizationID))

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&c, id).Error; err != nil {
		return nil, err
	}

	return &c, nil
}

// List retrieves cases with filtering and pagination, newest first
func (r *GormCaseRepository) List(ctx context.Context, filter CaseFilter) ([]models.Case, int64, error) {
	var cases []models.Case

	query := r.db.WithContext(ctx).Model(&models.Case{}).
		Scopes(database.ForOrganization("cases", filter.OrganizationID))

	if filter.ClientID != nil {
		query = query.Where("cases.client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("cases.status = ?", *filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(cases.title) LIKE ?"+database.LikeEscape, database.ContainsPattern(search))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("cases.created_at DESC").Order("cases.id DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Offset(utils.Offset(filter.Page, filter.PageSize)).Limit(filter.PageSize)
	}

	if err := listQuery.Preload("Client").Find(&cases).Error; err != nil {
		return nil, 0, err
	}

	return cases, total, nil
}

// Update updates a case
func (r *GormCaseRepository) Update(ctx context.Context, c *models.Case) error {
	return r.db.WithContext(ctx).Model(c).
		Select("title", "description", "status", "updated_at").
		Updates(c).Error
}

// Delete soft deletes a case unless an invoice references it
func (r *GormCaseRepository) Delete(ctx context.Context, organizationID, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Case
		if err := tx.Scopes(database.ForUpdate, database.ForOrganization("", organizationID)).
			First(&c, id).Error; err != nil {
			return err
		}

		var invoices int64
		if err := tx.Model(&models.Invoice{}).Where("case_id = ?", c.ID).Count(&invoices).Error; err != nil {
			return err
		}
		if invoices > 0 {
			return ErrCaseHasInvoices
		}

		return tx.Delete(&c).Error
	})
}
