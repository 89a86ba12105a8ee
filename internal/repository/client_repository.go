package repository

import (
	"context"
	"strings"

	"github.com/yukikurage/case-billing-api/internal/database"
	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/utils"
	"gorm.io/gorm"
)

// GormClientRepository is a GORM implementation of ClientRepository
type GormClientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &GormClientRepository{db: db}
}

// Create creates a new client
func (r *GormClientRepository) Create(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Omit("Organization", "Cases").Create(client).Error
}

// FindByID finds a client in the organization
func (r *GormClientRepository) FindByID(ctx context.Context, organizationID, id uint64) (*models.Client, error) {
	var client models.Client
	if err := r.db.WithContext(ctx).
		Scopes(database.ForOrganization("", organizationID)).
		First(&client, id).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// List retrieves clients ordered by name
func (r *GormClientRepository) List(ctx context.Context, filter ClientFilter) ([]models.Client, int64, error) {
	var clients []models.Client

	query := r.db.WithContext(ctx).Model(&models.Client{}).
		Scopes(database.ForOrganization("clients", filter.OrganizationID))

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := database.ContainsPattern(search)
		query = query.Where("(LOWER(clients.name) LIKE ?"+database.LikeEscape+
			" OR LOWER(clients.email) LIKE ?"+database.LikeEscape+")", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("clients.name ASC").Order("clients.id ASC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Offset(utils.Offset(filter.Page, filter.PageSize)).Limit(filter.PageSize)
	}

	if err := listQuery.Find(&clients).Error; err != nil {
		return nil, 0, err
	}

	return clients, total, nil
}

// Update updates a client's contact details
func (r *GormClientRepository) Update(ctx context.Context, client *models.Client) error {
	return r.db.WithContext(ctx).Model(client).
		Select("name", "email", "phone", "address", "updated_at").
		Updates(client).Error
}

// Delete soft deletes a client and its cases unless an invoice references it
func (r *GormClientRepository) Delete(ctx context.Context, organizationID, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.Scopes(database.ForUpdate, database.ForOrganization("", organizationID)).
			First(&client, id).Error; err != nil {
			return err
		}

		var invoices int64
		if err := tx.Model(&models.Invoice{}).Where("client_id = ?", client.ID).Count(&invoices).Error; err != nil {
			return err
		}
		if invoices > 0 {
			return ErrClientHasInvoices
		}

		if err := tx.Where("client_id = ?", client.ID).Delete(&models.Case{}).Error; err != nil {
			return err
		}

		return tx.Delete(&client).Error
	})
}
