package repository

import (
	"context"

	"github.com/yukikurage/case-billing-api/internal/database"
	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/utils"
	"gorm.io/gorm"
)

// GormPaymentRepository is a GORM implementation of PaymentRepository
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment in the organization
func (r *GormPaymentRepository) FindByID(ctx context.Context, organizationID, id uint64) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Scopes(database.ForOrganization("", organizationID)).
		First(&payment, id).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// List retrieves payments, most recent payment date first
func (r *GormPaymentRepository) List(ctx context.Context, filter PaymentFilter) ([]models.Payment, int64, error) {
	var payments []models.Payment

	query := r.db.WithContext(ctx).Model(&models.Payment{}).
		Scopes(database.ForOrganization("payments", filter.OrganizationID))

	if filter.InvoiceID != nil {
		query = query.Where("payments.invoice_id = ?", *filter.InvoiceID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("payments.payment_date DESC").Order("payments.id DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Offset(utils.Offset(filter.Page, filter.PageSize)).Limit(filter.PageSize)
	}

	if err := listQuery.Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}
