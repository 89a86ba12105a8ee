package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/yukikurage/case-billing-api/internal/billing"
	"github.com/yukikurage/case-billing-api/internal/database"
	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/utils"
	"gorm.io/gorm"
)

// invoiceColumns are the scalar columns Modify writes back
var invoiceColumns = []string{"due_date", "notes", "terms", "status", "subtotal", "tax", "total", "updated_at"}

// GormInvoiceRepository is a GORM implementation of InvoiceRepository
type GormInvoiceRepository struct {
	db        *gorm.DB
	sequences SequenceRepository
}

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(db *gorm.DB, sequences SequenceRepository) InvoiceRepository {
	return &GormInvoiceRepository{db: db, sequences: sequences}
}

// Create numbers and inserts the invoice together with its items
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		next, err := r.sequences.WithTx(tx).Next(ctx, invoice.OrganizationID)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = billing.FormatInvoiceNumber(next)

		for i := range invoice.Items {
			invoice.Items[i].Position = i
		}

		return tx.Omit("Client", "Case", "CreatedBy", "Payments").Create(invoice).Error
	})
}

// FindByID finds an invoice in the organization with optional preloading
func (r *GormInvoiceRepository) FindByID(ctx context.Context, organizationID, id uint64, preload ...string) (*models.Invoice, error) {
	var invoice models.Invoice
	query := r.db.WithContext(ctx).Scopes(database.ForOrganization("", organizationID))

	for _, p := range preload {
		query = preloadInvoiceRelation(query, p)
	}

	if err := query.First(&invoice, id).Error; err != nil {
		return nil, err
	}

	return &invoice, nil
}

// List retrieves invoices with filtering and pagination
func (r *GormInvoiceRepository) List(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, int64, error) {
	var invoices []models.Invoice

	query := r.db.WithContext(ctx).Model(&models.Invoice{}).
		Scopes(database.ForOrganization("invoices", filter.OrganizationID))

	if search := strings.TrimSpace(filter.Search); search != "" {
		like := database.ContainsPattern(search)
		query = query.
			Joins("LEFT JOIN clients ON clients.id = invoices.client_id AND clients.deleted_at IS NULL").
			Joins("LEFT JOIN cases ON cases.id = invoices.case_id AND cases.deleted_at IS NULL").
			Where("(invoices.invoice_number LIKE ?"+database.LikeEscape+
				" OR LOWER(clients.name) LIKE ?"+database.LikeEscape+
				" OR LOWER(cases.title) LIKE ?"+database.LikeEscape+")",
				database.PrefixPattern(search), like, like)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("invoices.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("invoices.created_at <= ?", *filter.CreatedTo)
	}
	if filter.MinAmount != nil {
		query = query.Where("invoices.total >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("invoices.total <= ?", *filter.MaxAmount)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("invoices.created_at DESC").Order("invoices.id DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Offset(utils.Offset(filter.Page, filter.PageSize)).Limit(filter.PageSize)
	}

	if err := listQuery.Preload("Client").Preload("Case").Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

// Modify locks the invoice row, applies fn and writes the change back atomically
func (r *GormInvoiceRepository) Modify(ctx context.Context, organizationID, id uint64, fn func(change *InvoiceChange) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := r.lock(tx, organizationID, id)
		if err != nil {
			return err
		}

		if err := tx.Where("invoice_id = ?", invoice.ID).
			Order("position ASC").Order("id ASC").
			Find(&invoice.Items).Error; err != nil {
			return fmt.Errorf("failed to load invoice items: %w", err)
		}
		if err := tx.Where("invoice_id = ?", invoice.ID).
			Order("payment_date ASC").Order("id ASC").
			Find(&invoice.Payments).Error; err != nil {
			return fmt.Errorf("failed to load payments: %w", err)
		}

		change := &InvoiceChange{Invoice: invoice}
		if err := fn(change); err != nil {
			return err
		}

		if change.ReplaceItems != nil {
			if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
				return fmt.Errorf("failed to delete invoice items: %w", err)
			}
			for i := range change.ReplaceItems {
				change.ReplaceItems[i].ID = 0
				change.ReplaceItems[i].InvoiceID = invoice.ID
				change.ReplaceItems[i].Position = i
			}
			if len(change.ReplaceItems) > 0 {
				if err := tx.Create(&change.ReplaceItems).Error; err != nil {
					return fmt.Errorf("failed to create invoice items: %w", err)
				}
			}
			invoice.Items = change.ReplaceItems
		}

		if change.AddPayment != nil {
			change.AddPayment.InvoiceID = invoice.ID
			change.AddPayment.OrganizationID = organizationID
			if err := tx.Omit("Invoice").Create(change.AddPayment).Error; err != nil {
				return fmt.Errorf("failed to create payment: %w", err)
			}
		}

		if change.RemovePaymentID != 0 {
			res := tx.Where("invoice_id = ?", invoice.ID).
				Scopes(database.ForOrganization("", organizationID)).
				Delete(&models.Payment{}, change.RemovePaymentID)
			if res.Error != nil {
				return fmt.Errorf("failed to delete payment: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		return tx.Model(invoice).Select(invoiceColumns).Updates(invoice).Error
	})
}

// Delete removes an invoice and its items unless payments reference it
func (r *GormInvoiceRepository) Delete(ctx context.Context, organizationID, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := r.lock(tx, organizationID, id)
		if err != nil {
			return err
		}

		var payments int64
		if err := tx.Model(&models.Payment{}).Where("invoice_id = ?", invoice.ID).Count(&payments).Error; err != nil {
			return fmt.Errorf("failed to count payments: %w", err)
		}
		if payments > 0 {
			return ErrInvoiceHasPayments
		}

		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}

		return tx.Delete(invoice).Error
	})
}

// lock selects the invoice row FOR UPDATE within tx
func (r *GormInvoiceRepository) lock(tx *gorm.DB, organizationID, id uint64) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := tx.Scopes(database.ForUpdate, database.ForOrganization("", organizationID)).
		First(&invoice, id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// preloadInvoiceRelation keeps nested collections in a stable order
func preloadInvoiceRelation(query *gorm.DB, relation string) *gorm.DB {
	switch relation {
	case "Items":
		return query.Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Order("id ASC")
		})
	case "Payments":
		return query.Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("payment_date ASC").Order("id ASC")
		})
	default:
		return query.Preload(relation)
	}
}
