package repository

import (
	"context"
	"fmt"

	"github.com/yukikurage/case-billing-api/internal/billing"
	"github.com/yukikurage/case-billing-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSequenceRepository keeps one counter row per organization in invoice_sequences.
//
// Next bumps the row with a single UPDATE, which takes the row lock in MySQL and
// Postgres and holds it until commit, so concurrent invoice creations in the same
// organization are serialized without an application-level read-then-write.
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository creates a new SequenceRepository
func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &GormSequenceRepository{db: db}
}

// WithTx binds the repository to tx
func (r *GormSequenceRepository) WithTx(tx *gorm.DB) SequenceRepository {
	return &GormSequenceRepository{db: tx}
}

// Next increments and returns the organization's invoice counter
func (r *GormSequenceRepository) Next(ctx context.Context, organizationID uint64) (int64, error) {
	db := r.db.WithContext(ctx)

	for attempt := 0; attempt < 2; attempt++ {
		res := db.Model(&models.InvoiceSequence{}).
			Where("organization_id = ?", organizationID).
			UpdateColumn("last_value", gorm.Expr("last_value + ?", 1))
		if res.Error != nil {
			return 0, fmt.Errorf("failed to increment invoice sequence: %w", res.Error)
		}

		if res.RowsAffected == 1 {
			var values []int64
			if err := db.Model(&models.InvoiceSequence{}).
				Where("organization_id = ?", organizationID).
				Pluck("last_value", &values).Error; err != nil {
				return 0, fmt.Errorf("failed to read invoice sequence: %w", err)
			}
			if len(values) == 0 {
				return 0, fmt.Errorf("invoice sequence for organization %d disappeared", organizationID)
			}
			return values[0], nil
		}

		// First invoice of the organization: seed the counter. A concurrent
		// seeder makes the insert a no-op and the next loop increments its row.
		if err := r.seed(db, organizationID); err != nil {
			return 0, err
		}
	}

	return 0, fmt.Errorf("invoice sequence for organization %d could not be initialized", organizationID)
}

// seed creates the counter row starting at the highest number already issued,
// including soft-deleted invoices so numbers are never reused.
func (r *GormSequenceRepository) seed(db *gorm.DB, organizationID uint64) error {
	var numbers []string
	if err := db.Unscoped().Model(&models.Invoice{}).
		Where("organization_id = ?", organizationID).
		Order("LENGTH(invoice_number) DESC").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &numbers).Error; err != nil {
		return fmt.Errorf("failed to read last invoice number: %w", err)
	}

	var last int64
	if len(numbers) > 0 {
		n, err := billing.ParseInvoiceNumber(numbers[0])
		if err != nil {
			return err
		}
		last = n
	}

	seq := models.InvoiceSequence{
		OrganizationID: organizationID,
		LastValue:      last,
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return fmt.Errorf("failed to seed invoice sequence: %w", err)
	}
	return nil
}
