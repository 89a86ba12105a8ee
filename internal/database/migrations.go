package database

import (
	"fmt"
	"strings"

	applog "github.com/yukikurage/case-billing-api/internal/logger"
	"gorm.io/gorm"
)

type tableIndex struct {
	table   string
	name    string
	columns []string
}

// performanceIndexes are composite indexes AutoMigrate cannot express from struct tags
var performanceIndexes = []tableIndex{
	// Invoice list: organization filter ordered newest-first
	{"invoices", "idx_invoices_org_created_at", []string{"organization_id", "created_at"}},
	{"invoices", "idx_invoices_org_total", []string{"organization_id", "total"}},

	// Payment sums per invoice
	{"payments", "idx_payments_invoice_deleted", []string{"invoice_id", "deleted_at"}},

	// Organization members lookups by user
	{"organization_members", "idx_org_members_user_id", []string{"user_id"}},

	// Case lookups by client within an organization
	{"cases", "idx_cases_org_client", []string{"organization_id", "client_id"}},
}

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	log := applog.WithComponent("database")
	migrator := db.Migrator()

	for _, idx := range performanceIndexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug().Str("index", idx.name).Msg("Index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, strings.Join(idx.columns, ", "))
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info().Str("index", idx.name).Str("table", idx.table).Msg("Created index")
	}

	return nil
}
