package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/case-billing-api/internal/database"
	"github.com/yukikurage/case-billing-api/internal/models"
	"github.com/yukikurage/case-billing-api/internal/repository"
	"github.com/yukikurage/case-billing-api/internal/tenant"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens a migrated in-memory database. A single connection keeps
// every goroutine on the same in-memory database and serializes transactions.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(database.Models()...))
	require.NoError(t, database.AddIndexes(db))

	return db
}

// billingEnv wires the billing services against one database
type billingEnv struct {
	db       *gorm.DB
	invoices *InvoiceService
	payments *PaymentService
	clients  *ClientService
	cases    *CaseService
}

func newBillingEnv(t *testing.T) billingEnv {
	t.Helper()

	db := newTestDB(t)
	clientRepo := repository.NewClientRepository(db)
	caseRepo := repository.NewCaseRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db, repository.NewSequenceRepository(db))
	paymentRepo := repository.NewPaymentRepository(db)

	return billingEnv{
		db:       db,
		invoices: NewInvoiceService(invoiceRepo, clientRepo, caseRepo),
		payments: NewPaymentService(invoiceRepo, paymentRepo),
		clients:  NewClientService(clientRepo),
		cases:    NewCaseService(caseRepo, clientRepo),
	}
}

// createTenant creates a user, an organization owned by them and returns the scope
func createTenant(t *testing.T, db *gorm.DB, name string) tenant.Scope {
	t.Helper()

	user := &models.User{Username: name, PasswordHash: "hashed"}
	require.NoError(t, db.Create(user).Error)

	org := &models.Organization{Name: name + " LLP", InviteCode: name + "-CODE"}
	require.NoError(t, db.Create(org).Error)

	member := &models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         user.ID,
		Role:           models.RoleOwner,
		JoinedAt:       time.Now(),
	}
	require.NoError(t, db.Create(member).Error)

	return tenant.Scope{UserID: user.ID, OrganizationID: org.ID, Role: models.RoleOwner}
}

func createClient(t *testing.T, env billingEnv, scope tenant.Scope, name string) *models.Client {
	t.Helper()

	client, err := env.clients.CreateClient(context.Background(), scope, ClientInput{Name: name})
	require.NoError(t, err)
	return client
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func lineItem(description, quantity, rate string) LineItemInput {
	return LineItemInput{Description: description, Quantity: dec(quantity), Rate: dec(rate)}
}

// sampleInvoiceInput bills 375.50 + 10% tax = 413.05
func sampleInvoiceInput(clientID uint64) CreateInvoiceInput {
	due := time.Now().Add(30 * 24 * time.Hour)
	return CreateInvoiceInput{
		ClientID: clientID,
		DueDate:  &due,
		Items: []LineItemInput{
			lineItem("Contract review", "2", "150.00"),
			lineItem("Filing fee", "1", "75.50"),
		},
	}
}
