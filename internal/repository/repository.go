package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/case-billing-api/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrInvoiceHasPayments is returned when deleting an invoice that still has payments.
	ErrInvoiceHasPayments = errors.New("invoice repository: invoice has payments")
	// ErrClientHasInvoices is returned when deleting a client that is still billed.
	ErrClientHasInvoices = errors.New("client repository: client has invoices")
	// ErrCaseHasInvoices is returned when deleting a case that is still billed.
	ErrCaseHasInvoices = errors.New("case repository: case has invoices")
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithPersonalOrganization creates a user, their personal organization,
	// and corresponding membership within a single transaction.
	CreateWithPersonalOrganization(user *models.User, org *models.Organization, member *models.OrganizationMember) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// CreateWithOwner creates an organization and its owner membership atomically
	CreateWithOwner(org *models.Organization, owner *models.OrganizationMember) error

	// FindByID finds an organization by ID
	FindByID(id uint64) (*models.Organization, error)

	// FindByInviteCode finds an organization by invite code
	FindByInviteCode(code string) (*models.Organization, error)

	// Update updates an organization
	Update(org *models.Organization) error

	// AddMember adds a member to an organization
	AddMember(member *models.OrganizationMember) error

	// RemoveMember removes a member from an organization
	RemoveMember(organizationID, userID uint64) error

	// FindMember finds a specific organization member
	FindMember(organizationID, userID uint64) (*models.OrganizationMember, error)

	// ListMembersByUserID lists all organizations a user is a member of
	ListMembersByUserID(userID uint64) ([]models.OrganizationMember, error)

	// ListMembers lists all members of an organization
	ListMembers(organizationID uint64) ([]models.OrganizationMember, error)
}

// ClientFilter holds filtering options for listing clients
type ClientFilter struct {
	OrganizationID uint64
	Search         string
	Page           int
	PageSize       int
}

// ClientRepository defines the interface for client data access.
// Every method is scoped to an organization.
type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	FindByID(ctx context.Context, organizationID, id uint64) (*models.Client, error)
	List(ctx context.Context, filter ClientFilter) ([]models.Client, int64, error)
	Update(ctx context.Context, client *models.Client) error

	// Delete removes the client and its cases; fails with ErrClientHasInvoices when billed
	Delete(ctx context.Context, organizationID, id uint64) error
}

// CaseFilter holds filtering options for listing cases
type CaseFilter struct {
	OrganizationID uint64
	ClientID       *uint64
	Status         *models.CaseStatus
	Search         string
	Page           int
	PageSize       int
}

// CaseRepository defines the interface for case data access
type CaseRepository interface {
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, organizationID, id uint64, preload ...string) (*models.Case, error)
	List(ctx context.Context, filter CaseFilter) ([]models.Case, int64, error)
	Update(ctx context.Context, c *models.Case) error

	// Delete removes a case; fails with ErrCaseHasInvoices when billed
	Delete(ctx context.Context, organizationID, id uint64) error
}

// SequenceRepository hands out invoice numbers.
type SequenceRepository interface {
	// WithTx binds the repository to a running transaction
	WithTx(tx *gorm.DB) SequenceRepository

	// Next increments and returns the organization's counter. The counter row
	// stays locked until the surrounding transaction ends.
	Next(ctx context.Context, organizationID uint64) (int64, error)
}

// InvoiceFilter holds filtering options for listing invoices
type InvoiceFilter struct {
	OrganizationID uint64
	Search         string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	MinAmount      *decimal.Decimal
	MaxAmount      *decimal.Decimal
	Page           int
	PageSize       int
}

// InvoiceChange is handed to the callback of InvoiceRepository.Modify.
// Invoice is the locked row with its Items and Payments loaded; scalar fields
// changed on it are persisted after the callback returns.
type InvoiceChange struct {
	Invoice *models.Invoice

	// ReplaceItems, when non-nil, replaces every item of the invoice
	ReplaceItems []models.InvoiceItem

	// AddPayment is inserted against the invoice
	AddPayment *models.Payment

	// RemovePaymentID is soft-deleted from the invoice
	RemovePaymentID uint64
}

// InvoiceRepository defines the interface for invoice data access
type InvoiceRepository interface {
	// Create assigns the next invoice number and persists the invoice with its items atomically
	Create(ctx context.Context, invoice *models.Invoice) error

	// FindByID finds an invoice in the organization with optional preloading
	FindByID(ctx context.Context, organizationID, id uint64, preload ...string) (*models.Invoice, error)

	// List retrieves invoices with filtering and pagination, newest first
	List(ctx context.Context, filter InvoiceFilter) ([]models.Invoice, int64, error)

	// Modify locks the invoice, runs fn and persists the resulting change in one transaction.
	// Any error from fn rolls everything back.
	Modify(ctx context.Context, organizationID, id uint64, fn func(change *InvoiceChange) error) error

	// Delete removes an invoice and its items; fails with ErrInvoiceHasPayments
	Delete(ctx context.Context, organizationID, id uint64) error
}

// PaymentFilter holds filtering options for listing payments
type PaymentFilter struct {
	OrganizationID uint64
	InvoiceID      *uint64
	Page           int
	PageSize       int
}

// PaymentRepository defines the read side of the payment ledger.
// Writes go through InvoiceRepository.Modify so they share the invoice row lock.
type PaymentRepository interface {
	FindByID(ctx context.Context, organizationID, id uint64) (*models.Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]models.Payment, int64, error)
}
