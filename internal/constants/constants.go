package constants

import "time"

// Session and context keys
const (
	SessionCookieName = "case_billing_session"

	ContextKeyUserID         = "user_id"
	ContextKeyOrganizationID = "organization_id"
	ContextKeyScope          = "tenant_scope"
	ContextKeyRequestID      = "request_id"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 8
)

// Billing
const (
	InvoiceNumberWidth = 6
	MaxInvoiceItems    = 200
	MaxAIDraftItems    = 25
)

// Idempotency
const (
	IdempotencyHeader     = "Idempotency-Key"
	IdempotencyLockTTL    = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
)
