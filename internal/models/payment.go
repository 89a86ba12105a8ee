package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodOnline       PaymentMethod = "ONLINE"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

// IsValid reports whether m is a known payment method.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodBankTransfer,
		PaymentMethodCreditCard, PaymentMethodOnline, PaymentMethodOther:
		return true
	}
	return false
}

type Payment struct {
	ID             uint64          `gorm:"primarykey" json:"id"`
	OrganizationID uint64          `gorm:"not null;index" json:"organization_id"`
	InvoiceID      uint64          `gorm:"not null;index" json:"invoice_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	PaymentDate    time.Time       `gorm:"not null" json:"payment_date"`
	Method         PaymentMethod   `gorm:"type:varchar(20);not null" json:"method"`
	Reference      string          `gorm:"type:varchar(255)" json:"reference"`
	Notes          string          `gorm:"type:text" json:"notes"`
	RecordedByID   uint64          `gorm:"not null" json:"recorded_by_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relations
	Invoice Invoice `gorm:"foreignKey:InvoiceID" json:"-"`
}
