package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Invoice struct {
	ID             uint64          `gorm:"primarykey" json:"id"`
	InvoiceNumber  string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_invoices_org_number,priority:2" json:"invoice_number"`
	OrganizationID uint64          `gorm:"not null;uniqueIndex:idx_invoices_org_number,priority:1" json:"organization_id"`
	ClientID       uint64          `gorm:"not null;index" json:"client_id"`
	CaseID         *uint64         `gorm:"index" json:"case_id"`
	DueDate        time.Time       `gorm:"not null" json:"due_date"`
	Notes          string          `gorm:"type:text" json:"notes"`
	Terms          string          `gorm:"type:text" json:"terms"`
	Status         InvoiceStatus   `gorm:"type:varchar(20);not null;default:'UNPAID';index" json:"status"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	Tax            decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"tax"`
	Total          decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total"`
	CreatedByID    uint64          `gorm:"not null" json:"created_by_id"`
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`

	// Relations
	Items     []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	Payments  []Payment     `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
	Client    Client        `gorm:"foreignKey:ClientID" json:"-"`
	Case      *Case         `gorm:"foreignKey:CaseID" json:"-"`
	CreatedBy User          `gorm:"foreignKey:CreatedByID" json:"-"`
}

// AmountPaid sums the loaded, non-deleted payments.
func (i *Invoice) AmountPaid() decimal.Decimal {
	paid := decimal.Zero
	for _, p := range i.Payments {
		paid = paid.Add(p.Amount)
	}
	return paid
}

// Balance is the amount still outstanding.
func (i *Invoice) Balance() decimal.Decimal {
	return i.Total.Sub(i.AmountPaid())
}

type InvoiceItem struct {
	ID          uint64          `gorm:"primarykey" json:"id"`
	InvoiceID   uint64          `gorm:"not null;index" json:"invoice_id"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Description string          `gorm:"type:varchar(500);not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Rate        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"rate"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InvoiceSequence is the per-organization counter behind invoice numbers.
type InvoiceSequence struct {
	OrganizationID uint64    `gorm:"primaryKey;autoIncrement:false"`
	LastValue      int64     `gorm:"not null;default:0"`
	UpdatedAt      time.Time
}
