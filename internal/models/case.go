package models

import (
	"time"

	"gorm.io/gorm"
)

type CaseStatus string

const (
	CaseStatusOpen   CaseStatus = "OPEN"
	CaseStatusClosed CaseStatus = "CLOSED"
)

// IsValid reports whether s is a known case status.
func (s CaseStatus) IsValid() bool {
	return s == CaseStatusOpen || s == CaseStatusClosed
}

// Case is a legal matter handled for a client.
type Case struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	Title          string         `gorm:"type:varchar(255);not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	Status         CaseStatus     `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`
	ClientID       uint64         `gorm:"not null;index" json:"client_id"`
	CreatorID      uint64         `gorm:"not null" json:"creator_id"`
	OrganizationID uint64         `gorm:"not null;index" json:"organization_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Client       Client       `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Creator      User         `gorm:"foreignKey:CreatorID" json:"-"`
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"-"`
}
