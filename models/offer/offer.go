package offer

import (
	"time"

	"github.com/jinzhu/now"
)

// Offer represents an admin-owned offer distributed to vendors
type Offer struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string          `gorm:"type:varchar(255);not null" json:"title"`
	Description     string          `gorm:"type:text" json:"description"`
	Category        string          `gorm:"type:varchar(100);not null" json:"category"`
	ExpiryDate      time.Time       `gorm:"not null" json:"expiry_date"`
	LifecycleStatus LifecycleStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"lifecycle_status"`
	PublishedAt     *time.Time      `json:"published_at,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the Offer model
func (Offer) TableName() string {
	return "offers"
}

// IsExpired reports whether the offer's expiry date has passed.
// The expiry date is inclusive: the offer stays valid through the end of
// that calendar day, matching how a printed "valid till" date reads.
func (o *Offer) IsExpired() bool {
	return time.Now().After(now.With(o.ExpiryDate).EndOfDay())
}
