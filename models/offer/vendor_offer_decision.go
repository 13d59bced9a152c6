package offer

import (
	"time"
)

// VendorOfferDecision is one row per (offer, vendor) pair, created when the
// offer is published to that vendor. Decisions are modeled as independent
// rows rather than a status on Offer because one offer fans out to many
// vendors with independent one-way decisions.
type VendorOfferDecision struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	OfferID   string     `gorm:"type:uuid;not null;uniqueIndex:idx_decisions_offer_vendor" json:"offer_id"`
	VendorID  string     `gorm:"type:uuid;not null;uniqueIndex:idx_decisions_offer_vendor" json:"vendor_id"`
	Decision  Decision   `gorm:"type:varchar(20);not null;default:'pending'" json:"decision"`
	DecidedAt *time.Time `json:"decided_at,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the VendorOfferDecision model
func (VendorOfferDecision) TableName() string {
	return "vendor_offer_decisions"
}
