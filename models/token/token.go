package token

import (
	"time"
)

// ClaimStatus represents the claim state of a QR token
type ClaimStatus string

const (
	ClaimStatusUnclaimed ClaimStatus = "unclaimed"
	ClaimStatusClaimed   ClaimStatus = "claimed"
)

// QRToken represents a printed QR token that a vendor can claim exactly once
type QRToken struct {
	ID                string      `gorm:"type:uuid;primaryKey" json:"id"`
	LayoutVariant     string      `gorm:"type:varchar(50);not null" json:"layout_variant"`
	ClaimStatus       ClaimStatus `gorm:"type:varchar(20);not null;default:'unclaimed'" json:"claim_status"`
	ClaimedByVendorID *string     `gorm:"type:uuid" json:"claimed_by_vendor_id,omitempty"`
	CreatedAt         time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the QRToken model
func (QRToken) TableName() string {
	return "qr_tokens"
}

func (cs ClaimStatus) String() string {
	return string(cs)
}

func (cs ClaimStatus) IsValid() bool {
	switch cs {
	case ClaimStatusUnclaimed, ClaimStatusClaimed:
		return true
	default:
		return false
	}
}

// IsClaimed returns true once the token has been bound to a vendor
func (t *QRToken) IsClaimed() bool {
	return t.ClaimStatus == ClaimStatusClaimed
}
