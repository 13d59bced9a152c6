package redemption

import (
	"time"
)

// Status represents the redemption record state
type Status string

const (
	StatusPending  Status = "pending"
	StatusRedeemed Status = "redeemed"
	StatusExpired  Status = "expired"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusRedeemed, StatusExpired:
		return true
	default:
		return false
	}
}

// RedemptionRecord is a single-use code minted from a verified OTP session.
// Code is globally unique; the pending to redeemed transition happens exactly
// once, enforced by a conditional update keyed on the code. Offer expiry is
// derived from the linked offer, never stored here.
type RedemptionRecord struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Code          string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	SessionID     string     `gorm:"type:uuid;not null;uniqueIndex" json:"session_id"`
	VendorID      string     `gorm:"type:uuid;not null;index" json:"vendor_id"`
	OfferID       string     `gorm:"type:uuid;not null;index" json:"offer_id"`
	CustomerPhone string     `gorm:"type:varchar(20);not null" json:"customer_phone"`
	CustomerName  string     `gorm:"type:varchar(255);not null" json:"customer_name"`
	Status        Status     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RedeemedAt    *time.Time `json:"redeemed_at,omitempty"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the RedemptionRecord model
func (RedemptionRecord) TableName() string {
	return "redemption_records"
}
