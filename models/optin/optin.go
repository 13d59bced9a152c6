package optin

import (
	"time"
)

// Opt-in sources
const (
	SourceQRScan = "qr_scan"
	SourceJoin   = "join"
)

// CustomerOptIn records a customer's registration for a vendor's messages.
// Idempotent on (phone_number, vendor_id): re-opt-in refreshes the
// timestamp instead of duplicating the row.
type CustomerOptIn struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PhoneNumber string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_optins_phone_vendor" json:"phone_number"`
	VendorID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_optins_phone_vendor" json:"vendor_id"`
	OptedInAt   time.Time `gorm:"not null" json:"opted_in_at"`
	Source      string    `gorm:"type:varchar(20);not null" json:"source"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the CustomerOptIn model
func (CustomerOptIn) TableName() string {
	return "customer_opt_ins"
}
