package otp

import (
	"time"
)

// VerifyStatus represents the verification state of an OTP session
type VerifyStatus string

const (
	VerifyStatusIssued   VerifyStatus = "issued"
	VerifyStatusVerified VerifyStatus = "verified"
	VerifyStatusExpired  VerifyStatus = "expired"
)

func (vs VerifyStatus) String() string {
	return string(vs)
}

func (vs VerifyStatus) IsValid() bool {
	switch vs {
	case VerifyStatusIssued, VerifyStatusVerified, VerifyStatusExpired:
		return true
	default:
		return false
	}
}

// OTPSession is a short-lived one-time code bound to a
// (customer phone, vendor, offer) tuple. At most one issued session exists
// per tuple; a new request supersedes the prior one.
type OTPSession struct {
	SessionID     string       `gorm:"type:uuid;primaryKey;column:session_id" json:"session_id"`
	PhoneNumber   string       `gorm:"type:varchar(20);not null;index" json:"phone_number"`
	CustomerName  string       `gorm:"type:varchar(255);not null" json:"customer_name"`
	VendorID      string       `gorm:"type:uuid;not null;index" json:"vendor_id"`
	OfferID       string       `gorm:"type:uuid;not null;index" json:"offer_id"`
	OTPCode       string       `gorm:"column:otp_code;type:varchar(6);not null" json:"-"`
	VerifyStatus  VerifyStatus `gorm:"type:varchar(20);not null;default:'issued'" json:"verify_status"`
	RetryCount    int          `gorm:"default:0" json:"retry_count"`
	MaxRetries    int          `gorm:"default:3" json:"max_retries"`
	IsBlocked     bool         `gorm:"default:false" json:"is_blocked"`
	BlockedUntil  *time.Time   `gorm:"index" json:"blocked_until,omitempty"`
	LastAttemptAt *time.Time   `json:"last_attempt_at,omitempty"`
	IssuedAt      time.Time    `gorm:"not null" json:"issued_at"`
	ExpiresAt     time.Time    `gorm:"not null" json:"expires_at"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the OTPSession model
func (OTPSession) TableName() string {
	return "otp_sessions"
}

// IsExpired checks if the session has passed its TTL
func (s *OTPSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsActive checks if the session can still be verified
func (s *OTPSession) IsActive() bool {
	return s.VerifyStatus == VerifyStatusIssued && !s.IsExpired()
}

// IsCurrentlyBlocked checks if verification is blocked due to too many
// failed attempts
func (s *OTPSession) IsCurrentlyBlocked() bool {
	if !s.IsBlocked {
		return false
	}

	// Nil BlockedUntil means permanently blocked
	if s.BlockedUntil == nil {
		return true
	}

	if time.Now().After(*s.BlockedUntil) {
		return false
	}

	return true
}

// IncrementRetry increments the retry count and blocks if max retries exceeded
func (s *OTPSession) IncrementRetry() {
	now := time.Now()
	s.RetryCount++
	s.LastAttemptAt = &now

	if s.RetryCount >= s.MaxRetries {
		s.IsBlocked = true
		// Block for 15 minutes after max retries
		blockUntil := now.Add(15 * time.Minute)
		s.BlockedUntil = &blockUntil
	}
}

// Reset resets the retry state (used when unblocking)
func (s *OTPSession) Reset() {
	s.RetryCount = 0
	s.IsBlocked = false
	s.BlockedUntil = nil
	s.LastAttemptAt = nil
}
