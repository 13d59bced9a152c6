package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"qr-offers/httpServices/whatsapp"
	"qr-offers/logger"
	offerModel "qr-offers/models/offer"
	optinModel "qr-offers/models/optin"
	otpModel "qr-offers/models/otp"
	vendorModel "qr-offers/models/vendor"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionTTL is the fixed OTP session lifetime
const SessionTTL = 10 * time.Minute

var (
	ErrNotFound       = errors.New("otp session not found")
	ErrVendorNotFound = errors.New("vendor not found")
	ErrOfferNotFound  = errors.New("offer not found")
	ErrExpired        = errors.New("otp has expired")
	ErrMismatch       = errors.New("otp code does not match")
	ErrBlocked        = errors.New("otp verification is blocked due to too many failed attempts")
)

// Service owns OTP sessions and customer opt-ins
type Service struct {
	DB       *gorm.DB
	Notifier whatsapp.Notifier
}

// NewOTPService creates a new OTP service
func NewOTPService(db *gorm.DB, notifier whatsapp.Notifier) *Service {
	return &Service{DB: db, Notifier: notifier}
}

// GenerateOTP generates a random 6-digit OTP
func (s *Service) GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Issue creates a new OTP session for a (phone, vendor, offer) tuple.
// Any unexpired issued session for the same tuple is superseded first so a
// stale code cannot remain valid in parallel.
func (s *Service) Issue(customerName, phoneNumber, vendorID, offerID string) (*otpModel.OTPSession, error) {
	var v vendorModel.Vendor
	if err := s.DB.First(&v, "id = ?", vendorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("failed to look up vendor: %w", err)
	}
	var o offerModel.Offer
	if err := s.DB.First(&o, "id = ?", offerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to look up offer: %w", err)
	}

	otpCode, err := s.GenerateOTP()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP: %w", err)
	}

	now := time.Now()
	session := &otpModel.OTPSession{
		SessionID:    uuid.NewString(),
		PhoneNumber:  phoneNumber,
		CustomerName: customerName,
		VendorID:     vendorID,
		OfferID:      offerID,
		OTPCode:      otpCode,
		VerifyStatus: otpModel.VerifyStatusIssued,
		MaxRetries:   3,
		IssuedAt:     now,
		ExpiresAt:    now.Add(SessionTTL),
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		// Supersede any still-issued session for the same tuple
		if err := tx.Model(&otpModel.OTPSession{}).
			Where("phone_number = ? AND vendor_id = ? AND offer_id = ? AND verify_status = ?",
				phoneNumber, vendorID, offerID, otpModel.VerifyStatusIssued).
			Update("verify_status", otpModel.VerifyStatusExpired).Error; err != nil {
			return fmt.Errorf("failed to supersede existing sessions: %w", err)
		}

		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("failed to create OTP session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Delivery failure does not invalidate the session; the code still
	// works for testing and dev-mode responses.
	message := fmt.Sprintf("Your code for %s is %s. It expires in 10 minutes.", o.Title, otpCode)
	if err := s.Notifier.SendMessage(phoneNumber, message); err != nil {
		logger.Error(fmt.Sprintf("Failed to deliver OTP to %s", phoneNumber), err)
	}

	return session, nil
}

// Verify checks the submitted code against the latest issued session for the
// tuple. Expiry is re-checked here: a session past its TTL fails even if the
// code matches. Mismatches count toward the attempt lockout.
func (s *Service) Verify(phoneNumber, otpCode, vendorID, offerID string) (*otpModel.OTPSession, error) {
	var session otpModel.OTPSession
	err := s.DB.Where("phone_number = ? AND vendor_id = ? AND offer_id = ? AND verify_status = ?",
		phoneNumber, vendorID, offerID, otpModel.VerifyStatusIssued).
		Order("issued_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find OTP session: %w", err)
	}

	if session.IsCurrentlyBlocked() {
		return nil, ErrBlocked
	}

	if session.IsExpired() {
		if err := s.DB.Model(&session).Update("verify_status", otpModel.VerifyStatusExpired).Error; err != nil {
			logger.Error("Failed to mark expired OTP session", err)
		}
		return nil, ErrExpired
	}

	if session.OTPCode != otpCode {
		session.IncrementRetry()
		if err := s.DB.Save(&session).Error; err != nil {
			return nil, fmt.Errorf("failed to update retry count: %w", err)
		}
		if session.IsCurrentlyBlocked() {
			return nil, ErrBlocked
		}
		return nil, ErrMismatch
	}

	// One-shot transition; a racing verify on the same session loses here
	res := s.DB.Model(&otpModel.OTPSession{}).
		Where("session_id = ? AND verify_status = ?", session.SessionID, otpModel.VerifyStatusIssued).
		Update("verify_status", otpModel.VerifyStatusVerified)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to mark session verified: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	session.VerifyStatus = otpModel.VerifyStatusVerified
	return &session, nil
}

// Status returns the session's verify status, reporting expiry lazily.
func (s *Service) Status(sessionID string) (otpModel.VerifyStatus, error) {
	var session otpModel.OTPSession
	if err := s.DB.First(&session, "session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to find OTP session: %w", err)
	}

	if session.VerifyStatus == otpModel.VerifyStatusIssued && session.IsExpired() {
		return otpModel.VerifyStatusExpired, nil
	}
	return session.VerifyStatus, nil
}

// OptIn records a customer's registration for a vendor. Idempotent on
// (phone, vendor): a repeat opt-in refreshes the timestamp and source.
func (s *Service) OptIn(phoneNumber, vendorID, source string) (*optinModel.CustomerOptIn, error) {
	var v vendorModel.Vendor
	if err := s.DB.First(&v, "id = ?", vendorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("failed to look up vendor: %w", err)
	}

	record := &optinModel.CustomerOptIn{
		PhoneNumber: phoneNumber,
		VendorID:    vendorID,
		OptedInAt:   time.Now(),
		Source:      source,
	}

	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone_number"}, {Name: "vendor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"opted_in_at", "source"}),
	}).Create(record).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert opt-in: %w", err)
	}

	return record, nil
}
