package redemption

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	offerModel "qr-offers/models/offer"
	otpModel "qr-offers/models/otp"
	redemptionModel "qr-offers/models/redemption"
	redemptionTypes "qr-offers/types/redemption"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("redemption record not found")
	ErrSessionNotFound    = errors.New("otp session not found")
	ErrSessionNotVerified = errors.New("otp session is not verified")
	ErrVendorMismatch     = errors.New("redemption belongs to a different vendor")
	ErrAlreadyRedeemed    = errors.New("redemption code already redeemed")
	ErrExpired            = errors.New("redemption has expired")
)

// Service owns redemption records: minting single-use codes from verified
// OTP sessions and recording their one-time confirmation.
type Service struct {
	DB *gorm.DB
}

// NewRedemptionService creates a new redemption service
func NewRedemptionService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// generateCode mints a candidate code; global uniqueness is enforced by the
// unique column, not hoped for; IssueCode retries on collision.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("RDM-%d-%06d", time.Now().UnixMilli(), n.Int64()), nil
}

// IssueCode creates one redemption record for a verified session. Calling it
// again for the same session returns the existing record instead of minting
// a second single-use code.
func (s *Service) IssueCode(sessionID string) (*redemptionModel.RedemptionRecord, error) {
	var session otpModel.OTPSession
	if err := s.DB.First(&session, "session_id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find OTP session: %w", err)
	}
	if session.VerifyStatus != otpModel.VerifyStatusVerified {
		return nil, ErrSessionNotVerified
	}

	var existing redemptionModel.RedemptionRecord
	err := s.DB.First(&existing, "session_id = ?", sessionID).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing redemption: %w", err)
	}

	for attempt := 0; attempt < 3; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate code: %w", err)
		}

		record := &redemptionModel.RedemptionRecord{
			Code:          code,
			SessionID:     sessionID,
			VendorID:      session.VendorID,
			OfferID:       session.OfferID,
			CustomerPhone: session.PhoneNumber,
			CustomerName:  session.CustomerName,
			Status:        redemptionModel.StatusPending,
		}

		err = s.DB.Create(record).Error
		if err == nil {
			return record, nil
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Either a code collision (retry with a new code) or a
			// concurrent issue for the same session (return theirs)
			if findErr := s.DB.First(&existing, "session_id = ?", sessionID).Error; findErr == nil {
				return &existing, nil
			}
			continue
		}
		return nil, fmt.Errorf("failed to create redemption record: %w", err)
	}

	return nil, errors.New("failed to mint a unique redemption code")
}

// loadDetails assembles the vendor-facing view, deriving expiry from the
// linked offer rather than the record.
func (s *Service) loadDetails(record *redemptionModel.RedemptionRecord) (*redemptionTypes.Details, error) {
	var o offerModel.Offer
	if err := s.DB.First(&o, "id = ?", record.OfferID).Error; err != nil {
		return nil, fmt.Errorf("failed to load offer: %w", err)
	}

	status := record.Status
	if status == redemptionModel.StatusPending && o.IsExpired() {
		status = redemptionModel.StatusExpired
	}

	return &redemptionTypes.Details{
		RedemptionID:  record.ID,
		Code:          record.Code,
		Status:        status,
		CustomerName:  record.CustomerName,
		CustomerPhone: record.CustomerPhone,
		OfferID:       o.ID,
		OfferTitle:    o.Title,
		ExpiryDate:    o.ExpiryDate,
		CreatedAt:     record.CreatedAt,
		RedeemedAt:    record.RedeemedAt,
	}, nil
}

// checkState validates vendor ownership and derived expiry for a record.
func (s *Service) checkState(record *redemptionModel.RedemptionRecord, vendorID string) error {
	if record.VendorID != vendorID {
		return ErrVendorMismatch
	}
	if record.Status == redemptionModel.StatusRedeemed {
		return ErrAlreadyRedeemed
	}
	if record.Status == redemptionModel.StatusExpired {
		return ErrExpired
	}

	var o offerModel.Offer
	if err := s.DB.First(&o, "id = ?", record.OfferID).Error; err != nil {
		return fmt.Errorf("failed to load offer: %w", err)
	}
	if o.IsExpired() {
		return ErrExpired
	}

	return nil
}

// VerifyCode is the vendor-side read before confirming; it never transitions
// state.
func (s *Service) VerifyCode(code, vendorID string) (*redemptionTypes.Details, error) {
	var record redemptionModel.RedemptionRecord
	if err := s.DB.First(&record, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find redemption: %w", err)
	}

	if err := s.checkState(&record, vendorID); err != nil {
		return nil, err
	}

	return s.loadDetails(&record)
}

// Confirm performs the single pending to redeemed transition for a code.
// The conditional update keyed on the code guarantees exactly one of any
// number of concurrent confirms succeeds.
func (s *Service) Confirm(code, vendorID string) error {
	var record redemptionModel.RedemptionRecord
	if err := s.DB.First(&record, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to find redemption: %w", err)
	}

	if err := s.checkState(&record, vendorID); err != nil {
		return err
	}

	now := time.Now()
	res := s.DB.Model(&redemptionModel.RedemptionRecord{}).
		Where("code = ? AND status = ?", code, redemptionModel.StatusPending).
		Updates(map[string]interface{}{
			"status":      redemptionModel.StatusRedeemed,
			"redeemed_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to confirm redemption: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyRedeemed
	}

	return nil
}

// VerifyOTPForVendor is the alternate vendor path: look the customer up by
// the OTP they are showing at the counter. The session must already be
// verified; a missing redemption record is minted on the spot so the vendor
// can confirm in one visit.
func (s *Service) VerifyOTPForVendor(otpCode, vendorID string) (*redemptionTypes.Details, error) {
	var session otpModel.OTPSession
	err := s.DB.Where("otp_code = ? AND vendor_id = ? AND verify_status = ?",
		otpCode, vendorID, otpModel.VerifyStatusVerified).
		Order("issued_at DESC").
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find OTP session: %w", err)
	}

	record, err := s.IssueCode(session.SessionID)
	if err != nil {
		return nil, err
	}

	if err := s.checkState(record, vendorID); err != nil && !errors.Is(err, ErrAlreadyRedeemed) {
		return nil, err
	}

	return s.loadDetails(record)
}

// ConfirmByRedemptionID confirms by record id. It funnels through Confirm so
// both entry points share the same one-shot transition.
func (s *Service) ConfirmByRedemptionID(redemptionID uint, vendorID string) error {
	var record redemptionModel.RedemptionRecord
	if err := s.DB.First(&record, "id = ?", redemptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to find redemption: %w", err)
	}

	return s.Confirm(record.Code, vendorID)
}
