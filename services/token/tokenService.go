package token

import (
	"errors"
	"fmt"

	tokenModel "qr-offers/models/token"
	vendorModel "qr-offers/models/vendor"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxBatchSize bounds a single generation batch
const MaxBatchSize = 1000

var (
	ErrBatchSize      = errors.New("batch count out of bounds")
	ErrNotFound       = errors.New("token not found")
	ErrAlreadyClaimed = errors.New("token already claimed")
)

// Service owns QR token identity and the unclaimed to claimed transition
type Service struct {
	DB *gorm.DB
}

// NewTokenService creates a new token service
func NewTokenService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// GenerateBatch creates count tokens in unclaimed state.
func (s *Service) GenerateBatch(count int, layoutVariant string) ([]tokenModel.QRToken, error) {
	if count < 1 || count > MaxBatchSize {
		return nil, ErrBatchSize
	}

	tokens := make([]tokenModel.QRToken, count)
	for i := range tokens {
		tokens[i] = tokenModel.QRToken{
			ID:            uuid.NewString(),
			LayoutVariant: layoutVariant,
			ClaimStatus:   tokenModel.ClaimStatusUnclaimed,
		}
	}

	if err := s.DB.CreateInBatches(tokens, 100).Error; err != nil {
		return nil, fmt.Errorf("failed to create token batch: %w", err)
	}

	return tokens, nil
}

// ValidationResult is the read-only lookup result for a token
type ValidationResult struct {
	Valid    bool
	Claimed  bool
	VendorID string
}

// Validate looks up a token without mutating it.
func (s *Service) Validate(tokenID string) (*ValidationResult, error) {
	var t tokenModel.QRToken
	if err := s.DB.First(&t, "id = ?", tokenID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationResult{Valid: false}, nil
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	result := &ValidationResult{Valid: true, Claimed: t.IsClaimed()}
	if t.ClaimedByVendorID != nil {
		result.VendorID = *t.ClaimedByVendorID
	}
	return result, nil
}

// Claim atomically binds an unclaimed token to a new vendor. The vendor row
// and the token transition commit together; under concurrent claims on the
// same token exactly one caller wins, the rest get ErrAlreadyClaimed.
func (s *Service) Claim(tokenID string, v *vendorModel.Vendor) (*vendorModel.Vendor, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var t tokenModel.QRToken
		if err := tx.First(&t, "id = ?", tokenID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to look up token: %w", err)
		}
		if t.IsClaimed() {
			return ErrAlreadyClaimed
		}

		v.ID = uuid.NewString()
		v.QRTokenID = tokenID
		if err := tx.Create(v).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyClaimed
			}
			return fmt.Errorf("failed to create vendor: %w", err)
		}

		// Conditional update is the sole enforcement point of the
		// unique-claim invariant: a concurrent winner leaves zero rows
		// to update and the whole transaction rolls back.
		res := tx.Model(&tokenModel.QRToken{}).
			Where("id = ? AND claim_status = ?", tokenID, tokenModel.ClaimStatusUnclaimed).
			Updates(map[string]interface{}{
				"claim_status":         tokenModel.ClaimStatusClaimed,
				"claimed_by_vendor_id": v.ID,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to claim token: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyClaimed
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return v, nil
}
