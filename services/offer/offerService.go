package offer

import (
	"errors"
	"fmt"
	"time"

	"qr-offers/httpServices/whatsapp"
	"qr-offers/logger"
	offerModel "qr-offers/models/offer"
	optinModel "qr-offers/models/optin"
	vendorModel "qr-offers/models/vendor"
	offerTypes "qr-offers/types/offer"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("offer not found")
	ErrVendorNotFound   = errors.New("vendor not found")
	ErrEmptySelection   = errors.New("vendor selection is empty")
	ErrAlreadyPublished = errors.New("offer already published")
	ErrNotPending       = errors.New("decision is not pending")
	ErrNotAccepted      = errors.New("vendor has not accepted this offer")
	ErrInvalidDecision  = errors.New("invalid decision value")
)

// Service owns the offer lifecycle and per-vendor decisions
type Service struct {
	DB       *gorm.DB
	Notifier whatsapp.Notifier
}

// NewOfferService creates a new offer service
func NewOfferService(db *gorm.DB, notifier whatsapp.Notifier) *Service {
	return &Service{DB: db, Notifier: notifier}
}

// Create creates a new offer in draft state.
func (s *Service) Create(title, description, category string, expiryDate time.Time) (*offerModel.Offer, error) {
	o := &offerModel.Offer{
		ID:              uuid.NewString(),
		Title:           title,
		Description:     description,
		Category:        category,
		ExpiryDate:      expiryDate,
		LifecycleStatus: offerModel.LifecycleStatusDraft,
	}

	if err := s.DB.Create(o).Error; err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}

	return o, nil
}

// Publish transitions draft to published exactly once and creates one pending
// decision row per target vendor. Republishing an already-published offer
// fails; it must not duplicate decision rows.
func (s *Service) Publish(offerID string, vendorIDs []string) error {
	if len(vendorIDs) == 0 {
		return ErrEmptySelection
	}

	// Dedupe so a repeated id cannot create two decision rows
	seen := make(map[string]bool, len(vendorIDs))
	targets := make([]string, 0, len(vendorIDs))
	for _, id := range vendorIDs {
		if !seen[id] {
			seen[id] = true
			targets = append(targets, id)
		}
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		var vendorCount int64
		if err := tx.Model(&vendorModel.Vendor{}).Where("id IN ?", targets).Count(&vendorCount).Error; err != nil {
			return fmt.Errorf("failed to check vendors: %w", err)
		}
		if vendorCount != int64(len(targets)) {
			return ErrVendorNotFound
		}

		now := time.Now()
		res := tx.Model(&offerModel.Offer{}).
			Where("id = ? AND lifecycle_status = ?", offerID, offerModel.LifecycleStatusDraft).
			Updates(map[string]interface{}{
				"lifecycle_status": offerModel.LifecycleStatusPublished,
				"published_at":     now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to publish offer: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			var o offerModel.Offer
			if err := tx.First(&o, "id = ?", offerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return fmt.Errorf("failed to look up offer: %w", err)
			}
			return ErrAlreadyPublished
		}

		decisions := make([]offerModel.VendorOfferDecision, len(targets))
		for i, vendorID := range targets {
			decisions[i] = offerModel.VendorOfferDecision{
				OfferID:  offerID,
				VendorID: vendorID,
				Decision: offerModel.DecisionPending,
			}
		}
		if err := tx.Create(&decisions).Error; err != nil {
			return fmt.Errorf("failed to create decision rows: %w", err)
		}

		return nil
	})
}

// RecordDecision applies a vendor's one-shot accept/reject. Only legal from
// pending; the conditional update makes a second decision lose regardless of
// interleaving.
func (s *Service) RecordDecision(offerID, vendorID string, decision offerModel.Decision) error {
	if !decision.IsTerminal() {
		return ErrInvalidDecision
	}

	now := time.Now()
	res := s.DB.Model(&offerModel.VendorOfferDecision{}).
		Where("offer_id = ? AND vendor_id = ? AND decision = ?", offerID, vendorID, offerModel.DecisionPending).
		Updates(map[string]interface{}{
			"decision":   decision,
			"decided_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to record decision: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var existing offerModel.VendorOfferDecision
		err := s.DB.First(&existing, "offer_id = ? AND vendor_id = ?", offerID, vendorID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to look up decision: %w", err)
		}
		return ErrNotPending
	}

	return nil
}

// ListForVendor returns every offer published to the vendor together with
// that vendor's decision state.
func (s *Service) ListForVendor(vendorID string) ([]offerTypes.VendorOfferView, error) {
	var decisions []offerModel.VendorOfferDecision
	if err := s.DB.Where("vendor_id = ?", vendorID).Order("created_at DESC").Find(&decisions).Error; err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}

	views := make([]offerTypes.VendorOfferView, 0, len(decisions))
	for _, d := range decisions {
		var o offerModel.Offer
		if err := s.DB.First(&o, "id = ?", d.OfferID).Error; err != nil {
			return nil, fmt.Errorf("failed to load offer %s: %w", d.OfferID, err)
		}
		views = append(views, offerTypes.VendorOfferView{
			Offer:     o,
			Decision:  d.Decision,
			DecidedAt: d.DecidedAt,
		})
	}

	return views, nil
}

// ListForAdmin returns all offers with decision tallies. Tallies are derived
// from the decision rows at read time, never stored.
func (s *Service) ListForAdmin() ([]offerTypes.AdminOfferSummary, error) {
	var offers []offerModel.Offer
	if err := s.DB.Order("created_at DESC").Find(&offers).Error; err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}

	summaries := make([]offerTypes.AdminOfferSummary, 0, len(offers))
	for _, o := range offers {
		counts, err := s.decisionCounts(o.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, offerTypes.AdminOfferSummary{Offer: o, Counts: *counts})
	}

	return summaries, nil
}

func (s *Service) decisionCounts(offerID string) (*offerTypes.DecisionCounts, error) {
	rows := []struct {
		Decision offerModel.Decision
		Total    int64
	}{}
	err := s.DB.Model(&offerModel.VendorOfferDecision{}).
		Select("decision, COUNT(*) AS total").
		Where("offer_id = ?", offerID).
		Group("decision").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to tally decisions: %w", err)
	}

	counts := &offerTypes.DecisionCounts{}
	for _, row := range rows {
		switch row.Decision {
		case offerModel.DecisionPending:
			counts.Pending = row.Total
		case offerModel.DecisionAccepted:
			counts.Accepted = row.Total
		case offerModel.DecisionRejected:
			counts.Rejected = row.Total
		}
	}
	return counts, nil
}

// SendToCustomers fans an accepted offer out to every opted-in customer of
// the vendor. Returns the number of messages handed to the notifier;
// individual delivery failures are logged and skipped, never retried and
// never rolled back.
func (s *Service) SendToCustomers(offerID, vendorID string) (int, error) {
	var o offerModel.Offer
	if err := s.DB.First(&o, "id = ?", offerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to look up offer: %w", err)
	}

	var d offerModel.VendorOfferDecision
	err := s.DB.First(&d, "offer_id = ? AND vendor_id = ?", offerID, vendorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotAccepted
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up decision: %w", err)
	}
	if d.Decision != offerModel.DecisionAccepted {
		return 0, ErrNotAccepted
	}

	var optIns []optinModel.CustomerOptIn
	if err := s.DB.Where("vendor_id = ?", vendorID).Find(&optIns).Error; err != nil {
		return 0, fmt.Errorf("failed to list opt-ins: %w", err)
	}

	message := fmt.Sprintf("%s: %s. Valid till %s.", o.Title, o.Description, o.ExpiryDate.Format("02 Jan 2006"))
	sent := 0
	for _, optIn := range optIns {
		if err := s.Notifier.SendMessage(optIn.PhoneNumber, message); err != nil {
			logger.Error(fmt.Sprintf("Failed to send offer %s to %s", offerID, optIn.PhoneNumber), err)
			continue
		}
		sent++
	}

	return sent, nil
}
