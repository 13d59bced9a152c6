package offer

import (
	"time"

	offerModel "qr-offers/models/offer"
)

// CreateOfferRequest represents the request payload for creating a draft offer
type CreateOfferRequest struct {
	Title       string    `json:"title" validate:"required,min=2,max=255"`
	Description string    `json:"description" validate:"max=2000"`
	Category    string    `json:"category" validate:"required,min=2,max=100"`
	ExpiryDate  time.Time `json:"expiry_date" validate:"required"`
}

// PublishOfferRequest represents the request payload for publishing an offer
// to a set of target vendors
type PublishOfferRequest struct {
	VendorIDs []string `json:"vendor_ids" validate:"required,min=1,dive,uuid"`
}

// DecisionRequest represents a vendor's accept/reject response
type DecisionRequest struct {
	VendorID string `json:"vendor_id" validate:"required,uuid"`
	Decision string `json:"decision" validate:"required,oneof=accepted rejected"`
}

// SendToCustomersRequest triggers the fan-out of an accepted offer to a
// vendor's opted-in customers
type SendToCustomersRequest struct {
	VendorID string `json:"vendor_id" validate:"required,uuid"`
}

// DecisionCounts are the per-offer tallies derived from decision rows at
// read time
type DecisionCounts struct {
	Pending  int64 `json:"pending"`
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
}

// AdminOfferSummary is one offer plus its derived decision tallies
type AdminOfferSummary struct {
	Offer  offerModel.Offer `json:"offer"`
	Counts DecisionCounts   `json:"counts"`
}

// VendorOfferView is one offer as seen by a single vendor, with that
// vendor's decision state
type VendorOfferView struct {
	Offer     offerModel.Offer    `json:"offer"`
	Decision  offerModel.Decision `json:"decision"`
	DecidedAt *time.Time          `json:"decided_at,omitempty"`
}
