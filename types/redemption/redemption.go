package redemption

import (
	"time"

	redemptionModel "qr-offers/models/redemption"
)

// IssueCodeRequest mints a redemption code from a verified OTP session
type IssueCodeRequest struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

// VerifyCodeRequest represents the vendor-side read before confirming
type VerifyCodeRequest struct {
	Code     string `json:"code" validate:"required,min=4,max=64"`
	VendorID string `json:"vendor_id" validate:"required,uuid"`
}

// ConfirmRequest represents the vendor's confirmation by code
type ConfirmRequest struct {
	Code     string `json:"code" validate:"required,min=4,max=64"`
	VendorID string `json:"vendor_id" validate:"required,uuid"`
}

// VerifyOTPForVendorRequest is the alternate vendor path keyed by the
// customer's OTP instead of a redemption code
type VerifyOTPForVendorRequest struct {
	OTPCode  string `json:"otp_code" validate:"required,len=6"`
	VendorID string `json:"vendor_id" validate:"required,uuid"`
}

// ConfirmByIDRequest confirms a redemption by its record id
type ConfirmByIDRequest struct {
	RedemptionID uint   `json:"redemption_id" validate:"required"`
	VendorID     string `json:"vendor_id" validate:"required,uuid"`
}

// Details is what the vendor sees before confirming a redemption
type Details struct {
	RedemptionID  uint                   `json:"redemption_id"`
	Code          string                 `json:"code"`
	Status        redemptionModel.Status `json:"status"`
	CustomerName  string                 `json:"customer_name"`
	CustomerPhone string                 `json:"customer_phone"`
	OfferID       string                 `json:"offer_id"`
	OfferTitle    string                 `json:"offer_title"`
	ExpiryDate    time.Time              `json:"expiry_date"`
	CreatedAt     time.Time              `json:"created_at"`
	RedeemedAt    *time.Time             `json:"redeemed_at,omitempty"`
}
