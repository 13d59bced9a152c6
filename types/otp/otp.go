package otp

// IssueOTPRequest represents the request payload for issuing an OTP session
type IssueOTPRequest struct {
	CustomerName string `json:"customer_name" validate:"required,min=2,max=255"`
	PhoneNumber  string `json:"phone_number" validate:"required,min=10,max=20"`
	VendorID     string `json:"vendor_id" validate:"required,uuid"`
	OfferID      string `json:"offer_id" validate:"required,uuid"`
}

// VerifyOTPRequest represents the request payload for verifying an OTP
type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=10,max=20"`
	OTPCode     string `json:"otp_code" validate:"required,len=6"`
	VendorID    string `json:"vendor_id" validate:"required,uuid"`
	OfferID     string `json:"offer_id" validate:"required,uuid"`
}

// OptInRequest represents a customer opt-in for a vendor
type OptInRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=10,max=20"`
	VendorID    string `json:"vendor_id" validate:"required,uuid"`
	Source      string `json:"source" validate:"required,oneof=qr_scan join"`
}

// IssueOTPResponse represents the response for an issued OTP session.
// OTPCode is only populated outside production.
type IssueOTPResponse struct {
	SessionID string `json:"session_id"`
	ExpiresAt string `json:"expires_at"`
	OTPCode   string `json:"otp_code,omitempty"`
}
