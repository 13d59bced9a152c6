package token

// GenerateBatchRequest represents the request payload for generating a batch
// of QR tokens
type GenerateBatchRequest struct {
	Count         int    `json:"count" validate:"required,min=1,max=1000"`
	LayoutVariant string `json:"layout_variant" validate:"required,min=1,max=50"`
}

// GeneratedToken is one token of a generated batch, including its rendered
// QR image
type GeneratedToken struct {
	ID            string `json:"id"`
	LayoutVariant string `json:"layout_variant"`
	ClaimURL      string `json:"claim_url"`
	QRImage       string `json:"qr_image"`
}

// ValidateTokenResponse represents the read-only token lookup result
type ValidateTokenResponse struct {
	Valid    bool   `json:"valid"`
	Claimed  bool   `json:"claimed"`
	VendorID string `json:"vendor_id,omitempty"`
}

// ClaimTokenRequest represents the vendor registration payload that consumes
// one unclaimed token
type ClaimTokenRequest struct {
	TokenID     string `json:"token_id" validate:"required,uuid"`
	Name        string `json:"name" validate:"required,min=2,max=255"`
	Category    string `json:"category" validate:"required,min=2,max=100"`
	City        string `json:"city" validate:"required,min=2,max=100"`
	ContactInfo string `json:"contact_info" validate:"required,min=5,max=255"`
}

// ClaimTokenResponse carries the new vendor identity and its session tokens
type ClaimTokenResponse struct {
	VendorID     string `json:"vendor_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
