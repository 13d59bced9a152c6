package utils

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// ClaimURL builds the public claim URL encoded into a token's QR image.
func ClaimURL(tokenID string) string {
	base := strings.TrimRight(os.Getenv("CLAIM_BASE_URL"), "/")
	if base == "" {
		base = "https://qr-offers.local"
	}
	return base + "/claim?token=" + tokenID
}

// EncodeClaimQR renders the claim URL as a 256px PNG data URI.
func EncodeClaimQR(claimURL string) (string, error) {
	png, err := qrcode.Encode(claimURL, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
