package utils

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"qr-offers/constants"
	"qr-offers/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

// ValidatePhoneNumber accepts E.164-ish numbers: optional leading +,
// 10 to 15 digits.
func ValidatePhoneNumber(phone string) bool {
	return phonePattern.MatchString(strings.TrimSpace(phone))
}

// VendorTokens are the session tokens issued when a vendor claims a QR token
type VendorTokens struct {
	AccessToken  string
	RefreshToken string
}

// GenerateVendorTokens mints HS256 access and refresh tokens for a vendor.
func GenerateVendorTokens(vendorID string) (*VendorTokens, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}

	now := time.Now()
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"vendor_id":   vendorID,
		"permissions": []string{constants.PermVendorFull},
		"typ":         "access",
		"iat":         now.Unix(),
		"exp":         now.Add(24 * time.Hour).Unix(),
	})
	accessToken, err := access.SignedString([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"vendor_id": vendorID,
		"typ":       "refresh",
		"iat":       now.Unix(),
		"exp":       now.Add(7 * 24 * time.Hour).Unix(),
	})
	refreshToken, err := refresh.SignedString([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &VendorTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// CreateSanitizedLogEntry snapshots a request/response pair for the async
// logger. Large bodies are elided; the audit trail needs the shape of the
// call, not payload dumps.
func CreateSanitizedLogEntry(c *fiber.Ctx) types.LogEntry {
	method := string([]byte(c.Method()))
	url := string([]byte(c.OriginalURL()))

	requestBody := string(append([]byte(nil), c.Body()...))
	if len(requestBody) > 4096 {
		requestBody = "[LARGE_REQUEST_BODY_ELIDED]"
	}
	responseBody := string(append([]byte(nil), c.Response().Body()...))
	if len(responseBody) > 4096 {
		responseBody = "[LARGE_RESPONSE_BODY_ELIDED]"
	}

	requestHeaders := make([]byte, len(c.Request().Header.Header()))
	copy(requestHeaders, c.Request().Header.Header())

	responseHeaders := make([]byte, len(c.Response().Header.Header()))
	copy(responseHeaders, c.Response().Header.Header())

	actor := "anonymous"
	if vendorID, ok := c.Locals("vendor_id").(string); ok && vendorID != "" {
		actor = "vendor:" + vendorID
	} else if claims, ok := c.Locals("user").(jwt.MapClaims); ok {
		if _, isAdmin := claims["permissions"]; isAdmin {
			actor = "admin"
		}
	}

	return types.LogEntry{
		Method:          method,
		URL:             url,
		Actor:           actor,
		RequestBody:     requestBody,
		ResponseBody:    responseBody,
		RequestHeaders:  string(requestHeaders),
		ResponseHeaders: string(responseHeaders),
		StatusCode:      c.Response().StatusCode(),
		CreatedAt:       time.Now(),
	}
}
