package token

import (
	"errors"
	"fmt"

	"qr-offers/logger"
	vendorModel "qr-offers/models/vendor"
	tokenService "qr-offers/services/token"
	"qr-offers/types"
	tokenTypes "qr-offers/types/token"
	"qr-offers/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// Controller handles QR token HTTP requests
type Controller struct {
	DB           *gorm.DB
	Logger       *logger.AsyncLogger
	TokenService *tokenService.Service
}

// NewTokenController creates a new token controller
func NewTokenController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{
		DB:           db,
		Logger:       asyncLogger,
		TokenService: tokenService.NewTokenService(db),
	}
}

// GenerateBatch creates a bounded batch of unclaimed tokens with QR images
func (tc *Controller) GenerateBatch(c *fiber.Ctx) error {
	var req tokenTypes.GenerateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:    fiber.StatusBadRequest,
			Message:   "Invalid request body",
			ErrorKind: "validation_error",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:    fiber.StatusBadRequest,
			Message:   "Count must be between 1 and 1000 and layout variant is required",
			ErrorKind: "count_out_of_bounds",
		})
	}

	tokens, err := tc.TokenService.GenerateBatch(req.Count, req.LayoutVariant)
	if err != nil {
		if errors.Is(err, tokenService.ErrBatchSize) {
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Status:    fiber.StatusBadRequest,
				Message:   "Count must be between 1 and 1000",
				ErrorKind: "count_out_of_bounds",
			})
		}
		logger.Error("Failed to generate token batch", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to generate token batch",
		})
	}

	generated := make([]tokenTypes.GeneratedToken, 0, len(tokens))
	for _, t := range tokens {
		claimURL := utils.ClaimURL(t.ID)
		image, err := utils.EncodeClaimQR(claimURL)
		if err != nil {
			logger.Error("Failed to render QR image for token "+t.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Status:  fiber.StatusInternalServerError,
				Message: "Failed to render QR images",
			})
		}
		generated = append(generated, tokenTypes.GeneratedToken{
			ID:            t.ID,
			LayoutVariant: t.LayoutVariant,
			ClaimURL:      claimURL,
			QRImage:       image,
		})
	}

	logger.Success(fmt.Sprintf("Generated %d tokens with layout %s", len(generated), req.LayoutVariant))
	tc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Token batch generated successfully",
		Data:    generated,
	})
}

// Validate is the read-only token lookup used by the scan landing page
func (tc *Controller) Validate(c *fiber.Ctx) error {
	tokenID := c.Params("id")
	if tokenID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:    fiber.StatusBadRequest,
			Message:   "Token id is required",
			ErrorKind: "validation_error",
		})
	}

	result, err := tc.TokenService.Validate(tokenID)
	if err != nil {
		logger.Error("Failed to validate token", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	if !result.Valid {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:    fiber.StatusNotFound,
			Message:   "Token not found",
			ErrorKind: "not_found",
			Data:      tokenTypes.ValidateTokenResponse{Valid: false},
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Token validated",
		Data: tokenTypes.ValidateTokenResponse{
			Valid:    true,
			Claimed:  result.Claimed,
			VendorID: result.VendorID,
		},
	})
}

// Claim registers a vendor by consuming exactly one unclaimed token and
// returns the vendor's session tokens
func (tc *Controller) Claim(c *fiber.Ctx) error {
	var req tokenTypes.ClaimTokenRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:    fiber.StatusBadRequest,
			Message:   "Invalid request body",
			ErrorKind: "validation_error",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:    fiber.StatusBadRequest,
			Message:   "Vendor registration fields are missing or invalid",
			ErrorKind: "validation_error",
		})
	}

	v := &vendorModel.Vendor{
		Name:        req.Name,
		Category:    req.Category,
		City:        req.City,
		ContactInfo: req.ContactInfo,
	}

	claimed, err := tc.TokenService.Claim(req.TokenID, v)
	if err != nil {
		switch {
		case errors.Is(err, tokenService.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:    fiber.StatusNotFound,
				Message:   "Token not found",
				ErrorKind: "not_found",
			})
		case errors.Is(err, tokenService.ErrAlreadyClaimed):
			return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
				Status:    fiber.StatusConflict,
				Message:   "Token has already been claimed",
				ErrorKind: "already_claimed",
			})
		default:
			logger.Error("Failed to claim token", err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Status:  fiber.StatusInternalServerError,
				Message: "Failed to claim token",
			})
		}
	}

	sessionTokens, err := utils.GenerateVendorTokens(claimed.ID)
	if err != nil {
		logger.Error("Failed to issue vendor session tokens", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Vendor registered but failed to issue session tokens",
		})
	}

	logger.Success(fmt.Sprintf("Token %s claimed by vendor %s (%s)", req.TokenID, claimed.ID, claimed.Name))
	tc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Vendor registered successfully",
		Token:   sessionTokens.AccessToken,
		Data: tokenTypes.ClaimTokenResponse{
			VendorID:     claimed.ID,
			AccessToken:  sessionTokens.AccessToken,
			RefreshToken: sessionTokens.RefreshToken,
		},
	})
}
