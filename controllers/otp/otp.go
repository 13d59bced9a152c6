package otp

import (
	"errors"
	"fmt"
	"os"

	"qr-offers/httpServices/whatsapp"
	"qr-offers/logger"
	otpService "qr-offers/services/otp"
	"qr-offers/types"
	otpTypes "qr-offers/types/otp"
	"qr-offers/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// Controller handles OTP session and opt-in HTTP requests
type Controller struct {
	DB         *gorm.DB
	Logger     *logger.AsyncLogger
	OTPService *otpService.Service
}

// NewOTPController creates a new OTP controller
func NewOTPController(db *gorm.DB, asyncLogger *logger.AsyncLogger, notifier whatsapp.Notifier) *Controller {
	return &Controller{
		DB:         db,
		Logger:     asyncLogger,
		OTPService: otpService.NewOTPService(db, notifier),
	}
}

// Issue creates an OTP session for a customer requesting an offer at a
// vendor storefront
func (oc *Controller) Issue(c *fiber.Ctx) error {
	var req otpTypes.IssueOTPRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Invalid request body", ErrorKind: "validation_error",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Name, phone, vendor and offer are required", ErrorKind: "validation_error",
		})
	}
	if !utils.ValidatePhoneNumber(req.PhoneNumber) {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Invalid phone number", ErrorKind: "validation_error",
		})
	}

	session, err := oc.OTPService.Issue(req.CustomerName, req.PhoneNumber, req.VendorID, req.OfferID)
	if err != nil {
		switch {
		case errors.Is(err, otpService.ErrVendorNotFound):
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status: fiber.StatusNotFound, Message: "Vendor not found", ErrorKind: "not_found",
			})
		case errors.Is(err, otpService.ErrOfferNotFound):
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status: fiber.StatusNotFound, Message: "Offer not found", ErrorKind: "not_found",
			})
		default:
			logger.Error("Failed to issue OTP", err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Status: fiber.StatusInternalServerError, Message: "Failed to issue OTP",
			})
		}
	}

	resp := otpTypes.IssueOTPResponse{
		SessionID: session.SessionID,
		ExpiresAt: session.ExpiresAt.Format("2006-01-02 15:04:05"),
	}
	// Echo the code outside production so the UI can be exercised without
	// a messaging gateway
	if os.Getenv("APP_ENV") != "production" {
		resp.OTPCode = session.OTPCode
	}

	logger.Success(fmt.Sprintf("OTP issued for %s at vendor %s", req.PhoneNumber, req.VendorID))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "OTP sent successfully",
		Data:    resp,
	})
}

// Verify checks a submitted OTP code
func (oc *Controller) Verify(c *fiber.Ctx) error {
	var req otpTypes.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Invalid request body", ErrorKind: "validation_error",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Phone, OTP, vendor and offer are required", ErrorKind: "validation_error",
		})
	}

	session, err := oc.OTPService.Verify(req.PhoneNumber, req.OTPCode, req.VendorID, req.OfferID)
	if err != nil {
		switch {
		case errors.Is(err, otpService.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status: fiber.StatusNotFound, Message: "No active OTP found", ErrorKind: "not_found",
			})
		case errors.Is(err, otpService.ErrExpired):
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Status: fiber.StatusBadRequest, Message: "OTP has expired. Please request a new one.", ErrorKind: "expired",
			})
		case errors.Is(err, otpService.ErrMismatch):
			return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
				Status: fiber.StatusBadRequest, Message: "Invalid OTP", ErrorKind: "mismatch",
			})
		case errors.Is(err, otpService.ErrBlocked):
			return c.Status(fiber.StatusTooManyRequests).JSON(types.ApiResponse{
				Status: fiber.StatusTooManyRequests, Message: "Too many failed attempts. Try again later.", ErrorKind: "blocked",
			})
		default:
			logger.Error("Failed to verify OTP", err)
			return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
				Status: fiber.StatusInternalServerError, Message: "Internal server error",
			})
		}
	}

	logger.Success(fmt.Sprintf("OTP verified for session %s", session.SessionID))
	oc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "OTP verified successfully",
		Data: fiber.Map{
			"session_id":    session.SessionID,
			"verify_status": session.VerifyStatus,
		},
	})
}

// Status reports a session's verify status for pollers
func (oc *Controller) Status(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	status, err := oc.OTPService.Status(sessionID)
	if err != nil {
		if errors.Is(err, otpService.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status: fiber.StatusNotFound, Message: "Session not found", ErrorKind: "not_found",
			})
		}
		logger.Error("Failed to get OTP status", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status: fiber.StatusInternalServerError, Message: "Internal server error",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Session status retrieved",
		Data:    fiber.Map{"verify_status": status},
	})
}

// OptIn records a customer's registration for a vendor's messages
func (oc *Controller) OptIn(c *fiber.Ctx) error {
	var req otpTypes.OptInRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Invalid request body", ErrorKind: "validation_error",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Phone, vendor and source are required", ErrorKind: "validation_error",
		})
	}
	if !utils.ValidatePhoneNumber(req.PhoneNumber) {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Invalid phone number", ErrorKind: "validation_error",
		})
	}

	record, err := oc.OTPService.OptIn(req.PhoneNumber, req.VendorID, req.Source)
	if err != nil {
		if errors.Is(err, otpService.ErrVendorNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status: fiber.StatusNotFound, Message: "Vendor not found", ErrorKind: "not_found",
			})
		}
		logger.Error("Failed to record opt-in", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status: fiber.StatusInternalServerError, Message: "Failed to record opt-in",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Opt-in recorded successfully",
		Data:    record,
	})
}
