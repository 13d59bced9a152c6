package redemption

import (
	"errors"
	"fmt"

	"qr-offers/logger"
	redemptionService "qr-offers/services/redemption"
	"qr-offers/types"
	redemptionTypes "qr-offers/types/redemption"
	"qr-offers/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// Controller handles redemption HTTP requests
type Controller struct {
	DB                *gorm.DB
	Logger            *logger.AsyncLogger
	RedemptionService *redemptionService.Service
}

// NewRedemptionController creates a new redemption controller
func NewRedemptionController(db *gorm.DB, asyncLogger *logger.AsyncLogger) *Controller {
	return &Controller{
		DB:                db,
		Logger:            asyncLogger,
		RedemptionService: redemptionService.NewRedemptionService(db),
	}
}

func respondErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, redemptionService.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status: fiber.StatusNotFound, Message: "Redemption code not found", ErrorKind: "not_found",
		})
	case errors.Is(err, redemptionService.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status: fiber.StatusNotFound, Message: "OTP session not found", ErrorKind: "not_found",
		})
	case errors.Is(err, redemptionService.ErrSessionNotVerified):
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "OTP session is not verified", ErrorKind: "session_not_verified",
		})
	case errors.Is(err, redemptionService.ErrVendorMismatch):
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status: fiber.StatusConflict, Message: "This code belongs to a different vendor", ErrorKind: "vendor_mismatch",
		})
	case errors.Is(err, redemptionService.ErrAlreadyRedeemed):
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status: fiber.StatusConflict, Message: "Code has already been redeemed", ErrorKind: "already_redeemed",
		})
	case errors.Is(err, redemptionService.ErrExpired):
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Redemption has expired", ErrorKind: "expired",
		})
	default:
		logger.Error("Redemption operation failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status: fiber.StatusInternalServerError, Message: "Internal server error",
		})
	}
}

// IssueCode mints a single-use redemption code from a verified OTP session
func (rc *Controller) IssueCode(c *fiber.Ctx) error {
	var req redemptionTypes.IssueCodeRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Invalid request body", ErrorKind: "validation_error",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Session id is required", ErrorKind: "validation_error",
		})
	}

	record, err := rc.RedemptionService.IssueCode(req.SessionID)
	if err != nil {
		return respondErr(c, err)
	}

	logger.Success(fmt.Sprintf("Redemption code issued for session %s", req.SessionID))
	rc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Redemption code issued",
		Data: fiber.Map{
			"redemption_id": record.ID,
			"code":          record.Code,
			"status":        record.Status,
		},
	})
}

// VerifyCode shows the vendor what they are about to confirm; read-only
func (rc *Controller) VerifyCode(c *fiber.Ctx) error {
	var req redemptionTypes.VerifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Invalid request body", ErrorKind: "validation_error",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Code and vendor id are required", ErrorKind: "validation_error",
		})
	}

	details, err := rc.RedemptionService.VerifyCode(req.Code, req.VendorID)
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Redemption code verified",
		Data:    details,
	})
}

// Confirm performs the one-time pending to redeemed transition by code
func (rc *Controller) Confirm(c *fiber.Ctx) error {
	var req redemptionTypes.ConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Invalid request body", ErrorKind: "validation_error",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Code and vendor id are required", ErrorKind: "validation_error",
		})
	}

	if err := rc.RedemptionService.Confirm(req.Code, req.VendorID); err != nil {
		return respondErr(c, err)
	}

	logger.Success(fmt.Sprintf("Redemption %s confirmed by vendor %s", req.Code, req.VendorID))
	rc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Redemption confirmed",
	})
}

// VerifyOTPForVendor is the alternate counter flow keyed by the customer's
// OTP instead of a redemption code
func (rc *Controller) VerifyOTPForVendor(c *fiber.Ctx) error {
	var req redemptionTypes.VerifyOTPForVendorRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Invalid request body", ErrorKind: "validation_error",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "OTP and vendor id are required", ErrorKind: "validation_error",
		})
	}

	details, err := rc.RedemptionService.VerifyOTPForVendor(req.OTPCode, req.VendorID)
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Customer verified",
		Data:    details,
	})
}

// ConfirmByRedemptionID confirms by record id; same transition as Confirm
func (rc *Controller) ConfirmByRedemptionID(c *fiber.Ctx) error {
	var req redemptionTypes.ConfirmByIDRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Invalid request body", ErrorKind: "validation_error",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Redemption id and vendor id are required", ErrorKind: "validation_error",
		})
	}

	if err := rc.RedemptionService.ConfirmByRedemptionID(req.RedemptionID, req.VendorID); err != nil {
		return respondErr(c, err)
	}

	logger.Success(fmt.Sprintf("Redemption #%d confirmed by vendor %s", req.RedemptionID, req.VendorID))
	rc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Redemption confirmed",
	})
}
