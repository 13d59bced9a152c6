package offer

import (
	"errors"
	"fmt"

	"qr-offers/httpServices/whatsapp"
	"qr-offers/logger"
	offerModel "qr-offers/models/offer"
	offerService "qr-offers/services/offer"
	"qr-offers/types"
	offerTypes "qr-offers/types/offer"
	"qr-offers/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var validate = validator.New()

// Controller handles offer lifecycle HTTP requests
type Controller struct {
	DB           *gorm.DB
	Logger       *logger.AsyncLogger
	OfferService *offerService.Service
}

// NewOfferController creates a new offer controller
func NewOfferController(db *gorm.DB, asyncLogger *logger.AsyncLogger, notifier whatsapp.Notifier) *Controller {
	return &Controller{
		DB:           db,
		Logger:       asyncLogger,
		OfferService: offerService.NewOfferService(db, notifier),
	}
}

func respondErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, offerService.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status: fiber.StatusNotFound, Message: "Offer not found", ErrorKind: "not_found",
		})
	case errors.Is(err, offerService.ErrVendorNotFound):
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status: fiber.StatusNotFound, Message: "One or more vendors not found", ErrorKind: "not_found",
		})
	case errors.Is(err, offerService.ErrEmptySelection):
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Vendor selection must not be empty", ErrorKind: "empty_selection",
		})
	case errors.Is(err, offerService.ErrAlreadyPublished):
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status: fiber.StatusConflict, Message: "Offer is already published", ErrorKind: "already_published",
		})
	case errors.Is(err, offerService.ErrNotPending):
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status: fiber.StatusConflict, Message: "Decision has already been recorded", ErrorKind: "not_pending",
		})
	case errors.Is(err, offerService.ErrNotAccepted):
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Status: fiber.StatusConflict, Message: "Vendor has not accepted this offer", ErrorKind: "not_accepted",
		})
	case errors.Is(err, offerService.ErrInvalidDecision):
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Decision must be accepted or rejected", ErrorKind: "validation_error",
		})
	default:
		logger.Error("Offer operation failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status: fiber.StatusInternalServerError, Message: "Internal server error",
		})
	}
}

// Create creates a draft offer
func (oc *Controller) Create(c *fiber.Ctx) error {
	var req offerTypes.CreateOfferRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Invalid request body", ErrorKind: "validation_error",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Offer fields are missing or invalid", ErrorKind: "validation_error",
		})
	}

	o, err := oc.OfferService.Create(req.Title, req.Description, req.Category, req.ExpiryDate)
	if err != nil {
		return respondErr(c, err)
	}

	logger.Success(fmt.Sprintf("Offer created: %s (%s)", o.Title, o.ID))

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Offer created successfully",
		Data:    o,
	})
}

// Publish publishes an offer to a non-empty set of vendors
func (oc *Controller) Publish(c *fiber.Ctx) error {
	offerID := c.Params("id")

	var req offerTypes.PublishOfferRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Invalid request body", ErrorKind: "validation_error",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Vendor selection must not be empty", ErrorKind: "empty_selection",
		})
	}

	if err := oc.OfferService.Publish(offerID, req.VendorIDs); err != nil {
		return respondErr(c, err)
	}

	logger.Success(fmt.Sprintf("Offer %s published to %d vendors", offerID, len(req.VendorIDs)))
	oc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Offer published successfully",
	})
}

// RecordDecision applies a vendor's one-shot accept/reject
func (oc *Controller) RecordDecision(c *fiber.Ctx) error {
	offerID := c.Params("id")

	var req offerTypes.DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Invalid request body", ErrorKind: "validation_error",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Decision must be accepted or rejected", ErrorKind: "validation_error",
		})
	}

	if err := oc.OfferService.RecordDecision(offerID, req.VendorID, offerModel.Decision(req.Decision)); err != nil {
		return respondErr(c, err)
	}

	logger.Success(fmt.Sprintf("Vendor %s decided %s on offer %s", req.VendorID, req.Decision, offerID))
	oc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Decision recorded successfully",
	})
}

// ListForVendor lists offers published to a vendor with decision state
func (oc *Controller) ListForVendor(c *fiber.Ctx) error {
	vendorID := c.Params("vendorId")

	views, err := oc.OfferService.ListForVendor(vendorID)
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Offers retrieved successfully",
		Data:    views,
	})
}

// ListForAdmin lists all offers with derived decision tallies
func (oc *Controller) ListForAdmin(c *fiber.Ctx) error {
	summaries, err := oc.OfferService.ListForAdmin()
	if err != nil {
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Offers retrieved successfully",
		Data:    summaries,
	})
}

// SendToCustomers fans an accepted offer out to a vendor's opted-in customers
func (oc *Controller) SendToCustomers(c *fiber.Ctx) error {
	offerID := c.Params("id")

	var req offerTypes.SendToCustomersRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Invalid request body", ErrorKind: "validation_error",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status: fiber.StatusBadRequest, Message: "Vendor id is required", ErrorKind: "validation_error",
		})
	}

	sent, err := oc.OfferService.SendToCustomers(offerID, req.VendorID)
	if err != nil {
		return respondErr(c, err)
	}

	logger.Success(fmt.Sprintf("Offer %s sent to %d customers of vendor %s", offerID, sent, req.VendorID))
	oc.Logger.Log(utils.CreateSanitizedLogEntry(c))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Offer sent to customers",
		Data:    fiber.Map{"messages_sent_count": sent},
	})
}
