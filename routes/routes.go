package routes

import (
	"qr-offers/constants"
	"qr-offers/controllers/offer"
	"qr-offers/controllers/otp"
	"qr-offers/controllers/redemption"
	"qr-offers/controllers/token"
	"qr-offers/httpServices/whatsapp"
	"qr-offers/logger"
	"qr-offers/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	notifier := whatsapp.NewClient()
	asyncLogger := logger.NewAsyncLogger(db)
	tokenController := token.NewTokenController(db, asyncLogger)
	offerController := offer.NewOfferController(db, asyncLogger, notifier)
	otpController := otp.NewOTPController(db, asyncLogger, notifier)
	redemptionController := redemption.NewRedemptionController(db, asyncLogger)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	// Health route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	/*=============================================================================
	| Token Routes
	===============================================================================*/
	api := app.Group("/api")
	tokenGroup := api.Group("/tokens")

	tokenGroup.Post("/generate", middleware.RequirePermissions(
		constants.PermAdminFull,
	), tokenController.GenerateBatch)

	// Scan landing page lookup and vendor self-registration are public
	tokenGroup.Get("/:id/validate", tokenController.Validate)
	tokenGroup.Post("/claim", tokenController.Claim)

	/*=============================================================================
	| Offer Routes
	===============================================================================*/
	offerGroup := api.Group("/offers")

	offerGroup.Post("/create", middleware.RequirePermissions(
		constants.PermAdminFull,
	), offerController.Create)

	offerGroup.Post("/:id/publish", middleware.RequirePermissions(
		constants.PermAdminFull,
	), offerController.Publish)

	offerGroup.Get("/admin", middleware.RequirePermissions(
		constants.PermAdminFull,
	), offerController.ListForAdmin)

	offerGroup.Post("/:id/decision", middleware.RequirePermissions(
		constants.PermVendorFull,
	), offerController.RecordDecision)

	offerGroup.Get("/vendor/:vendorId", middleware.RequirePermissions(
		constants.PermVendorFull,
	), offerController.ListForVendor)

	offerGroup.Post("/:id/send", middleware.RequirePermissions(
		constants.PermVendorFull,
	), offerController.SendToCustomers)

	/*=============================================================================
	| OTP Routes
	===============================================================================*/
	otpGroup := api.Group("/otp")

	// Public OTP routes (customers are not authenticated)
	otpGroup.Post("/issue", otpController.Issue)
	otpGroup.Post("/verify", otpController.Verify)
	otpGroup.Get("/status/:sessionId", otpController.Status)
	otpGroup.Post("/opt-in", otpController.OptIn)

	/*=============================================================================
	| Redemption Routes
	===============================================================================*/
	redemptionGroup := api.Group("/redemptions")

	// Customers fetch their single-use code after verifying their OTP
	redemptionGroup.Post("/issue", redemptionController.IssueCode)

	redemptionGroup.Post("/verify", middleware.RequirePermissions(
		constants.PermVendorFull,
	), redemptionController.VerifyCode)

	redemptionGroup.Post("/confirm", middleware.RequirePermissions(
		constants.PermVendorFull,
	), redemptionController.Confirm)

	redemptionGroup.Post("/verify-otp", middleware.RequirePermissions(
		constants.PermVendorFull,
	), redemptionController.VerifyOTPForVendor)

	redemptionGroup.Post("/confirm-by-id", middleware.RequirePermissions(
		constants.PermVendorFull,
	), redemptionController.ConfirmByRedemptionID)
}
