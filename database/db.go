package database

import (
	"fmt"
	"os"

	"qr-offers/logger"
	logModel "qr-offers/models/log"
	offerModel "qr-offers/models/offer"
	optinModel "qr-offers/models/optin"
	otpModel "qr-offers/models/otp"
	redemptionModel "qr-offers/models/redemption"
	tokenModel "qr-offers/models/token"
	vendorModel "qr-offers/models/vendor"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB initializes the database connection with auto migration and indexing
func InitDB() (*gorm.DB, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", err)
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	user := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE")

	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, database, sslmode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := autoMigrate(); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	if err := createForeignKeyConstraints(); err != nil {
		logger.Error("Failed to create foreign key constraints", err)
		return nil, err
	}
	logger.Success("All foreign key constraints created successfully")

	if err := createIndexes(); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}
	logger.Success("All indexes created successfully")

	return DB, nil
}

// autoMigrate runs auto migration for all models in dependency order
func autoMigrate() error {
	// Stage 1: entities without foreign references
	stage1Models := []interface{}{
		&tokenModel.QRToken{},
		&offerModel.Offer{},
	}

	for _, model := range stage1Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 2: entities referencing stage 1
	stage2Models := []interface{}{
		&vendorModel.Vendor{},
		&offerModel.VendorOfferDecision{},
		&optinModel.CustomerOptIn{},
	}

	for _, model := range stage2Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 3: session and redemption state, logging
	remainingModels := []interface{}{
		&otpModel.OTPSession{},
		&redemptionModel.RedemptionRecord{},
		&logModel.Log{},
	}

	for _, model := range remainingModels {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	return nil
}

// createIndexes creates additional indexes for better performance
func createIndexes() error {
	// Token indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_qr_tokens_claim_status ON qr_tokens(claim_status)").Error; err != nil {
		return fmt.Errorf("failed to create token claim_status index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_qr_tokens_layout_variant ON qr_tokens(layout_variant)").Error; err != nil {
		return fmt.Errorf("failed to create token layout_variant index: %w", err)
	}

	// Offer indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_offers_lifecycle_status ON offers(lifecycle_status)").Error; err != nil {
		return fmt.Errorf("failed to create offer lifecycle_status index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_offers_expiry_date ON offers(expiry_date)").Error; err != nil {
		return fmt.Errorf("failed to create offer expiry_date index: %w", err)
	}
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_decisions_vendor_id ON vendor_offer_decisions(vendor_id)").Error; err != nil {
		return fmt.Errorf("failed to create decision vendor_id index: %w", err)
	}

	// Opt-in indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_optins_vendor_id ON customer_opt_ins(vendor_id)").Error; err != nil {
		return fmt.Errorf("failed to create opt-in vendor_id index: %w", err)
	}

	// OTP session indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_otp_sessions_tuple ON otp_sessions(phone_number, vendor_id, offer_id, verify_status)").Error; err != nil {
		return fmt.Errorf("failed to create otp session tuple index: %w", err)
	}

	// Redemption indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_redemptions_status ON redemption_records(status)").Error; err != nil {
		return fmt.Errorf("failed to create redemption status index: %w", err)
	}

	// Log indexes
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create log created_at index: %w", err)
	}

	return nil
}

// createForeignKeyConstraints creates foreign key constraints after auto migration
func createForeignKeyConstraints() error {
	constraints := []struct {
		name string
		sql  string
	}{
		{
			name: "fk_vendors_qr_token",
			sql: `ALTER TABLE vendors ADD CONSTRAINT fk_vendors_qr_token
				  FOREIGN KEY (qr_token_id) REFERENCES qr_tokens(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
		{
			name: "fk_decisions_offer",
			sql: `ALTER TABLE vendor_offer_decisions ADD CONSTRAINT fk_decisions_offer
				  FOREIGN KEY (offer_id) REFERENCES offers(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
		{
			name: "fk_decisions_vendor",
			sql: `ALTER TABLE vendor_offer_decisions ADD CONSTRAINT fk_decisions_vendor
				  FOREIGN KEY (vendor_id) REFERENCES vendors(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
		{
			name: "fk_redemptions_session",
			sql: `ALTER TABLE redemption_records ADD CONSTRAINT fk_redemptions_session
				  FOREIGN KEY (session_id) REFERENCES otp_sessions(session_id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
	}

	for _, constraint := range constraints {
		var exists bool
		checkSQL := `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE constraint_name = $1
			)
		`

		err := DB.Raw(checkSQL, constraint.name).Scan(&exists).Error
		if err != nil {
			logger.Warning(fmt.Sprintf("Failed to check constraint existence: %s - Error: %v", constraint.name, err))
			continue
		}

		if !exists {
			if err := DB.Exec(constraint.sql).Error; err != nil {
				logger.Warning(fmt.Sprintf("Failed to create constraint: %s - Error: %v", constraint.name, err))
			} else {
				logger.Success(fmt.Sprintf("Successfully created constraint: %s", constraint.name))
			}
		}
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
