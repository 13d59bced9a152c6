package token

import (
	"errors"
	"sync"
	"testing"

	tokenModel "qr-offers/models/token"
	vendorModel "qr-offers/models/vendor"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A single connection keeps every session on the same in-memory database
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&tokenModel.QRToken{}, &vendorModel.Vendor{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func TestGenerateBatchBounds(t *testing.T) {
	svc := NewTokenService(newTestDB(t))

	if _, err := svc.GenerateBatch(0, "classic"); !errors.Is(err, ErrBatchSize) {
		t.Errorf("count 0: expected ErrBatchSize, got %v", err)
	}
	if _, err := svc.GenerateBatch(MaxBatchSize+1, "classic"); !errors.Is(err, ErrBatchSize) {
		t.Errorf("count %d: expected ErrBatchSize, got %v", MaxBatchSize+1, err)
	}
}

func TestGenerateBatch(t *testing.T) {
	db := newTestDB(t)
	svc := NewTokenService(db)

	tokens, err := svc.GenerateBatch(25, "summer")
	if err != nil {
		t.Fatalf("GenerateBatch failed: %v", err)
	}
	if len(tokens) != 25 {
		t.Fatalf("expected 25 tokens, got %d", len(tokens))
	}

	seen := make(map[string]bool)
	for _, tok := range tokens {
		if seen[tok.ID] {
			t.Errorf("duplicate token id %s", tok.ID)
		}
		seen[tok.ID] = true
		if tok.LayoutVariant != "summer" {
			t.Errorf("expected layout summer, got %s", tok.LayoutVariant)
		}
		if tok.ClaimStatus != tokenModel.ClaimStatusUnclaimed {
			t.Errorf("expected unclaimed, got %s", tok.ClaimStatus)
		}
	}

	var count int64
	db.Model(&tokenModel.QRToken{}).Count(&count)
	if count != 25 {
		t.Errorf("expected 25 rows persisted, got %d", count)
	}
}

func TestValidateUnknownToken(t *testing.T) {
	svc := NewTokenService(newTestDB(t))

	result, err := svc.Validate("00000000-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Valid {
		t.Error("expected unknown token to be invalid")
	}
}

func TestClaimToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewTokenService(db)

	tokens, err := svc.GenerateBatch(1, "classic")
	if err != nil {
		t.Fatalf("GenerateBatch failed: %v", err)
	}
	tokenID := tokens[0].ID

	vendor, err := svc.Claim(tokenID, &vendorModel.Vendor{
		Name:        "Cafe Mondo",
		Category:    "restaurant",
		City:        "Dhaka",
		ContactInfo: "+8801700000001",
	})
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if vendor.ID == "" {
		t.Error("expected claim to assign a vendor id")
	}

	result, err := svc.Validate(tokenID)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.Valid || !result.Claimed {
		t.Errorf("expected valid claimed token, got valid=%v claimed=%v", result.Valid, result.Claimed)
	}
	if result.VendorID != vendor.ID {
		t.Errorf("expected vendor %s, got %s", vendor.ID, result.VendorID)
	}
}

func TestClaimTokenTwice(t *testing.T) {
	svc := NewTokenService(newTestDB(t))

	tokens, err := svc.GenerateBatch(1, "classic")
	if err != nil {
		t.Fatalf("GenerateBatch failed: %v", err)
	}
	tokenID := tokens[0].ID

	if _, err := svc.Claim(tokenID, &vendorModel.Vendor{Name: "First"}); err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if _, err := svc.Claim(tokenID, &vendorModel.Vendor{Name: "Second"}); !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("expected ErrAlreadyClaimed, got %v", err)
	}
}

func TestClaimUnknownToken(t *testing.T) {
	svc := NewTokenService(newTestDB(t))

	if _, err := svc.Claim("00000000-0000-0000-0000-000000000000", &vendorModel.Vendor{Name: "Nobody"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentClaimsSingleWinner(t *testing.T) {
	db := newTestDB(t)
	svc := NewTokenService(db)

	tokens, err := svc.GenerateBatch(1, "classic")
	if err != nil {
		t.Fatalf("GenerateBatch failed: %v", err)
	}
	tokenID := tokens[0].ID

	const racers = 10
	var wg sync.WaitGroup
	results := make(chan error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Claim(tokenID, &vendorModel.Vendor{Name: "Racer"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	won, lost := 0, 0
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrAlreadyClaimed):
			lost++
		default:
			t.Errorf("unexpected claim error: %v", err)
		}
	}
	if won != 1 {
		t.Errorf("expected exactly 1 winner, got %d", won)
	}
	if lost != racers-1 {
		t.Errorf("expected %d losers, got %d", racers-1, lost)
	}

	var vendorCount int64
	db.Model(&vendorModel.Vendor{}).Count(&vendorCount)
	if vendorCount != 1 {
		t.Errorf("expected exactly 1 vendor row, got %d", vendorCount)
	}
}

func TestClaimScenario(t *testing.T) {
	db := newTestDB(t)
	svc := NewTokenService(db)

	tokens, err := svc.GenerateBatch(3, "layout-a")
	if err != nil {
		t.Fatalf("GenerateBatch failed: %v", err)
	}

	v1, err := svc.Claim(tokens[0].ID, &vendorModel.Vendor{Name: "Vendor One"})
	if err != nil {
		t.Fatalf("vendor one claim failed: %v", err)
	}
	v2, err := svc.Claim(tokens[1].ID, &vendorModel.Vendor{Name: "Vendor Two"})
	if err != nil {
		t.Fatalf("vendor two claim failed: %v", err)
	}
	if v1.ID == v2.ID {
		t.Error("expected distinct vendor ids")
	}

	result, err := svc.Validate(tokens[2].ID)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Claimed {
		t.Error("third token should remain unclaimed")
	}

	var claimed int64
	db.Model(&tokenModel.QRToken{}).Where("claim_status = ?", tokenModel.ClaimStatusClaimed).Count(&claimed)
	if claimed != 2 {
		t.Errorf("expected 2 claimed tokens, got %d", claimed)
	}
}
