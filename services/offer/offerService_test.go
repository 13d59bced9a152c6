package offer

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	offerModel "qr-offers/models/offer"
	optinModel "qr-offers/models/optin"
	vendorModel "qr-offers/models/vendor"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// mockNotifier records outbound messages and can fail specific phones
type mockNotifier struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]bool
}

func (m *mockNotifier) SendMessage(phone, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[phone] {
		return errors.New("gateway unavailable")
	}
	m.sent = append(m.sent, phone)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&offerModel.Offer{},
		&offerModel.VendorOfferDecision{},
		&vendorModel.Vendor{},
		&optinModel.CustomerOptIn{},
	); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func seedVendor(t *testing.T, db *gorm.DB, name string) *vendorModel.Vendor {
	t.Helper()
	v := &vendorModel.Vendor{
		ID:        uuid.NewString(),
		Name:      name,
		Category:  "restaurant",
		City:      "Dhaka",
		QRTokenID: uuid.NewString(),
	}
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("failed to seed vendor: %v", err)
	}
	return v
}

func seedOffer(t *testing.T, svc *Service) *offerModel.Offer {
	t.Helper()
	o, err := svc.Create("Weekend Special", "20% off all mains", "food", time.Now().AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("failed to seed offer: %v", err)
	}
	return o
}

func TestCreateOfferStartsDraft(t *testing.T) {
	svc := NewOfferService(newTestDB(t), &mockNotifier{})

	o := seedOffer(t, svc)
	if o.LifecycleStatus != offerModel.LifecycleStatusDraft {
		t.Errorf("expected draft, got %s", o.LifecycleStatus)
	}
	if o.PublishedAt != nil {
		t.Error("expected nil PublishedAt on draft")
	}
}

func TestPublishEmptySelection(t *testing.T) {
	db := newTestDB(t)
	svc := NewOfferService(db, &mockNotifier{})
	o := seedOffer(t, svc)

	if err := svc.Publish(o.ID, nil); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("expected ErrEmptySelection, got %v", err)
	}
}

func TestPublishUnknownVendor(t *testing.T) {
	db := newTestDB(t)
	svc := NewOfferService(db, &mockNotifier{})
	o := seedOffer(t, svc)

	if err := svc.Publish(o.ID, []string{uuid.NewString()}); !errors.Is(err, ErrVendorNotFound) {
		t.Errorf("expected ErrVendorNotFound, got %v", err)
	}

	// The failed publish must leave the offer untouched
	var reloaded offerModel.Offer
	if err := db.First(&reloaded, "id = ?", o.ID).Error; err != nil {
		t.Fatalf("failed to reload offer: %v", err)
	}
	if reloaded.LifecycleStatus != offerModel.LifecycleStatusDraft {
		t.Errorf("expected offer to stay draft, got %s", reloaded.LifecycleStatus)
	}
}

func TestPublishCreatesPendingDecisions(t *testing.T) {
	db := newTestDB(t)
	svc := NewOfferService(db, &mockNotifier{})
	o := seedOffer(t, svc)
	v1 := seedVendor(t, db, "Vendor One")
	v2 := seedVendor(t, db, "Vendor Two")

	if err := svc.Publish(o.ID, []string{v1.ID, v2.ID}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	var reloaded offerModel.Offer
	if err := db.First(&reloaded, "id = ?", o.ID).Error; err != nil {
		t.Fatalf("failed to reload offer: %v", err)
	}
	if reloaded.LifecycleStatus != offerModel.LifecycleStatusPublished {
		t.Errorf("expected published, got %s", reloaded.LifecycleStatus)
	}
	if reloaded.PublishedAt == nil {
		t.Error("expected PublishedAt to be set")
	}

	var pending int64
	db.Model(&offerModel.VendorOfferDecision{}).
		Where("offer_id = ? AND decision = ?", o.ID, offerModel.DecisionPending).
		Count(&pending)
	if pending != 2 {
		t.Errorf("expected 2 pending decisions, got %d", pending)
	}
}

func TestPublishDedupesVendorIDs(t *testing.T) {
	db := newTestDB(t)
	svc := NewOfferService(db, &mockNotifier{})
	o := seedOffer(t, svc)
	v := seedVendor(t, db, "Vendor One")

	if err := svc.Publish(o.ID, []string{v.ID, v.ID, v.ID}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	var rows int64
	db.Model(&offerModel.VendorOfferDecision{}).Where("offer_id = ?", o.ID).Count(&rows)
	if rows != 1 {
		t.Errorf("expected 1 decision row, got %d", rows)
	}
}

func TestPublishTwice(t *testing.T) {
	db := newTestDB(t)
	svc := NewOfferService(db, &mockNotifier{})
	o := seedOffer(t, svc)
	v := seedVendor(t, db, "Vendor One")

	if err := svc.Publish(o.ID, []string{v.ID}); err != nil {
		t.Fatalf("first publish failed: %v", err)
	}
	if err := svc.Publish(o.ID, []string{v.ID}); !errors.Is(err, ErrAlreadyPublished) {
		t.Errorf("expected ErrAlreadyPublished, got %v", err)
	}

	// Republish attempt must not duplicate decision rows
	var rows int64
	db.Model(&offerModel.VendorOfferDecision{}).Where("offer_id = ?", o.ID).Count(&rows)
	if rows != 1 {
		t.Errorf("expected 1 decision row after failed republish, got %d", rows)
	}
}

func TestPublishUnknownOffer(t *testing.T) {
	db := newTestDB(t)
	svc := NewOfferService(db, &mockNotifier{})
	v := seedVendor(t, db, "Vendor One")

	if err := svc.Publish(uuid.NewString(), []string{v.ID}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRecordDecisionOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewOfferService(db, &mockNotifier{})
	o := seedOffer(t, svc)
	v := seedVendor(t, db, "Vendor One")

	if err := svc.Publish(o.ID, []string{v.ID}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if err := svc.RecordDecision(o.ID, v.ID, offerModel.DecisionAccepted); err != nil {
		t.Fatalf("RecordDecision failed: %v", err)
	}

	// Any further decision loses, including flipping to the other value
	if err := svc.RecordDecision(o.ID, v.ID, offerModel.DecisionRejected); !errors.Is(err, ErrNotPending) {
		t.Errorf("expected ErrNotPending, got %v", err)
	}
	if err := svc.RecordDecision(o.ID, v.ID, offerModel.DecisionAccepted); !errors.Is(err, ErrNotPending) {
		t.Errorf("expected ErrNotPending on repeat accept, got %v", err)
	}

	var d offerModel.VendorOfferDecision
	if err := db.First(&d, "offer_id = ? AND vendor_id = ?", o.ID, v.ID).Error; err != nil {
		t.Fatalf("failed to reload decision: %v", err)
	}
	if d.Decision != offerModel.DecisionAccepted {
		t.Errorf("expected decision to stay accepted, got %s", d.Decision)
	}
	if d.DecidedAt == nil {
		t.Error("expected DecidedAt to be set")
	}
}

func TestRecordDecisionInvalid(t *testing.T) {
	svc := NewOfferService(newTestDB(t), &mockNotifier{})

	if err := svc.RecordDecision(uuid.NewString(), uuid.NewString(), offerModel.DecisionPending); !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("expected ErrInvalidDecision, got %v", err)
	}
	if err := svc.RecordDecision(uuid.NewString(), uuid.NewString(), offerModel.Decision("maybe")); !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("expected ErrInvalidDecision, got %v", err)
	}
}

func TestRecordDecisionUnknownPair(t *testing.T) {
	svc := NewOfferService(newTestDB(t), &mockNotifier{})

	if err := svc.RecordDecision(uuid.NewString(), uuid.NewString(), offerModel.DecisionAccepted); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListForAdminCounts(t *testing.T) {
	db := newTestDB(t)
	svc := NewOfferService(db, &mockNotifier{})
	o := seedOffer(t, svc)
	v1 := seedVendor(t, db, "Vendor One")
	v2 := seedVendor(t, db, "Vendor Two")
	v3 := seedVendor(t, db, "Vendor Three")

	if err := svc.Publish(o.ID, []string{v1.ID, v2.ID, v3.ID}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := svc.RecordDecision(o.ID, v1.ID, offerModel.DecisionAccepted); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if err := svc.RecordDecision(o.ID, v2.ID, offerModel.DecisionRejected); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	summaries, err := svc.ListForAdmin()
	if err != nil {
		t.Fatalf("ListForAdmin failed: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	counts := summaries[0].Counts
	if counts.Accepted != 1 || counts.Rejected != 1 || counts.Pending != 1 {
		t.Errorf("expected 1/1/1 tallies, got accepted=%d rejected=%d pending=%d",
			counts.Accepted, counts.Rejected, counts.Pending)
	}
}

func TestListForVendor(t *testing.T) {
	db := newTestDB(t)
	svc := NewOfferService(db, &mockNotifier{})
	o := seedOffer(t, svc)
	v := seedVendor(t, db, "Vendor One")
	other := seedVendor(t, db, "Vendor Two")

	if err := svc.Publish(o.ID, []string{v.ID}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	views, err := svc.ListForVendor(v.ID)
	if err != nil {
		t.Fatalf("ListForVendor failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	if views[0].Decision != offerModel.DecisionPending {
		t.Errorf("expected pending decision, got %s", views[0].Decision)
	}

	// A vendor the offer was not published to sees nothing
	otherViews, err := svc.ListForVendor(other.ID)
	if err != nil {
		t.Fatalf("ListForVendor failed: %v", err)
	}
	if len(otherViews) != 0 {
		t.Errorf("expected no views for untargeted vendor, got %d", len(otherViews))
	}
}

func TestSendToCustomersRequiresAccepted(t *testing.T) {
	db := newTestDB(t)
	svc := NewOfferService(db, &mockNotifier{})
	o := seedOffer(t, svc)
	v := seedVendor(t, db, "Vendor One")

	// Not published to this vendor at all
	if _, err := svc.SendToCustomers(o.ID, v.ID); !errors.Is(err, ErrNotAccepted) {
		t.Errorf("expected ErrNotAccepted before publish, got %v", err)
	}

	if err := svc.Publish(o.ID, []string{v.ID}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	// Pending decision is not enough
	if _, err := svc.SendToCustomers(o.ID, v.ID); !errors.Is(err, ErrNotAccepted) {
		t.Errorf("expected ErrNotAccepted while pending, got %v", err)
	}

	if err := svc.RecordDecision(o.ID, v.ID, offerModel.DecisionRejected); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if _, err := svc.SendToCustomers(o.ID, v.ID); !errors.Is(err, ErrNotAccepted) {
		t.Errorf("expected ErrNotAccepted after rejection, got %v", err)
	}
}

func TestSendToCustomersFanOut(t *testing.T) {
	db := newTestDB(t)
	notifier := &mockNotifier{failFor: map[string]bool{"+8801700000003": true}}
	svc := NewOfferService(db, notifier)
	o := seedOffer(t, svc)
	v := seedVendor(t, db, "Vendor One")

	if err := svc.Publish(o.ID, []string{v.ID}); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := svc.RecordDecision(o.ID, v.ID, offerModel.DecisionAccepted); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	for i := 1; i <= 3; i++ {
		optIn := &optinModel.CustomerOptIn{
			PhoneNumber: fmt.Sprintf("+880170000000%d", i),
			VendorID:    v.ID,
			OptedInAt:   time.Now(),
			Source:      optinModel.SourceQRScan,
		}
		if err := db.Create(optIn).Error; err != nil {
			t.Fatalf("failed to seed opt-in: %v", err)
		}
	}

	sent, err := svc.SendToCustomers(o.ID, v.ID)
	if err != nil {
		t.Fatalf("SendToCustomers failed: %v", err)
	}

	// One of the three deliveries fails; it is skipped, not fatal
	if sent != 2 {
		t.Errorf("expected 2 messages sent, got %d", sent)
	}
	if len(notifier.sent) != 2 {
		t.Errorf("expected notifier to record 2 deliveries, got %d", len(notifier.sent))
	}
}

func TestSendToCustomersUnknownOffer(t *testing.T) {
	svc := NewOfferService(newTestDB(t), &mockNotifier{})

	if _, err := svc.SendToCustomers(uuid.NewString(), uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
