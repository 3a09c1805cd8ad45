package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bnasmart/gateway-backend/pkg/bna"
	"github.com/bnasmart/gateway-backend/pkg/config"
	"github.com/bnasmart/gateway-backend/pkg/db/models"
	"github.com/bnasmart/gateway-backend/pkg/enums"
	pkgerrors "github.com/bnasmart/gateway-backend/pkg/errors"
	"github.com/bnasmart/gateway-backend/pkg/logger"
	"github.com/bnasmart/gateway-backend/pkg/outbox"
)

type stubCustomersRepo struct {
	byID    map[string]*models.CustomerProfile
	byEmail map[string]*models.CustomerProfile
	deleted []string
}

func newStubCustomersRepo() *stubCustomersRepo {
	return &stubCustomersRepo{
		byID:    map[string]*models.CustomerProfile{},
		byEmail: map[string]*models.CustomerProfile{},
	}
}

func (s *stubCustomersRepo) add(profile *models.CustomerProfile) {
	s.byID[profile.BNACustomerID] = profile
	s.byEmail[profile.Email] = profile
}

func (s *stubCustomersRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCustomersRepo) FindByBNACustomerID(ctx context.Context, id string) (*models.CustomerProfile, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCustomersRepo) FindByEmail(ctx context.Context, email string) (*models.CustomerProfile, error) {
	if p, ok := s.byEmail[email]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCustomersRepo) Upsert(ctx context.Context, profile *models.CustomerProfile) (*models.CustomerProfile, error) {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	s.add(profile)
	return profile, nil
}

func (s *stubCustomersRepo) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.byID, id)
	return nil
}

type stubVendor struct {
	created   []bna.CustomerParams
	updated   map[string]bna.CustomerParams
	existing  *bna.Customer
	createdID string
}

func newStubVendor() *stubVendor {
	return &stubVendor{updated: map[string]bna.CustomerParams{}, createdID: "cust-new"}
}

func (s *stubVendor) CreateCustomer(ctx context.Context, params bna.CustomerParams) (*bna.Customer, error) {
	s.created = append(s.created, params)
	return &bna.Customer{ID: s.createdID, Email: params.Email}, nil
}

func (s *stubVendor) UpdateCustomer(ctx context.Context, customerID string, params bna.CustomerParams) (*bna.Customer, error) {
	s.updated[customerID] = params
	return &bna.Customer{ID: customerID, Email: params.Email}, nil
}

func (s *stubVendor) FindCustomerByEmail(ctx context.Context, email string) (*bna.Customer, error) {
	return s.existing, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newTestService(t *testing.T, repo Repository, vendor vendorCustomerClient, features config.FeaturesConfig, ob outboxPublisher) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Repo:              repo,
		Vendor:            vendor,
		Features:          features,
		TransactionRunner: stubTxRunner{},
		Outbox:            ob,
		Logger:            logger.New(logger.Options{Level: logger.ParseLevel("error")}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSync_UnchangedProfileSkipsVendor(t *testing.T) {
	repo := newStubCustomersRepo()
	vendor := newStubVendor()
	features := config.FeaturesConfig{BillingAddress: true}
	svc := newTestService(t, repo, vendor, features, &stubOutbox{})

	input := SyncInput{Email: "Shopper@Example.com", FirstName: "Pat", LastName: "Doe"}
	hash, err := ProfileHash(bna.CustomerParams{
		Type: "Personal", Email: "shopper@example.com", FirstName: "Pat", LastName: "Doe",
	})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo.add(&models.CustomerProfile{
		ID:            uuid.New(),
		BNACustomerID: "cust-1",
		Email:         "shopper@example.com",
		ProfileHash:   hash,
	})

	got, err := svc.Sync(context.Background(), input)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if got != "cust-1" {
		t.Fatalf("expected cached customer id, got %q", got)
	}
	if len(vendor.created) != 0 || len(vendor.updated) != 0 {
		t.Fatalf("expected no vendor calls for unchanged profile")
	}
}

func TestSync_ChangedProfilePatchesVendor(t *testing.T) {
	repo := newStubCustomersRepo()
	vendor := newStubVendor()
	ob := &stubOutbox{}
	svc := newTestService(t, repo, vendor, config.FeaturesConfig{}, ob)

	repo.add(&models.CustomerProfile{
		ID:            uuid.New(),
		BNACustomerID: "cust-1",
		Email:         "shopper@example.com",
		ProfileHash:   "stale-hash",
	})

	got, err := svc.Sync(context.Background(), SyncInput{Email: "shopper@example.com", FirstName: "Pat", LastName: "Doe"})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if got != "cust-1" {
		t.Fatalf("expected existing customer id, got %q", got)
	}
	if _, ok := vendor.updated["cust-1"]; !ok {
		t.Fatal("expected vendor patch for changed profile")
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventCustomerSynced {
		t.Fatalf("expected customer_synced event, got %+v", ob.events)
	}

	updated := repo.byEmail["shopper@example.com"]
	if updated.ProfileHash == "stale-hash" {
		t.Fatal("expected profile hash refreshed")
	}
}

func TestSync_ExistingVendorCustomerIsPatchedBeforeReuse(t *testing.T) {
	repo := newStubCustomersRepo()
	vendor := newStubVendor()
	vendor.existing = &bna.Customer{ID: "cust-remote", Email: "shopper@example.com"}
	svc := newTestService(t, repo, vendor, config.FeaturesConfig{}, &stubOutbox{})

	got, err := svc.Sync(context.Background(), SyncInput{Email: "shopper@example.com", FirstName: "Pat", LastName: "Doe"})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if got != "cust-remote" {
		t.Fatalf("expected remote customer id, got %q", got)
	}
	if _, ok := vendor.updated["cust-remote"]; !ok {
		t.Fatal("expected remote customer patched before reuse")
	}
	if len(vendor.created) != 0 {
		t.Fatal("expected no create when remote customer exists")
	}
}

func TestSync_NewCustomerIsCreated(t *testing.T) {
	repo := newStubCustomersRepo()
	vendor := newStubVendor()
	svc := newTestService(t, repo, vendor, config.FeaturesConfig{}, &stubOutbox{})

	got, err := svc.Sync(context.Background(), SyncInput{Email: "new@example.com", FirstName: "Ana", LastName: "Lee"})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if got != "cust-new" {
		t.Fatalf("expected created customer id, got %q", got)
	}
	if len(vendor.created) != 1 {
		t.Fatalf("expected vendor create, got %d", len(vendor.created))
	}
	if repo.byEmail["new@example.com"] == nil {
		t.Fatal("expected local profile saved")
	}
}

func TestSync_FeatureTogglesShapePayload(t *testing.T) {
	repo := newStubCustomersRepo()
	vendor := newStubVendor()
	features := config.FeaturesConfig{Phone: true}
	svc := newTestService(t, repo, vendor, features, &stubOutbox{})

	input := SyncInput{
		Email:     "new@example.com",
		FirstName: "Ana",
		LastName:  "Lee",
		Phone:     "5551234567",
		BirthDate: "1990-01-02",
	}
	if _, err := svc.Sync(context.Background(), input); err != nil {
		t.Fatalf("sync: %v", err)
	}

	params := vendor.created[0]
	if params.PhoneNumber != "5551234567" {
		t.Fatalf("expected phone sent when enabled, got %q", params.PhoneNumber)
	}
	if params.BirthDate != "" {
		t.Fatalf("expected birthdate dropped when disabled, got %q", params.BirthDate)
	}
}

func TestSync_RequiresEmail(t *testing.T) {
	svc := newTestService(t, newStubCustomersRepo(), newStubVendor(), config.FeaturesConfig{}, &stubOutbox{})

	_, err := svc.Sync(context.Background(), SyncInput{FirstName: "Pat"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRemove_UnknownCustomerIsNoop(t *testing.T) {
	repo := newStubCustomersRepo()
	ob := &stubOutbox{}
	svc := newTestService(t, repo, newStubVendor(), config.FeaturesConfig{}, ob)

	if err := svc.Remove(context.Background(), "cust-missing"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(ob.events) != 0 {
		t.Fatalf("expected no events, got %d", len(ob.events))
	}
}

func TestRemove_DeletesAndEmits(t *testing.T) {
	repo := newStubCustomersRepo()
	repo.add(&models.CustomerProfile{ID: uuid.New(), BNACustomerID: "cust-1", Email: "shopper@example.com"})
	ob := &stubOutbox{}
	svc := newTestService(t, repo, newStubVendor(), config.FeaturesConfig{}, ob)

	if err := svc.Remove(context.Background(), "cust-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "cust-1" {
		t.Fatalf("expected delete, got %v", repo.deleted)
	}
	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventCustomerRemoved {
		t.Fatalf("expected customer_removed event, got %+v", ob.events)
	}
}

func TestUpsertFromWebhook(t *testing.T) {
	repo := newStubCustomersRepo()
	ob := &stubOutbox{}
	svc := newTestService(t, repo, newStubVendor(), config.FeaturesConfig{}, ob)

	err := svc.UpsertFromWebhook(context.Background(), bna.Customer{ID: "cust-7", Email: "Hook@Example.com"})
	if err != nil {
		t.Fatalf("upsert from webhook: %v", err)
	}
	saved := repo.byID["cust-7"]
	if saved == nil || saved.Email != "hook@example.com" {
		t.Fatalf("expected normalized profile saved, got %+v", saved)
	}
	if len(ob.events) != 1 {
		t.Fatalf("expected sync event, got %d", len(ob.events))
	}

	if err := svc.UpsertFromWebhook(context.Background(), bna.Customer{}); err == nil {
		t.Fatal("expected error for missing id")
	}
}

func TestSync_ReusesProfileRefreshedByWebhook(t *testing.T) {
	repo := newStubCustomersRepo()
	vendor := newStubVendor()
	svc := newTestService(t, repo, vendor, config.FeaturesConfig{}, &stubOutbox{})

	err := svc.UpsertFromWebhook(context.Background(), bna.Customer{
		ID:        "cust-9",
		Email:     "shopper@example.com",
		FirstName: "Pat",
		LastName:  "Doe",
	})
	if err != nil {
		t.Fatalf("upsert from webhook: %v", err)
	}

	got, err := svc.Sync(context.Background(), SyncInput{
		Email:     "shopper@example.com",
		FirstName: "Pat",
		LastName:  "Doe",
	})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if got != "cust-9" {
		t.Fatalf("expected webhook-synced customer id, got %q", got)
	}
	if len(vendor.updated) != 0 || len(vendor.created) != 0 {
		t.Fatalf("expected reuse without a gateway call, got updates %v creates %d", vendor.updated, len(vendor.created))
	}
}
