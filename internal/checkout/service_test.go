package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bnasmart/gateway-backend/internal/customers"
	"github.com/bnasmart/gateway-backend/internal/orders"
	"github.com/bnasmart/gateway-backend/pkg/bna"
	"github.com/bnasmart/gateway-backend/pkg/config"
	"github.com/bnasmart/gateway-backend/pkg/db/models"
	"github.com/bnasmart/gateway-backend/pkg/enums"
	pkgerrors "github.com/bnasmart/gateway-backend/pkg/errors"
	"github.com/bnasmart/gateway-backend/pkg/logger"
	"github.com/bnasmart/gateway-backend/pkg/outbox"
)

type stubOrdersRepo struct {
	orders.Repository

	byKey   map[string]*models.Order
	updates map[uuid.UUID]map[string]any
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		byKey:   map[string]*models.Order{},
		updates: map[uuid.UUID]map[string]any{},
	}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) FindByOrderKey(ctx context.Context, key string) (*models.Order, error) {
	if order, ok := s.byKey[key]; ok {
		return order, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubOrdersRepo) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	s.updates[orderID] = updates
	return nil
}

type stubSyncer struct {
	customerID string
	inputs     []customers.SyncInput
}

func (s *stubSyncer) Sync(ctx context.Context, input customers.SyncInput) (string, error) {
	s.inputs = append(s.inputs, input)
	return s.customerID, nil
}

type stubVendor struct {
	token  string
	params []bna.CheckoutParams
}

func (s *stubVendor) CreateCheckout(ctx context.Context, params bna.CheckoutParams) (string, error) {
	s.params = append(s.params, params)
	return s.token, nil
}

func (s *stubVendor) IframeURL(token string) string {
	return "https://dev-api-service.bnasmartpayment.com/v1/checkout/" + token + "?iframeId=iframe-123"
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

func newTestService(t *testing.T, repo *stubOrdersRepo, vendor *stubVendor, features config.FeaturesConfig, ob *stubOutbox) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		OrdersRepo:        repo,
		Customers:         &stubSyncer{customerID: "cust-1"},
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

func pendingOrder(key string) *models.Order {
	return &models.Order{
		ID:       uuid.New(),
		OrderKey: key,
		Status:   enums.OrderStatusPending,
		Total:    decimal.NewFromFloat(42.50),
		Currency: enums.CurrencyCAD,
		Items: []models.OrderLineItem{
			{SKU: "sku-1", Name: "Widget", Qty: 2, UnitPrice: decimal.NewFromFloat(21.25), Total: decimal.NewFromFloat(42.50)},
		},
	}
}

func TestGenerateToken_StoresTokenAndEmits(t *testing.T) {
	repo := newStubOrdersRepo()
	order := pendingOrder("wc-1")
	repo.byKey["wc-1"] = order

	vendor := &stubVendor{token: "tok_abc"}
	ob := &stubOutbox{}
	svc := newTestService(t, repo, vendor, config.FeaturesConfig{}, ob)

	result, err := svc.GenerateToken(context.Background(), GenerateTokenInput{
		OrderKey: "wc-1",
		Customer: customers.SyncInput{Email: "shopper@example.com", FirstName: "Pat", LastName: "Doe"},
	})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if result.Token != "tok_abc" {
		t.Fatalf("expected tok_abc, got %q", result.Token)
	}
	want := "https://dev-api-service.bnasmartpayment.com/v1/checkout/tok_abc?iframeId=iframe-123"
	if result.IframeURL != want {
		t.Fatalf("unexpected iframe url %q", result.IframeURL)
	}

	updates := repo.updates[order.ID]
	if updates["checkout_token"] != "tok_abc" {
		t.Fatalf("expected token persisted, got %v", updates["checkout_token"])
	}
	if updates["bna_customer_id"] != "cust-1" {
		t.Fatalf("expected customer id persisted, got %v", updates["bna_customer_id"])
	}
	if updates["reference_uuid"] != order.ID.String() {
		t.Fatalf("expected reference uuid persisted, got %v", updates["reference_uuid"])
	}
	if _, ok := updates["checkout_token_at"].(time.Time); !ok {
		t.Fatal("expected token timestamp persisted")
	}

	if len(ob.events) != 1 || ob.events[0].EventType != enums.EventCheckoutTokenIssued {
		t.Fatalf("expected checkout_token_issued event, got %+v", ob.events)
	}

	params := vendor.params[0]
	if params.InvoiceID != "wc-1" || len(params.Items) != 1 {
		t.Fatalf("unexpected checkout params %+v", params)
	}
	if params.CustomerInfo.CustomerID != "cust-1" {
		t.Fatalf("expected synced customer id on params, got %q", params.CustomerInfo.CustomerID)
	}
}

func TestGenerateToken_TerminalOrderRejected(t *testing.T) {
	repo := newStubOrdersRepo()
	order := pendingOrder("wc-2")
	order.Status = enums.OrderStatusCompleted
	repo.byKey["wc-2"] = order

	svc := newTestService(t, repo, &stubVendor{token: "tok"}, config.FeaturesConfig{}, &stubOutbox{})

	_, err := svc.GenerateToken(context.Background(), GenerateTokenInput{
		OrderKey: "wc-2",
		Customer: customers.SyncInput{Email: "shopper@example.com"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestGenerateToken_UnknownOrder(t *testing.T) {
	svc := newTestService(t, newStubOrdersRepo(), &stubVendor{token: "tok"}, config.FeaturesConfig{}, &stubOutbox{})

	_, err := svc.GenerateToken(context.Background(), GenerateTokenInput{
		OrderKey: "missing",
		Customer: customers.SyncInput{Email: "shopper@example.com"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGenerateToken_SubscriptionOnlyWhenEnabled(t *testing.T) {
	repo := newStubOrdersRepo()
	repo.byKey["wc-3"] = pendingOrder("wc-3")
	vendor := &stubVendor{token: "tok"}
	svc := newTestService(t, repo, vendor, config.FeaturesConfig{}, &stubOutbox{})

	sub := &bna.CheckoutSubscription{RecurringFrequency: enums.BillingFrequencyMonthly}
	if _, err := svc.GenerateToken(context.Background(), GenerateTokenInput{
		OrderKey:     "wc-3",
		Customer:     customers.SyncInput{Email: "shopper@example.com"},
		Subscription: sub,
	}); err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if vendor.params[0].Subscription != nil {
		t.Fatal("expected subscription dropped when feature disabled")
	}

	repo.byKey["wc-4"] = pendingOrder("wc-4")
	vendor2 := &stubVendor{token: "tok"}
	svc = newTestService(t, repo, vendor2, config.FeaturesConfig{Subscriptions: true}, &stubOutbox{})
	if _, err := svc.GenerateToken(context.Background(), GenerateTokenInput{
		OrderKey:     "wc-4",
		Customer:     customers.SyncInput{Email: "shopper@example.com"},
		Subscription: sub,
	}); err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if vendor2.params[0].Subscription == nil {
		t.Fatal("expected subscription forwarded when feature enabled")
	}
	if got := vendor2.params[0].Subscription.FirstChargeDate; got == "" {
		t.Fatal("expected computed first charge date on forwarded subscription")
	}
	if sub.FirstChargeDate != "" {
		t.Fatalf("caller subscription mutated: %q", sub.FirstChargeDate)
	}
}

func TestFirstChargeDate(t *testing.T) {
	now := time.Date(2025, 9, 15, 10, 0, 0, 0, time.UTC)

	got := firstChargeDate(bna.CheckoutSubscription{
		RecurringFrequency: enums.BillingFrequencyMonthly,
	}, now)
	if got != "2025-10-15" {
		t.Fatalf("expected one interval out, got %q", got)
	}

	got = firstChargeDate(bna.CheckoutSubscription{
		RecurringFrequency: enums.BillingFrequencyMonthly,
		FreeTrialLength:    14,
	}, now)
	if got != "2025-09-29" {
		t.Fatalf("expected trial end, got %q", got)
	}
}
