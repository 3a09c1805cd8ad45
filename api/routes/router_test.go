package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	checkoutsvc "github.com/bnasmart/gateway-backend/internal/checkout"
	bnawebhook "github.com/bnasmart/gateway-backend/internal/webhooks/bna"
	pkgauth "github.com/bnasmart/gateway-backend/pkg/auth"
	"github.com/bnasmart/gateway-backend/pkg/bna"
	"github.com/bnasmart/gateway-backend/pkg/config"
	"github.com/bnasmart/gateway-backend/pkg/db/models"
	"github.com/bnasmart/gateway-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCheckoutService struct{}

func (stubCheckoutService) GenerateToken(ctx context.Context, input checkoutsvc.GenerateTokenInput) (*checkoutsvc.TokenResult, error) {
	return &checkoutsvc.TokenResult{Token: "tok-1", IframeURL: "https://dev-api-service.bnasmartpayment.com/v1/checkout/tok-1?iframeId=frame"}, nil
}

type stubPaymentMethodsService struct{}

func (stubPaymentMethodsService) List(ctx context.Context, bnaCustomerID string) ([]models.PaymentMethod, error) {
	return nil, nil
}

func (stubPaymentMethodsService) SaveFromWebhook(ctx context.Context, bnaCustomerID string, record bna.PaymentMethodRecord) error {
	return nil
}

func (stubPaymentMethodsService) RemoveFromWebhook(ctx context.Context, bnaPaymentMethodID string) error {
	return nil
}

func (stubPaymentMethodsService) Delete(ctx context.Context, bnaCustomerID, bnaPaymentMethodID string) error {
	return nil
}

type stubWebhookService struct{}

func (stubWebhookService) Handle(ctx context.Context, eventType string, body []byte) (*bnawebhook.Result, error) {
	return &bnawebhook.Result{Status: bnawebhook.StatusIgnored}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "bna-gateway-test", ExpirationMinutes: 5},
		BNA: config.BNAConfig{Env: "dev", AccessKey: "ak", SecretKey: "sk", IframeID: "frame"},
	}
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	logg := logger.New(logger.Options{Level: logger.ParseLevel("error")})
	return NewRouter(testConfig(), logg, stubPinger{}, stubPinger{}, stubCheckoutService{}, stubPaymentMethodsService{}, stubWebhookService{})
}

func TestRouter_Health(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, w.Code)
		}
		if got := w.Header().Get("X-BNA-Gateway-Env"); got != "test" {
			t.Fatalf("%s: expected env header, got %q", path, got)
		}
	}
}

func TestRouter_WebhookRoutesAreUnauthenticated(t *testing.T) {
	router := testRouter(t)

	body := `{"event":"transaction.refunded","transaction":{"id":"tx_1"}}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/bna", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/webhooks/bna/test", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from test route, got %d", w.Code)
	}
}

func TestRouter_CheckoutRequiresAuth(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader("{}")))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestRouter_CheckoutWithToken(t *testing.T) {
	router := testRouter(t)
	cfg := testConfig()

	token, err := pkgauth.MintShopperToken(cfg.JWT, time.Now(), pkgauth.ShopperClaims{
		ShopperID: "shopper-1",
		Email:     "shopper@example.ca",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	body := `{"order_key":"wc_order_abc","customer":{"email":"shopper@example.ca","first_name":"Ada","last_name":"L"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "tok-1") {
		t.Fatalf("expected token in response, got %s", w.Body.String())
	}
}
