package bna

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bnasmart/gateway-backend/pkg/config"
	"github.com/bnasmart/gateway-backend/pkg/enums"
	pkgerrors "github.com/bnasmart/gateway-backend/pkg/errors"
	"github.com/bnasmart/gateway-backend/pkg/logger"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.BNAConfig{
		Env:       config.BNAEnvDev,
		AccessKey: "access",
		SecretKey: "secret",
		IframeID:  "iframe-123",
		Timeout:   5 * time.Second,
	}
	c, err := NewClient(context.Background(), cfg, logger.New(logger.Options{Level: logger.ParseLevel("error")}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.baseURL = srv.URL
	return c, srv
}

func TestNewClient_Validation(t *testing.T) {
	logg := logger.New(logger.Options{Level: logger.ParseLevel("error")})

	if _, err := NewClient(context.Background(), config.BNAConfig{Env: "dev"}, logg); err != errAccessKeyRequired {
		t.Fatalf("expected access key error, got %v", err)
	}
	cfg := config.BNAConfig{Env: "qa", AccessKey: "a", SecretKey: "s", IframeID: "i"}
	if _, err := NewClient(context.Background(), cfg, logg); err != errInvalidBNAEnv {
		t.Fatalf("expected invalid env error, got %v", err)
	}
	cfg = config.BNAConfig{Env: "staging", AccessKey: "a", SecretKey: "s", IframeID: "i"}
	if _, err := NewClient(context.Background(), cfg, nil); err != errLoggerRequired {
		t.Fatalf("expected logger error, got %v", err)
	}
}

func TestCreateCheckout_SendsBasicAuthAndDecodesToken(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "access" || pass != "secret" {
			t.Fatalf("missing or wrong basic auth")
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["iframeId"] != "iframe-123" {
			t.Fatalf("expected default iframe id, got %v", body["iframeId"])
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "tok_abc"})
	}))

	token, err := c.CreateCheckout(context.Background(), CheckoutParams{
		InvoiceID: "order-1",
		Currency:  enums.CurrencyCAD,
	})
	if err != nil {
		t.Fatalf("create checkout: %v", err)
	}
	if token != "tok_abc" {
		t.Fatalf("expected tok_abc, got %q", token)
	}
}

func TestIframeURL(t *testing.T) {
	c := &Client{baseURL: "https://dev-api-service.bnasmartpayment.com", iframeID: "iframe-123"}
	got := c.IframeURL("tok_abc")
	want := "https://dev-api-service.bnasmartpayment.com/v1/checkout/tok_abc?iframeId=iframe-123"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestDeletePaymentMethod_UsesTypeSubPath(t *testing.T) {
	var gotPath string
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	err := c.DeletePaymentMethod(context.Background(), "cust-1", enums.PaymentMethodETransfer, "pm-9")
	if err != nil {
		t.Fatalf("delete payment method: %v", err)
	}
	if gotPath != "/v1/customers/cust-1/payment-methods/e-transfer/pm-9" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestDeletePaymentMethod_NotFoundIsSuccess(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	}))

	if err := c.DeletePaymentMethod(context.Background(), "cust-1", enums.PaymentMethodCard, "pm-9"); err != nil {
		t.Fatalf("expected 404 to be treated as success, got %v", err)
	}
}

func TestFindCustomerByEmail_NoMatchReturnsNil(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	}))

	cust, err := c.FindCustomerByEmail(context.Background(), "shopper@example.com")
	if err != nil {
		t.Fatalf("find customer: %v", err)
	}
	if cust != nil {
		t.Fatalf("expected nil customer, got %+v", cust)
	}
}

func TestDomainCodeForStatus(t *testing.T) {
	tests := []struct {
		status int
		code   pkgerrors.Code
	}{
		{http.StatusUnauthorized, pkgerrors.CodeUnauthorized},
		{http.StatusForbidden, pkgerrors.CodeForbidden},
		{http.StatusNotFound, pkgerrors.CodeNotFound},
		{http.StatusConflict, pkgerrors.CodeConflict},
		{http.StatusBadRequest, pkgerrors.CodeValidation},
		{http.StatusUnprocessableEntity, pkgerrors.CodeStateConflict},
		{http.StatusInternalServerError, pkgerrors.CodeDependency},
	}
	for _, tt := range tests {
		if got := domainCodeForStatus(tt.status); got != tt.code {
			t.Fatalf("status %d expected %s got %s", tt.status, tt.code, got)
		}
	}
}

func TestRedact(t *testing.T) {
	c := &Client{}
	if out := c.redact("cardNumber", "4111"); out != "[REDACTED]" {
		t.Fatalf("expected redacted value, got %v", out)
	}
	if v := c.redact("status", "ok"); v != "ok" {
		t.Fatalf("unexpected redaction for safe key")
	}
}

func TestMapError_UsesBodyMessage(t *testing.T) {
	c := &Client{}
	err := c.mapError(http.StatusBadRequest, []byte(`{"message":"invalid iframe"}`), "create_checkout")
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatal("expected domain error")
	}
	if typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %s", typed.Code())
	}
}
