package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	bnawebhook "github.com/bnasmart/gateway-backend/internal/webhooks/bna"
	"github.com/bnasmart/gateway-backend/pkg/config"
)

type stubWebhookService struct {
	result    *bnawebhook.Result
	err       error
	lastEvent string
	lastBody  []byte
	calls     int
}

func (s *stubWebhookService) Handle(ctx context.Context, eventType string, body []byte) (*bnawebhook.Result, error) {
	s.calls++
	s.lastEvent = eventType
	s.lastBody = body
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestBNAWebhook_ProcessedDelivery(t *testing.T) {
	svc := &stubWebhookService{result: &bnawebhook.Result{Status: bnawebhook.StatusProcessed}}
	handler := BNAWebhook(svc, config.BNAConfig{}, nil)

	body := `{"event":"transaction.approved","transaction":{"id":"tx_1","status":"approved"}}`
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/bna", strings.NewReader(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.lastEvent != "transaction.approved" {
		t.Fatalf("expected event type extracted, got %q", svc.lastEvent)
	}

	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "processed" {
		t.Fatalf("unexpected response %v", resp)
	}
}

func TestBNAWebhook_EmptyBody(t *testing.T) {
	svc := &stubWebhookService{}
	handler := BNAWebhook(svc, config.BNAConfig{}, nil)

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/bna", strings.NewReader("")))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if svc.calls != 0 {
		t.Fatal("expected no service call for empty body")
	}
}

func TestBNAWebhook_SignatureEnforcedWhenConfigured(t *testing.T) {
	svc := &stubWebhookService{result: &bnawebhook.Result{Status: bnawebhook.StatusProcessed}}
	cfg := config.BNAConfig{WebhookSecret: "whsec"}
	handler := BNAWebhook(svc, cfg, nil)

	body := `{"event":"transaction.approved","transaction":{"id":"tx_1"}}`

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/bna", strings.NewReader(body)))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without signature, got %d", w.Code)
	}

	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write([]byte(body))
	sig := hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/bna", strings.NewReader(body))
	req.Header.Set(signatureHeader, sig)
	w = httptest.NewRecorder()
	handler(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid signature, got %d", w.Code)
	}
}

func TestBNAWebhook_MissingEventType(t *testing.T) {
	svc := &stubWebhookService{}
	handler := BNAWebhook(svc, config.BNAConfig{}, nil)

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/bna", strings.NewReader(`{"transaction":{"id":"tx_1"}}`)))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestBNAWebhook_EventTypeFromHeader(t *testing.T) {
	svc := &stubWebhookService{result: &bnawebhook.Result{Status: bnawebhook.StatusIgnored}}
	handler := BNAWebhook(svc, config.BNAConfig{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/bna", strings.NewReader(`{"transaction":{"id":"tx_1"}}`))
	req.Header.Set("X-Bna-Event", "transaction.refunded")
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if svc.lastEvent != "transaction.refunded" {
		t.Fatalf("expected header event type, got %q", svc.lastEvent)
	}
}

func TestBNAWebhook_InternalFailure(t *testing.T) {
	svc := &stubWebhookService{err: errors.New("boom")}
	handler := BNAWebhook(svc, config.BNAConfig{}, nil)

	body := `{"event":"transaction.approved","transaction":{"id":"tx_1"}}`
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/bna", strings.NewReader(body)))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Fatal("raw internal error must not leak into the response")
	}
}

func TestBNAWebhookDiagnostics(t *testing.T) {
	w := httptest.NewRecorder()
	BNAWebhookTest()(w, httptest.NewRequest(http.MethodGet, "/api/v1/webhooks/bna/test", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	BNAWebhookStatus(config.BNAConfig{Env: "staging", AccessKey: "ak", SecretKey: "sk"})(w,
		httptest.NewRequest(http.MethodGet, "/api/v1/webhooks/bna/status", nil))

	var status map[string]any
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status["environment"] != "staging" {
		t.Fatalf("unexpected status payload %v", status)
	}
	if status["signature_required"] != false || status["credentials_present"] != true {
		t.Fatalf("unexpected flags %v", status)
	}
	if _, ok := status["access_key"]; ok {
		t.Fatal("credentials must not appear in status payload")
	}
}
