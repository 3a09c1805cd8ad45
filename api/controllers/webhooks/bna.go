package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/bnasmart/gateway-backend/api/responses"
	bnawebhook "github.com/bnasmart/gateway-backend/internal/webhooks/bna"
	"github.com/bnasmart/gateway-backend/pkg/config"
	pkgerrors "github.com/bnasmart/gateway-backend/pkg/errors"
	"github.com/bnasmart/gateway-backend/pkg/logger"
)

const signatureHeader = "X-Bna-Signature"

// BNAWebhookService is the pipeline a delivery is handed to.
type BNAWebhookService interface {
	Handle(ctx context.Context, eventType string, body []byte) (*bnawebhook.Result, error)
}

// BNAWebhook ingests vendor lifecycle events. The vendor treats any non-error
// response as delivered, so unmatched and unsupported events are acknowledged
// with 200 rather than erroring into an endless redelivery loop.
func BNAWebhook(svc BNAWebhookService, cfg config.BNAConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}
		if len(strings.TrimSpace(string(payload))) == 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "empty webhook body"))
			return
		}

		if cfg.WebhookSecret != "" {
			sig := r.Header.Get(signatureHeader)
			if !validateSignature(payload, cfg.WebhookSecret, sig) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
				return
			}
		}

		eventType := extractEventType(payload, r)
		if eventType == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "missing event type"))
			return
		}

		result, err := svc.Handle(ctx, eventType, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, result)
	}
}

// BNAWebhookTest is an unauthenticated reachability probe the vendor
// dashboard can hit while configuring the endpoint.
func BNAWebhookTest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"message": "webhook endpoint reachable",
		})
	}
}

// BNAWebhookStatus reports a non-sensitive configuration summary.
func BNAWebhookStatus(cfg config.BNAConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"status":              "ok",
			"environment":         cfg.Env,
			"signature_required":  cfg.WebhookSecret != "",
			"credentials_present": cfg.AccessKey != "" && cfg.SecretKey != "",
		})
	}
}

// extractEventType reads the event-type string the vendor sends alongside
// the envelope, either in the body or in a header on older API versions.
func extractEventType(payload []byte, r *http.Request) string {
	var probe struct {
		Event     string `json:"event"`
		EventType string `json:"eventType"`
		Type      string `json:"type"`
		Action    string `json:"action"`
	}
	if err := json.Unmarshal(payload, &probe); err == nil {
		for _, candidate := range []string{probe.Event, probe.EventType, probe.Type, probe.Action} {
			if candidate != "" {
				return candidate
			}
		}
	}
	return strings.TrimSpace(r.Header.Get("X-Bna-Event"))
}

func validateSignature(payload []byte, secret, header string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}
