package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bnasmart/gateway-backend/api/middleware"
	"github.com/bnasmart/gateway-backend/api/responses"
	paymentmethodsvc "github.com/bnasmart/gateway-backend/internal/paymentmethods"
	"github.com/bnasmart/gateway-backend/pkg/db/models"
	pkgerrors "github.com/bnasmart/gateway-backend/pkg/errors"
	"github.com/bnasmart/gateway-backend/pkg/logger"
)

// ListPaymentMethods returns the shopper's saved payment methods.
func ListPaymentMethods(svc paymentmethodsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment methods service unavailable"))
			return
		}

		customerID := middleware.BNACustomerIDFromContext(r.Context())
		if customerID == "" {
			responses.WriteSuccess(w, []paymentMethodResponse{})
			return
		}

		methods, err := svc.List(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]paymentMethodResponse, 0, len(methods))
		for _, method := range methods {
			out = append(out, newPaymentMethodResponse(method))
		}
		responses.WriteSuccess(w, out)
	}
}

// DeletePaymentMethod removes a saved payment method, vendor side first.
func DeletePaymentMethod(svc paymentmethodsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment methods service unavailable"))
			return
		}

		customerID := middleware.BNACustomerIDFromContext(r.Context())
		if customerID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no gateway customer on file"))
			return
		}

		methodID := chi.URLParam(r, "methodID")
		if methodID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment method id is required"))
			return
		}

		if err := svc.Delete(r.Context(), customerID, methodID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

type paymentMethodResponse struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	CardBrand    *string `json:"card_brand,omitempty"`
	CardLast4    *string `json:"card_last4,omitempty"`
	CardExpMonth *int    `json:"card_exp_month,omitempty"`
	CardExpYear  *int    `json:"card_exp_year,omitempty"`
	BankName     *string `json:"bank_name,omitempty"`
	AccountLast4 *string `json:"account_last4,omitempty"`
}

func newPaymentMethodResponse(method models.PaymentMethod) paymentMethodResponse {
	return paymentMethodResponse{
		ID:           method.BNAPaymentMethodID,
		Type:         string(method.Type),
		CardBrand:    method.CardBrand,
		CardLast4:    method.CardLast4,
		CardExpMonth: method.CardExpMonth,
		CardExpYear:  method.CardExpYear,
		BankName:     method.BankName,
		AccountLast4: method.AccountLast4,
	}
}
