package controllers

import (
	"net/http"

	"github.com/bnasmart/gateway-backend/api/responses"
	"github.com/bnasmart/gateway-backend/api/validators"
	checkoutsvc "github.com/bnasmart/gateway-backend/internal/checkout"
	"github.com/bnasmart/gateway-backend/internal/customers"
	"github.com/bnasmart/gateway-backend/pkg/bna"
	"github.com/bnasmart/gateway-backend/pkg/config"
	"github.com/bnasmart/gateway-backend/pkg/enums"
	pkgerrors "github.com/bnasmart/gateway-backend/pkg/errors"
	"github.com/bnasmart/gateway-backend/pkg/logger"
	"github.com/bnasmart/gateway-backend/pkg/types"
)

// CheckoutToken issues a hosted-checkout token for an order awaiting payment.
func CheckoutToken(svc checkoutsvc.Service, features config.FeaturesConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutTokenRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := checkoutsvc.GenerateTokenInput{
			OrderKey: payload.OrderKey,
			Customer: customers.SyncInput{
				Email:     payload.Customer.Email,
				FirstName: payload.Customer.FirstName,
				LastName:  payload.Customer.LastName,
				Phone:     payload.Customer.Phone,
				PhoneCode: payload.Customer.PhoneCode,
				BirthDate: payload.Customer.BirthDate,
				Billing:   payload.Customer.Billing,
				Shipping:  payload.Customer.Shipping,
			},
			SaveCard: payload.SaveCard,
		}
		if payload.Subscription != nil {
			frequency, err := enums.ParseBillingFrequency(payload.Subscription.Frequency)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid billing frequency"))
				return
			}
			input.Subscription = &bna.CheckoutSubscription{
				RecurringFrequency: frequency,
				FreeTrialLength:    payload.Subscription.TrialDays,
				FirstChargeDate:    payload.Subscription.FirstChargeDate,
				NumberOfPayments:   payload.Subscription.NumberOfPayments,
			}
		}

		result, err := svc.GenerateToken(r.Context(), input)
		if err != nil {
			// Shopper-facing path gets generic guidance unless debug mode is
			// on; the raw upstream error already went to the log.
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeDependency && !features.Debug {
				err = pkgerrors.New(pkgerrors.CodeDependency, "payment service is temporarily unavailable, please try again")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type checkoutTokenRequest struct {
	OrderKey     string                       `json:"order_key" validate:"required"`
	Customer     checkoutCustomerRequest      `json:"customer" validate:"required"`
	SaveCard     bool                         `json:"save_card"`
	Subscription *checkoutSubscriptionRequest `json:"subscription,omitempty"`
}

type checkoutCustomerRequest struct {
	Email     string         `json:"email" validate:"required,email"`
	FirstName string         `json:"first_name" validate:"required"`
	LastName  string         `json:"last_name" validate:"required"`
	Phone     string         `json:"phone,omitempty"`
	PhoneCode string         `json:"phone_code,omitempty"`
	BirthDate string         `json:"birth_date,omitempty"`
	Billing   *types.Address `json:"billing,omitempty"`
	Shipping  *types.Address `json:"shipping,omitempty"`
}

type checkoutSubscriptionRequest struct {
	Frequency        string `json:"frequency" validate:"required"`
	TrialDays        int    `json:"trial_days,omitempty"`
	FirstChargeDate  string `json:"first_charge_date,omitempty"`
	NumberOfPayments int    `json:"number_of_payments,omitempty"`
}
