package checkout

import (
	"context"
	"strings"
	"time"

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

type vendorCheckoutClient interface {
	CreateCheckout(ctx context.Context, params bna.CheckoutParams) (string, error)
	IframeURL(token string) string
}

type customerSyncer interface {
	Sync(ctx context.Context, input customers.SyncInput) (string, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// TokenResult is what the storefront embeds: the raw token plus the hosted
// iframe URL built for the configured environment.
type TokenResult struct {
	Token     string `json:"token"`
	IframeURL string `json:"iframeUrl"`
}

// Service issues hosted-checkout tokens for orders awaiting payment.
type Service interface {
	GenerateToken(ctx context.Context, input GenerateTokenInput) (*TokenResult, error)
}

// GenerateTokenInput identifies the order and carries the shopper profile
// collected at checkout.
type GenerateTokenInput struct {
	OrderKey     string
	Customer     customers.SyncInput
	SaveCard     bool
	Subscription *bna.CheckoutSubscription
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	OrdersRepo        orders.Repository
	Customers         customerSyncer
	Vendor            vendorCheckoutClient
	Features          config.FeaturesConfig
	TransactionRunner txRunner
	Outbox            outboxPublisher
	Logger            *logger.Logger
}

type service struct {
	ordersRepo orders.Repository
	customers  customerSyncer
	vendor     vendorCheckoutClient
	features   config.FeaturesConfig
	txRunner   txRunner
	outbox     outboxPublisher
	logg       *logger.Logger
}

// NewService builds a checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customers service required")
	}
	if params.Vendor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "vendor client required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "outbox publisher required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{
		ordersRepo: params.OrdersRepo,
		customers:  params.Customers,
		vendor:     params.Vendor,
		features:   params.Features,
		txRunner:   params.TransactionRunner,
		outbox:     params.Outbox,
		logg:       params.Logger,
	}, nil
}

// GenerateToken syncs the shopper with the gateway, requests a checkout
// token, and stores it against the order for later webhook reconciliation.
func (s *service) GenerateToken(ctx context.Context, input GenerateTokenInput) (*TokenResult, error) {
	orderKey := strings.TrimSpace(input.OrderKey)
	if orderKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order key is required")
	}

	order, err := s.ordersRepo.FindByOrderKey(ctx, orderKey)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is no longer payable")
	}

	customerID, err := s.customers.Sync(ctx, input.Customer)
	if err != nil {
		return nil, err
	}

	params := s.buildCheckoutParams(order, customerID, input.Customer)
	params.SaveCard = input.SaveCard
	if s.features.Subscriptions && input.Subscription != nil {
		sub := *input.Subscription
		if sub.FirstChargeDate == "" {
			sub.FirstChargeDate = firstChargeDate(sub, time.Now())
		}
		params.Subscription = &sub
	}
	token, err := s.vendor.CreateCheckout(ctx, params)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway returned an empty checkout token")
	}

	now := time.Now()
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)
		if err := repo.Update(ctx, order.ID, map[string]any{
			"checkout_token":    token,
			"checkout_token_at": now,
			"bna_customer_id":   customerID,
			"reference_uuid":    order.ID.String(),
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCheckoutTokenIssued,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: map[string]any{
				"orderKey":      order.OrderKey,
				"bnaCustomerId": customerID,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, "checkout token issued")

	return &TokenResult{
		Token:     token,
		IframeURL: s.vendor.IframeURL(token),
	}, nil
}

func (s *service) buildCheckoutParams(order *models.Order, customerID string, shopper customers.SyncInput) bna.CheckoutParams {
	items := make([]bna.CheckoutItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, bna.CheckoutItem{
			SKU:         item.SKU,
			Description: item.Name,
			Quantity:    item.Qty,
			Price:       item.UnitPrice,
			Amount:      item.Total,
		})
	}

	info := bna.CheckoutCustomer{
		CustomerID: customerID,
		Type:       "Personal",
		Email:      strings.ToLower(strings.TrimSpace(shopper.Email)),
		FirstName:  strings.TrimSpace(shopper.FirstName),
		LastName:   strings.TrimSpace(shopper.LastName),
	}
	if s.features.Phone {
		info.PhoneNumber = strings.TrimSpace(shopper.Phone)
		info.PhoneCode = strings.TrimSpace(shopper.PhoneCode)
	}
	if s.features.Birthdate {
		info.BirthDate = strings.TrimSpace(shopper.BirthDate)
	}
	if s.features.BillingAddress {
		info.Address = shopper.Billing
	}
	if s.features.ShippingAddress {
		info.Shipping = shopper.Shipping
	}

	return bna.CheckoutParams{
		InvoiceID:     order.OrderKey,
		Currency:      order.Currency,
		Subtotal:      order.Total,
		Items:         items,
		CustomerInfo:  info,
		ReferenceUUID: order.ID.String(),
	}
}

// firstChargeDate fills the schedule start the storefront left implicit: the
// end of the free trial when one exists, otherwise one billing interval out.
func firstChargeDate(sub bna.CheckoutSubscription, now time.Time) string {
	first := now
	if sub.FreeTrialLength > 0 {
		first = first.AddDate(0, 0, sub.FreeTrialLength)
	} else {
		first = sub.RecurringFrequency.NextFrom(first)
	}
	return first.Format("2006-01-02")
}
