package bna

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/bnasmart/gateway-backend/internal/orders"
	"github.com/bnasmart/gateway-backend/internal/subscriptions"
	bnaapi "github.com/bnasmart/gateway-backend/pkg/bna"
	"github.com/bnasmart/gateway-backend/pkg/config"
	"github.com/bnasmart/gateway-backend/pkg/db/models"
	"github.com/bnasmart/gateway-backend/pkg/enums"
	pkgerrors "github.com/bnasmart/gateway-backend/pkg/errors"
	"github.com/bnasmart/gateway-backend/pkg/logger"
	"github.com/bnasmart/gateway-backend/pkg/metrics"
	pkgredis "github.com/bnasmart/gateway-backend/pkg/redis"
	"github.com/bnasmart/gateway-backend/pkg/types"
)

const (
	idempotencyScope = "bna-webhook"
	orderLockScope   = "bna-order"
)

// ResultStatus classifies how a delivery was concluded.
type ResultStatus string

const (
	StatusProcessed ResultStatus = "processed"
	StatusIgnored   ResultStatus = "ignored"
	StatusDuplicate ResultStatus = "duplicate"
)

// Result is the acknowledgement returned to the vendor.
type Result struct {
	Status  ResultStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

type orderService interface {
	Locate(ctx context.Context, input orders.LocatorInput) (*models.Order, error)
	MarkPaid(ctx context.Context, input orders.MarkPaidInput) error
	MarkFailed(ctx context.Context, input orders.MarkFailedInput) error
}

type customerService interface {
	UpsertFromWebhook(ctx context.Context, customer bnaapi.Customer) error
	Remove(ctx context.Context, bnaCustomerID string) error
}

type paymentMethodService interface {
	SaveFromWebhook(ctx context.Context, bnaCustomerID string, record bnaapi.PaymentMethodRecord) error
	RemoveFromWebhook(ctx context.Context, bnaPaymentMethodID string) error
}

type subscriptionService interface {
	CreateFromWebhook(ctx context.Context, input subscriptions.CreateInput) error
	MarkProcessed(ctx context.Context, bnaSubscriptionID string, processedAt time.Time) error
	MarkWillExpire(ctx context.Context, bnaSubscriptionID string) error
	MergeStatus(ctx context.Context, bnaSubscriptionID string, rawStatus string) error
}

// Service is the webhook ingestion pipeline: parse the event kind, normalize
// the envelope, fence replays, then apply the event to local state.
type Service interface {
	Handle(ctx context.Context, eventType string, body []byte) (*Result, error)
}

// ServiceParams groups dependencies for the webhook service.
type ServiceParams struct {
	Orders         orderService
	Customers      customerService
	PaymentMethods paymentMethodService
	Subscriptions  subscriptionService
	Idempotency    pkgredis.IdempotencyStore
	Locks          pkgredis.LockStore
	Metrics        *metrics.WebhookMetrics
	Logger         *logger.Logger
	Config         config.WebhookConfig
}

type service struct {
	orders         orderService
	customers      customerService
	paymentMethods paymentMethodService
	subscriptions  subscriptionService
	idempotency    pkgredis.IdempotencyStore
	locks          pkgredis.LockStore
	metrics        *metrics.WebhookMetrics
	logg           *logger.Logger
	cfg            config.WebhookConfig
}

// NewService builds the webhook service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders service required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customers service required")
	}
	if params.PaymentMethods == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment methods service required")
	}
	if params.Subscriptions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service required")
	}
	if params.Idempotency == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency store required")
	}
	if params.Locks == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "lock store required")
	}
	if params.Metrics == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook metrics required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &service{
		orders:         params.Orders,
		customers:      params.Customers,
		paymentMethods: params.PaymentMethods,
		subscriptions:  params.Subscriptions,
		idempotency:    params.Idempotency,
		locks:          params.Locks,
		metrics:        params.Metrics,
		logg:           params.Logger,
		cfg:            params.Config,
	}, nil
}

// Handle processes one webhook delivery. Payload errors surface as
// validation errors so the transport can answer 400; unsupported events and
// unmatched orders are acknowledged as ignored so the vendor stops
// redelivering them.
func (s *service) Handle(ctx context.Context, eventType string, body []byte) (*Result, error) {
	start := time.Now()

	kind, err := ParseEventKind(eventType)
	if err != nil {
		s.logg.Warn(s.logg.WithEventType(ctx, eventType), "unsupported webhook event ignored")
		s.metrics.IncIgnored(eventType)
		return &Result{Status: StatusIgnored, Message: "unsupported event"}, nil
	}
	ctx = s.logg.WithEventType(ctx, kind.String())

	payload, err := Normalize(body, kind.Family)
	if err != nil {
		s.metrics.IncFailed(kind.String())
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload")
	}

	idemKey := s.idempotency.IdempotencyKey(idempotencyScope, kind.String()+":"+payload.ID)
	fresh, err := s.idempotency.SetNX(ctx, idemKey, time.Now().UTC().Format(time.RFC3339), s.cfg.IdempotencyTTL)
	if err != nil {
		s.metrics.IncFailed(kind.String())
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency check failed")
	}
	if !fresh {
		s.logg.Info(ctx, "duplicate webhook delivery suppressed")
		s.metrics.IncDuplicate(kind.String())
		return &Result{Status: StatusDuplicate, Message: "event already processed"}, nil
	}

	result, err := s.dispatch(ctx, kind, payload)
	if err != nil {
		// Release the replay fence so vendor redelivery can retry the event.
		if delErr := s.idempotency.Del(ctx, idemKey); delErr != nil {
			s.logg.Error(ctx, "failed to release idempotency key", delErr)
		}
		s.metrics.IncFailed(kind.String())
		return nil, err
	}

	s.metrics.ObserveDuration(kind.String(), time.Since(start))
	switch result.Status {
	case StatusProcessed:
		s.metrics.IncProcessed(kind.String())
	case StatusDuplicate:
		s.metrics.IncDuplicate(kind.String())
	default:
		s.metrics.IncIgnored(kind.String())
	}
	return result, nil
}

func (s *service) dispatch(ctx context.Context, kind EventKind, payload *Payload) (*Result, error) {
	switch kind.Family {
	case FamilyTransaction:
		return s.handleTransaction(ctx, kind.Action, payload)
	case FamilySubscription:
		return s.handleSubscription(ctx, kind.Action, payload)
	case FamilyCustomer:
		return s.handleCustomer(ctx, kind.Action, payload)
	case FamilyPaymentMethod:
		return s.handlePaymentMethod(ctx, kind.Action, payload)
	default:
		return &Result{Status: StatusIgnored, Message: "unsupported event"}, nil
	}
}

func (s *service) handleTransaction(ctx context.Context, action EventAction, payload *Payload) (*Result, error) {
	order, err := s.orders.Locate(ctx, orders.LocatorInput{
		TransactionID: payload.ID,
		ReferenceUUID: payload.ReferenceUUID,
		BNACustomerID: payload.CustomerID,
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			s.logg.Warn(ctx, "no order matched webhook identifiers")
			return &Result{Status: StatusIgnored, Message: "no matching order"}, nil
		}
		return nil, err
	}
	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	acquired, err := s.locks.AcquireLock(ctx, orderLockScope, order.ID.String(), s.cfg.OrderLockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "order lock failed")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order is being reconciled by another delivery")
	}
	defer func() {
		if err := s.locks.ReleaseLock(ctx, orderLockScope, order.ID.String()); err != nil {
			s.logg.Error(ctx, "failed to release order lock", err)
		}
	}()

	switch action {
	case ActionApproved:
		if order.PaymentCompletedAt != nil {
			s.logg.Info(ctx, "approved event for already paid order")
			return &Result{Status: StatusDuplicate, Message: "Order already paid"}, nil
		}

		currency := order.Currency
		if parsed, err := enums.ParseCurrency(payload.Currency); err == nil {
			currency = parsed
		}
		input := orders.MarkPaidInput{
			OrderID:        order.ID,
			TransactionID:  payload.ID,
			Amount:         payload.Total,
			Currency:       currency,
			WebhookEventID: payload.ID,
		}
		if method, err := enums.ParsePaymentMethod(payload.PaymentMethod); err == nil {
			input.PaymentMethod = method
		}
		var details types.JSONMap
		if err := json.Unmarshal(payload.Raw, &details); err == nil {
			input.PaymentDetails = details
		}
		if err := s.orders.MarkPaid(ctx, input); err != nil {
			return nil, err
		}
		return &Result{Status: StatusProcessed}, nil

	case ActionDeclined, ActionFailed, ActionCanceled:
		status := enums.OrderStatusFailed
		if action == ActionCanceled {
			status = enums.OrderStatusCancelled
		}
		if err := s.orders.MarkFailed(ctx, orders.MarkFailedInput{
			OrderID:        order.ID,
			Status:         status,
			Reason:         payload.Reason(),
			TransactionID:  payload.ID,
			WebhookEventID: payload.ID,
		}); err != nil {
			return nil, err
		}
		return &Result{Status: StatusProcessed}, nil

	default:
		return &Result{Status: StatusIgnored, Message: "unsupported event"}, nil
	}
}

func (s *service) handleSubscription(ctx context.Context, action EventAction, payload *Payload) (*Result, error) {
	switch action {
	case ActionCreated:
		order, err := s.orders.Locate(ctx, orders.LocatorInput{
			ReferenceUUID: payload.ReferenceUUID,
			BNACustomerID: payload.CustomerID,
		})
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				s.logg.Warn(ctx, "no order matched subscription webhook")
				return &Result{Status: StatusIgnored, Message: "no matching order"}, nil
			}
			return nil, err
		}

		frequency := enums.BillingFrequencyMonthly
		if parsed, err := enums.ParseBillingFrequency(payload.Frequency); err == nil {
			frequency = parsed
		}
		input := subscriptions.CreateInput{
			OrderID:           order.ID,
			BNASubscriptionID: payload.ID,
			Frequency:         frequency,
			TrialDays:         payload.TrialDays,
			Items:             payload.Raw,
		}
		if at, ok := parseVendorTime(payload.FirstChargeAt); ok {
			input.FirstChargeAt = &at
		}
		if err := s.subscriptions.CreateFromWebhook(ctx, input); err != nil {
			return nil, err
		}
		return &Result{Status: StatusProcessed}, nil

	case ActionProcessed:
		if err := s.subscriptions.MarkProcessed(ctx, payload.ID, time.Now()); err != nil {
			return nil, err
		}
		return &Result{Status: StatusProcessed}, nil

	case ActionWillExpire:
		if err := s.subscriptions.MarkWillExpire(ctx, payload.ID); err != nil {
			return nil, err
		}
		return &Result{Status: StatusProcessed}, nil

	case ActionUpdated, ActionDeleted:
		status := payload.Status
		if action == ActionDeleted && status == "" {
			status = string(enums.SubscriptionStatusDeleted)
		}
		if err := s.subscriptions.MergeStatus(ctx, payload.ID, status); err != nil {
			return nil, err
		}
		return &Result{Status: StatusProcessed}, nil

	default:
		return &Result{Status: StatusIgnored, Message: "unsupported event"}, nil
	}
}

func (s *service) handleCustomer(ctx context.Context, action EventAction, payload *Payload) (*Result, error) {
	switch action {
	case ActionCreated, ActionUpdated:
		var customer bnaapi.Customer
		if err := json.Unmarshal(payload.Raw, &customer); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer record")
		}
		if err := s.customers.UpsertFromWebhook(ctx, customer); err != nil {
			return nil, err
		}
		return &Result{Status: StatusProcessed}, nil

	case ActionDeleted:
		if err := s.customers.Remove(ctx, payload.ID); err != nil {
			return nil, err
		}
		return &Result{Status: StatusProcessed}, nil

	default:
		return &Result{Status: StatusIgnored, Message: "unsupported event"}, nil
	}
}

func (s *service) handlePaymentMethod(ctx context.Context, action EventAction, payload *Payload) (*Result, error) {
	switch action {
	case ActionCreated:
		customerID := payload.CustomerID
		if customerID == "" {
			s.logg.Warn(ctx, "payment method event without customer id ignored")
			return &Result{Status: StatusIgnored, Message: "no customer id"}, nil
		}
		var record bnaapi.PaymentMethodRecord
		if err := json.Unmarshal(payload.Raw, &record); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method record")
		}
		record.Raw = payload.Raw
		if err := s.paymentMethods.SaveFromWebhook(ctx, customerID, record); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &Result{Status: StatusIgnored, Message: "unknown customer"}, nil
			}
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				return &Result{Status: StatusIgnored, Message: "unknown customer"}, nil
			}
			return nil, err
		}
		return &Result{Status: StatusProcessed}, nil

	case ActionDeleted:
		if err := s.paymentMethods.RemoveFromWebhook(ctx, payload.ID); err != nil {
			return nil, err
		}
		return &Result{Status: StatusProcessed}, nil

	default:
		return &Result{Status: StatusIgnored, Message: "unsupported event"}, nil
	}
}

func parseVendorTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if at, err := time.Parse(layout, raw); err == nil {
			return at, true
		}
	}
	return time.Time{}, false
}
