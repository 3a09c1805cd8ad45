package subscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bnasmart/gateway-backend/pkg/db/models"
	"github.com/bnasmart/gateway-backend/pkg/enums"
	pkgerrors "github.com/bnasmart/gateway-backend/pkg/errors"
	"github.com/bnasmart/gateway-backend/pkg/logger"
	"github.com/bnasmart/gateway-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// CreateInput captures a gateway-created subscription tied to an order.
type CreateInput struct {
	OrderID           uuid.UUID
	BNASubscriptionID string
	Frequency         enums.BillingFrequency
	TrialDays         int
	FirstChargeAt     *time.Time
	Items             json.RawMessage
}

// Service mirrors gateway recurring-payment state.
type Service interface {
	CreateFromWebhook(ctx context.Context, input CreateInput) error
	MarkProcessed(ctx context.Context, bnaSubscriptionID string, processedAt time.Time) error
	MarkWillExpire(ctx context.Context, bnaSubscriptionID string) error
	MergeStatus(ctx context.Context, bnaSubscriptionID string, rawStatus string) error
}

// ServiceParams groups dependencies for the subscriptions service.
type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
	Outbox            outboxPublisher
	Logger            *logger.Logger
}

type service struct {
	repo     Repository
	txRunner txRunner
	outbox   outboxPublisher
	logg     *logger.Logger
}

// NewService builds a subscriptions service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions repo required")
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
		repo:     params.Repo,
		txRunner: params.TransactionRunner,
		outbox:   params.Outbox,
		logg:     params.Logger,
	}, nil
}

// CreateFromWebhook stores the subscription the gateway just created.
// Replays of the same subscription id are no-ops.
func (s *service) CreateFromWebhook(ctx context.Context, input CreateInput) error {
	if input.BNASubscriptionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id is required")
	}
	if !input.Frequency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid billing frequency")
	}

	if _, err := s.repo.FindByBNAID(ctx, input.BNASubscriptionID); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	sub := &models.Subscription{
		OrderID:           input.OrderID,
		BNASubscriptionID: input.BNASubscriptionID,
		Status:            enums.SubscriptionStatusNew,
		Frequency:         input.Frequency,
		TrialDays:         input.TrialDays,
		FirstChargeAt:     input.FirstChargeAt,
		Items:             input.Items,
	}
	if input.FirstChargeAt != nil {
		next := input.Frequency.NextFrom(*input.FirstChargeAt)
		sub.NextPaymentAt = &next
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		saved, err := s.repo.WithTx(tx).Create(ctx, sub)
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriptionCreated,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   saved.ID,
			Data: map[string]any{
				"bnaSubscriptionId": input.BNASubscriptionID,
				"orderId":           input.OrderID.String(),
				"frequency":         input.Frequency,
			},
			Version: 1,
		})
	})
}

// MarkProcessed advances the schedule after a successful recurring charge.
func (s *service) MarkProcessed(ctx context.Context, bnaSubscriptionID string, processedAt time.Time) error {
	sub, err := s.findKnown(ctx, bnaSubscriptionID)
	if err != nil || sub == nil {
		return err
	}

	next := sub.Frequency.NextFrom(processedAt)
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, sub.ID, map[string]any{
			"status":            enums.SubscriptionStatusActive,
			"last_processed_at": processedAt,
			"next_payment_at":   next,
		}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriptionProcessed,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   sub.ID,
			Data: map[string]any{
				"bnaSubscriptionId": bnaSubscriptionID,
				"nextPaymentAt":     next,
			},
			Version: 1,
		})
	})
}

// MarkWillExpire surfaces the gateway's expiry warning to downstream
// consumers without touching local state.
func (s *service) MarkWillExpire(ctx context.Context, bnaSubscriptionID string) error {
	sub, err := s.findKnown(ctx, bnaSubscriptionID)
	if err != nil || sub == nil {
		return err
	}

	s.logg.Warn(s.logg.WithField(ctx, "bna_subscription_id", bnaSubscriptionID),
		"subscription will expire")

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSubscriptionWillExpire,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   sub.ID,
			Data: map[string]any{
				"bnaSubscriptionId": bnaSubscriptionID,
			},
			Version: 1,
		})
	})
}

// MergeStatus folds an updated or deleted event's status into the local
// record. Unknown statuses are rejected, unknown subscriptions ignored.
func (s *service) MergeStatus(ctx context.Context, bnaSubscriptionID string, rawStatus string) error {
	status, err := enums.ParseSubscriptionStatus(rawStatus)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown subscription status")
	}

	sub, findErr := s.findKnown(ctx, bnaSubscriptionID)
	if findErr != nil || sub == nil {
		return findErr
	}
	if sub.Status == status {
		return nil
	}

	eventType := enums.EventSubscriptionUpdated
	if status == enums.SubscriptionStatusDeleted {
		eventType = enums.EventSubscriptionDeleted
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, sub.ID, map[string]any{"status": status}); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateSubscription,
			AggregateID:   sub.ID,
			Data: map[string]any{
				"bnaSubscriptionId": bnaSubscriptionID,
				"status":            status,
			},
			Version: 1,
		})
	})
}

func (s *service) findKnown(ctx context.Context, bnaSubscriptionID string) (*models.Subscription, error) {
	sub, err := s.repo.FindByBNAID(ctx, bnaSubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(s.logg.WithField(ctx, "bna_subscription_id", bnaSubscriptionID),
				"event for unknown subscription ignored")
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}
