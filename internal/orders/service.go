package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

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
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the reconciliation surface webhook handlers drive.
type Service interface {
	Locate(ctx context.Context, input LocatorInput) (*models.Order, error)
	MarkPaid(ctx context.Context, input MarkPaidInput) error
	MarkFailed(ctx context.Context, input MarkFailedInput) error
}

// ServiceParams groups dependencies for the orders service.
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

// NewService builds an orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
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

// Locate resolves the order a webhook refers to. Identifiers are tried in
// priority order: transaction id, reference uuid, then the most recent
// still-unpaid order for the vendor customer.
func (s *service) Locate(ctx context.Context, input LocatorInput) (*models.Order, error) {
	if input.TransactionID != "" {
		order, err := s.repo.FindByTransactionID(ctx, input.TransactionID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if input.ReferenceUUID != "" {
		order, err := s.repo.FindByReferenceUUID(ctx, input.ReferenceUUID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if input.BNACustomerID != "" {
		order, err := s.repo.FindLatestAwaitingPaymentByCustomer(ctx, input.BNACustomerID)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for webhook identifiers")
}

// MarkPaid records an approved transaction. Replays against an already paid
// order are no-ops.
func (s *service) MarkPaid(ctx context.Context, input MarkPaidInput) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.PaymentCompletedAt != nil {
			return nil
		}
		if order.Status.IsTerminal() {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"orderId":       order.ID.String(),
				"orderStatus":   order.Status,
				"transactionId": input.TransactionID,
			})
			s.logg.Warn(logCtx, "approved event against terminal order refused")
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal state")
		}

		now := time.Now()
		updates := map[string]any{
			"status":               enums.OrderStatusProcessing,
			"transaction_id":       input.TransactionID,
			"payment_completed_at": now,
			"checkout_token":       nil,
			"checkout_token_at":    nil,
		}
		if len(input.PaymentDetails) > 0 {
			updates["payment_details"] = input.PaymentDetails
		}
		if input.PaymentMethod != "" {
			updates["payment_method"] = input.PaymentMethod
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return err
		}

		note := fmt.Sprintf("Payment approved via BNA Smart Payment (transaction %s, amount %s %s).",
			input.TransactionID, input.Amount.StringFixed(2), input.Currency)
		if err := repo.AddNote(ctx, &models.OrderNote{OrderID: order.ID, Note: note}); err != nil {
			return err
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Source: &outbox.SourceRef{
				WebhookEventID: input.WebhookEventID,
				TransactionID:  input.TransactionID,
			},
			Data: map[string]any{
				"orderKey":      order.OrderKey,
				"transactionId": input.TransactionID,
				"amount":        input.Amount.StringFixed(2),
				"currency":      input.Currency,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
}

// MarkFailed records an unsuccessful transaction. Stock is returned exactly
// once per order, guarded by restocked_at.
func (s *service) MarkFailed(ctx context.Context, input MarkFailedInput) error {
	if input.Status != enums.OrderStatusFailed && input.Status != enums.OrderStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeValidation, "failure status must be failed or cancelled")
	}
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.PaymentCompletedAt != nil {
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()),
				"failure event for already paid order ignored")
			return nil
		}

		now := time.Now()
		updates := map[string]any{
			"status":            input.Status,
			"payment_failed_at": now,
		}
		if input.TransactionID != "" {
			updates["transaction_id"] = input.TransactionID
		}

		restock := order.RestockedAt == nil
		if restock {
			updates["restocked_at"] = now
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return err
		}

		if restock {
			for _, item := range order.Items {
				if err := repo.IncrementStock(ctx, item.SKU, item.Qty); err != nil {
					return err
				}
			}
		}

		reason := input.Reason
		if reason == "" {
			reason = "no reason provided"
		}
		note := fmt.Sprintf("Payment %s via BNA Smart Payment: %s", input.Status, reason)
		if err := repo.AddNote(ctx, &models.OrderNote{OrderID: order.ID, Note: note}); err != nil {
			return err
		}

		eventType := enums.EventOrderFailed
		if input.Status == enums.OrderStatusCancelled {
			eventType = enums.EventOrderCancelled
		}
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     eventType,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Source: &outbox.SourceRef{
				WebhookEventID: input.WebhookEventID,
				TransactionID:  input.TransactionID,
			},
			Data: map[string]any{
				"orderKey": order.OrderKey,
				"status":   input.Status,
				"reason":   reason,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
}
