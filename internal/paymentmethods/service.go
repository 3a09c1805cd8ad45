package paymentmethods

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/bnasmart/gateway-backend/internal/customers"
	"github.com/bnasmart/gateway-backend/pkg/bna"
	"github.com/bnasmart/gateway-backend/pkg/db/models"
	"github.com/bnasmart/gateway-backend/pkg/enums"
	pkgerrors "github.com/bnasmart/gateway-backend/pkg/errors"
	"github.com/bnasmart/gateway-backend/pkg/logger"
	"github.com/bnasmart/gateway-backend/pkg/outbox"
)

type vendorPaymentMethodClient interface {
	DeletePaymentMethod(ctx context.Context, customerID string, method enums.PaymentMethod, paymentMethodID string) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service manages the local mirror of gateway-vaulted payment methods.
type Service interface {
	List(ctx context.Context, bnaCustomerID string) ([]models.PaymentMethod, error)
	SaveFromWebhook(ctx context.Context, bnaCustomerID string, record bna.PaymentMethodRecord) error
	RemoveFromWebhook(ctx context.Context, bnaPaymentMethodID string) error
	Delete(ctx context.Context, bnaCustomerID, bnaPaymentMethodID string) error
}

// ServiceParams groups dependencies for the payment methods service.
type ServiceParams struct {
	Repo              Repository
	Customers         customers.Repository
	Vendor            vendorPaymentMethodClient
	TransactionRunner txRunner
	Outbox            outboxPublisher
	Logger            *logger.Logger
}

type service struct {
	repo      Repository
	customers customers.Repository
	vendor    vendorPaymentMethodClient
	txRunner  txRunner
	outbox    outboxPublisher
	logg      *logger.Logger
}

// NewService builds a payment methods service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment methods repo required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customers repo required")
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
		repo:      params.Repo,
		customers: params.Customers,
		vendor:    params.Vendor,
		txRunner:  params.TransactionRunner,
		outbox:    params.Outbox,
		logg:      params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, bnaCustomerID string) ([]models.PaymentMethod, error) {
	profile, err := s.customers.FindByBNACustomerID(ctx, bnaCustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, err
	}
	return s.repo.ListByCustomerProfile(ctx, profile.ID)
}

// SaveFromWebhook mirrors a newly vaulted payment method reported by the
// gateway. Vendor type spellings are normalized before storage.
func (s *service) SaveFromWebhook(ctx context.Context, bnaCustomerID string, record bna.PaymentMethodRecord) error {
	if record.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment method id is required")
	}
	profile, err := s.customers.FindByBNACustomerID(ctx, bnaCustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found for payment method")
		}
		return err
	}

	method := &models.PaymentMethod{
		CustomerProfileID:  profile.ID,
		BNAPaymentMethodID: record.ID,
		Type:               enums.NormalizePaymentMethodType(record.Type),
	}
	if record.CardBrand != "" {
		method.CardBrand = &record.CardBrand
	}
	if last4 := lastFour(record.CardNumber); last4 != "" {
		method.CardLast4 = &last4
	}
	if month, year, ok := parseExpiry(record.ExpiryDate); ok {
		method.CardExpMonth = &month
		method.CardExpYear = &year
	}
	if record.BankName != "" {
		method.BankName = &record.BankName
	}
	if record.Email != "" {
		method.DeliveryEmail = &record.Email
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		saved, err := s.repo.WithTx(tx).Upsert(ctx, method)
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentMethodSaved,
			AggregateType: enums.AggregatePaymentMethod,
			AggregateID:   saved.ID,
			Data: map[string]any{
				"bnaCustomerId":      bnaCustomerID,
				"bnaPaymentMethodId": record.ID,
				"type":               method.Type,
			},
			Version: 1,
		})
	})
}

// RemoveFromWebhook drops the local mirror when the gateway reports a
// removal. Unknown ids are not an error.
func (s *service) RemoveFromWebhook(ctx context.Context, bnaPaymentMethodID string) error {
	method, err := s.repo.FindByBNAID(ctx, bnaPaymentMethodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.removeLocal(ctx, method)
}

// Delete is shopper-initiated: the method is removed at the gateway first,
// then mirrored locally. A gateway 404 still clears the local copy.
func (s *service) Delete(ctx context.Context, bnaCustomerID, bnaPaymentMethodID string) error {
	method, err := s.repo.FindByBNAID(ctx, bnaPaymentMethodID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
		}
		return err
	}

	if err := s.vendor.DeletePaymentMethod(ctx, bnaCustomerID, vendorMethod(method.Type), bnaPaymentMethodID); err != nil {
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			return err
		}
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"bnaCustomerId":      bnaCustomerID,
			"bnaPaymentMethodId": bnaPaymentMethodID,
		})
		s.logg.Warn(logCtx, "payment method already gone at gateway, clearing local copy")
	}
	return s.removeLocal(ctx, method)
}

func (s *service) removeLocal(ctx context.Context, method *models.PaymentMethod) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, method.BNAPaymentMethodID); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentMethodRemoved,
			AggregateType: enums.AggregatePaymentMethod,
			AggregateID:   method.ID,
			Data: map[string]any{
				"bnaPaymentMethodId": method.BNAPaymentMethodID,
			},
			Version: 1,
		})
	})
}

func lastFour(number string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}

// parseExpiry handles the MM/YY and MM/YYYY spellings the gateway uses.
func parseExpiry(raw string) (int, int, bool) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	var month, year int
	if _, err := fmt.Sscanf(parts[0], "%d", &month); err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &year); err != nil {
		return 0, 0, false
	}
	if year < 100 {
		year += 2000
	}
	return month, year, true
}

// vendorMethod maps the stored type back to the delete sub-path family.
func vendorMethod(t enums.PaymentMethodType) enums.PaymentMethod {
	switch t {
	case enums.PaymentMethodTypeEFT:
		return enums.PaymentMethodEFT
	case enums.PaymentMethodTypeETransfer:
		return enums.PaymentMethodETransfer
	case enums.PaymentMethodTypeCheque:
		return enums.PaymentMethodCheque
	case enums.PaymentMethodTypeCash:
		return enums.PaymentMethodCash
	default:
		return enums.PaymentMethodCard
	}
}
