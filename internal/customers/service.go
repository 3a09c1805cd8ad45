package customers

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/bnasmart/gateway-backend/pkg/bna"
	"github.com/bnasmart/gateway-backend/pkg/config"
	"github.com/bnasmart/gateway-backend/pkg/db/models"
	"github.com/bnasmart/gateway-backend/pkg/enums"
	pkgerrors "github.com/bnasmart/gateway-backend/pkg/errors"
	"github.com/bnasmart/gateway-backend/pkg/logger"
	"github.com/bnasmart/gateway-backend/pkg/outbox"
	"github.com/bnasmart/gateway-backend/pkg/types"
)

type vendorCustomerClient interface {
	CreateCustomer(ctx context.Context, params bna.CustomerParams) (*bna.Customer, error)
	UpdateCustomer(ctx context.Context, customerID string, params bna.CustomerParams) (*bna.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*bna.Customer, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// SyncInput carries the shopper fields collected at checkout.
type SyncInput struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	PhoneCode string
	BirthDate string
	Billing   *types.Address
	Shipping  *types.Address
}

// Service reconciles store-side shopper data with gateway customer records.
type Service interface {
	Sync(ctx context.Context, input SyncInput) (string, error)
	UpsertFromWebhook(ctx context.Context, customer bna.Customer) error
	Remove(ctx context.Context, bnaCustomerID string) error
}

// ServiceParams groups dependencies for the customers service.
type ServiceParams struct {
	Repo              Repository
	Vendor            vendorCustomerClient
	Features          config.FeaturesConfig
	TransactionRunner txRunner
	Outbox            outboxPublisher
	Logger            *logger.Logger
}

type service struct {
	repo     Repository
	vendor   vendorCustomerClient
	features config.FeaturesConfig
	txRunner txRunner
	outbox   outboxPublisher
	logg     *logger.Logger
}

// NewService builds a customers service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
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
		repo:     params.Repo,
		vendor:   params.Vendor,
		features: params.Features,
		txRunner: params.TransactionRunner,
		outbox:   params.Outbox,
		logg:     params.Logger,
	}, nil
}

// Sync resolves the gateway customer id for the shopper, creating or
// patching the gateway record only when the profile content changed.
func (s *service) Sync(ctx context.Context, input SyncInput) (string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}

	params := s.buildParams(input, email)
	hash, err := ProfileHash(params)
	if err != nil {
		return "", err
	}

	local, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	if local != nil && local.ProfileHash == hash {
		return local.BNACustomerID, nil
	}

	var remote *bna.Customer
	switch {
	case local != nil:
		remote, err = s.vendor.UpdateCustomer(ctx, local.BNACustomerID, params)
	default:
		remote, err = s.vendor.FindCustomerByEmail(ctx, email)
		if err == nil && remote != nil {
			// The gateway record exists but our copy doesn't. Patch it
			// before reuse so stale vendor-side data never leaks into
			// the new checkout.
			remote, err = s.vendor.UpdateCustomer(ctx, remote.ID, params)
		} else if err == nil {
			remote, err = s.vendor.CreateCustomer(ctx, params)
		}
	}
	if err != nil {
		return "", err
	}
	if remote == nil || remote.ID == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "gateway returned no customer id")
	}

	profile := &models.CustomerProfile{
		BNACustomerID: remote.ID,
		Email:         email,
		ProfileHash:   hash,
	}
	if local != nil {
		profile.ID = local.ID
	}
	now := time.Now()
	profile.SyncedAt = &now

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		saved, err := s.repo.WithTx(tx).Upsert(ctx, profile)
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCustomerSynced,
			AggregateType: enums.AggregateCustomerProfile,
			AggregateID:   saved.ID,
			Data: map[string]any{
				"bnaCustomerId": remote.ID,
				"email":         email,
			},
			Version: 1,
		})
	})
	if err != nil {
		return "", err
	}
	return remote.ID, nil
}

// UpsertFromWebhook refreshes the local mirror when the gateway reports a
// customer change. The webhook payload wins over local state.
func (s *service) UpsertFromWebhook(ctx context.Context, customer bna.Customer) error {
	if customer.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook customer is missing an id")
	}
	email := strings.ToLower(strings.TrimSpace(customer.Email))

	// Hash the same canonical payload the checkout path hashes, so a
	// webhook refresh does not force a gateway PATCH on the next sync.
	hash, err := ProfileHash(s.buildParams(SyncInput{
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		Phone:     customer.PhoneNumber,
		PhoneCode: customer.PhoneCode,
		BirthDate: customer.BirthDate,
		Billing:   customer.Address,
		Shipping:  customer.Shipping,
	}, email))
	if err != nil {
		return err
	}

	profile := &models.CustomerProfile{
		BNACustomerID: customer.ID,
		Email:         email,
		ProfileHash:   hash,
	}
	if existing, err := s.repo.FindByBNACustomerID(ctx, customer.ID); err == nil {
		profile.ID = existing.ID
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	now := time.Now()
	profile.SyncedAt = &now

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		saved, err := s.repo.WithTx(tx).Upsert(ctx, profile)
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCustomerSynced,
			AggregateType: enums.AggregateCustomerProfile,
			AggregateID:   saved.ID,
			Data: map[string]any{
				"bnaCustomerId": customer.ID,
				"email":         email,
				"origin":        "webhook",
			},
			Version: 1,
		})
	})
}

// Remove drops the local mirror for a deleted gateway customer. Unknown ids
// are not an error.
func (s *service) Remove(ctx context.Context, bnaCustomerID string) error {
	profile, err := s.repo.FindByBNACustomerID(ctx, bnaCustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, bnaCustomerID); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCustomerRemoved,
			AggregateType: enums.AggregateCustomerProfile,
			AggregateID:   profile.ID,
			Data: map[string]any{
				"bnaCustomerId": bnaCustomerID,
			},
			Version: 1,
		})
	})
}

// buildParams shapes the gateway payload from the capture toggles. Disabled
// fields are never sent, even when the store collected them.
func (s *service) buildParams(input SyncInput, email string) bna.CustomerParams {
	params := bna.CustomerParams{
		Type:      "Personal",
		Email:     email,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
	}
	if s.features.Phone {
		params.PhoneNumber = strings.TrimSpace(input.Phone)
		params.PhoneCode = strings.TrimSpace(input.PhoneCode)
	}
	if s.features.Birthdate {
		params.BirthDate = strings.TrimSpace(input.BirthDate)
	}
	if s.features.BillingAddress {
		params.Address = input.Billing
	}
	if s.features.ShippingAddress {
		params.Shipping = input.Shipping
	}
	return params
}
