package paymentmethods

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bnasmart/gateway-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payment methods repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByBNAID(ctx context.Context, bnaPaymentMethodID string) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("bna_payment_method_id = ?", bnaPaymentMethodID).
		First(&method).Error
	if err != nil {
		return nil, err
	}
	return &method, nil
}

func (r *repository) ListByCustomerProfile(ctx context.Context, customerProfileID uuid.UUID) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("customer_profile_id = ?", customerProfileID).
		Order("created_at ASC").
		Find(&methods).Error
	return methods, err
}

func (r *repository) Upsert(ctx context.Context, method *models.PaymentMethod) (*models.PaymentMethod, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "bna_payment_method_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"type", "card_brand", "card_last4", "card_exp_month", "card_exp_year",
				"bank_name", "account_last4", "delivery_email", "details", "updated_at",
			}),
		}).
		Create(method).Error
	if err != nil {
		return nil, err
	}
	return method, nil
}

func (r *repository) Delete(ctx context.Context, bnaPaymentMethodID string) error {
	return r.db.WithContext(ctx).
		Where("bna_payment_method_id = ?", bnaPaymentMethodID).
		Delete(&models.PaymentMethod{}).Error
}
