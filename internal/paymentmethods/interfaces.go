package paymentmethods

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bnasmart/gateway-backend/pkg/db/models"
)

// Repository defines persistence operations for saved payment methods.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByBNAID(ctx context.Context, bnaPaymentMethodID string) (*models.PaymentMethod, error)
	ListByCustomerProfile(ctx context.Context, customerProfileID uuid.UUID) ([]models.PaymentMethod, error)
	Upsert(ctx context.Context, method *models.PaymentMethod) (*models.PaymentMethod, error)
	Delete(ctx context.Context, bnaPaymentMethodID string) error
}
