package customers

import (
	"context"

	"gorm.io/gorm"

	"github.com/bnasmart/gateway-backend/pkg/db/models"
)

// Repository defines persistence operations for customer profiles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByBNACustomerID(ctx context.Context, bnaCustomerID string) (*models.CustomerProfile, error)
	FindByEmail(ctx context.Context, email string) (*models.CustomerProfile, error)
	Upsert(ctx context.Context, profile *models.CustomerProfile) (*models.CustomerProfile, error)
	Delete(ctx context.Context, bnaCustomerID string) error
}
