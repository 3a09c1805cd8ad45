package subscriptions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bnasmart/gateway-backend/pkg/db/models"
)

// Repository defines persistence operations for subscription records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
	FindByBNAID(ctx context.Context, bnaSubscriptionID string) (*models.Subscription, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Subscription, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}
