package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bnasmart/gateway-backend/pkg/db/models"
	"github.com/bnasmart/gateway-backend/pkg/enums"
)

// Repository defines persistence operations for orders and stock.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByOrderKey(ctx context.Context, orderKey string) (*models.Order, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Order, error)
	FindByReferenceUUID(ctx context.Context, referenceUUID string) (*models.Order, error)
	FindLatestAwaitingPaymentByCustomer(ctx context.Context, bnaCustomerID string) (*models.Order, error)
	FindExpiredCheckoutTokens(ctx context.Context, cutoff time.Time) ([]models.Order, error)
	Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	AddNote(ctx context.Context, note *models.OrderNote) error
	FindNotes(ctx context.Context, orderID uuid.UUID) ([]models.OrderNote, error)
	FindLineItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderLineItem, error)
	IncrementStock(ctx context.Context, sku string, qty int) error
}
