package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bnasmart/gateway-backend/pkg/enums"
	"github.com/bnasmart/gateway-backend/pkg/types"
)

// LocatorInput carries the identifiers a webhook payload may include, in
// lookup priority order.
type LocatorInput struct {
	TransactionID string
	ReferenceUUID string
	BNACustomerID string
}

// MarkPaidInput records an approved transaction against an order.
type MarkPaidInput struct {
	OrderID        uuid.UUID
	TransactionID  string
	Amount         decimal.Decimal
	Currency       enums.Currency
	PaymentMethod  enums.PaymentMethod
	PaymentDetails types.JSONMap
	WebhookEventID string
}

// MarkFailedInput records a declined, canceled, or failed transaction.
type MarkFailedInput struct {
	OrderID        uuid.UUID
	Status         enums.OrderStatus
	Reason         string
	TransactionID  string
	WebhookEventID string
}
