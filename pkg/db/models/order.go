package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bnasmart/gateway-backend/pkg/enums"
	"github.com/bnasmart/gateway-backend/pkg/types"
)

// Order is the store-side order reconciled against gateway webhooks.
type Order struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderKey           string              `gorm:"column:order_key;not null;unique"`
	BNACustomerID      *string             `gorm:"column:bna_customer_id;index"`
	Status             enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentMethod      enums.PaymentMethod `gorm:"column:payment_method;type:payment_method;not null;default:'card'"`
	Total              decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	Currency           enums.Currency      `gorm:"column:currency;type:text;not null;default:'CAD'"`
	TransactionID      *string             `gorm:"column:transaction_id;uniqueIndex"`
	ReferenceUUID      *string             `gorm:"column:reference_uuid;index"`
	CheckoutToken      *string             `gorm:"column:checkout_token"`
	CheckoutTokenAt    *time.Time          `gorm:"column:checkout_token_at"`
	PaymentDetails     types.JSONMap       `gorm:"column:payment_details;type:jsonb;serializer:json"`
	BillingAddress     *types.Address      `gorm:"column:billing_address;type:jsonb;serializer:json"`
	ShippingAddress    *types.Address      `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	PaymentCompletedAt *time.Time          `gorm:"column:payment_completed_at"`
	PaymentFailedAt    *time.Time          `gorm:"column:payment_failed_at"`
	RestockedAt        *time.Time          `gorm:"column:restocked_at"`
	Items              []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Notes              []OrderNote         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
