package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bnasmart/gateway-backend/pkg/enums"
)

// Subscription persists gateway recurring-payment state linked to the
// originating order.
type Subscription struct {
	ID                uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID                `gorm:"column:order_id;type:uuid;not null;index"`
	BNASubscriptionID string                   `gorm:"column:bna_subscription_id;not null;unique"`
	Status            enums.SubscriptionStatus `gorm:"column:status;type:subscription_status;not null;default:'new'"`
	Frequency         enums.BillingFrequency   `gorm:"column:frequency;type:billing_frequency;not null"`
	TrialDays         int                      `gorm:"column:trial_days;not null;default:0"`
	FirstChargeAt     *time.Time               `gorm:"column:first_charge_at"`
	NextPaymentAt     *time.Time               `gorm:"column:next_payment_at"`
	LastProcessedAt   *time.Time               `gorm:"column:last_processed_at"`
	Items             json.RawMessage          `gorm:"column:items;type:jsonb"`
	CreatedAt         time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
