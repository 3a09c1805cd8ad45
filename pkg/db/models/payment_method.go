package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bnasmart/gateway-backend/pkg/enums"
)

// PaymentMethod mirrors a gateway-vaulted payment method per customer.
type PaymentMethod struct {
	ID                 uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerProfileID  uuid.UUID               `gorm:"column:customer_profile_id;type:uuid;not null;index"`
	BNAPaymentMethodID string                  `gorm:"column:bna_payment_method_id;not null;unique"`
	Type               enums.PaymentMethodType `gorm:"column:type;type:payment_method_type;not null;default:'card'"`
	CardBrand          *string                 `gorm:"column:card_brand"`
	CardLast4          *string                 `gorm:"column:card_last4"`
	CardExpMonth       *int                    `gorm:"column:card_exp_month"`
	CardExpYear        *int                    `gorm:"column:card_exp_year"`
	BankName           *string                 `gorm:"column:bank_name"`
	AccountLast4       *string                 `gorm:"column:account_last4"`
	DeliveryEmail      *string                 `gorm:"column:delivery_email"`
	Details            json.RawMessage         `gorm:"column:details;type:jsonb"`
	CreatedAt          time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
