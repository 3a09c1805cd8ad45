package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bnasmart/gateway-backend/pkg/types"
)

// CustomerProfile mirrors the gateway-side customer record. ProfileHash is
// the content hash of the last payload sent, used to skip redundant updates.
type CustomerProfile struct {
	ID            uuid.UUID     `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BNACustomerID string        `gorm:"column:bna_customer_id;not null;unique"`
	Email         string        `gorm:"column:email;not null;index"`
	ProfileHash   string        `gorm:"column:profile_hash;not null"`
	Payload       types.JSONMap `gorm:"column:payload;type:jsonb;serializer:json"`
	SyncedAt      *time.Time    `gorm:"column:synced_at"`
	CreatedAt     time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
