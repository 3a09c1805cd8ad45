package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderNote is an audit line attached to an order during reconciliation.
type OrderNote struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	Note      string    `gorm:"column:note;not null"`
	Author    string    `gorm:"column:author;not null;default:'gateway'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
