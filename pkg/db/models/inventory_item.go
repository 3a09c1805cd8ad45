package models

import "time"

// InventoryItem tracks stock per SKU. Restocks on failed payments add the
// ordered quantity back.
type InventoryItem struct {
	SKU          string    `gorm:"column:sku;primaryKey"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
