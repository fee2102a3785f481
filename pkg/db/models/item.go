package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultItemUnit is applied when an item is created without a unit.
const DefaultItemUnit = "units"

// Item is a stock record scoped to one warehouse. SKU is unique per warehouse.
type Item struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	WarehouseID uuid.UUID         `gorm:"column:warehouse_id;type:uuid;not null;uniqueIndex:idx_items_warehouse_sku,priority:1;index"`
	SKU         string            `gorm:"column:sku;type:varchar(50);not null;uniqueIndex:idx_items_warehouse_sku,priority:2"`
	Name        string            `gorm:"column:name;type:varchar(100);not null"`
	Description *string           `gorm:"column:description;type:text"`
	Quantity    Quantity          `gorm:"column:quantity;type:numeric(18,4);not null;default:0;check:items_quantity_non_negative,quantity >= 0"`
	Unit        string            `gorm:"column:unit;type:varchar(20);not null;default:units"`
	BatchNumber *string           `gorm:"column:batch_number;type:varchar(50)"`
	ExpiryDate  *time.Time        `gorm:"column:expiry_date;type:date"`
	Metadata    datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Item) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Unit == "" {
		i.Unit = DefaultItemUnit
	}
	return nil
}
