package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Warehouse is a physical stock location. Its total quantity is always derived from Items.
type Warehouse struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Name          string            `gorm:"column:name;type:varchar(100);not null"`
	Code          string            `gorm:"column:code;type:varchar(50);not null;uniqueIndex:idx_warehouses_code"`
	Address       *string           `gorm:"column:address;type:varchar(255)"`
	Capacity      *int              `gorm:"column:capacity"`
	ContactPerson *string           `gorm:"column:contact_person;type:varchar(100)"`
	Notes         *string           `gorm:"column:notes;type:text"`
	Metadata      datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (w *Warehouse) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
