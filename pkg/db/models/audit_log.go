package models

import (
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of one state change. Rows are never updated or deleted.
// UserID carries no foreign key so entries outlive the accounts that produced them.
type AuditLog struct {
	ID                     uuid.UUID           `gorm:"type:uuid;primaryKey"`
	Type                   enums.AuditType     `gorm:"column:type;type:varchar(20);not null;index"`
	UserID                 *uuid.UUID          `gorm:"column:user_id;type:uuid;index"`
	ItemID                 *uuid.UUID          `gorm:"column:item_id;type:uuid"`
	SourceWarehouseID      *uuid.UUID          `gorm:"column:source_warehouse_id;type:uuid;index"`
	DestinationWarehouseID *uuid.UUID          `gorm:"column:destination_warehouse_id;type:uuid;index"`
	Quantity               NullQuantity        `gorm:"column:quantity;type:numeric(18,4)"`
	Notes                  *string             `gorm:"column:notes;type:text"`
	Details                datatypes.JSONMap   `gorm:"column:details"`
	Timestamp              time.Time           `gorm:"column:timestamp;not null;index"`
}

func (a *AuditLog) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
