package audit

import (
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryDTO is the wire shape of an audit entry.
type EntryDTO struct {
	ID                     uuid.UUID        `json:"id"`
	Type                   enums.AuditType  `json:"type"`
	UserID                 *uuid.UUID       `json:"user_id"`
	ItemID                 *uuid.UUID       `json:"item_id"`
	SourceWarehouseID      *uuid.UUID       `json:"source_warehouse_id"`
	DestinationWarehouseID *uuid.UUID       `json:"destination_warehouse_id"`
	Quantity               *decimal.Decimal `json:"quantity"`
	Notes                  *string          `json:"notes"`
	Details                map[string]any   `json:"details"`
	Timestamp              time.Time        `json:"timestamp"`
}

// PageDTO is a page of entries plus pagination metadata.
type PageDTO struct {
	Logs []EntryDTO `json:"logs"`
	pagination.Meta
}

func FromModel(m models.AuditLog) EntryDTO {
	dto := EntryDTO{
		ID:                     m.ID,
		Type:                   m.Type,
		UserID:                 m.UserID,
		ItemID:                 m.ItemID,
		SourceWarehouseID:      m.SourceWarehouseID,
		DestinationWarehouseID: m.DestinationWarehouseID,
		Notes:                  m.Notes,
		Details:                m.Details,
		Timestamp:              m.Timestamp,
	}
	if m.Quantity.Valid {
		q := m.Quantity.Decimal
		dto.Quantity = &q
	}
	if dto.Details == nil {
		dto.Details = map[string]any{}
	}
	return dto
}

func FromResult(res *ListResult) PageDTO {
	page := PageDTO{Logs: make([]EntryDTO, 0)}
	if res == nil {
		return page
	}
	page.Meta = res.Meta
	for _, entry := range res.Entries {
		page.Logs = append(page.Logs, FromModel(entry))
	}
	return page
}
