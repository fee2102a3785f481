package warehouses

import (
	"strings"
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateInput holds the validated payload to create a warehouse.
type CreateInput struct {
	Name          string
	Code          string
	Address       *string
	Capacity      *int
	ContactPerson *string
	Notes         *string
	Metadata      map[string]any
}

func (in *CreateInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.TrimSpace(in.Code)
	in.Address = trimPtr(in.Address)
	in.ContactPerson = trimPtr(in.ContactPerson)
}

// UpdateInput holds optional mutation values for a warehouse.
type UpdateInput struct {
	Name          *string
	Code          *string
	Address       *string
	Capacity      *int
	ContactPerson *string
	Notes         *string
	Metadata      map[string]any
}

func (in *UpdateInput) normalize() {
	in.Name = trimPtr(in.Name)
	in.Code = trimPtr(in.Code)
	in.Address = trimPtr(in.Address)
	in.ContactPerson = trimPtr(in.ContactPerson)
}

// apply mutates w in place and reports the previous and new value of every field it touched.
func (in UpdateInput) apply(w *models.Warehouse) (map[string]any, map[string]any) {
	oldValues := map[string]any{}
	newValues := map[string]any{}
	track := func(field string, before, after any) {
		oldValues[field] = before
		newValues[field] = after
	}

	if in.Name != nil {
		track("name", w.Name, *in.Name)
		w.Name = *in.Name
	}
	if in.Code != nil {
		track("code", w.Code, *in.Code)
		w.Code = *in.Code
	}
	if in.Address != nil {
		track("address", deref(w.Address), *in.Address)
		w.Address = in.Address
	}
	if in.Capacity != nil {
		var before any
		if w.Capacity != nil {
			before = *w.Capacity
		}
		track("capacity", before, *in.Capacity)
		w.Capacity = in.Capacity
	}
	if in.ContactPerson != nil {
		track("contact_person", deref(w.ContactPerson), *in.ContactPerson)
		w.ContactPerson = in.ContactPerson
	}
	if in.Notes != nil {
		track("notes", deref(w.Notes), *in.Notes)
		w.Notes = in.Notes
	}
	if in.Metadata != nil {
		track("metadata", map[string]any(w.Metadata), in.Metadata)
		w.Metadata = in.Metadata
	}
	return oldValues, newValues
}

func deref(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

// WarehouseDTO is the wire shape of a warehouse with its derived stock totals.
type WarehouseDTO struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Code          string          `json:"code"`
	Address       *string         `json:"address"`
	Capacity      *int            `json:"capacity"`
	ContactPerson *string         `json:"contact_person"`
	Notes         *string         `json:"notes"`
	Metadata      map[string]any  `json:"metadata"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	ItemCount     int64           `json:"item_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func NewWarehouseDTO(w models.Warehouse, stock StockTotals) WarehouseDTO {
	metadata := map[string]any(w.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	return WarehouseDTO{
		ID:            w.ID,
		Name:          w.Name,
		Code:          w.Code,
		Address:       w.Address,
		Capacity:      w.Capacity,
		ContactPerson: w.ContactPerson,
		Notes:         w.Notes,
		Metadata:      metadata,
		TotalQuantity: stock.TotalQuantity,
		ItemCount:     stock.ItemCount,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}
