package items

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateInput holds the validated payload to add an item to a warehouse.
type CreateInput struct {
	SKU         string
	Name        string
	Description *string
	Quantity    decimal.Decimal
	Unit        string
	BatchNumber *string
	ExpiryDate  *time.Time
	Metadata    map[string]any
}

func (in *CreateInput) normalize() {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.Unit == "" {
		in.Unit = models.DefaultItemUnit
	}
	in.BatchNumber = trimPtr(in.BatchNumber)
}

func (in CreateInput) validate() error {
	if in.SKU == "" {
		return fieldError("sku", "is required")
	}
	if in.Name == "" {
		return fieldError("name", "is required")
	}
	return validateQuantity(in.Quantity)
}

// UpdateInput holds optional mutation values for an item.
type UpdateInput struct {
	SKU         *string
	Name        *string
	Description *string
	Quantity    *decimal.Decimal
	Unit        *string
	BatchNumber *string
	ExpiryDate  *time.Time
	Metadata    map[string]any
}

func (in *UpdateInput) normalize() {
	in.SKU = trimPtr(in.SKU)
	in.Name = trimPtr(in.Name)
	in.Unit = trimPtr(in.Unit)
	in.BatchNumber = trimPtr(in.BatchNumber)
}

func (in UpdateInput) validate() error {
	if in.SKU != nil && *in.SKU == "" {
		return fieldError("sku", "cannot be empty")
	}
	if in.Name != nil && *in.Name == "" {
		return fieldError("name", "cannot be empty")
	}
	if in.Unit != nil && *in.Unit == "" {
		return fieldError("unit", "cannot be empty")
	}
	if in.Quantity != nil {
		return validateQuantity(*in.Quantity)
	}
	return nil
}

func validateQuantity(q decimal.Decimal) error {
	if q.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, msgNegativeQuantity)
	}
	if !models.FitsQuantityScale(q) {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, msgQuantityScale)
	}
	return nil
}

// apply mutates item in place and returns the names of the fields it set.
func (in UpdateInput) apply(item *models.Item) []string {
	changed := []string{}
	if in.SKU != nil {
		item.SKU = *in.SKU
		changed = append(changed, "sku")
	}
	if in.Name != nil {
		item.Name = *in.Name
		changed = append(changed, "name")
	}
	if in.Description != nil {
		item.Description = in.Description
		changed = append(changed, "description")
	}
	if in.Quantity != nil {
		item.Quantity = models.NewQuantity(*in.Quantity)
		changed = append(changed, "quantity")
	}
	if in.Unit != nil {
		item.Unit = *in.Unit
		changed = append(changed, "unit")
	}
	if in.BatchNumber != nil {
		item.BatchNumber = in.BatchNumber
		changed = append(changed, "batch_number")
	}
	if in.ExpiryDate != nil {
		item.ExpiryDate = in.ExpiryDate
		changed = append(changed, "expiry_date")
	}
	if in.Metadata != nil {
		item.Metadata = in.Metadata
		changed = append(changed, "metadata")
	}
	return changed
}

// ItemDTO is the wire shape of an item.
type ItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	BatchNumber *string         `json:"batch_number"`
	ExpiryDate  *string         `json:"expiry_date"`
	Metadata    map[string]any  `json:"metadata"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ExpiryDateLayout is the wire and query format of expiry dates.
const ExpiryDateLayout = "2006-01-02"

func NewItemDTO(item models.Item) ItemDTO {
	dto := ItemDTO{
		ID:          item.ID,
		WarehouseID: item.WarehouseID,
		SKU:         item.SKU,
		Name:        item.Name,
		Description: item.Description,
		Quantity:    item.Quantity.Decimal,
		Unit:        item.Unit,
		BatchNumber: item.BatchNumber,
		Metadata:    map[string]any(item.Metadata),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
	if item.ExpiryDate != nil {
		formatted := item.ExpiryDate.Format(ExpiryDateLayout)
		dto.ExpiryDate = &formatted
	}
	if dto.Metadata == nil {
		dto.Metadata = map[string]any{}
	}
	return dto
}

func NewItemDTOs(rows []models.Item) []ItemDTO {
	out := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewItemDTO(row))
	}
	return out
}

// CloneMetadata deep copies a JSON metadata map so the copy shares no nested maps or slices.
func CloneMetadata(src map[string]any) (map[string]any, error) {
	if src == nil {
		return nil, nil
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fieldError(field, problem string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{field: problem})
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
