package items

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	msgItemNotFound      = "Item not found"
	msgWarehouseNotFound = "Warehouse not found"
	msgSKUExists         = "SKU already exists in this warehouse"
	msgNegativeQuantity  = "Quantity cannot be negative"
	msgQuantityScale     = "Quantity supports at most 4 decimal places"
)

// Service exposes warehouse-scoped item management.
type Service interface {
	List(ctx context.Context, warehouseID uuid.UUID, search string) ([]ItemDTO, error)
	Search(ctx context.Context, params SearchParams) ([]ItemDTO, error)
	Get(ctx context.Context, warehouseID, itemID uuid.UUID) (*ItemDTO, error)
	Create(ctx context.Context, actorID, warehouseID uuid.UUID, input CreateInput) (*ItemDTO, error)
	Update(ctx context.Context, actorID, warehouseID, itemID uuid.UUID, input UpdateInput) (*ItemDTO, error)
	Delete(ctx context.Context, actorID, warehouseID, itemID uuid.UUID) error
}

// SearchParams drive the cross-warehouse item search.
type SearchParams struct {
	WarehouseID *uuid.UUID
	Search      string
	BatchNumber string
	LowStock    bool
	// Threshold overrides the configured low stock threshold when LowStock is set.
	Threshold *decimal.Decimal
	Limit     int
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type warehouseFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
}

type service struct {
	repo              Repository
	warehouses        warehouseFinder
	tx                txRunner
	recorder          audit.Recorder
	lowStockThreshold decimal.Decimal
}

// ServiceParams bundles the dependencies required to build an item service.
type ServiceParams struct {
	Repo              Repository
	Warehouses        warehouseFinder
	Tx                txRunner
	Recorder          audit.Recorder
	LowStockThreshold int
}

// NewService wires the item service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if params.Warehouses == nil {
		return nil, fmt.Errorf("warehouse finder required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		repo:              params.Repo,
		warehouses:        params.Warehouses,
		tx:                params.Tx,
		recorder:          params.Recorder,
		lowStockThreshold: decimal.NewFromInt(int64(params.LowStockThreshold)),
	}, nil
}

func (s *service) List(ctx context.Context, warehouseID uuid.UUID, search string) ([]ItemDTO, error) {
	if err := s.ensureWarehouse(ctx, warehouseID); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, Filter{WarehouseID: &warehouseID, Search: search})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list items")
	}
	return NewItemDTOs(rows), nil
}

func (s *service) Search(ctx context.Context, params SearchParams) ([]ItemDTO, error) {
	filter := Filter{
		WarehouseID: params.WarehouseID,
		Search:      params.Search,
		BatchNumber: params.BatchNumber,
		Limit:       params.Limit,
	}
	if params.LowStock {
		threshold := s.lowStockThreshold
		if params.Threshold != nil {
			if params.Threshold.IsNegative() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold cannot be negative")
			}
			threshold = *params.Threshold
		}
		filter.MaxQuantity = &threshold
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "search items")
	}
	return NewItemDTOs(rows), nil
}

func (s *service) Get(ctx context.Context, warehouseID, itemID uuid.UUID) (*ItemDTO, error) {
	item, err := s.repo.FindByWarehouseAndID(ctx, warehouseID, itemID)
	if err != nil {
		return nil, mapItemLookupError(err)
	}
	dto := NewItemDTO(*item)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, actorID, warehouseID uuid.UUID, input CreateInput) (*ItemDTO, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}
	if err := s.ensureWarehouse(ctx, warehouseID); err != nil {
		return nil, err
	}

	var result *ItemDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindByWarehouseAndSKU(ctx, warehouseID, input.SKU); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, msgSKUExists)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "check sku")
		}

		item := &models.Item{
			WarehouseID: warehouseID,
			SKU:         input.SKU,
			Name:        input.Name,
			Description: input.Description,
			Quantity:    models.NewQuantity(input.Quantity),
			Unit:        input.Unit,
			BatchNumber: input.BatchNumber,
			ExpiryDate:  input.ExpiryDate,
			Metadata:    input.Metadata,
		}
		if err := repo.Create(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, msgSKUExists)
			}
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "insert item")
		}

		qty := item.Quantity.Decimal
		if _, err := s.recorder.WithTx(tx).Record(ctx, audit.Entry{
			Type:              enums.AuditTypeAdd,
			UserID:            actorPtr(actorID),
			ItemID:            &item.ID,
			SourceWarehouseID: &item.WarehouseID,
			Quantity:          &qty,
			Notes:             note("Added item: %s", item.SKU),
			Details:           map[string]any{"sku": item.SKU, "name": item.Name},
		}); err != nil {
			return err
		}

		dto := NewItemDTO(*item)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, asDomainError(err, "create item")
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, actorID, warehouseID, itemID uuid.UUID, input UpdateInput) (*ItemDTO, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	var result *ItemDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindByWarehouseAndIDForUpdate(ctx, warehouseID, itemID)
		if err != nil {
			return mapItemLookupError(err)
		}
		if input.SKU != nil && *input.SKU != item.SKU {
			if _, err := repo.FindByWarehouseAndSKU(ctx, warehouseID, *input.SKU); err == nil {
				return pkgerrors.New(pkgerrors.CodeConflict, msgSKUExists)
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "check sku")
			}
		}

		before := item.Quantity.Decimal
		changed := input.apply(item)
		if item.Quantity.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeInvalidQuantity, msgNegativeQuantity)
		}
		if err := repo.Save(ctx, item); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, msgSKUExists)
			}
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "update item")
		}

		entry := audit.Entry{
			Type:              enums.AuditTypeUpdate,
			UserID:            actorPtr(actorID),
			ItemID:            &item.ID,
			SourceWarehouseID: &item.WarehouseID,
			Notes:             note("Updated item: %s", item.SKU),
			Details:           map[string]any{"sku": item.SKU, "changed_fields": changed},
		}
		if delta := item.Quantity.Sub(before); !delta.IsZero() {
			entry.Quantity = &delta
			entry.Notes = note("Updated quantity for %s", item.SKU)
			entry.Details["old_quantity"] = before.String()
			entry.Details["new_quantity"] = item.Quantity.String()
		}
		if _, err := s.recorder.WithTx(tx).Record(ctx, entry); err != nil {
			return err
		}

		dto := NewItemDTO(*item)
		result = &dto
		return nil
	})
	if err != nil {
		return nil, asDomainError(err, "update item")
	}
	return result, nil
}

func (s *service) Delete(ctx context.Context, actorID, warehouseID, itemID uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindByWarehouseAndIDForUpdate(ctx, warehouseID, itemID)
		if err != nil {
			return mapItemLookupError(err)
		}
		if err := repo.Delete(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete item")
		}

		removed := item.Quantity.Decimal.Neg()
		_, err = s.recorder.WithTx(tx).Record(ctx, audit.Entry{
			Type:              enums.AuditTypeRemove,
			UserID:            actorPtr(actorID),
			ItemID:            &item.ID,
			SourceWarehouseID: &item.WarehouseID,
			Quantity:          &removed,
			Notes:             note("Removed item: %s", item.SKU),
			Details: map[string]any{
				"sku":      item.SKU,
				"name":     item.Name,
				"quantity": item.Quantity.String(),
			},
		})
		return err
	})
	if err != nil {
		return asDomainError(err, "delete item")
	}
	return nil
}

func (s *service) ensureWarehouse(ctx context.Context, warehouseID uuid.UUID) error {
	if _, err := s.warehouses.FindByID(ctx, warehouseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgWarehouseNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load warehouse")
	}
	return nil
}

func mapItemLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgItemNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load item")
}

func asDomainError(err error, action string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, action)
}

func actorPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func note(format string, args ...any) *string {
	value := fmt.Sprintf(format, args...)
	return &value
}
