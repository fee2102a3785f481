package warehouses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgNotFound       = "Warehouse not found"
	msgCodeExists     = "Warehouse code already exists"
	msgHasItems       = "Cannot delete warehouse with items"
	auditNoteTemplate = "%s warehouse: %s"
)

// Service exposes warehouse management operations.
type Service interface {
	List(ctx context.Context, filter Filter) ([]WarehouseDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*WarehouseDTO, error)
	Create(ctx context.Context, actorID uuid.UUID, input CreateInput) (*WarehouseDTO, error)
	Update(ctx context.Context, actorID uuid.UUID, id uuid.UUID, input UpdateInput) (*WarehouseDTO, error)
	Delete(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     Repository
	tx       txRunner
	recorder audit.Recorder
}

// NewService wires the warehouse service.
func NewService(repo Repository, tx txRunner, recorder audit.Recorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("warehouse repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{repo: repo, tx: tx, recorder: recorder}, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]WarehouseDTO, error) {
	if filter.CapacityMin != nil && filter.CapacityMax != nil && *filter.CapacityMin > *filter.CapacityMax {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "capacity_min cannot exceed capacity_max")
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list warehouses")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	stock, err := s.repo.Stock(ctx, ids...)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "sum warehouse stock")
	}

	out := make([]WarehouseDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, NewWarehouseDTO(row, stock[row.ID]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*WarehouseDTO, error) {
	warehouse, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "load warehouse")
	}
	return s.withStock(ctx, s.repo, *warehouse)
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, input CreateInput) (*WarehouseDTO, error) {
	input.normalize()
	if input.Name == "" {
		return nil, fieldError("name", "is required")
	}
	if input.Code == "" {
		return nil, fieldError("code", "is required")
	}
	if input.Capacity != nil && *input.Capacity < 0 {
		return nil, fieldError("capacity", "must be greater than or equal to 0")
	}

	var result *WarehouseDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := ensureCodeAvailable(ctx, repo, input.Code, uuid.Nil); err != nil {
			return err
		}

		warehouse := &models.Warehouse{
			Name:          input.Name,
			Code:          input.Code,
			Address:       input.Address,
			Capacity:      input.Capacity,
			ContactPerson: input.ContactPerson,
			Notes:         input.Notes,
			Metadata:      input.Metadata,
		}
		if err := repo.Create(ctx, warehouse); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, msgCodeExists)
			}
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "insert warehouse")
		}

		if _, err := s.recorder.WithTx(tx).Record(ctx, audit.Entry{
			Type:              enums.AuditTypeCreate,
			UserID:            actorPtr(actorID),
			SourceWarehouseID: &warehouse.ID,
			Notes:             auditNote("Created", warehouse.Code),
			Details: map[string]any{
				"warehouse_id": warehouse.ID.String(),
				"name":         warehouse.Name,
				"code":         warehouse.Code,
			},
		}); err != nil {
			return err
		}

		dto := NewWarehouseDTO(*warehouse, StockTotals{})
		result = &dto
		return nil
	})
	if err != nil {
		return nil, asDomainError(err, "create warehouse")
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, actorID uuid.UUID, id uuid.UUID, input UpdateInput) (*WarehouseDTO, error) {
	input.normalize()
	if input.Name != nil && *input.Name == "" {
		return nil, fieldError("name", "cannot be empty")
	}
	if input.Code != nil && *input.Code == "" {
		return nil, fieldError("code", "cannot be empty")
	}
	if input.Capacity != nil && *input.Capacity < 0 {
		return nil, fieldError("capacity", "must be greater than or equal to 0")
	}

	var result *WarehouseDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		warehouse, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return mapLookupError(err, "load warehouse")
		}
		if input.Code != nil && *input.Code != warehouse.Code {
			if err := ensureCodeAvailable(ctx, repo, *input.Code, warehouse.ID); err != nil {
				return err
			}
		}

		oldValues, newValues := input.apply(warehouse)
		if err := repo.Save(ctx, warehouse); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, msgCodeExists)
			}
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "update warehouse")
		}

		if _, err := s.recorder.WithTx(tx).Record(ctx, audit.Entry{
			Type:              enums.AuditTypeUpdate,
			UserID:            actorPtr(actorID),
			SourceWarehouseID: &warehouse.ID,
			Notes:             auditNote("Updated", warehouse.Code),
			Details: map[string]any{
				"warehouse_id": warehouse.ID.String(),
				"old_values":   oldValues,
				"new_values":   newValues,
			},
		}); err != nil {
			return err
		}

		result, err = s.withStock(ctx, repo, *warehouse)
		return err
	})
	if err != nil {
		return nil, asDomainError(err, "update warehouse")
	}
	return result, nil
}

func (s *service) Delete(ctx context.Context, actorID uuid.UUID, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		warehouse, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return mapLookupError(err, "load warehouse")
		}
		count, err := repo.CountItems(ctx, warehouse.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "count warehouse items")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, msgHasItems).
				WithDetails(map[string]any{"item_count": count})
		}
		if err := repo.Delete(ctx, warehouse.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete warehouse")
		}

		_, err = s.recorder.WithTx(tx).Record(ctx, audit.Entry{
			Type:              enums.AuditTypeDelete,
			UserID:            actorPtr(actorID),
			SourceWarehouseID: &warehouse.ID,
			Notes:             auditNote("Deleted", warehouse.Code),
			Details: map[string]any{
				"warehouse_id": warehouse.ID.String(),
				"name":         warehouse.Name,
				"code":         warehouse.Code,
			},
		})
		return err
	})
	if err != nil {
		return asDomainError(err, "delete warehouse")
	}
	return nil
}

func (s *service) withStock(ctx context.Context, repo Repository, warehouse models.Warehouse) (*WarehouseDTO, error) {
	stock, err := repo.Stock(ctx, warehouse.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "sum warehouse stock")
	}
	dto := NewWarehouseDTO(warehouse, stock[warehouse.ID])
	return &dto, nil
}

func ensureCodeAvailable(ctx context.Context, repo Repository, code string, self uuid.UUID) error {
	existing, err := repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "check warehouse code")
	}
	if existing.ID != self {
		return pkgerrors.New(pkgerrors.CodeConflict, msgCodeExists)
	}
	return nil
}

func mapLookupError(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, action)
}

func asDomainError(err error, action string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, action)
}

func fieldError(field, problem string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{field: problem})
}

func actorPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

func auditNote(verb, code string) *string {
	note := fmt.Sprintf(auditNoteTemplate, verb, code)
	return &note
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	return &trimmed
}
