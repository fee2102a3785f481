package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recorder appends audit entries. Stores hold a Recorder and bind it to their
// transaction so the entry commits or rolls back with the change it describes.
type Recorder interface {
	WithTx(tx *gorm.DB) Recorder
	Record(ctx context.Context, entry Entry) (*models.AuditLog, error)
}

// Service is the read and write surface of the audit trail.
type Service interface {
	Recorder
	List(ctx context.Context, params ListParams) (*ListResult, error)
}

// Entry is one state change to append.
type Entry struct {
	Type                   enums.AuditType
	UserID                 *uuid.UUID
	ItemID                 *uuid.UUID
	SourceWarehouseID      *uuid.UUID
	DestinationWarehouseID *uuid.UUID
	Quantity               *decimal.Decimal
	Notes                  *string
	Details                map[string]any
}

// ListParams are the inputs of a page query.
type ListParams struct {
	Page        int
	PerPage     int
	Type        *enums.AuditType
	UserID      *uuid.UUID
	WarehouseID *uuid.UUID
}

// ListResult is one page of entries, newest first.
type ListResult struct {
	Entries []models.AuditLog
	pagination.Meta
}

type service struct {
	repo           Repository
	defaultPerPage int
	maxPerPage     int
	now            func() time.Time
}

// NewService wires the audit service with the provided repository.
func NewService(repo Repository, cfg config.InventoryConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{
		repo:           repo,
		defaultPerPage: cfg.AuditDefaultPerPage,
		maxPerPage:     cfg.AuditMaxPerPage,
		now:            time.Now,
	}, nil
}

func (s *service) WithTx(tx *gorm.DB) Recorder {
	if tx == nil {
		return s
	}
	clone := *s
	clone.repo = s.repo.WithTx(tx)
	return &clone
}

func (s *service) Record(ctx context.Context, entry Entry) (*models.AuditLog, error) {
	if !entry.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("invalid audit type %q", entry.Type))
	}

	row := &models.AuditLog{
		Type:                   entry.Type,
		UserID:                 entry.UserID,
		ItemID:                 entry.ItemID,
		SourceWarehouseID:      entry.SourceWarehouseID,
		DestinationWarehouseID: entry.DestinationWarehouseID,
		Notes:                  entry.Notes,
		Details:                entry.Details,
		Timestamp:              s.now().UTC(),
	}
	if entry.Quantity != nil {
		row.Quantity = models.NewNullQuantity(*entry.Quantity)
	}
	if row.Details == nil {
		row.Details = map[string]any{}
	}

	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "append audit entry")
	}
	return row, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Type != nil && !params.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid audit type").
			WithDetails(map[string]any{"type": params.Type.String()})
	}

	page := pagination.Normalize(pagination.Params{Page: params.Page, PerPage: params.PerPage}, s.defaultPerPage, s.maxPerPage)
	filter := Filter{
		Type:        params.Type,
		UserID:      params.UserID,
		WarehouseID: params.WarehouseID,
	}

	entries, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list audit entries")
	}
	if entries == nil {
		entries = []models.AuditLog{}
	}
	return &ListResult{
		Entries: entries,
		Meta:    pagination.NewMeta(page, total),
	}, nil
}
