package transfers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/internal/items"
	"github.com/angelmondragon/stockroom-backend/internal/warehouses"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/metrics"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	MsgItemNotInSource       = "Item not found in source warehouse"
	MsgInsufficientQuantity  = "Insufficient quantity for transfer"
	MsgSourceNotFound        = "Source warehouse not found"
	MsgDestinationNotFound   = "Destination warehouse not found"
	MsgSameWarehouse         = "Source and destination warehouses must differ"
	MsgNonPositiveQuantity   = "Quantity must be greater than zero"
	MsgQuantityScale         = "Quantity supports at most 4 decimal places"
	destinationSavepointName = "transfer_destination"
	maxTxAttempts            = 3
)

// Service moves stock between warehouses.
type Service interface {
	Transfer(ctx context.Context, input Input) (*Result, error)
}

// Input describes one transfer request.
type Input struct {
	SourceWarehouseID      uuid.UUID
	DestinationWarehouseID uuid.UUID
	ItemID                 uuid.UUID
	Quantity               decimal.Decimal
	ActorUserID            uuid.UUID
	Notes                  *string
}

// Result is the post-transfer state of both rows.
type Result struct {
	SourceItem         models.Item
	DestinationItem    models.Item
	DestinationCreated bool
	AuditEntryID       uuid.UUID
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	items      items.Repository
	warehouses warehouses.Repository
	tx         txRunner
	recorder   audit.Recorder
	metrics    *metrics.TransferMetrics
	now        func() time.Time
}

// ServiceParams bundles the dependencies required to build the transfer engine.
type ServiceParams struct {
	Items      items.Repository
	Warehouses warehouses.Repository
	Tx         txRunner
	Recorder   audit.Recorder
	Metrics    *metrics.TransferMetrics
}

// NewService wires the transfer engine.
func NewService(params ServiceParams) (Service, error) {
	if params.Items == nil {
		return nil, fmt.Errorf("item repository required")
	}
	if params.Warehouses == nil {
		return nil, fmt.Errorf("warehouse repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	return &service{
		items:      params.Items,
		warehouses: params.Warehouses,
		tx:         params.Tx,
		recorder:   params.Recorder,
		metrics:    params.Metrics,
		now:        time.Now,
	}, nil
}

// Transfer debits the source item and credits (or creates) the same sku in the
// destination warehouse, then appends one transfer audit entry. All three
// effects share one transaction; any failure leaves the store untouched.
// A transaction aborted by a deadlock or serialization failure is run again,
// up to maxTxAttempts times.
func (s *service) Transfer(ctx context.Context, input Input) (result *Result, err error) {
	started := s.now()
	defer func() {
		s.metrics.Observe(outcomeOf(err), s.now().Sub(started))
	}()

	if err := validate(input); err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var txErr error
			result, txErr = s.move(ctx, tx, input)
			return txErr
		})
		if err == nil || attempt == maxTxAttempts || !db.IsRetryableTx(err) || ctx.Err() != nil {
			break
		}
	}
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeStorage, err, "transfer")
		}
		return nil, err
	}
	if result.DestinationCreated {
		s.metrics.IncDestinationCreated()
	}
	return result, nil
}

func (s *service) move(ctx context.Context, tx *gorm.DB, input Input) (*Result, error) {
	itemRepo := s.items.WithTx(tx)
	warehouseRepo := s.warehouses.WithTx(tx)

	if err := ensureWarehouse(ctx, warehouseRepo, input.SourceWarehouseID, MsgSourceNotFound); err != nil {
		return nil, err
	}
	if err := ensureWarehouse(ctx, warehouseRepo, input.DestinationWarehouseID, MsgDestinationNotFound); err != nil {
		return nil, err
	}

	source, existing, err := itemRepo.LockPair(ctx, input.SourceWarehouseID, input.ItemID, input.DestinationWarehouseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, MsgItemNotInSource)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "lock items")
	}
	if source.Quantity.LessThan(input.Quantity) {
		return nil, insufficient(source.Quantity.Decimal, input.Quantity)
	}

	if err := itemRepo.DebitQuantity(ctx, source.ID, input.Quantity); err != nil {
		if errors.Is(err, items.ErrInsufficientQuantity) {
			return nil, insufficient(source.Quantity.Decimal, input.Quantity)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "debit source item")
	}

	destinationID, created, err := s.credit(ctx, tx, itemRepo, source, existing, input)
	if err != nil {
		return nil, err
	}

	sourceAfter, err := itemRepo.FindByWarehouseAndID(ctx, input.SourceWarehouseID, source.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "reload source item")
	}
	destinationAfter, err := itemRepo.FindByWarehouseAndID(ctx, input.DestinationWarehouseID, destinationID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "reload destination item")
	}

	qty := input.Quantity
	entry, err := s.recorder.WithTx(tx).Record(ctx, audit.Entry{
		Type:                   enums.AuditTypeTransfer,
		UserID:                 actorPtr(input.ActorUserID),
		ItemID:                 &source.ID,
		SourceWarehouseID:      &input.SourceWarehouseID,
		DestinationWarehouseID: &input.DestinationWarehouseID,
		Quantity:               &qty,
		Notes:                  transferNote(input.Notes, qty, sourceAfter),
		Details: map[string]any{
			"sku":                  sourceAfter.SKU,
			"source_remaining":     json.Number(sourceAfter.Quantity.String()),
			"destination_quantity": json.Number(destinationAfter.Quantity.String()),
			"destination_item_id":  destinationAfter.ID.String(),
			"destination_created":  created,
		},
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		SourceItem:         *sourceAfter,
		DestinationItem:    *destinationAfter,
		DestinationCreated: created,
		AuditEntryID:       entry.ID,
	}, nil
}

// credit adds the transferred quantity to the destination sku, creating the row
// when the destination has none. A concurrent transfer may create the same
// sku between our lookup and insert; the savepoint lets us fall back to a
// credit instead of aborting the whole transaction.
func (s *service) credit(ctx context.Context, tx *gorm.DB, repo items.Repository, source, existing *models.Item, input Input) (uuid.UUID, bool, error) {
	if existing != nil {
		if err := repo.CreditQuantity(ctx, existing.ID, input.Quantity); err != nil {
			return uuid.Nil, false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "credit destination item")
		}
		return existing.ID, false, nil
	}

	metadata, err := items.CloneMetadata(source.Metadata)
	if err != nil {
		return uuid.Nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "copy item metadata")
	}
	candidate := &models.Item{
		WarehouseID: input.DestinationWarehouseID,
		SKU:         source.SKU,
		Name:        source.Name,
		Description: source.Description,
		Quantity:    models.NewQuantity(input.Quantity),
		Unit:        source.Unit,
		BatchNumber: source.BatchNumber,
		ExpiryDate:  source.ExpiryDate,
		Metadata:    metadata,
	}

	if err := tx.SavePoint(destinationSavepointName).Error; err != nil {
		return uuid.Nil, false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "savepoint destination item")
	}
	createErr := repo.Create(ctx, candidate)
	if createErr == nil {
		return candidate.ID, true, nil
	}
	if !db.IsUniqueViolation(createErr, "") {
		return uuid.Nil, false, pkgerrors.Wrap(pkgerrors.CodeStorage, createErr, "create destination item")
	}
	if err := tx.RollbackTo(destinationSavepointName).Error; err != nil {
		return uuid.Nil, false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "rollback destination savepoint")
	}

	raced, err := repo.FindByWarehouseAndSKU(ctx, input.DestinationWarehouseID, source.SKU)
	if err != nil {
		return uuid.Nil, false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "reload destination item")
	}
	if err := repo.CreditQuantity(ctx, raced.ID, input.Quantity); err != nil {
		return uuid.Nil, false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "credit destination item")
	}
	return raced.ID, false, nil
}

func validate(input Input) error {
	details := map[string]string{}
	if input.SourceWarehouseID == uuid.Nil {
		details["source_warehouse_id"] = "is required"
	}
	if input.DestinationWarehouseID == uuid.Nil {
		details["destination_warehouse_id"] = "is required"
	}
	if input.ItemID == uuid.Nil {
		details["item_id"] = "is required"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	if !input.Quantity.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, MsgNonPositiveQuantity)
	}
	if !models.FitsQuantityScale(input.Quantity) {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, MsgQuantityScale)
	}
	if input.SourceWarehouseID == input.DestinationWarehouseID {
		return pkgerrors.New(pkgerrors.CodeValidation, MsgSameWarehouse)
	}
	return nil
}

func ensureWarehouse(ctx context.Context, repo warehouses.Repository, id uuid.UUID, notFound string) error {
	if _, err := repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load warehouse")
	}
	return nil
}

func insufficient(available, requested decimal.Decimal) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientQuantity, MsgInsufficientQuantity).
		WithDetails(map[string]string{
			"available": available.String(),
			"requested": requested.String(),
		})
}

func transferNote(notes *string, qty decimal.Decimal, source *models.Item) *string {
	if notes != nil && strings.TrimSpace(*notes) != "" {
		trimmed := strings.TrimSpace(*notes)
		return &trimmed
	}
	generated := fmt.Sprintf("Transferred %s %s of %s", qty.String(), source.Unit, source.SKU)
	return &generated
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	switch pkgerrors.As(err).Code() {
	case pkgerrors.CodeInsufficientQuantity:
		return metrics.OutcomeInsufficient
	case pkgerrors.CodeNotFound:
		return metrics.OutcomeNotFound
	case pkgerrors.CodeValidation, pkgerrors.CodeInvalidQuantity:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeError
	}
}

func actorPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
