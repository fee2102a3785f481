package items

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrInsufficientQuantity is returned by DebitQuantity when the guarded update matches no row.
var ErrInsufficientQuantity = errors.New("insufficient quantity")

// Repository persists items. Every lookup is scoped by warehouse.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByWarehouseAndID(ctx context.Context, warehouseID, itemID uuid.UUID) (*models.Item, error)
	FindByWarehouseAndIDForUpdate(ctx context.Context, warehouseID, itemID uuid.UUID) (*models.Item, error)
	FindByWarehouseAndSKU(ctx context.Context, warehouseID uuid.UUID, sku string) (*models.Item, error)
	LockPair(ctx context.Context, sourceWarehouseID, itemID, destinationWarehouseID uuid.UUID) (source, destination *models.Item, err error)
	Create(ctx context.Context, item *models.Item) error
	Save(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, item *models.Item) error
	DebitQuantity(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) error
	CreditQuantity(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) error
	List(ctx context.Context, filter Filter) ([]models.Item, error)
}

// Filter narrows an item listing. A nil WarehouseID searches every warehouse.
type Filter struct {
	WarehouseID *uuid.UUID
	Search      string
	BatchNumber string
	// MaxQuantity keeps items at or below the threshold, the low stock view.
	MaxQuantity *decimal.Decimal
	Limit       int
}

type repository struct {
	repo.Base
	now func() time.Time
}

// NewRepository returns an item repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn), now: time.Now}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx), now: r.now}
}

func (r *repository) FindByWarehouseAndID(ctx context.Context, warehouseID, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := r.DB(ctx).First(&item, "id = ? AND warehouse_id = ?", itemID, warehouseID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByWarehouseAndIDForUpdate(ctx context.Context, warehouseID, itemID uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := db.ForUpdate(r.DB(ctx)).First(&item, "id = ? AND warehouse_id = ?", itemID, warehouseID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindByWarehouseAndSKU(ctx context.Context, warehouseID uuid.UUID, sku string) (*models.Item, error) {
	var item models.Item
	if err := db.ForUpdate(r.DB(ctx)).First(&item, "warehouse_id = ? AND sku = ?", warehouseID, sku).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// LockPair locks the source item and the destination row with the same sku, lower
// warehouse id first, so transfers in opposite directions wait instead of deadlocking.
// destination is nil when the destination warehouse has no such sku.
func (r *repository) LockPair(ctx context.Context, sourceWarehouseID, itemID, destinationWarehouseID uuid.UUID) (*models.Item, *models.Item, error) {
	peek, err := r.FindByWarehouseAndID(ctx, sourceWarehouseID, itemID)
	if err != nil {
		return nil, nil, err
	}

	var source, destination *models.Item
	lockSource := func() error {
		source, err = r.FindByWarehouseAndIDForUpdate(ctx, sourceWarehouseID, itemID)
		return err
	}
	lockDestination := func(sku string) error {
		destination, err = r.FindByWarehouseAndSKU(ctx, destinationWarehouseID, sku)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			destination, err = nil, nil
		}
		return err
	}

	if bytes.Compare(sourceWarehouseID[:], destinationWarehouseID[:]) < 0 {
		if err := lockSource(); err != nil {
			return nil, nil, err
		}
		if err := lockDestination(source.SKU); err != nil {
			return nil, nil, err
		}
		return source, destination, nil
	}

	if err := lockDestination(peek.SKU); err != nil {
		return nil, nil, err
	}
	if err := lockSource(); err != nil {
		return nil, nil, err
	}
	if source.SKU != peek.SKU {
		// renamed between the peek and the lock
		if err := lockDestination(source.SKU); err != nil {
			return nil, nil, err
		}
	}
	return source, destination, nil
}

func (r *repository) Create(ctx context.Context, item *models.Item) error {
	return r.DB(ctx).Create(item).Error
}

func (r *repository) Save(ctx context.Context, item *models.Item) error {
	return r.DB(ctx).Save(item).Error
}

func (r *repository) Delete(ctx context.Context, item *models.Item) error {
	return r.DB(ctx).Delete(&models.Item{}, "id = ? AND warehouse_id = ?", item.ID, item.WarehouseID).Error
}

// DebitQuantity subtracts qty only while the row still holds at least qty.
// The predicate makes the check and the write one statement, so concurrent
// debits of the same row can never take it below zero.
func (r *repository) DebitQuantity(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) error {
	res := r.DB(ctx).Exec(
		`UPDATE items SET quantity = quantity - ?, updated_at = ? WHERE id = ? AND quantity >= ?`,
		models.NewQuantity(qty), r.now().UTC(), itemID, models.NewQuantity(qty),
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientQuantity
	}
	return nil
}

func (r *repository) CreditQuantity(ctx context.Context, itemID uuid.UUID, qty decimal.Decimal) error {
	res := r.DB(ctx).Exec(
		`UPDATE items SET quantity = quantity + ?, updated_at = ? WHERE id = ?`,
		models.NewQuantity(qty), r.now().UTC(), itemID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]models.Item, error) {
	query := repo.MatchAny(r.DB(ctx).Model(&models.Item{}), filter.Search, "name", "sku", "description")
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.BatchNumber != "" {
		query = query.Where("batch_number = ?", filter.BatchNumber)
	}
	if filter.MaxQuantity != nil {
		query = query.Where("quantity <= ?", models.NewQuantity(*filter.MaxQuantity))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var items []models.Item
	if err := query.Order("name ASC").Order("sku ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
