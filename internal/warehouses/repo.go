package warehouses

import (
	"context"

	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository persists warehouses and derives their stock aggregates.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, warehouse *models.Warehouse) error
	Save(ctx context.Context, warehouse *models.Warehouse) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Warehouse, error)
	FindByCode(ctx context.Context, code string) (*models.Warehouse, error)
	List(ctx context.Context, filter Filter) ([]models.Warehouse, error)
	Stock(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]StockTotals, error)
	CountItems(ctx context.Context, id uuid.UUID) (int64, error)
}

// Filter narrows a warehouse listing.
type Filter struct {
	Search      string
	CapacityMin *int
	CapacityMax *int
}

// StockTotals is the derived aggregate of the items a warehouse owns.
type StockTotals struct {
	TotalQuantity decimal.Decimal
	ItemCount     int64
}

type repository struct {
	repo.Base
}

// NewRepository returns a warehouse repository bound to the provided database.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(conn)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Bind(tx)}
}

func (r *repository) Create(ctx context.Context, warehouse *models.Warehouse) error {
	return r.DB(ctx).Create(warehouse).Error
}

func (r *repository) Save(ctx context.Context, warehouse *models.Warehouse) error {
	return r.DB(ctx).Save(warehouse).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.DB(ctx).Delete(&models.Warehouse{}, "id = ?", id).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := r.DB(ctx).First(&warehouse, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := db.ForUpdate(r.DB(ctx)).First(&warehouse, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := r.DB(ctx).First(&warehouse, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]models.Warehouse, error) {
	query := repo.MatchAny(r.DB(ctx).Model(&models.Warehouse{}), filter.Search, "name", "code", "address")
	if filter.CapacityMin != nil {
		query = query.Where("capacity >= ?", *filter.CapacityMin)
	}
	if filter.CapacityMax != nil {
		query = query.Where("capacity <= ?", *filter.CapacityMax)
	}

	var warehouses []models.Warehouse
	if err := query.Order("name ASC").Order("code ASC").Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

type stockRow struct {
	WarehouseID   uuid.UUID
	TotalQuantity models.Quantity
	ItemCount     int64
}

// Stock sums item quantities per warehouse. Warehouses without items are absent from the map.
func (r *repository) Stock(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]StockTotals, error) {
	out := make(map[uuid.UUID]StockTotals, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []stockRow
	if err := r.DB(ctx).
		Model(&models.Item{}).
		Select("warehouse_id, COALESCE(SUM(quantity), 0) AS total_quantity, COUNT(*) AS item_count").
		Where("warehouse_id IN ?", ids).
		Group("warehouse_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.WarehouseID] = StockTotals{TotalQuantity: row.TotalQuantity.Decimal, ItemCount: row.ItemCount}
	}
	return out, nil
}

func (r *repository) CountItems(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.Item{}).Where("warehouse_id = ?", id).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
