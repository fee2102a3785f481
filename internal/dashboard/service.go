package dashboard

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/internal/items"
	"github.com/angelmondragon/stockroom-backend/internal/warehouses"
)

const (
	defaultRecentActivity = 10
	defaultLowStockLimit  = 50
)

// Summary is the landing view: every warehouse with its totals, low stock items
// across all warehouses and the latest audit entries.
type Summary struct {
	Warehouses     []warehouses.WarehouseDTO `json:"warehouses"`
	LowStockItems  []items.ItemDTO           `json:"low_stock_items"`
	RecentActivity []audit.EntryDTO          `json:"recent_activity"`
}

type Service interface {
	Summary(ctx context.Context) (*Summary, error)
}

type warehouseLister interface {
	List(ctx context.Context, filter warehouses.Filter) ([]warehouses.WarehouseDTO, error)
}

type itemSearcher interface {
	Search(ctx context.Context, params items.SearchParams) ([]items.ItemDTO, error)
}

type auditLister interface {
	List(ctx context.Context, params audit.ListParams) (*audit.ListResult, error)
}

type service struct {
	warehouses warehouseLister
	items      itemSearcher
	audit      auditLister
}

func NewService(w warehouseLister, i itemSearcher, a auditLister) (Service, error) {
	if w == nil || i == nil || a == nil {
		return nil, fmt.Errorf("dashboard requires warehouse, item and audit services")
	}
	return &service{warehouses: w, items: i, audit: a}, nil
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	whs, err := s.warehouses.List(ctx, warehouses.Filter{})
	if err != nil {
		return nil, err
	}
	lowStock, err := s.items.Search(ctx, items.SearchParams{LowStock: true, Limit: defaultLowStockLimit})
	if err != nil {
		return nil, err
	}
	recent, err := s.audit.List(ctx, audit.ListParams{Page: 1, PerPage: defaultRecentActivity})
	if err != nil {
		return nil, err
	}
	return &Summary{
		Warehouses:     whs,
		LowStockItems:  lowStock,
		RecentActivity: audit.FromResult(recent).Logs,
	}, nil
}
