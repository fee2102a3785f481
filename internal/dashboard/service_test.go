package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/internal/items"
	"github.com/angelmondragon/stockroom-backend/internal/warehouses"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWarehouses struct{ rows []warehouses.WarehouseDTO }

func (f fakeWarehouses) List(context.Context, warehouses.Filter) ([]warehouses.WarehouseDTO, error) {
	return f.rows, nil
}

type fakeItems struct {
	got  items.SearchParams
	rows []items.ItemDTO
	err  error
}

func (f *fakeItems) Search(_ context.Context, params items.SearchParams) ([]items.ItemDTO, error) {
	f.got = params
	return f.rows, f.err
}

type fakeAudit struct{ got audit.ListParams }

func (f *fakeAudit) List(_ context.Context, params audit.ListParams) (*audit.ListResult, error) {
	f.got = params
	return &audit.ListResult{Entries: []models.AuditLog{{ID: uuid.New(), Type: enums.AuditTypeTransfer}}}, nil
}

func TestSummaryCombinesSources(t *testing.T) {
	whs := fakeWarehouses{rows: []warehouses.WarehouseDTO{{ID: uuid.New(), Name: "Main"}}}
	itemSvc := &fakeItems{rows: []items.ItemDTO{{ID: uuid.New(), SKU: "LOW-1"}}}
	auditSvc := &fakeAudit{}
	svc, err := NewService(whs, itemSvc, auditSvc)
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Len(t, summary.Warehouses, 1)
	assert.Len(t, summary.LowStockItems, 1)
	require.Len(t, summary.RecentActivity, 1)
	assert.Equal(t, enums.AuditTypeTransfer, summary.RecentActivity[0].Type)

	assert.True(t, itemSvc.got.LowStock)
	assert.Equal(t, 1, auditSvc.got.Page)
	assert.Equal(t, defaultRecentActivity, auditSvc.got.PerPage)
}

func TestSummaryPropagatesErrors(t *testing.T) {
	itemSvc := &fakeItems{err: errors.New("boom")}
	svc, err := NewService(fakeWarehouses{}, itemSvc, &fakeAudit{})
	require.NoError(t, err)

	_, err = svc.Summary(context.Background())
	require.Error(t, err)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, &fakeItems{}, &fakeAudit{})
	require.Error(t, err)
}
