package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/stockroom-backend/internal/testutil"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testInventoryConfig = config.InventoryConfig{AuditDefaultPerPage: 50, AuditMaxPerPage: 100}

type fakeRepository struct {
	createFn func(ctx context.Context, entry *models.AuditLog) error
	listFn   func(ctx context.Context, filter Filter, page pagination.Params) ([]models.AuditLog, int64, error)
}

func (f *fakeRepository) WithTx(*gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepository) List(ctx context.Context, filter Filter, page pagination.Params) ([]models.AuditLog, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter, page)
	}
	return nil, 0, nil
}

func newSQLiteService(t *testing.T) (*service, *gorm.DB) {
	t.Helper()
	conn := testutil.NewDB(t)
	svc, err := NewService(NewRepository(conn), testInventoryConfig)
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s := svc.(*service)
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return s, conn
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := NewService(nil, testInventoryConfig)
	require.Error(t, err)
}

func TestRecordPersistsEntry(t *testing.T) {
	svc, conn := newSQLiteService(t)
	ctx := context.Background()

	userID := uuid.New()
	itemID := uuid.New()
	src := uuid.New()
	dst := uuid.New()
	qty := decimal.NewFromInt(25)
	notes := "restock"

	entry, err := svc.Record(ctx, Entry{
		Type:                   enums.AuditTypeTransfer,
		UserID:                 &userID,
		ItemID:                 &itemID,
		SourceWarehouseID:      &src,
		DestinationWarehouseID: &dst,
		Quantity:               &qty,
		Notes:                  &notes,
		Details:                map[string]any{"sku": "SKU-1"},
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, entry.ID)

	var stored models.AuditLog
	require.NoError(t, conn.First(&stored, "id = ?", entry.ID).Error)
	assert.Equal(t, enums.AuditTypeTransfer, stored.Type)
	assert.Equal(t, userID, *stored.UserID)
	assert.True(t, stored.Quantity.Valid)
	assert.True(t, stored.Quantity.Decimal.Equal(qty))
	assert.Equal(t, "SKU-1", stored.Details["sku"])
	assert.Equal(t, "restock", *stored.Notes)
}

func TestRecordRejectsUnknownType(t *testing.T) {
	svc, _ := newSQLiteService(t)
	_, err := svc.Record(context.Background(), Entry{Type: enums.AuditType("purge")})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInternal, pkgerrors.As(err).Code())
}

func TestRecordWrapsStorageFailure(t *testing.T) {
	svc, err := NewService(&fakeRepository{
		createFn: func(context.Context, *models.AuditLog) error { return errors.New("disk full") },
	}, testInventoryConfig)
	require.NoError(t, err)

	_, err = svc.Record(context.Background(), Entry{Type: enums.AuditTypeCreate})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStorage, pkgerrors.As(err).Code())
}

func TestRecordRollsBackWithTransaction(t *testing.T) {
	svc, conn := newSQLiteService(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := conn.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.WithTx(tx).Record(ctx, Entry{Type: enums.AuditTypeCreate}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, conn.Model(&models.AuditLog{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListOrdersNewestFirstAndPaginates(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Record(ctx, Entry{Type: enums.AuditTypeAdd, Details: map[string]any{"n": i}})
		require.NoError(t, err)
	}

	res, err := svc.List(ctx, ListParams{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, res.Total)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, 2, res.PerPage)
	require.Len(t, res.Entries, 2)
	assert.EqualValues(t, 4, res.Entries[0].Details["n"])
	assert.EqualValues(t, 3, res.Entries[1].Details["n"])
	assert.True(t, res.Entries[0].Timestamp.After(res.Entries[1].Timestamp))

	last, err := svc.List(ctx, ListParams{Page: 3, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, last.Entries, 1)
	assert.EqualValues(t, 0, last.Entries[0].Details["n"])
}

func TestListCapsPerPage(t *testing.T) {
	var seen pagination.Params
	svc, err := NewService(&fakeRepository{
		listFn: func(_ context.Context, _ Filter, page pagination.Params) ([]models.AuditLog, int64, error) {
			seen = page
			return nil, 0, nil
		},
	}, testInventoryConfig)
	require.NoError(t, err)

	res, err := svc.List(context.Background(), ListParams{Page: 0, PerPage: 1000})
	require.NoError(t, err)
	assert.Equal(t, 100, seen.PerPage)
	assert.Equal(t, 1, seen.Page)
	assert.NotNil(t, res.Entries)

	_, err = svc.List(context.Background(), ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 50, seen.PerPage)
}

func TestListFilters(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	alice := uuid.New()
	bob := uuid.New()
	whA := uuid.New()
	whB := uuid.New()
	whC := uuid.New()

	record := func(entry Entry) {
		t.Helper()
		_, err := svc.Record(ctx, entry)
		require.NoError(t, err)
	}
	record(Entry{Type: enums.AuditTypeCreate, UserID: &alice, SourceWarehouseID: &whA})
	record(Entry{Type: enums.AuditTypeTransfer, UserID: &bob, SourceWarehouseID: &whA, DestinationWarehouseID: &whB})
	record(Entry{Type: enums.AuditTypeTransfer, UserID: &alice, SourceWarehouseID: &whC, DestinationWarehouseID: &whA})
	record(Entry{Type: enums.AuditTypeAdd, UserID: &bob, SourceWarehouseID: &whC})

	transfer := enums.AuditTypeTransfer
	res, err := svc.List(ctx, ListParams{Type: &transfer})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)

	res, err = svc.List(ctx, ListParams{UserID: &alice})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)

	res, err = svc.List(ctx, ListParams{WarehouseID: &whA})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Total, "warehouse filter should match source or destination")

	res, err = svc.List(ctx, ListParams{WarehouseID: &whB, Type: &transfer, UserID: &bob})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)

	res, err = svc.List(ctx, ListParams{WarehouseID: &whA, UserID: &bob, Type: &transfer})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
}

func TestListRejectsUnknownType(t *testing.T) {
	svc, _ := newSQLiteService(t)
	bad := enums.AuditType("purge")
	_, err := svc.List(context.Background(), ListParams{Type: &bad})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
