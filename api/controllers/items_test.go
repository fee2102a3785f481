package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockroom-backend/internal/items"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
)

type stubItemService struct {
	listWarehouse uuid.UUID
	listSearch    string
	search        *items.SearchParams
	created       *items.CreateInput
	updated       *items.UpdateInput
	deleted       []uuid.UUID
	dto           *items.ItemDTO
	err           error
}

func (s *stubItemService) List(_ context.Context, warehouseID uuid.UUID, search string) ([]items.ItemDTO, error) {
	s.listWarehouse = warehouseID
	s.listSearch = search
	return []items.ItemDTO{}, s.err
}

func (s *stubItemService) Search(_ context.Context, params items.SearchParams) ([]items.ItemDTO, error) {
	s.search = &params
	return []items.ItemDTO{}, s.err
}

func (s *stubItemService) Get(_ context.Context, warehouseID, itemID uuid.UUID) (*items.ItemDTO, error) {
	return s.dto, s.err
}

func (s *stubItemService) Create(_ context.Context, actorID, warehouseID uuid.UUID, input items.CreateInput) (*items.ItemDTO, error) {
	s.created = &input
	return s.dto, s.err
}

func (s *stubItemService) Update(_ context.Context, actorID, warehouseID, itemID uuid.UUID, input items.UpdateInput) (*items.ItemDTO, error) {
	s.updated = &input
	return s.dto, s.err
}

func (s *stubItemService) Delete(_ context.Context, actorID, warehouseID, itemID uuid.UUID) error {
	s.deleted = []uuid.UUID{warehouseID, itemID}
	return s.err
}

func TestItemsCreateParsesBody(t *testing.T) {
	warehouseID := uuid.New()
	svc := &stubItemService{dto: &items.ItemDTO{ID: uuid.New()}}
	body := `{"sku":"SKU-1","name":"Bolts","quantity":"12.5","unit":"boxes","batch_number":"B-1","expiry_date":"2027-03-01","metadata":{"color":"red"}}`
	req := withActor(newRequest(http.MethodPost, "/", body), uuid.New(), enums.RoleManager)
	req = withParams(req, "warehouseId", warehouseID.String())
	rec := httptest.NewRecorder()
	ItemsCreate(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.created)
	assert.Equal(t, "SKU-1", svc.created.SKU)
	assert.True(t, svc.created.Quantity.Equal(decimal.RequireFromString("12.5")))
	require.NotNil(t, svc.created.ExpiryDate)
	assert.Equal(t, "2027-03-01", svc.created.ExpiryDate.Format(items.ExpiryDateLayout))
	assert.Equal(t, "red", svc.created.Metadata["color"])
}

func TestItemsCreateDefaultsQuantityToZero(t *testing.T) {
	svc := &stubItemService{dto: &items.ItemDTO{}}
	req := withActor(newRequest(http.MethodPost, "/", `{"sku":"S","name":"N"}`), uuid.New(), enums.RoleAdmin)
	req = withParams(req, "warehouseId", uuid.NewString())
	rec := httptest.NewRecorder()
	ItemsCreate(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, svc.created.Quantity.IsZero())
}

func TestItemsCreateRejectsBadExpiry(t *testing.T) {
	svc := &stubItemService{}
	req := withActor(newRequest(http.MethodPost, "/", `{"sku":"S","name":"N","expiry_date":"tomorrow"}`), uuid.New(), enums.RoleAdmin)
	req = withParams(req, "warehouseId", uuid.NewString())
	rec := httptest.NewRecorder()
	ItemsCreate(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error.Details, "expiry_date")
	assert.Nil(t, svc.created)
}

func TestItemsCreateNegativeQuantityFromService(t *testing.T) {
	svc := &stubItemService{err: pkgerrors.New(pkgerrors.CodeInvalidQuantity, "Quantity cannot be negative")}
	req := withActor(newRequest(http.MethodPost, "/", `{"sku":"S","name":"N","quantity":-1}`), uuid.New(), enums.RoleAdmin)
	req = withParams(req, "warehouseId", uuid.NewString())
	rec := httptest.NewRecorder()
	ItemsCreate(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeInvalidQuantity), decodeError(t, rec).Error.Code)
}

func TestItemsUpdateOnlySetsProvidedFields(t *testing.T) {
	svc := &stubItemService{dto: &items.ItemDTO{}}
	req := withActor(newRequest(http.MethodPatch, "/", `{"quantity":"3"}`), uuid.New(), enums.RoleManager)
	req = withParams(req, "warehouseId", uuid.NewString(), "itemId", uuid.NewString())
	rec := httptest.NewRecorder()
	ItemsUpdate(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.updated)
	require.NotNil(t, svc.updated.Quantity)
	assert.True(t, svc.updated.Quantity.Equal(decimal.NewFromInt(3)))
	assert.Nil(t, svc.updated.SKU)
	assert.Nil(t, svc.updated.ExpiryDate)
	assert.Nil(t, svc.updated.Metadata)
}

func TestItemsDeleteAndGet(t *testing.T) {
	warehouseID, itemID := uuid.New(), uuid.New()
	svc := &stubItemService{}
	req := withActor(newRequest(http.MethodDelete, "/", ""), uuid.New(), enums.RoleAdmin)
	req = withParams(req, "warehouseId", warehouseID.String(), "itemId", itemID.String())
	rec := httptest.NewRecorder()
	ItemsDelete(svc, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uuid.UUID{warehouseID, itemID}, svc.deleted)

	missing := &stubItemService{err: pkgerrors.New(pkgerrors.CodeNotFound, "Item not found")}
	req = withParams(newRequest(http.MethodGet, "/", ""), "warehouseId", warehouseID.String(), "itemId", itemID.String())
	rec = httptest.NewRecorder()
	ItemsGet(missing, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Item not found", decodeError(t, rec).Error.Message)
}

func TestItemsSearchParsesQuery(t *testing.T) {
	warehouseID := uuid.New()
	svc := &stubItemService{}
	req := newRequest(http.MethodGet, "/api/v1/items?search=bolt&low_stock=1&batch_number=B-7&warehouse_id="+warehouseID.String(), "")
	rec := httptest.NewRecorder()
	ItemsSearch(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.search)
	assert.Equal(t, "bolt", svc.search.Search)
	assert.True(t, svc.search.LowStock)
	assert.Equal(t, "B-7", svc.search.BatchNumber)
	require.NotNil(t, svc.search.WarehouseID)
	assert.Equal(t, warehouseID, *svc.search.WarehouseID)
}

func TestWarehouseItemsList(t *testing.T) {
	warehouseID := uuid.New()
	svc := &stubItemService{}
	req := withParams(newRequest(http.MethodGet, "/?search=nut", ""), "warehouseId", warehouseID.String())
	rec := httptest.NewRecorder()
	WarehouseItemsList(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, warehouseID, svc.listWarehouse)
	assert.Equal(t, "nut", svc.listSearch)
}
