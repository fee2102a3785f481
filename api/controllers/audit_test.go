package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

type stubAuditService struct {
	audit.Recorder
	params *audit.ListParams
	result *audit.ListResult
}

func (s *stubAuditService) List(_ context.Context, params audit.ListParams) (*audit.ListResult, error) {
	s.params = &params
	return s.result, nil
}

func TestAuditListParsesFilters(t *testing.T) {
	userID, warehouseID := uuid.New(), uuid.New()
	entry := models.AuditLog{ID: uuid.New(), Type: enums.AuditTypeTransfer, Timestamp: time.Now().UTC()}
	entry.Quantity = models.NewNullQuantity(decimal.RequireFromString("5"))
	svc := &stubAuditService{result: &audit.ListResult{
		Entries: []models.AuditLog{entry},
		Meta:    pagination.Meta{Total: 1, Page: 2, PerPage: 10, Pages: 1},
	}}

	target := "/api/v1/audit?page=2&per_page=10&type=transfer&user_id=" + userID.String() + "&warehouse_id=" + warehouseID.String()
	rec := httptest.NewRecorder()
	AuditList(svc, nil).ServeHTTP(rec, newRequest(http.MethodGet, target, ""))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.params)
	assert.Equal(t, 2, svc.params.Page)
	assert.Equal(t, 10, svc.params.PerPage)
	require.NotNil(t, svc.params.Type)
	assert.Equal(t, enums.AuditTypeTransfer, *svc.params.Type)
	assert.Equal(t, userID, *svc.params.UserID)
	assert.Equal(t, warehouseID, *svc.params.WarehouseID)

	var page audit.PageDTO
	decodeData(t, rec, &page)
	require.Len(t, page.Logs, 1)
	assert.Equal(t, int64(1), page.Total)
	assert.True(t, page.Logs[0].Quantity.Equal(decimal.RequireFromString("5")))
}

func TestAuditListPassesOversizedPageThrough(t *testing.T) {
	svc := &stubAuditService{result: &audit.ListResult{}}
	rec := httptest.NewRecorder()
	AuditList(svc, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/audit?per_page=1000", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1000, svc.params.PerPage)
}

func TestAuditListRejectsBadInput(t *testing.T) {
	for _, target := range []string{
		"/api/v1/audit?type=teleport",
		"/api/v1/audit?page=0",
		"/api/v1/audit?user_id=me",
	} {
		svc := &stubAuditService{result: &audit.ListResult{}}
		rec := httptest.NewRecorder()
		AuditList(svc, nil).ServeHTTP(rec, newRequest(http.MethodGet, target, ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Nil(t, svc.params, target)
	}
}
