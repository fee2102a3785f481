package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockroom-backend/internal/dashboard"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
)

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	rec := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(rec, newRequest(http.MethodGet, "/health/live", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get(envHeader))
}

func TestHealthReadyReportsFailingDependencies(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	ok := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := httptest.NewRecorder()
	HealthReady(cfg, nil, NamedPinger{Name: "db", Pinger: ok}, NamedPinger{Name: "redis", Pinger: down}).
		ServeHTTP(rec, newRequest(http.MethodGet, "/health/ready", ""))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, string(pkgerrors.CodeDependency), body.Error.Code)
	assert.Contains(t, body.Error.Details, "redis")
	assert.NotContains(t, body.Error.Details, "db")

	rec = httptest.NewRecorder()
	HealthReady(cfg, nil, NamedPinger{Name: "db", Pinger: ok}).ServeHTTP(rec, newRequest(http.MethodGet, "/health/ready", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
}

type stubDashboardService struct {
	err error
}

func (s stubDashboardService) Summary(context.Context) (*dashboard.Summary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &dashboard.Summary{}, nil
}

func TestDashboardSummary(t *testing.T) {
	rec := httptest.NewRecorder()
	DashboardSummary(stubDashboardService{}, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/dashboard", ""))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	DashboardSummary(stubDashboardService{err: pkgerrors.New(pkgerrors.CodeStorage, "boom")}, nil).
		ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/dashboard", ""))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
