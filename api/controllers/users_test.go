package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockroom-backend/internal/users"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
)

type stubUserService struct {
	created *users.CreateInput
	actor   uuid.UUID
	deleted uuid.UUID
	err     error
}

func (s *stubUserService) List(context.Context) ([]users.UserDTO, error) {
	return []users.UserDTO{{ID: uuid.New(), Username: "admin", Role: enums.RoleAdmin}}, s.err
}

func (s *stubUserService) Create(_ context.Context, input users.CreateInput) (*users.UserDTO, error) {
	s.created = &input
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: uuid.New(), Username: input.Username, Role: input.Role}, nil
}

func (s *stubUserService) Delete(_ context.Context, actorID, id uuid.UUID) error {
	s.actor = actorID
	s.deleted = id
	return s.err
}

func (s *stubUserService) EnsureBootstrapAdmin(context.Context, config.BootstrapConfig) (bool, error) {
	return false, nil
}

func TestUsersCreateRequiresKnownRole(t *testing.T) {
	svc := &stubUserService{}
	body := `{"username":"mgr","email":"mgr@example.com","password":"secret1","role":"owner"}`
	rec := httptest.NewRecorder()
	UsersCreate(svc, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/users", body))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error.Details, "role")
	assert.Nil(t, svc.created)
}

func TestUsersCreateWithRole(t *testing.T) {
	svc := &stubUserService{}
	body := `{"username":"mgr","email":"mgr@example.com","password":"secret1","role":"manager"}`
	rec := httptest.NewRecorder()
	UsersCreate(svc, nil).ServeHTTP(rec, newRequest(http.MethodPost, "/api/v1/users", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.created)
	assert.Equal(t, enums.RoleManager, svc.created.Role)
}

func TestUsersDeleteSelfIsRejected(t *testing.T) {
	actor := uuid.New()
	svc := &stubUserService{err: pkgerrors.New(pkgerrors.CodeValidation, "You cannot delete your own account")}
	req := withActor(newRequest(http.MethodDelete, "/", ""), actor, enums.RoleAdmin)
	req = withParams(req, "userId", actor.String())
	rec := httptest.NewRecorder()
	UsersDelete(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "You cannot delete your own account", decodeError(t, rec).Error.Message)
	assert.Equal(t, actor, svc.actor)
	assert.Equal(t, actor, svc.deleted)
}

func TestUsersList(t *testing.T) {
	rec := httptest.NewRecorder()
	UsersList(&stubUserService{}, nil).ServeHTTP(rec, newRequest(http.MethodGet, "/api/v1/users", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var out []users.UserDTO
	decodeData(t, rec, &out)
	assert.Len(t, out, 1)
}
