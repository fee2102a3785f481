package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/stockroom-backend/internal/users"
	pkgAuth "github.com/angelmondragon/stockroom-backend/pkg/auth"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	testJWTConfig = config.JWTConfig{
		Secret:            "secret",
		Issuer:            "stockroom",
		ExpirationMinutes: 30,
	}
	testPasswordConfig = config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
)

func TestServiceLoginMintsTokenAndOpensSession(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     "manager",
		Email:        "manager@example.com",
		PasswordHash: mustHashPassword(t, "manager-secret", testPasswordConfig),
		Role:         enums.RoleManager,
	}
	svc, repo, sessions := buildTestService(t, user)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: " manager ", Password: "manager-secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Role != enums.RoleManager {
		t.Fatalf("expected manager role claim, got %s", claims.Role)
	}
	if claims.UserID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, claims.UserID)
	}
	if owner, ok := sessions.open[claims.ID]; !ok || owner != user.ID {
		t.Fatalf("expected session for jti %s", claims.ID)
	}
	if resp.TokenType != "Bearer" || resp.ExpiresIn != 1800 {
		t.Fatalf("unexpected token metadata %s %d", resp.TokenType, resp.ExpiresIn)
	}
	if repo.lastLogin.IsZero() {
		t.Fatalf("expected last login to be recorded")
	}
	if repo.rehashed != "" {
		t.Fatalf("hash with current params should not be rewritten")
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Username:     "viewer",
		PasswordHash: mustHashPassword(t, "right-password", testPasswordConfig),
		Role:         enums.RoleViewer,
	}
	svc, _, sessions := buildTestService(t, user)

	cases := []LoginRequest{
		{Username: "viewer", Password: "wrong-password"},
		{Username: "nobody", Password: "right-password"},
		{Username: "", Password: "right-password"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized for %q, got %v", req.Username, err)
		}
		if typed.Message() != invalidCredentialsMessage {
			t.Fatalf("unexpected message %q", typed.Message())
		}
	}
	if len(sessions.open) != 0 {
		t.Fatalf("no session should be opened on failed login")
	}
}

func TestServiceLoginRehashesOutdatedHash(t *testing.T) {
	weaker := testPasswordConfig
	weaker.ArgonTime = 2
	user := &models.User{
		ID:           uuid.New(),
		Username:     "admin",
		PasswordHash: mustHashPassword(t, "admin-secret", weaker),
		Role:         enums.RoleAdmin,
	}
	svc, repo, _ := buildTestService(t, user)

	if _, err := svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "admin-secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if repo.rehashed == "" {
		t.Fatalf("expected the stored hash to be upgraded")
	}
	if security.NeedsRehash(repo.rehashed, testPasswordConfig) {
		t.Fatalf("upgraded hash should match the configured params")
	}
}

func TestServiceRegisterCreatesViewer(t *testing.T) {
	svc, _, _ := buildTestService(t, nil)
	accounts := svc.(*service).accounts.(*stubAccounts)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username:        "newbie",
		Email:           "newbie@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if accounts.last.Role != enums.RoleViewer {
		t.Fatalf("self registration must create a viewer, got %s", accounts.last.Role)
	}

	_, err = svc.Register(context.Background(), RegisterRequest{
		Username:        "other",
		Email:           "other@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret2",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for mismatched passwords, got %v", err)
	}
}

func TestServiceLogoutRevokesSession(t *testing.T) {
	svc, _, sessions := buildTestService(t, nil)
	sessions.open["jti-1"] = uuid.New()

	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sessions.open["jti-1"]; ok {
		t.Fatalf("expected session to be revoked")
	}
	if err := svc.Logout(context.Background(), ""); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for blank access id, got %v", err)
	}

	sessions.err = errors.New("redis down")
	if err := svc.Logout(context.Background(), "jti-2"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func buildTestService(t *testing.T, user *models.User) (Service, *stubUserRepo, *stubSessionManager) {
	t.Helper()
	repo := &stubUserRepo{user: user}
	sessions := &stubSessionManager{open: map[string]uuid.UUID{}}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		Accounts:       &stubAccounts{},
		SessionManager: sessions,
		JWTConfig:      testJWTConfig,
		PasswordConfig: testPasswordConfig,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, repo, sessions
}

func mustHashPassword(t *testing.T, password string, cfg config.PasswordConfig) string {
	t.Helper()
	hash, err := security.HashPassword(password, cfg)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	user      *models.User
	lastLogin time.Time
	rehashed  string
}

func (s *stubUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if s.user == nil || s.user.Username != username {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.user
	return &copied, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin = at
	return nil
}

func (s *stubUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	s.rehashed = hash
	return nil
}

type stubAccounts struct {
	last users.CreateInput
}

func (s *stubAccounts) Create(ctx context.Context, input users.CreateInput) (*users.UserDTO, error) {
	s.last = input
	return &users.UserDTO{ID: uuid.New(), Username: input.Username, Email: input.Email, Role: input.Role}, nil
}

type stubSessionManager struct {
	open map[string]uuid.UUID
	err  error
}

func (s *stubSessionManager) Open(ctx context.Context, accessID string, userID uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.open[accessID] = userID
	return nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.open, accessID)
	return nil
}
