package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgNotFound       = "User not found"
	msgUsernameExists = "Username already exists"
	msgEmailExists    = "Email already registered"
	msgDeleteSelf     = "You cannot delete your own account"
)

// Service manages accounts.
type Service interface {
	List(ctx context.Context) ([]UserDTO, error)
	Create(ctx context.Context, input CreateInput) (*UserDTO, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig) (bool, error)
}

type service struct {
	repo        *Repository
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewService wires the account service.
func NewService(repo *Repository, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, passwordCfg: passwordCfg, logg: logg}, nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "list users")
	}
	return FromModels(rows), nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*UserDTO, error) {
	input.normalize()
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username, email and password are required")
	}
	if !input.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"role": "must be one of admin, manager, viewer"})
	}

	if err := s.ensureAvailable(ctx, input); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, msgUsernameExists)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "create user")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"user_id": user.ID.String(), "role": user.Role.String()})
	s.logg.Info(ctx, "user created")
	return FromModel(user), nil
}

func (s *service) ensureAvailable(ctx context.Context, input CreateInput) error {
	if _, err := s.repo.FindByUsername(ctx, input.Username); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, msgUsernameExists)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "check username")
	}
	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, msgEmailExists)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "check email")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return pkgerrors.New(pkgerrors.CodeValidation, msgDeleteSelf)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
		}
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "delete user")
	}
	return nil
}

// EnsureBootstrapAdmin creates the configured admin when no account exists yet.
// It reports whether an account was created.
func (s *service) EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig) (bool, error) {
	if !cfg.Enabled() {
		return false, nil
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "count users")
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.Create(ctx, CreateInput{
		Username: cfg.AdminUsername,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Role:     enums.RoleAdmin,
	}); err != nil {
		return false, err
	}
	return true, nil
}
