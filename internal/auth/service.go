package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/internal/stores"
	"github.com/jarilabs/jariecom-backend/internal/users"
	pkgauth "github.com/jarilabs/jariecom-backend/pkg/auth"
	"github.com/jarilabs/jariecom-backend/pkg/config"
	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*MeResponse, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type storeRepository interface {
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo  userRepository
	StoreRepo storeRepository
	JWTConfig config.JWTConfig
}

type service struct {
	users  userRepository
	stores storeRepository
	jwtCfg config.JWTConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.StoreRepo == nil {
		return nil, fmt.Errorf("store repository is required")
	}
	return &service{
		users:  params.UserRepo,
		stores: params.StoreRepo,
		jwtCfg: params.JWTConfig,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	store, err := s.stores.FindByOwner(ctx, user.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	token, err := mintToken(s.jwtCfg, now, user.ID, user.Role, store)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken: token,
		User:        users.FromModel(user),
		Store:       stores.FromModel(store),
	}, nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*MeResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	store, err := s.stores.FindByOwner(ctx, user.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}

	return &MeResponse{
		User:  users.FromModel(user),
		Store: stores.FromModel(store),
	}, nil
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	input := strings.TrimSpace(email)
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, strings.ToLower(input))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	valid, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return user, nil
}

func mintToken(cfg config.JWTConfig, now time.Time, userID uuid.UUID, role enums.UserRole, store *models.Store) (string, error) {
	// Rows predating the role column scan back empty.
	if !role.IsValid() {
		role = enums.UserRoleMerchant
	}
	payload := pkgauth.AccessTokenPayload{UserID: userID, Role: role}
	if store != nil {
		id := store.ID
		payload.StoreID = &id
	}
	token, err := pkgauth.MintAccessToken(cfg, now, payload)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return token, nil
}
