package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/internal/stores"
	"github.com/jarilabs/jariecom-backend/internal/users"
	"github.com/jarilabs/jariecom-backend/pkg/config"
	"github.com/jarilabs/jariecom-backend/pkg/db"
	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/security"
	"github.com/jarilabs/jariecom-backend/pkg/types"
)

// RegisterRequest contains the payload required for onboarding a new
// merchant with their store.
type RegisterRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"required,min=8"`
	BusinessName string  `json:"business_name" validate:"required"`
	Phone        *string `json:"phone,omitempty"`
	Instagram    *string `json:"instagram,omitempty"`
}

// RegisterService handles the onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type registerStoreRepository interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, dto stores.CreateStoreDTO) (*models.Store, error)
}

// RegisterServiceParams packages the dependencies for the registration
// flow. The repo factories receive the transaction handle so both
// writes land in the same transaction.
type RegisterServiceParams struct {
	TxRunner         txRunner
	UserRepoFactory  func(tx *gorm.DB) registerUserRepository
	StoreRepoFactory func(tx *gorm.DB) registerStoreRepository
	PasswordConfig   config.PasswordConfig
	JWTConfig        config.JWTConfig
}

type registerService struct {
	tx          txRunner
	userRepos   func(tx *gorm.DB) registerUserRepository
	storeRepos  func(tx *gorm.DB) registerStoreRepository
	passwordCfg config.PasswordConfig
	jwtCfg      config.JWTConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.TxRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.UserRepoFactory == nil {
		params.UserRepoFactory = func(tx *gorm.DB) registerUserRepository {
			return users.NewRepository(tx)
		}
	}
	if params.StoreRepoFactory == nil {
		params.StoreRepoFactory = func(tx *gorm.DB) registerStoreRepository {
			return stores.NewRepository(tx)
		}
	}
	return &registerService{
		tx:          params.TxRunner,
		userRepos:   params.UserRepoFactory,
		storeRepos:  params.StoreRepoFactory,
		passwordCfg: params.PasswordConfig,
		jwtCfg:      params.JWTConfig,
	}, nil
}

// Register creates the user and their store in a single transaction,
// then issues the same JWT shape Login does.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	businessName := strings.TrimSpace(req.BusinessName)
	if businessName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business_name is required")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var resp *LoginResponse
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepos(tx)
		storeRepo := s.storeRepos(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		profile := types.JSONMap{"business_name": businessName}
		if req.Instagram != nil && *req.Instagram != "" {
			profile["instagram"] = *req.Instagram
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			Phone:        req.Phone,
			Profile:      profile,
		})
		if err != nil {
			// Races past the read above still land on the unique index.
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		slug, err := stores.UniqueSlug(ctx, storeRepo, businessName)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "derive slug")
		}

		store, err := storeRepo.Create(ctx, stores.CreateStoreDTO{
			OwnerID: user.ID,
			Slug:    slug,
			Name:    businessName,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create store")
		}

		now := time.Now().UTC()
		token, err := mintToken(s.jwtCfg, now, user.ID, enums.UserRoleMerchant, store)
		if err != nil {
			return err
		}

		resp = &LoginResponse{
			AccessToken: token,
			User:        users.FromModel(user),
			Store:       stores.FromModel(store),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
