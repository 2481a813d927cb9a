package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/pkg/db"
	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
)

type storeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindBySlug(ctx context.Context, slug string) (*models.Store, error)
	Update(ctx context.Context, store *models.Store) error
}

type unlockRepository interface {
	CreateUnlock(ctx context.Context, storeID uuid.UUID, mode enums.CheckoutMode) error
}

// Service exposes merchant store operations.
type Service interface {
	Get(ctx context.Context, storeID uuid.UUID) (*StoreDTO, error)
	GetBySlug(ctx context.Context, slug string) (*StoreDTO, error)
	Update(ctx context.Context, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
	UnlockCheckoutMode(ctx context.Context, storeID uuid.UUID, mode enums.CheckoutMode) (*StoreDTO, error)
}

type service struct {
	repo    storeRepository
	unlocks unlockRepository
}

// NewService builds a store service with the provided repositories.
func NewService(repo storeRepository, unlocks unlockRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if unlocks == nil {
		return nil, fmt.Errorf("unlock repository required")
	}
	return &service{repo: repo, unlocks: unlocks}, nil
}

func (s *service) Get(ctx context.Context, storeID uuid.UUID) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}
	return FromModel(store), nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*StoreDTO, error) {
	store, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}
	return FromModel(store), nil
}

func (s *service) Update(ctx context.Context, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}

	changed := false
	if input.Name != nil && *input.Name != store.Name {
		store.Name = *input.Name
		changed = true
	}
	if input.Config != nil {
		// Merge incoming keys over the normalized snapshot so a
		// partial payload never wipes unrelated settings.
		merged := NormalizeConfig(store.Config, store.ConfigVersion)
		for key, value := range NormalizeConfig(input.Config, 1) {
			merged[key] = value
		}
		store.Config = merged
		store.ConfigVersion = currentConfigVersion
		changed = true
	}
	if input.DefaultCheckout != nil {
		mode := *input.DefaultCheckout
		if !mode.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout mode")
		}
		if !containsMode(store.UnlockedCheckouts, mode) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout mode is not unlocked")
		}
		if store.DefaultCheckout != mode {
			store.DefaultCheckout = mode
			changed = true
		}
	}

	if changed {
		if err := s.repo.Update(ctx, store); err != nil {
			return nil, db.TranslateError(err, "update store")
		}
	}
	return FromModel(store), nil
}

func (s *service) UnlockCheckoutMode(ctx context.Context, storeID uuid.UUID, mode enums.CheckoutMode) (*StoreDTO, error) {
	if !mode.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid checkout mode")
	}

	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}
	if containsMode(store.UnlockedCheckouts, mode) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout mode already unlocked")
	}

	// The unique (store, mode) constraint on the unlock table makes
	// concurrent unlock attempts collapse into one winner.
	if err := s.unlocks.CreateUnlock(ctx, storeID, mode); err != nil {
		if db.IsUniqueViolation(err, "idx_checkout_unlock_store_mode") {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout mode already unlocked")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record unlock")
	}

	store.UnlockedCheckouts = append(store.UnlockedCheckouts, mode.String())
	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update unlocked checkouts")
	}
	return FromModel(store), nil
}

func containsMode(unlocked []string, mode enums.CheckoutMode) bool {
	for _, m := range unlocked {
		if m == mode.String() {
			return true
		}
	}
	return false
}
