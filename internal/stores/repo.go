package stores

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
)

// Repository handles store persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new store row.
func (r *Repository) Create(ctx context.Context, dto CreateStoreDTO) (*models.Store, error) {
	store := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindByOwner returns the store owned by the provided user.
func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("owner = ?", ownerID).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindBySlug loads a store by its public storefront slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// SlugExists reports whether the slug is already taken.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update saves the provided store.
func (r *Repository) Update(ctx context.Context, store *models.Store) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	return r.db.WithContext(ctx).Save(store).Error
}

// AppendUnlockedCheckout adds the mode to the store's unlocked list.
func (r *Repository) AppendUnlockedCheckout(ctx context.Context, storeID uuid.UUID, mode string) error {
	return r.db.WithContext(ctx).
		Model(&models.Store{}).
		Where("id = ?", storeID).
		UpdateColumn("unlocked_checkouts", gorm.Expr("array_append(unlocked_checkouts, ?)", mode)).Error
}
