package stores

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
)

// UnlockRepository persists the checkout-mode unlock history.
type UnlockRepository struct {
	db *gorm.DB
}

// NewUnlockRepository binds a GORM DB to unlock operations.
func NewUnlockRepository(db *gorm.DB) *UnlockRepository {
	return &UnlockRepository{db: db}
}

// CreateUnlock inserts the (store, mode) unlock row. The unique index
// on the pair rejects duplicates.
func (r *UnlockRepository) CreateUnlock(ctx context.Context, storeID uuid.UUID, mode enums.CheckoutMode) error {
	unlock := &models.CheckoutUnlock{
		StoreID: storeID,
		Mode:    mode,
	}
	return r.db.WithContext(ctx).Create(unlock).Error
}

// ListUnlocks returns the unlock history for a store, oldest first.
func (r *UnlockRepository) ListUnlocks(ctx context.Context, storeID uuid.UUID) ([]models.CheckoutUnlock, error) {
	var unlocks []models.CheckoutUnlock
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("created_at ASC").
		Find(&unlocks).Error; err != nil {
		return nil, err
	}
	return unlocks, nil
}
