package subscriptions

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
)

// Repository handles subscription and addon persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to subscription operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByFeature loads a store's subscription row for one feature.
func (r *Repository) FindByFeature(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature) (*models.StoreSubscription, error) {
	var sub models.StoreSubscription
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND feature = ?", storeID, feature).
		First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByStore returns every subscription row for a store.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.StoreSubscription, error) {
	var subs []models.StoreSubscription
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("feature ASC").
		Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// Create persists a new subscription row.
func (r *Repository) Create(ctx context.Context, sub *models.StoreSubscription) error {
	if sub == nil {
		return fmt.Errorf("subscription is required")
	}
	return r.db.WithContext(ctx).Create(sub).Error
}

// Update saves the provided subscription.
func (r *Repository) Update(ctx context.Context, sub *models.StoreSubscription) error {
	if sub == nil {
		return fmt.Errorf("subscription is required")
	}
	return r.db.WithContext(ctx).Save(sub).Error
}

// ExpireLapsed flips trial/active rows whose window has passed to
// expired and returns how many rows changed.
func (r *Repository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.StoreSubscription{}).
		Where("state = ? AND trial_ends_at IS NOT NULL AND trial_ends_at < ?", enums.SubscriptionStateTrial, now).
		Or("state = ? AND expires_at IS NOT NULL AND expires_at < ?", enums.SubscriptionStateActive, now).
		UpdateColumn("state", enums.SubscriptionStateExpired)
	return result.RowsAffected, result.Error
}

// UpsertAddon switches a feature addon on or off for a store.
func (r *Repository) UpsertAddon(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature, enabled bool, at time.Time) error {
	addon := models.StoreAddon{
		StoreID: storeID,
		Feature: feature,
		Enabled: enabled,
	}
	if enabled {
		addon.EnabledAt = &at
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "feature"}},
			DoUpdates: clause.AssignmentColumns([]string{"enabled", "enabled_at", "updated_at"}),
		}).
		Create(&addon).Error
}

// FindAddon loads a store's addon row for one feature.
func (r *Repository) FindAddon(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature) (*models.StoreAddon, error) {
	var addon models.StoreAddon
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND feature = ?", storeID, feature).
		First(&addon).Error; err != nil {
		return nil, err
	}
	return &addon, nil
}
