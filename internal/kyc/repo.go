package kyc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
)

// Repository handles the one-per-store KYC record.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to KYC operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByStore loads the store's KYC record.
func (r *Repository) FindByStore(ctx context.Context, storeID uuid.UUID) (*models.MerchantKYC, error) {
	var record models.MerchantKYC
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Create persists a fresh draft record for the store.
func (r *Repository) Create(ctx context.Context, record *models.MerchantKYC) error {
	if record == nil {
		return fmt.Errorf("kyc record is required")
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// Update saves the provided record.
func (r *Repository) Update(ctx context.Context, record *models.MerchantKYC) error {
	if record == nil {
		return fmt.Errorf("kyc record is required")
	}
	return r.db.WithContext(ctx).Save(record).Error
}
