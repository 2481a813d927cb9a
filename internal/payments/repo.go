package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
)

// Repository handles payment-intent persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to payment-intent operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new intent row.
func (r *Repository) Create(ctx context.Context, intent *models.PaymentIntent) error {
	if intent == nil {
		return fmt.Errorf("payment intent is required")
	}
	return r.db.WithContext(ctx).Create(intent).Error
}

// FindByID loads an intent by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	if err := r.db.WithContext(ctx).First(&intent, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &intent, nil
}

// FindByProviderRef loads an intent by the provider's checkout/invoice id.
func (r *Repository) FindByProviderRef(ctx context.Context, ref string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	if err := r.db.WithContext(ctx).
		Where("provider_ref = ?", ref).
		First(&intent).Error; err != nil {
		return nil, err
	}
	return &intent, nil
}

// Update saves the provided intent.
func (r *Repository) Update(ctx context.Context, intent *models.PaymentIntent) error {
	if intent == nil {
		return fmt.Errorf("payment intent is required")
	}
	return r.db.WithContext(ctx).Save(intent).Error
}

// ListPollable returns non-terminal intents that have outlived the
// webhook grace period, oldest first.
func (r *Repository) ListPollable(ctx context.Context, olderThan time.Time, limit int) ([]models.PaymentIntent, error) {
	var intents []models.PaymentIntent
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []enums.PaymentStatus{enums.PaymentStatusPending, enums.PaymentStatusProcessing}).
		Where("created_at < ?", olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&intents).Error; err != nil {
		return nil, err
	}
	return intents, nil
}

// MarkPolled stamps last_polled_at on an intent.
func (r *Repository) MarkPolled(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ?", id).
		UpdateColumn("last_polled_at", at).Error
}
