package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
)

// Repository handles product persistence. Every query is scoped by
// store id so one tenant can never reach another's rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to product operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new product row.
func (r *Repository) Create(ctx context.Context, dto CreateProductDTO) (*models.Product, error) {
	product := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads a product belonging to the given store.
func (r *Repository) FindByID(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", productID, storeID).
		First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListByStore returns the store's products ordered for the dashboard.
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Order("sort_order ASC, created_at ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// ListActiveByStore returns only active products for the public storefront.
func (r *Repository) ListActiveByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND status = ?", storeID, enums.ProductStatusActive).
		Order("sort_order ASC, created_at ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Update saves the provided product.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	if product == nil {
		return fmt.Errorf("product is required")
	}
	return r.db.WithContext(ctx).Save(product).Error
}

// Delete removes a product, scoped by the owning store.
func (r *Repository) Delete(ctx context.Context, storeID, productID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", productID, storeID).
		Delete(&models.Product{})
	return result.RowsAffected, result.Error
}

// UpdateSortOrder sets the sort position of one product within a store.
func (r *Repository) UpdateSortOrder(ctx context.Context, storeID, productID uuid.UUID, position int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND store_id = ?", productID, storeID).
		UpdateColumn("sort_order", position).Error
}
