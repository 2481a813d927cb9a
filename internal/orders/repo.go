package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	"github.com/jarilabs/jariecom-backend/pkg/pagination"
)

// Repository handles order persistence, always scoped by store.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to order operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new order row.
func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByID loads an order belonging to the given store.
func (r *Repository) FindByID(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("id = ? AND store_id = ?", orderID, storeID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByNumber loads an order by its public order number.
func (r *Repository) FindByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// ListByStore returns the store's orders, newest first, keyset-paged
// on (created_at, id).
func (r *Repository) ListByStore(ctx context.Context, storeID uuid.UUID, status *enums.OrderStatus, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Where("store_id = ?", storeID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Update saves the provided order.
func (r *Repository) Update(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	return r.db.WithContext(ctx).Save(order).Error
}

// StatsRow aggregates per-status counts for a store.
type StatsRow struct {
	Status  enums.OrderStatus
	Count   int64
	Revenue decimal.Decimal
}

// Stats returns order totals grouped by status for a store. Revenue
// sums the amount column per status; the service decides which
// statuses count as realized revenue.
func (r *Repository) Stats(ctx context.Context, storeID uuid.UUID) ([]StatsRow, error) {
	var rows []StatsRow
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS revenue").
		Where("store_id = ?", storeID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
