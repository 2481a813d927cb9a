package pixel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
)

// Repository handles the append-only pixel event log.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to pixel operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends one tracking event.
func (r *Repository) Insert(ctx context.Context, event *models.PixelEvent) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// EventCountRow aggregates events by name.
type EventCountRow struct {
	Event string
	Count int64
}

// DailyCountRow aggregates events per day.
type DailyCountRow struct {
	Day   time.Time
	Count int64
}

// SourceCountRow aggregates events by UTM source.
type SourceCountRow struct {
	Source string
	Count  int64
}

// CountByEvent returns per-event totals for a store within the range.
func (r *Repository) CountByEvent(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]EventCountRow, error) {
	var rows []EventCountRow
	if err := r.db.WithContext(ctx).
		Model(&models.PixelEvent{}).
		Select("event, COUNT(*) AS count").
		Where("store_id = ? AND created_at >= ? AND created_at < ?", storeID, from, to).
		Group("event").
		Order("count DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByDay returns daily totals for a store within the range.
func (r *Repository) CountByDay(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]DailyCountRow, error) {
	var rows []DailyCountRow
	if err := r.db.WithContext(ctx).
		Model(&models.PixelEvent{}).
		Select("date_trunc('day', created_at) AS day, COUNT(*) AS count").
		Where("store_id = ? AND created_at >= ? AND created_at < ?", storeID, from, to).
		Group("day").
		Order("day ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// TopSources returns the highest-traffic UTM sources for a store.
func (r *Repository) TopSources(ctx context.Context, storeID uuid.UUID, from, to time.Time, limit int) ([]SourceCountRow, error) {
	var rows []SourceCountRow
	if err := r.db.WithContext(ctx).
		Model(&models.PixelEvent{}).
		Select("utm_source AS source, COUNT(*) AS count").
		Where("store_id = ? AND created_at >= ? AND created_at < ?", storeID, from, to).
		Where("utm_source IS NOT NULL AND utm_source <> ''").
		Group("utm_source").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
