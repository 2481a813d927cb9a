package models

import (
	"time"

	"github.com/google/uuid"
)

// PixelEvent is an append-only traffic event used by funnel analytics.
// Rows are never updated or deleted.
type PixelEvent struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID     uuid.UUID `gorm:"column:store_id;type:uuid;not null;index"`
	Event       string    `gorm:"column:event;not null"`
	URL         *string   `gorm:"column:url"`
	Device      *string   `gorm:"column:device"`
	UTMSource   *string   `gorm:"column:utm_source"`
	UTMMedium   *string   `gorm:"column:utm_medium"`
	UTMCampaign *string   `gorm:"column:utm_campaign"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime;index"`
}
