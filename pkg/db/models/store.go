package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/jarilabs/jariecom-backend/pkg/enums"
	"github.com/jarilabs/jariecom-backend/pkg/types"
)

// Store represents the canonical tenant model. The slug is the public
// storefront handle; config holds the merchant-shaped theme blob.
type Store struct {
	ID                uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID           uuid.UUID          `gorm:"column:owner;type:uuid;not null;uniqueIndex"`
	Slug              string             `gorm:"column:slug;not null;uniqueIndex"`
	Name              string             `gorm:"column:name;not null"`
	Config            types.JSONMap      `gorm:"column:config;type:jsonb"`
	ConfigVersion     int                `gorm:"column:config_version;not null;default:1"`
	DefaultCheckout   enums.CheckoutMode `gorm:"column:default_checkout;type:checkout_mode;not null;default:'standard'"`
	UnlockedCheckouts pq.StringArray     `gorm:"column:unlocked_checkouts;type:text[];not null;default:ARRAY['standard']::text[]"`
	LastActiveAt      *time.Time         `gorm:"column:last_active_at"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
