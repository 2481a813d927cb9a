package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jarilabs/jariecom-backend/pkg/enums"
)

// StoreSubscription tracks per-store per-feature subscription state,
// checked on each access to a gated feature.
type StoreSubscription struct {
	ID           uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID      uuid.UUID               `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_store_subscription_feature"`
	Feature      enums.AddonFeature      `gorm:"column:feature;type:addon_feature;not null;uniqueIndex:idx_store_subscription_feature"`
	State        enums.SubscriptionState `gorm:"column:state;type:subscription_state;not null;default:'none'"`
	MonthlyPrice decimal.Decimal         `gorm:"column:monthly_price;type:numeric(10,2);not null;default:0"`
	TrialEndsAt  *time.Time              `gorm:"column:trial_ends_at"`
	ExpiresAt    *time.Time              `gorm:"column:expires_at"`
	CreatedAt    time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// StoreAddon flags a feature switched on for a store, usually as the
// side effect of a payment or KYC approval.
type StoreAddon struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID          `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_store_addon_feature"`
	Feature   enums.AddonFeature `gorm:"column:feature;type:addon_feature;not null;uniqueIndex:idx_store_addon_feature"`
	Enabled   bool               `gorm:"column:enabled;not null;default:false"`
	EnabledAt *time.Time         `gorm:"column:enabled_at"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
