package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jarilabs/jariecom-backend/pkg/enums"
)

// CheckoutUnlock is the unlock-history row keyed by (store, mode).
// The unique index makes the unlock operation idempotent at the
// database level.
type CheckoutUnlock struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID          `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_checkout_unlock_store_mode"`
	Mode      enums.CheckoutMode `gorm:"column:mode;type:checkout_mode;not null;uniqueIndex:idx_checkout_unlock_store_mode"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
}
