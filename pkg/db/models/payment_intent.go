package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jarilabs/jariecom-backend/pkg/enums"
)

// PaymentIntent records an STK push we initiated and what it pays for.
// Terminal status is set by the provider webhook or, as fallback, by
// the worker's status poll.
type PaymentIntent struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID       uuid.UUID             `gorm:"column:store_id;type:uuid;not null;index"`
	Provider      enums.PaymentProvider `gorm:"column:provider;type:payment_provider;not null"`
	ProviderRef   string                `gorm:"column:provider_ref;not null;uniqueIndex"`
	Purpose       string                `gorm:"column:purpose;not null"`
	Feature       *enums.AddonFeature   `gorm:"column:feature;type:addon_feature"`
	OrderID       *uuid.UUID            `gorm:"column:order_id;type:uuid"`
	Phone         string                `gorm:"column:phone;not null"`
	Amount        decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	Status        enums.PaymentStatus   `gorm:"column:status;type:payment_status;not null;default:'pending'"`
	FailureReason *string               `gorm:"column:failure_reason"`
	LastPolledAt  *time.Time            `gorm:"column:last_polled_at"`
	CompletedAt   *time.Time            `gorm:"column:completed_at"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
