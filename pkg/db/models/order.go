package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jarilabs/jariecom-backend/pkg/enums"
	"github.com/jarilabs/jariecom-backend/pkg/types"
)

// Order represents a customer purchase against a store's product.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID     uuid.UUID         `gorm:"column:store_id;type:uuid;not null;index"`
	ProductID   uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	OrderNumber string            `gorm:"column:order_number;not null;uniqueIndex"`
	Customer    types.JSONMap     `gorm:"column:customer;type:jsonb"`
	Items       types.JSONMap     `gorm:"column:items;type:jsonb"`
	Payment     types.JSONMap     `gorm:"column:payment;type:jsonb"`
	Amount      decimal.Decimal   `gorm:"column:amount;type:numeric(12,2);not null"`
	Status      enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
