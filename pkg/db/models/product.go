package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/jarilabs/jariecom-backend/pkg/enums"
	"github.com/jarilabs/jariecom-backend/pkg/types"
)

// Product represents a storefront listing. Data carries the template-
// specific payload (price, description, testimonials); Media carries
// image URLs.
type Product struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index"`
	Template  string              `gorm:"column:template;not null;default:'classic'"`
	Data      types.JSONMap       `gorm:"column:data;type:jsonb"`
	Media     types.JSONMap       `gorm:"column:media;type:jsonb"`
	Status    enums.ProductStatus `gorm:"column:status;type:product_status;not null;default:'draft'"`
	SortOrder int                 `gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
