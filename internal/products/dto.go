package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	"github.com/jarilabs/jariecom-backend/pkg/types"
)

// ProductDTO is the transport shape for dashboard and storefront reads.
type ProductDTO struct {
	ID        uuid.UUID           `json:"id"`
	StoreID   uuid.UUID           `json:"store_id"`
	Template  string              `json:"template"`
	Data      types.JSONMap       `json:"data"`
	Media     types.JSONMap       `json:"media"`
	Status    enums.ProductStatus `json:"status"`
	SortOrder int                 `json:"sort_order"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// CreateProductDTO holds the data required to persist a new product.
type CreateProductDTO struct {
	StoreID  uuid.UUID
	Template string
	Data     types.JSONMap
	Media    types.JSONMap
}

// UpdateProductInput captures the mutable fields; nil means "leave as is".
type UpdateProductInput struct {
	Template *string       `json:"template,omitempty"`
	Data     types.JSONMap `json:"data,omitempty"`
	Media    types.JSONMap `json:"media,omitempty"`
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:        p.ID,
		StoreID:   p.StoreID,
		Template:  p.Template,
		Data:      p.Data,
		Media:     p.Media,
		Status:    p.Status,
		SortOrder: p.SortOrder,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func FromModels(items []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out
}

func (c CreateProductDTO) ToModel() *models.Product {
	template := c.Template
	if template == "" {
		template = "classic"
	}
	data := c.Data
	if data == nil {
		data = types.JSONMap{}
	}
	media := c.Media
	if media == nil {
		media = types.JSONMap{}
	}
	return &models.Product{
		StoreID:  c.StoreID,
		Template: template,
		Data:     data,
		Media:    media,
		Status:   enums.ProductStatusDraft,
	}
}
