package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	"github.com/jarilabs/jariecom-backend/pkg/types"
)

// CreateOrderRequest is the public checkout payload keyed by the
// storefront slug rather than any authenticated identity.
type CreateOrderRequest struct {
	Slug      string        `json:"slug" validate:"required"`
	ProductID uuid.UUID     `json:"product_id" validate:"required"`
	Quantity  int           `json:"quantity"`
	Customer  types.JSONMap `json:"customer" validate:"required"`
}

// UpdateStatusRequest carries a merchant-driven status transition.
type UpdateStatusRequest struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
}

// OrderDTO is the transport shape for order reads.
type OrderDTO struct {
	ID          uuid.UUID         `json:"id"`
	StoreID     uuid.UUID         `json:"store_id"`
	ProductID   uuid.UUID         `json:"product_id"`
	OrderNumber string            `json:"order_number"`
	Customer    types.JSONMap     `json:"customer"`
	Items       types.JSONMap     `json:"items"`
	Payment     types.JSONMap     `json:"payment,omitempty"`
	Amount      decimal.Decimal   `json:"amount"`
	Status      enums.OrderStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// OrderPage is one keyset page of a store's orders. NextCursor is
// empty on the last page.
type OrderPage struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// StatsDTO summarizes a store's order book.
type StatsDTO struct {
	Total    int64                       `json:"total"`
	Revenue  decimal.Decimal             `json:"revenue"`
	ByStatus map[enums.OrderStatus]int64 `json:"by_status"`
}

func FromModel(o *models.Order) *OrderDTO {
	if o == nil {
		return nil
	}
	return &OrderDTO{
		ID:          o.ID,
		StoreID:     o.StoreID,
		ProductID:   o.ProductID,
		OrderNumber: o.OrderNumber,
		Customer:    o.Customer,
		Items:       o.Items,
		Payment:     o.Payment,
		Amount:      o.Amount,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func FromModels(items []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out
}
