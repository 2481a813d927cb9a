package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/pkg/db"
	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/pagination"
	"github.com/jarilabs/jariecom-backend/pkg/types"
)

// allowedTransitions encodes the merchant-driven order lifecycle.
// Payment confirmation moves pending to paid elsewhere; cancellation
// is allowed from any non-terminal state.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:    {enums.OrderStatusPaid, enums.OrderStatusCancelled},
	enums.OrderStatusPaid:       {enums.OrderStatusProcessing, enums.OrderStatusCancelled},
	enums.OrderStatusProcessing: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:    {enums.OrderStatusDelivered},
	enums.OrderStatusDelivered:  {},
	enums.OrderStatusCancelled:  {},
}

type orderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error)
	ListByStore(ctx context.Context, storeID uuid.UUID, status *enums.OrderStatus, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	Stats(ctx context.Context, storeID uuid.UUID) ([]StatsRow, error)
}

type storeLookup interface {
	FindBySlug(ctx context.Context, slug string) (*models.Store, error)
}

type productLookup interface {
	FindByID(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
}

// Service exposes order operations for checkout and the dashboard.
type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (*OrderDTO, error)
	Get(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, storeID uuid.UUID, status *enums.OrderStatus, page pagination.Params) (*OrderPage, error)
	UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error)
	Stats(ctx context.Context, storeID uuid.UUID) (*StatsDTO, error)
}

type service struct {
	repo     orderRepository
	stores   storeLookup
	products productLookup
	now      func() time.Time
}

// NewService builds an order service with the provided repositories.
func NewService(repo orderRepository, stores storeLookup, products productLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store lookup required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{
		repo:     repo,
		stores:   stores,
		products: products,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, req CreateOrderRequest) (*OrderDTO, error) {
	store, err := s.stores.FindBySlug(ctx, req.Slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load store")
	}

	product, err := s.products.FindByID(ctx, store.ID, req.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if product.Status != enums.ProductStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available for purchase")
	}

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	price, err := productPrice(product)
	if err != nil {
		return nil, err
	}
	amount := price.Mul(decimal.NewFromInt(int64(quantity)))

	orderNumber, err := GenerateOrderNumber(s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
	}

	order := &models.Order{
		StoreID:     store.ID,
		ProductID:   product.ID,
		OrderNumber: orderNumber,
		Customer:    req.Customer,
		Items: types.JSONMap{
			"product_id": product.ID.String(),
			"template":   product.Template,
			"quantity":   quantity,
			"unit_price": price.String(),
		},
		Amount: amount,
		Status: enums.OrderStatusPending,
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, db.TranslateError(err, "create order")
	}
	return FromModel(order), nil
}

func (s *service) Get(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.find(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	return FromModel(order), nil
}

func (s *service) List(ctx context.Context, storeID uuid.UUID, status *enums.OrderStatus, page pagination.Params) (*OrderPage, error) {
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(page.Limit)

	items, err := s.repo.ListByStore(ctx, storeID, status, cursor, pagination.LimitWithBuffer(page.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	next := ""
	if len(items) > limit {
		items = items[:limit]
		last := items[limit-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return &OrderPage{Orders: FromModels(items), NextCursor: next}, nil
}

func (s *service) UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	order, err := s.find(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(order.Status, next) {
		return nil, pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, next),
		)
	}

	order.Status = next
	if err := s.repo.Update(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
	}
	return FromModel(order), nil
}

func (s *service) Stats(ctx context.Context, storeID uuid.UUID) (*StatsDTO, error) {
	rows, err := s.repo.Stats(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order stats")
	}

	stats := &StatsDTO{
		Revenue:  decimal.Zero,
		ByStatus: make(map[enums.OrderStatus]int64, len(rows)),
	}
	for _, row := range rows {
		stats.Total += row.Count
		stats.ByStatus[row.Status] = row.Count
		// Cancelled and still-pending orders do not count as revenue.
		switch row.Status {
		case enums.OrderStatusPaid, enums.OrderStatusProcessing,
			enums.OrderStatusShipped, enums.OrderStatusDelivered:
			stats.Revenue = stats.Revenue.Add(row.Revenue)
		}
	}
	return stats, nil
}

func (s *service) find(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, storeID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return order, nil
}

func transitionAllowed(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func productPrice(product *models.Product) (decimal.Decimal, error) {
	raw, ok := product.Data["price"]
	if !ok {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "product has no price")
	}
	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		price, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "product price is malformed")
		}
		return price, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "product price is malformed")
	}
}
