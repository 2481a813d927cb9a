package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/pagination"
	"github.com/jarilabs/jariecom-backend/pkg/types"
)

type stubOrderRepo struct {
	orders  map[uuid.UUID]*models.Order
	created *models.Order
	stats   []StatsRow
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (s *stubOrderRepo) Create(_ context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.created = order
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrderRepo) FindByID(_ context.Context, storeID, orderID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[orderID]
	if !ok || order.StoreID != storeID {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (s *stubOrderRepo) ListByStore(_ context.Context, storeID uuid.UUID, status *enums.OrderStatus, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	var out []models.Order
	for _, order := range s.orders {
		if order.StoreID != storeID {
			continue
		}
		if status != nil && order.Status != *status {
			continue
		}
		out = append(out, *order)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubOrderRepo) Update(_ context.Context, order *models.Order) error {
	s.orders[order.ID] = order
	return nil
}

func (s *stubOrderRepo) Stats(_ context.Context, _ uuid.UUID) ([]StatsRow, error) {
	return s.stats, nil
}

type stubStoreLookup struct {
	store *models.Store
}

func (s stubStoreLookup) FindBySlug(_ context.Context, slug string) (*models.Store, error) {
	if s.store == nil || s.store.Slug != slug {
		return nil, gorm.ErrRecordNotFound
	}
	return s.store, nil
}

type stubProductLookup struct {
	product *models.Product
}

func (s stubProductLookup) FindByID(_ context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	if s.product == nil || s.product.ID != productID || s.product.StoreID != storeID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.product, nil
}

func checkoutFixture(status enums.ProductStatus, price any) (*models.Store, *models.Product) {
	store := &models.Store{ID: uuid.New(), Slug: "duka-bora"}
	product := &models.Product{
		ID:       uuid.New(),
		StoreID:  store.ID,
		Template: "classic",
		Status:   status,
		Data:     types.JSONMap{"price": price},
	}
	return store, product
}

func buildOrderService(t *testing.T, repo orderRepository, store *models.Store, product *models.Product) Service {
	t.Helper()
	svc, err := NewService(repo, stubStoreLookup{store: store}, stubProductLookup{product: product})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestServiceCreateOrder(t *testing.T) {
	store, product := checkoutFixture(enums.ProductStatusActive, 1500.0)
	repo := newStubOrderRepo()
	svc := buildOrderService(t, repo, store, product)

	dto, err := svc.Create(context.Background(), CreateOrderRequest{
		Slug:      "duka-bora",
		ProductID: product.ID,
		Quantity:  3,
		Customer:  types.JSONMap{"name": "Wanjiku", "phone": "0712345678"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if dto.Status != enums.OrderStatusPending {
		t.Fatalf("new orders must start pending, got %s", dto.Status)
	}
	if !dto.Amount.Equal(decimal.NewFromInt(4500)) {
		t.Fatalf("amount = %s, want 4500", dto.Amount)
	}
	if dto.OrderNumber == "" {
		t.Fatalf("expected generated order number")
	}
	if repo.created.Items["quantity"] != 3 {
		t.Fatalf("items should record quantity, got %v", repo.created.Items)
	}
}

func TestServiceCreateOrderDefaultsQuantity(t *testing.T) {
	store, product := checkoutFixture(enums.ProductStatusActive, "250.50")
	svc := buildOrderService(t, newStubOrderRepo(), store, product)

	dto, err := svc.Create(context.Background(), CreateOrderRequest{
		Slug:      "duka-bora",
		ProductID: product.ID,
		Customer:  types.JSONMap{"name": "Wanjiku"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !dto.Amount.Equal(decimal.RequireFromString("250.50")) {
		t.Fatalf("amount = %s, want 250.50", dto.Amount)
	}
}

func TestServiceCreateOrderRejectsDraftProduct(t *testing.T) {
	store, product := checkoutFixture(enums.ProductStatusDraft, 100.0)
	svc := buildOrderService(t, newStubOrderRepo(), store, product)

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		Slug:      "duka-bora",
		ProductID: product.ID,
		Customer:  types.JSONMap{"name": "Wanjiku"},
	})
	if err == nil {
		t.Fatalf("expected validation error for draft product")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceCreateOrderMalformedPrice(t *testing.T) {
	store, product := checkoutFixture(enums.ProductStatusActive, "not-a-price")
	svc := buildOrderService(t, newStubOrderRepo(), store, product)

	_, err := svc.Create(context.Background(), CreateOrderRequest{
		Slug:      "duka-bora",
		ProductID: product.ID,
		Customer:  types.JSONMap{"name": "Wanjiku"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for malformed price, got %v", err)
	}
}

func TestServiceUpdateStatusTransitions(t *testing.T) {
	cases := []struct {
		from    enums.OrderStatus
		to      enums.OrderStatus
		allowed bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusPaid, true},
		{enums.OrderStatusPending, enums.OrderStatusCancelled, true},
		{enums.OrderStatusPending, enums.OrderStatusShipped, false},
		{enums.OrderStatusPaid, enums.OrderStatusProcessing, true},
		{enums.OrderStatusProcessing, enums.OrderStatusShipped, true},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered, true},
		{enums.OrderStatusShipped, enums.OrderStatusCancelled, false},
		{enums.OrderStatusDelivered, enums.OrderStatusPending, false},
		{enums.OrderStatusCancelled, enums.OrderStatusPaid, false},
	}

	for _, tc := range cases {
		repo := newStubOrderRepo()
		storeID := uuid.New()
		order := &models.Order{ID: uuid.New(), StoreID: storeID, Status: tc.from}
		repo.orders[order.ID] = order
		svc := buildOrderService(t, repo, &models.Store{ID: storeID, Slug: "s"}, nil)

		dto, err := svc.UpdateStatus(context.Background(), storeID, order.ID, tc.to)
		if tc.allowed {
			if err != nil {
				t.Fatalf("%s -> %s should be allowed: %v", tc.from, tc.to, err)
			}
			if dto.Status != tc.to {
				t.Fatalf("status not applied, got %s", dto.Status)
			}
			continue
		}
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("%s -> %s should be a state conflict, got %v", tc.from, tc.to, err)
		}
	}
}

func TestServiceStats(t *testing.T) {
	repo := newStubOrderRepo()
	repo.stats = []StatsRow{
		{Status: enums.OrderStatusPending, Count: 4, Revenue: decimal.NewFromInt(400)},
		{Status: enums.OrderStatusPaid, Count: 2, Revenue: decimal.NewFromInt(200)},
		{Status: enums.OrderStatusDelivered, Count: 1, Revenue: decimal.NewFromInt(150)},
		{Status: enums.OrderStatusCancelled, Count: 3, Revenue: decimal.NewFromInt(999)},
	}
	svc := buildOrderService(t, repo, &models.Store{ID: uuid.New(), Slug: "s"}, nil)

	stats, err := svc.Stats(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 10 {
		t.Fatalf("total = %d, want 10", stats.Total)
	}
	// Pending and cancelled amounts are not realized revenue.
	if !stats.Revenue.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("revenue = %s, want 350", stats.Revenue)
	}
	if stats.ByStatus[enums.OrderStatusPending] != 4 {
		t.Fatalf("by_status pending = %d, want 4", stats.ByStatus[enums.OrderStatusPending])
	}
}

func TestServiceListRejectsBadCursor(t *testing.T) {
	svc := buildOrderService(t, newStubOrderRepo(), &models.Store{ID: uuid.New(), Slug: "s"}, nil)

	_, err := svc.List(context.Background(), uuid.New(), nil, pagination.Params{Cursor: "%%%"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad cursor, got %v", err)
	}
}

func TestServiceListPaginates(t *testing.T) {
	repo := newStubOrderRepo()
	storeID := uuid.New()
	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		order := &models.Order{
			ID:        uuid.New(),
			StoreID:   storeID,
			Status:    enums.OrderStatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		repo.orders[order.ID] = order
	}
	svc := buildOrderService(t, repo, &models.Store{ID: storeID, Slug: "s"}, nil)

	page, err := svc.List(context.Background(), storeID, nil, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Orders) != 2 {
		t.Fatalf("expected 2 orders on page, got %d", len(page.Orders))
	}
	if page.NextCursor == "" {
		t.Fatalf("expected next cursor when more rows remain")
	}
}
