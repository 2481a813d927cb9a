package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/types"
)

type stubProductRepo struct {
	products map[uuid.UUID]*models.Product
	updates  int
	deleted  int64
	orders   map[uuid.UUID]int
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		products: map[uuid.UUID]*models.Product{},
		orders:   map[uuid.UUID]int{},
	}
}

func (s *stubProductRepo) Create(_ context.Context, dto CreateProductDTO) (*models.Product, error) {
	product := dto.ToModel()
	product.ID = uuid.New()
	s.products[product.ID] = product
	return product, nil
}

func (s *stubProductRepo) FindByID(_ context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	product, ok := s.products[productID]
	if !ok || product.StoreID != storeID {
		return nil, gorm.ErrRecordNotFound
	}
	return product, nil
}

func (s *stubProductRepo) ListByStore(_ context.Context, storeID uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, product := range s.products {
		if product.StoreID == storeID {
			out = append(out, *product)
		}
	}
	return out, nil
}

func (s *stubProductRepo) ListActiveByStore(_ context.Context, storeID uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, product := range s.products {
		if product.StoreID == storeID && product.Status == enums.ProductStatusActive {
			out = append(out, *product)
		}
	}
	return out, nil
}

func (s *stubProductRepo) Update(_ context.Context, product *models.Product) error {
	s.updates++
	s.products[product.ID] = product
	return nil
}

func (s *stubProductRepo) Delete(_ context.Context, storeID, productID uuid.UUID) (int64, error) {
	product, ok := s.products[productID]
	if !ok || product.StoreID != storeID {
		return 0, nil
	}
	delete(s.products, productID)
	s.deleted++
	return 1, nil
}

func (s *stubProductRepo) UpdateSortOrder(_ context.Context, _ uuid.UUID, productID uuid.UUID, position int) error {
	s.orders[productID] = position
	return nil
}

func buildProductService(t *testing.T, repo *stubProductRepo) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedProduct(repo *stubProductRepo, storeID uuid.UUID) *models.Product {
	product := &models.Product{
		ID:       uuid.New(),
		StoreID:  storeID,
		Template: "classic",
		Data:     types.JSONMap{"name": "Kiondo Basket", "price": 1500},
		Media:    types.JSONMap{"cover": "https://res.cloudinary.com/demo/kiondo.jpg"},
		Status:   enums.ProductStatusDraft,
	}
	repo.products[product.ID] = product
	return product
}

func TestCreateDefaultsToDraft(t *testing.T) {
	repo := newStubProductRepo()
	svc := buildProductService(t, repo)

	dto, err := svc.Create(context.Background(), uuid.New(), CreateProductDTO{
		Data: types.JSONMap{"name": "Kiondo Basket"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Status != enums.ProductStatusDraft {
		t.Fatalf("status = %s, want draft", dto.Status)
	}
	if dto.Template != "classic" {
		t.Fatalf("template = %q, want classic default", dto.Template)
	}
}

func TestUpdateMergesData(t *testing.T) {
	repo := newStubProductRepo()
	svc := buildProductService(t, repo)
	storeID := uuid.New()
	product := seedProduct(repo, storeID)

	dto, err := svc.Update(context.Background(), storeID, product.ID, UpdateProductInput{
		Data: types.JSONMap{"price": 1800},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Data["name"] != "Kiondo Basket" {
		t.Fatalf("untouched keys must survive a partial patch")
	}
	if dto.Data["price"] != 1800 {
		t.Fatalf("price = %v, want 1800", dto.Data["price"])
	}
	if repo.updates != 1 {
		t.Fatalf("updates = %d, want 1", repo.updates)
	}
}

func TestUpdateNilValueDeletesKey(t *testing.T) {
	repo := newStubProductRepo()
	svc := buildProductService(t, repo)
	storeID := uuid.New()
	product := seedProduct(repo, storeID)

	dto, err := svc.Update(context.Background(), storeID, product.ID, UpdateProductInput{
		Data: types.JSONMap{"price": nil},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, ok := dto.Data["price"]; ok {
		t.Fatalf("nil patch value should delete the key")
	}
	if dto.Data["name"] != "Kiondo Basket" {
		t.Fatalf("other keys must survive")
	}
}

func TestUpdateNoChangesSkipsWrite(t *testing.T) {
	repo := newStubProductRepo()
	svc := buildProductService(t, repo)
	storeID := uuid.New()
	product := seedProduct(repo, storeID)

	if _, err := svc.Update(context.Background(), storeID, product.ID, UpdateProductInput{}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if repo.updates != 0 {
		t.Fatalf("empty patch must not write, got %d updates", repo.updates)
	}
}

func TestUpdateScopedToStore(t *testing.T) {
	repo := newStubProductRepo()
	svc := buildProductService(t, repo)
	product := seedProduct(repo, uuid.New())

	_, err := svc.Update(context.Background(), uuid.New(), product.ID, UpdateProductInput{
		Data: types.JSONMap{"price": 1},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("foreign store must see not found, got %v", err)
	}
}

func TestDeleteMissingProduct(t *testing.T) {
	repo := newStubProductRepo()
	svc := buildProductService(t, repo)

	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	repo := newStubProductRepo()
	svc := buildProductService(t, repo)
	storeID := uuid.New()
	product := seedProduct(repo, storeID)

	dto, err := svc.SetStatus(context.Background(), storeID, product.ID, enums.ProductStatusActive)
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if dto.Status != enums.ProductStatusActive {
		t.Fatalf("status = %s, want active", dto.Status)
	}

	// Same status again is a no-op write.
	if _, err := svc.SetStatus(context.Background(), storeID, product.ID, enums.ProductStatusActive); err != nil {
		t.Fatalf("set status again: %v", err)
	}
	if repo.updates != 1 {
		t.Fatalf("updates = %d, want 1", repo.updates)
	}
}

func TestSetStatusInvalid(t *testing.T) {
	repo := newStubProductRepo()
	svc := buildProductService(t, repo)
	storeID := uuid.New()
	product := seedProduct(repo, storeID)

	_, err := svc.SetStatus(context.Background(), storeID, product.ID, "archived-forever")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListActiveFiltersDrafts(t *testing.T) {
	repo := newStubProductRepo()
	svc := buildProductService(t, repo)
	storeID := uuid.New()
	seedProduct(repo, storeID)
	active := seedProduct(repo, storeID)
	active.Status = enums.ProductStatusActive

	items, err := svc.ListActive(context.Background(), storeID)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(items) != 1 || items[0].ID != active.ID {
		t.Fatalf("expected only the active product, got %d items", len(items))
	}
}

func TestReorder(t *testing.T) {
	repo := newStubProductRepo()
	svc := buildProductService(t, repo)
	storeID := uuid.New()
	first := seedProduct(repo, storeID)
	second := seedProduct(repo, storeID)

	if err := svc.Reorder(context.Background(), storeID, []uuid.UUID{second.ID, first.ID}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if repo.orders[second.ID] != 0 || repo.orders[first.ID] != 1 {
		t.Fatalf("positions = %v", repo.orders)
	}
}

func TestReorderRejectsDuplicates(t *testing.T) {
	repo := newStubProductRepo()
	svc := buildProductService(t, repo)
	id := uuid.New()

	err := svc.Reorder(context.Background(), uuid.New(), []uuid.UUID{id, id})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReorderRequiresIDs(t *testing.T) {
	repo := newStubProductRepo()
	svc := buildProductService(t, repo)

	err := svc.Reorder(context.Background(), uuid.New(), nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
