package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/pkg/db"
	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
)

type productRepository interface {
	Create(ctx context.Context, dto CreateProductDTO) (*models.Product, error)
	FindByID(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error)
	ListActiveByStore(ctx context.Context, storeID uuid.UUID) ([]models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, storeID, productID uuid.UUID) (int64, error)
	UpdateSortOrder(ctx context.Context, storeID, productID uuid.UUID, position int) error
}

// Service exposes the store-scoped product operations.
type Service interface {
	Create(ctx context.Context, storeID uuid.UUID, input CreateProductDTO) (*ProductDTO, error)
	Get(ctx context.Context, storeID, productID uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, storeID uuid.UUID) ([]ProductDTO, error)
	ListActive(ctx context.Context, storeID uuid.UUID) ([]ProductDTO, error)
	Update(ctx context.Context, storeID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	Delete(ctx context.Context, storeID, productID uuid.UUID) error
	SetStatus(ctx context.Context, storeID, productID uuid.UUID, status enums.ProductStatus) (*ProductDTO, error)
	Reorder(ctx context.Context, storeID uuid.UUID, orderedIDs []uuid.UUID) error
}

type service struct {
	repo productRepository
}

// NewService builds a product service with the provided repository.
func NewService(repo productRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, storeID uuid.UUID, input CreateProductDTO) (*ProductDTO, error) {
	input.StoreID = storeID
	product, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, db.TranslateError(err, "create product")
	}
	return FromModel(product), nil
}

func (s *service) Get(ctx context.Context, storeID, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.find(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	return FromModel(product), nil
}

func (s *service) List(ctx context.Context, storeID uuid.UUID) ([]ProductDTO, error) {
	items, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return FromModels(items), nil
}

func (s *service) ListActive(ctx context.Context, storeID uuid.UUID) ([]ProductDTO, error) {
	items, err := s.repo.ListActiveByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list active products")
	}
	return FromModels(items), nil
}

func (s *service) Update(ctx context.Context, storeID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.find(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}

	changed := false
	if input.Template != nil && *input.Template != product.Template {
		product.Template = *input.Template
		changed = true
	}
	if input.Data != nil {
		product.Data = mergeJSON(product.Data, input.Data)
		changed = true
	}
	if input.Media != nil {
		product.Media = mergeJSON(product.Media, input.Media)
		changed = true
	}

	if changed {
		if err := s.repo.Update(ctx, product); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
		}
	}
	return FromModel(product), nil
}

func (s *service) Delete(ctx context.Context, storeID, productID uuid.UUID) error {
	affected, err := s.repo.Delete(ctx, storeID, productID)
	if err != nil {
		return db.TranslateError(err, "delete product")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

func (s *service) SetStatus(ctx context.Context, storeID, productID uuid.UUID, status enums.ProductStatus) (*ProductDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product status")
	}
	product, err := s.find(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != status {
		product.Status = status
		if err := s.repo.Update(ctx, product); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product status")
		}
	}
	return FromModel(product), nil
}

func (s *service) Reorder(ctx context.Context, storeID uuid.UUID, orderedIDs []uuid.UUID) error {
	if len(orderedIDs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product_ids is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, dup := seen[id]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "duplicate product id in order")
		}
		seen[id] = struct{}{}
	}
	for position, id := range orderedIDs {
		if err := s.repo.UpdateSortOrder(ctx, storeID, id, position); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update sort order")
		}
	}
	return nil
}

func (s *service) find(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, storeID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}

func mergeJSON(base, patch map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range patch {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	return merged
}
