package storefront

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jarilabs/jariecom-backend/internal/products"
	"github.com/jarilabs/jariecom-backend/internal/stores"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
)

// StorefrontDTO is the public read rendered at /s/{slug}: the store's
// normalized config plus its active products only.
type StorefrontDTO struct {
	Store    *stores.StoreDTO      `json:"store"`
	Products []products.ProductDTO `json:"products"`
}

type storeReader interface {
	GetBySlug(ctx context.Context, slug string) (*stores.StoreDTO, error)
}

type productReader interface {
	ListActive(ctx context.Context, storeID uuid.UUID) ([]products.ProductDTO, error)
}

// Service serves the customer-facing storefront read.
type Service interface {
	Get(ctx context.Context, slug string) (*StorefrontDTO, error)
}

type service struct {
	stores   storeReader
	products productReader
}

// NewService builds a storefront service with the provided readers.
func NewService(storesSvc storeReader, productsSvc productReader) (Service, error) {
	if storesSvc == nil {
		return nil, fmt.Errorf("store reader required")
	}
	if productsSvc == nil {
		return nil, fmt.Errorf("product reader required")
	}
	return &service{stores: storesSvc, products: productsSvc}, nil
}

func (s *service) Get(ctx context.Context, slug string) (*StorefrontDTO, error) {
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	store, err := s.stores.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	items, err := s.products.ListActive(ctx, store.ID)
	if err != nil {
		return nil, err
	}
	return &StorefrontDTO{Store: store, Products: items}, nil
}
