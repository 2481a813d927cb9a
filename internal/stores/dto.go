package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	"github.com/jarilabs/jariecom-backend/pkg/types"
)

// StoreDTO is the transport shape returned to merchants and the
// public storefront read.
type StoreDTO struct {
	ID                uuid.UUID            `json:"id"`
	Slug              string               `json:"slug"`
	Name              string               `json:"name"`
	Config            types.JSONMap        `json:"config"`
	ConfigVersion     int                  `json:"config_version"`
	DefaultCheckout   enums.CheckoutMode   `json:"default_checkout"`
	UnlockedCheckouts []enums.CheckoutMode `json:"unlocked_checkouts"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// CreateStoreDTO holds the data required by the repo to persist a new store.
type CreateStoreDTO struct {
	OwnerID uuid.UUID
	Slug    string
	Name    string
	Config  types.JSONMap
}

// UpdateStoreInput captures the mutable store fields; nil means "leave as is".
type UpdateStoreInput struct {
	Name            *string             `json:"name,omitempty"`
	Config          types.JSONMap       `json:"config,omitempty"`
	DefaultCheckout *enums.CheckoutMode `json:"default_checkout,omitempty"`
}

func FromModel(store *models.Store) *StoreDTO {
	if store == nil {
		return nil
	}

	unlocked := make([]enums.CheckoutMode, 0, len(store.UnlockedCheckouts))
	for _, mode := range store.UnlockedCheckouts {
		parsed, err := enums.ParseCheckoutMode(mode)
		if err != nil {
			continue
		}
		unlocked = append(unlocked, parsed)
	}

	return &StoreDTO{
		ID:                store.ID,
		Slug:              store.Slug,
		Name:              store.Name,
		Config:            NormalizeConfig(store.Config, store.ConfigVersion),
		ConfigVersion:     currentConfigVersion,
		DefaultCheckout:   store.DefaultCheckout,
		UnlockedCheckouts: unlocked,
		CreatedAt:         store.CreatedAt,
		UpdatedAt:         store.UpdatedAt,
	}
}

func (c CreateStoreDTO) ToModel() *models.Store {
	config := c.Config
	if config == nil {
		config = types.JSONMap{}
	}
	return &models.Store{
		OwnerID:         c.OwnerID,
		Slug:            c.Slug,
		Name:            c.Name,
		Config:          config,
		ConfigVersion:   currentConfigVersion,
		DefaultCheckout: enums.CheckoutModeStandard,
	}
}
