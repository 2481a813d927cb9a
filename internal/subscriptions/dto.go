package subscriptions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
)

// SubscriptionDTO is the transport shape for subscription reads.
type SubscriptionDTO struct {
	ID           uuid.UUID               `json:"id"`
	StoreID      uuid.UUID               `json:"store_id"`
	Feature      enums.AddonFeature      `json:"feature"`
	State        enums.SubscriptionState `json:"state"`
	MonthlyPrice decimal.Decimal         `json:"monthly_price"`
	TrialEndsAt  *time.Time              `json:"trial_ends_at,omitempty"`
	ExpiresAt    *time.Time              `json:"expires_at,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// StartTrialRequest names the feature to trial.
type StartTrialRequest struct {
	Feature enums.AddonFeature `json:"feature" validate:"required"`
}

func FromModel(sub *models.StoreSubscription) *SubscriptionDTO {
	if sub == nil {
		return nil
	}
	return &SubscriptionDTO{
		ID:           sub.ID,
		StoreID:      sub.StoreID,
		Feature:      sub.Feature,
		State:        sub.State,
		MonthlyPrice: sub.MonthlyPrice,
		TrialEndsAt:  sub.TrialEndsAt,
		ExpiresAt:    sub.ExpiresAt,
		CreatedAt:    sub.CreatedAt,
		UpdatedAt:    sub.UpdatedAt,
	}
}

func FromModels(items []models.StoreSubscription) []SubscriptionDTO {
	out := make([]SubscriptionDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out
}
