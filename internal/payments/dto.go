package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
)

// Purposes a payment intent can settle.
const (
	PurposeOrder        = "order"
	PurposeSubscription = "subscription"
)

// InitiateRequest starts an STK push. Exactly one purpose applies:
// order payments carry an order id, subscription payments a feature.
type InitiateRequest struct {
	Provider enums.PaymentProvider `json:"provider" validate:"required"`
	Purpose  string                `json:"purpose" validate:"required"`
	Phone    string                `json:"phone" validate:"required"`
	Amount   decimal.Decimal       `json:"amount" validate:"required"`
	OrderID  *uuid.UUID            `json:"order_id,omitempty"`
	Feature  *enums.AddonFeature   `json:"feature,omitempty"`
}

// IntentDTO is the transport shape for payment-intent reads.
type IntentDTO struct {
	ID            uuid.UUID             `json:"id"`
	StoreID       uuid.UUID             `json:"store_id"`
	Provider      enums.PaymentProvider `json:"provider"`
	ProviderRef   string                `json:"provider_ref"`
	Purpose       string                `json:"purpose"`
	Feature       *enums.AddonFeature   `json:"feature,omitempty"`
	OrderID       *uuid.UUID            `json:"order_id,omitempty"`
	Phone         string                `json:"phone"`
	Amount        decimal.Decimal       `json:"amount"`
	Status        enums.PaymentStatus   `json:"status"`
	FailureReason *string               `json:"failure_reason,omitempty"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

func FromModel(intent *models.PaymentIntent) *IntentDTO {
	if intent == nil {
		return nil
	}
	return &IntentDTO{
		ID:            intent.ID,
		StoreID:       intent.StoreID,
		Provider:      intent.Provider,
		ProviderRef:   intent.ProviderRef,
		Purpose:       intent.Purpose,
		Feature:       intent.Feature,
		OrderID:       intent.OrderID,
		Phone:         intent.Phone,
		Amount:        intent.Amount,
		Status:        intent.Status,
		FailureReason: intent.FailureReason,
		CompletedAt:   intent.CompletedAt,
		CreatedAt:     intent.CreatedAt,
	}
}
