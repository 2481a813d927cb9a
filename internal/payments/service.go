package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/internal/subscriptions"
	"github.com/jarilabs/jariecom-backend/pkg/db"
	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/intasend"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
	"github.com/jarilabs/jariecom-backend/pkg/mpesa"
	"github.com/jarilabs/jariecom-backend/pkg/phone"
)

type intentRepository interface {
	Create(ctx context.Context, intent *models.PaymentIntent) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentIntent, error)
	FindByProviderRef(ctx context.Context, ref string) (*models.PaymentIntent, error)
	Update(ctx context.Context, intent *models.PaymentIntent) error
}

type darajaClient interface {
	STKPush(ctx context.Context, params mpesa.STKPushParams) (*mpesa.STKPushResult, error)
}

type intasendClient interface {
	Collect(ctx context.Context, params intasend.CollectParams) (*intasend.CollectResult, error)
}

type orderResolver interface {
	FindByID(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
}

type subscriptionActivator interface {
	Activate(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature, price decimal.Decimal) (*subscriptions.SubscriptionDTO, error)
	FeatureUsable(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature) (bool, error)
}

// Service orchestrates payment initiation and terminal-state handling.
// Confirmation is webhook-first; the worker poll is the fallback path.
type Service interface {
	Initiate(ctx context.Context, storeID uuid.UUID, req InitiateRequest) (*IntentDTO, error)
	Get(ctx context.Context, storeID uuid.UUID, intentID uuid.UUID) (*IntentDTO, error)
	Resolve(ctx context.Context, providerRef string, status enums.PaymentStatus, reason string) (*IntentDTO, error)
}

// ServiceParams bundles the payment service dependencies.
type ServiceParams struct {
	Intents       intentRepository
	Daraja        darajaClient
	IntaSend      intasendClient
	Orders        orderResolver
	Subscriptions subscriptionActivator
	Logger        *logger.Logger
}

type service struct {
	intents       intentRepository
	daraja        darajaClient
	intasend      intasendClient
	orders        orderResolver
	subscriptions subscriptionActivator
	logg          *logger.Logger
}

// NewService builds a payment service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Intents == nil {
		return nil, fmt.Errorf("intent repository required")
	}
	if params.Daraja == nil {
		return nil, fmt.Errorf("daraja client required")
	}
	if params.IntaSend == nil {
		return nil, fmt.Errorf("intasend client required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order resolver required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription activator required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		intents:       params.Intents,
		daraja:        params.Daraja,
		intasend:      params.IntaSend,
		orders:        params.Orders,
		subscriptions: params.Subscriptions,
		logg:          params.Logger,
	}, nil
}

func (s *service) Initiate(ctx context.Context, storeID uuid.UUID, req InitiateRequest) (*IntentDTO, error) {
	if !req.Provider.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment provider")
	}
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	msisdn, err := phone.Normalize(req.Phone)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid phone number")
	}

	var reference, description string
	switch req.Purpose {
	case PurposeOrder:
		if req.OrderID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order_id is required for order payments")
		}
		order, err := s.orders.FindByID(ctx, storeID, *req.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		if order.Status != enums.OrderStatusPending {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting payment")
		}
		reference = order.OrderNumber
		description = "Order payment"
		if req.Provider == enums.PaymentProviderDaraja {
			usable, err := s.subscriptions.FeatureUsable(ctx, storeID, enums.AddonFeatureMpesaSTK)
			if err != nil {
				return nil, err
			}
			if !usable {
				return nil, pkgerrors.New(pkgerrors.CodeForbidden, "mpesa_stk is not enabled for this store")
			}
		}
	case PurposeSubscription:
		if req.Feature == nil || !req.Feature.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "feature is required for subscription payments")
		}
		reference = req.Feature.String()
		description = "Subscription"
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment purpose")
	}

	amount := req.Amount.Round(0).IntPart()
	var providerRef string
	var status enums.PaymentStatus
	switch req.Provider {
	case enums.PaymentProviderDaraja:
		result, err := s.daraja.STKPush(ctx, mpesa.STKPushParams{
			Phone:            msisdn,
			Amount:           amount,
			AccountReference: reference,
			Description:      description,
		})
		if err != nil {
			return nil, err
		}
		providerRef = result.CheckoutRequestID
		status = enums.PaymentStatusPending
	case enums.PaymentProviderIntaSend:
		result, err := s.intasend.Collect(ctx, intasend.CollectParams{
			Phone:     msisdn,
			Amount:    amount,
			Reference: reference,
			Narrative: description,
		})
		if err != nil {
			return nil, err
		}
		providerRef = result.InvoiceID
		status = result.State
	}

	intent := &models.PaymentIntent{
		StoreID:     storeID,
		Provider:    req.Provider,
		ProviderRef: providerRef,
		Purpose:     req.Purpose,
		Feature:     req.Feature,
		OrderID:     req.OrderID,
		Phone:       msisdn,
		Amount:      req.Amount,
		Status:      status,
	}
	if status == enums.PaymentStatusComplete {
		now := time.Now().UTC()
		intent.CompletedAt = &now
	}
	if err := s.intents.Create(ctx, intent); err != nil {
		return nil, db.TranslateError(err, "record payment intent")
	}

	// IntaSend can report the charge settled in the Collect response
	// itself. The webhook replay will see a terminal intent and skip,
	// so the side effect has to run here.
	if status == enums.PaymentStatusComplete {
		if err := s.applySideEffect(ctx, intent); err != nil {
			s.logg.Error(ctx, "payment side effect", err)
			return nil, err
		}
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"provider":     req.Provider.String(),
		"provider_ref": providerRef,
		"purpose":      req.Purpose,
	})
	s.logg.Info(logCtx, "payment initiated")
	return FromModel(intent), nil
}

func (s *service) Get(ctx context.Context, storeID uuid.UUID, intentID uuid.UUID) (*IntentDTO, error) {
	intent, err := s.intents.FindByID(ctx, intentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	if intent.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return FromModel(intent), nil
}

// Resolve records a provider-reported status against an intent and,
// on completion, runs the purpose's side effect. Terminal intents are
// left untouched so replayed webhooks and the poll fallback cannot
// double-fire side effects.
func (s *service) Resolve(ctx context.Context, providerRef string, status enums.PaymentStatus, reason string) (*IntentDTO, error) {
	intent, err := s.intents.FindByProviderRef(ctx, providerRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown payment reference")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load payment")
	}
	if intent.Status.Terminal() {
		return FromModel(intent), nil
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	intent.Status = status
	now := time.Now().UTC()
	switch {
	case status == enums.PaymentStatusComplete:
		intent.CompletedAt = &now
		intent.FailureReason = nil
	case status.Terminal():
		if reason != "" {
			intent.FailureReason = &reason
		}
	}
	if err := s.intents.Update(ctx, intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update payment")
	}

	if status == enums.PaymentStatusComplete {
		if err := s.applySideEffect(ctx, intent); err != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"provider_ref": intent.ProviderRef,
				"purpose":      intent.Purpose,
			})
			s.logg.Error(logCtx, "payment side effect", err)
			return nil, err
		}
	}
	return FromModel(intent), nil
}

func (s *service) applySideEffect(ctx context.Context, intent *models.PaymentIntent) error {
	switch intent.Purpose {
	case PurposeOrder:
		if intent.OrderID == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "order payment without order id")
		}
		order, err := s.orders.FindByID(ctx, intent.StoreID, *intent.OrderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load paid order")
		}
		if order.Status != enums.OrderStatusPending {
			return nil
		}
		order.Status = enums.OrderStatusPaid
		if order.Payment == nil {
			order.Payment = map[string]any{}
		}
		order.Payment["provider"] = intent.Provider.String()
		order.Payment["provider_ref"] = intent.ProviderRef
		order.Payment["phone"] = intent.Phone
		return s.orders.Update(ctx, order)
	case PurposeSubscription:
		if intent.Feature == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "subscription payment without feature")
		}
		_, err := s.subscriptions.Activate(ctx, intent.StoreID, *intent.Feature, intent.Amount)
		return err
	default:
		return nil
	}
}
