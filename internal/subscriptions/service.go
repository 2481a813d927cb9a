package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
)

const (
	trialDuration        = 14 * 24 * time.Hour
	subscriptionDuration = 30 * 24 * time.Hour
)

type subscriptionRepository interface {
	FindByFeature(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature) (*models.StoreSubscription, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.StoreSubscription, error)
	Create(ctx context.Context, sub *models.StoreSubscription) error
	Update(ctx context.Context, sub *models.StoreSubscription) error
	ExpireLapsed(ctx context.Context, now time.Time) (int64, error)
	UpsertAddon(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature, enabled bool, at time.Time) error
	FindAddon(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature) (*models.StoreAddon, error)
}

// Service exposes subscription state, trials, and the feature gate
// consulted by gated endpoints.
type Service interface {
	List(ctx context.Context, storeID uuid.UUID) ([]SubscriptionDTO, error)
	StartTrial(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature) (*SubscriptionDTO, error)
	Activate(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature, price decimal.Decimal) (*SubscriptionDTO, error)
	EnableAddon(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature) error
	FeatureUsable(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature) (bool, error)
	ExpireLapsed(ctx context.Context) (int64, error)
}

type service struct {
	repo subscriptionRepository
	now  func() time.Time
}

// NewService builds a subscription service with the provided repository.
func NewService(repo subscriptionRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, storeID uuid.UUID) ([]SubscriptionDTO, error) {
	subs, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list subscriptions")
	}
	return FromModels(subs), nil
}

func (s *service) StartTrial(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature) (*SubscriptionDTO, error) {
	if !feature.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid feature")
	}

	now := s.now().UTC()
	trialEnd := now.Add(trialDuration)

	sub, err := s.repo.FindByFeature(ctx, storeID, feature)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription")
		}
		sub = &models.StoreSubscription{
			StoreID:     storeID,
			Feature:     feature,
			State:       enums.SubscriptionStateTrial,
			TrialEndsAt: &trialEnd,
		}
		if err := s.repo.Create(ctx, sub); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create trial")
		}
		return FromModel(sub), nil
	}

	// Each feature gets one trial. Any state other than none means the
	// trial was already consumed or a paid run is in flight.
	if sub.State != enums.SubscriptionStateNone {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "trial already used for this feature")
	}
	sub.State = enums.SubscriptionStateTrial
	sub.TrialEndsAt = &trialEnd
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "start trial")
	}
	return FromModel(sub), nil
}

// Activate marks a feature paid for the next billing window. It is the
// payment-success side effect and is idempotent per completed payment.
func (s *service) Activate(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature, price decimal.Decimal) (*SubscriptionDTO, error) {
	if !feature.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid feature")
	}

	now := s.now().UTC()
	expiry := now.Add(subscriptionDuration)

	sub, err := s.repo.FindByFeature(ctx, storeID, feature)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription")
		}
		sub = &models.StoreSubscription{
			StoreID:      storeID,
			Feature:      feature,
			State:        enums.SubscriptionStateActive,
			MonthlyPrice: price,
			ExpiresAt:    &expiry,
		}
		if err := s.repo.Create(ctx, sub); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create subscription")
		}
		return FromModel(sub), nil
	}

	sub.State = enums.SubscriptionStateActive
	sub.MonthlyPrice = price
	sub.TrialEndsAt = nil
	sub.ExpiresAt = &expiry
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "activate subscription")
	}
	return FromModel(sub), nil
}

func (s *service) EnableAddon(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature) error {
	if !feature.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid feature")
	}
	if err := s.repo.UpsertAddon(ctx, storeID, feature, true, s.now().UTC()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "enable addon")
	}
	return nil
}

// FeatureUsable is the gate check: the addon must be switched on and,
// when a subscription row exists, its state must still be usable.
func (s *service) FeatureUsable(ctx context.Context, storeID uuid.UUID, feature enums.AddonFeature) (bool, error) {
	addon, err := s.repo.FindAddon(ctx, storeID, feature)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load addon")
	}
	if !addon.Enabled {
		return false, nil
	}

	sub, err := s.repo.FindByFeature(ctx, storeID, feature)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Addon without a subscription row (e.g. KYC-granted
			// mpesa_stk) is not time-bounded.
			return true, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscription")
	}
	return sub.State.Usable(), nil
}

func (s *service) ExpireLapsed(ctx context.Context) (int64, error) {
	count, err := s.repo.ExpireLapsed(ctx, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "expire subscriptions")
	}
	return count, nil
}
