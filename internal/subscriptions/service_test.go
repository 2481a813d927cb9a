package subscriptions

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
)

type stubSubscriptionRepo struct {
	sub     *models.StoreSubscription
	addon   *models.StoreAddon
	created *models.StoreSubscription
	expired int64
	upserts int
}

func (s *stubSubscriptionRepo) FindByFeature(_ context.Context, storeID uuid.UUID, feature enums.AddonFeature) (*models.StoreSubscription, error) {
	if s.sub == nil || s.sub.StoreID != storeID || s.sub.Feature != feature {
		return nil, gorm.ErrRecordNotFound
	}
	return s.sub, nil
}

func (s *stubSubscriptionRepo) ListByStore(context.Context, uuid.UUID) ([]models.StoreSubscription, error) {
	if s.sub == nil {
		return nil, nil
	}
	return []models.StoreSubscription{*s.sub}, nil
}

func (s *stubSubscriptionRepo) Create(_ context.Context, sub *models.StoreSubscription) error {
	s.created = sub
	s.sub = sub
	return nil
}

func (s *stubSubscriptionRepo) Update(_ context.Context, sub *models.StoreSubscription) error {
	s.sub = sub
	return nil
}

func (s *stubSubscriptionRepo) ExpireLapsed(context.Context, time.Time) (int64, error) {
	return s.expired, nil
}

func (s *stubSubscriptionRepo) UpsertAddon(_ context.Context, storeID uuid.UUID, feature enums.AddonFeature, enabled bool, _ time.Time) error {
	s.upserts++
	s.addon = &models.StoreAddon{StoreID: storeID, Feature: feature, Enabled: enabled}
	return nil
}

func (s *stubSubscriptionRepo) FindAddon(_ context.Context, storeID uuid.UUID, feature enums.AddonFeature) (*models.StoreAddon, error) {
	if s.addon == nil || s.addon.StoreID != storeID || s.addon.Feature != feature {
		return nil, gorm.ErrRecordNotFound
	}
	return s.addon, nil
}

func buildSubscriptionService(t *testing.T, repo *stubSubscriptionRepo) Service {
	t.Helper()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestServiceStartTrial(t *testing.T) {
	repo := &stubSubscriptionRepo{}
	svc := buildSubscriptionService(t, repo)

	dto, err := svc.StartTrial(context.Background(), uuid.New(), enums.AddonFeatureMpesaSTK)
	if err != nil {
		t.Fatalf("start trial: %v", err)
	}
	if dto.State != enums.SubscriptionStateTrial {
		t.Fatalf("state = %s, want trial", dto.State)
	}
	if dto.TrialEndsAt == nil {
		t.Fatalf("trial end should be stamped")
	}
	got := time.Until(*dto.TrialEndsAt)
	if got < 13*24*time.Hour || got > 15*24*time.Hour {
		t.Fatalf("trial window should be about 14 days, got %s", got)
	}
}

func TestServiceStartTrialOnlyOnce(t *testing.T) {
	storeID := uuid.New()
	repo := &stubSubscriptionRepo{sub: &models.StoreSubscription{
		StoreID: storeID,
		Feature: enums.AddonFeatureMpesaSTK,
		State:   enums.SubscriptionStateExpired,
	}}
	svc := buildSubscriptionService(t, repo)

	_, err := svc.StartTrial(context.Background(), storeID, enums.AddonFeatureMpesaSTK)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for a consumed trial, got %v", err)
	}
}

func TestServiceActivateFromTrial(t *testing.T) {
	storeID := uuid.New()
	trialEnd := time.Now().Add(24 * time.Hour)
	repo := &stubSubscriptionRepo{sub: &models.StoreSubscription{
		StoreID:     storeID,
		Feature:     enums.AddonFeatureMpesaSTK,
		State:       enums.SubscriptionStateTrial,
		TrialEndsAt: &trialEnd,
	}}
	svc := buildSubscriptionService(t, repo)

	price := decimal.NewFromInt(500)
	dto, err := svc.Activate(context.Background(), storeID, enums.AddonFeatureMpesaSTK, price)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if dto.State != enums.SubscriptionStateActive {
		t.Fatalf("state = %s, want active", dto.State)
	}
	if dto.TrialEndsAt != nil {
		t.Fatalf("trial end should clear on activation")
	}
	if dto.ExpiresAt == nil {
		t.Fatalf("expiry should be stamped")
	}
	if !dto.MonthlyPrice.Equal(price) {
		t.Fatalf("monthly price = %s, want %s", dto.MonthlyPrice, price)
	}
}

func TestServiceActivateIsIdempotent(t *testing.T) {
	storeID := uuid.New()
	repo := &stubSubscriptionRepo{}
	svc := buildSubscriptionService(t, repo)

	price := decimal.NewFromInt(500)
	if _, err := svc.Activate(context.Background(), storeID, enums.AddonFeatureMpesaSTK, price); err != nil {
		t.Fatalf("first activate: %v", err)
	}
	dto, err := svc.Activate(context.Background(), storeID, enums.AddonFeatureMpesaSTK, price)
	if err != nil {
		t.Fatalf("second activate: %v", err)
	}
	if dto.State != enums.SubscriptionStateActive {
		t.Fatalf("state = %s, want active", dto.State)
	}
}

func TestServiceFeatureUsable(t *testing.T) {
	storeID := uuid.New()
	feature := enums.AddonFeatureMpesaSTK

	t.Run("no addon row", func(t *testing.T) {
		svc := buildSubscriptionService(t, &stubSubscriptionRepo{})
		usable, err := svc.FeatureUsable(context.Background(), storeID, feature)
		if err != nil {
			t.Fatalf("feature usable: %v", err)
		}
		if usable {
			t.Fatalf("feature without an addon must be locked")
		}
	})

	t.Run("addon disabled", func(t *testing.T) {
		repo := &stubSubscriptionRepo{addon: &models.StoreAddon{StoreID: storeID, Feature: feature, Enabled: false}}
		svc := buildSubscriptionService(t, repo)
		usable, err := svc.FeatureUsable(context.Background(), storeID, feature)
		if err != nil {
			t.Fatalf("feature usable: %v", err)
		}
		if usable {
			t.Fatalf("disabled addon must lock the feature")
		}
	})

	t.Run("addon without subscription", func(t *testing.T) {
		repo := &stubSubscriptionRepo{addon: &models.StoreAddon{StoreID: storeID, Feature: feature, Enabled: true}}
		svc := buildSubscriptionService(t, repo)
		usable, err := svc.FeatureUsable(context.Background(), storeID, feature)
		if err != nil {
			t.Fatalf("feature usable: %v", err)
		}
		if !usable {
			t.Fatalf("KYC-granted addon without a subscription row should be usable")
		}
	})

	t.Run("expired subscription", func(t *testing.T) {
		repo := &stubSubscriptionRepo{
			addon: &models.StoreAddon{StoreID: storeID, Feature: feature, Enabled: true},
			sub: &models.StoreSubscription{
				StoreID: storeID,
				Feature: feature,
				State:   enums.SubscriptionStateExpired,
			},
		}
		svc := buildSubscriptionService(t, repo)
		usable, err := svc.FeatureUsable(context.Background(), storeID, feature)
		if err != nil {
			t.Fatalf("feature usable: %v", err)
		}
		if usable {
			t.Fatalf("expired subscription must lock the feature")
		}
	})
}

func TestServiceExpireLapsed(t *testing.T) {
	repo := &stubSubscriptionRepo{expired: 7}
	svc := buildSubscriptionService(t, repo)

	count, err := svc.ExpireLapsed(context.Background())
	if err != nil {
		t.Fatalf("expire lapsed: %v", err)
	}
	if count != 7 {
		t.Fatalf("count = %d, want 7", count)
	}
}
