package cron

import (
	"context"
	"fmt"

	"github.com/jarilabs/jariecom-backend/pkg/logger"
)

type subscriptionExpirer interface {
	ExpireLapsed(ctx context.Context) (int64, error)
}

// SubscriptionExpiryJob flips lapsed trials and paid runs to expired
// so the feature gate starts refusing access.
type SubscriptionExpiryJob struct {
	subscriptions subscriptionExpirer
	logg          *logger.Logger
}

// NewSubscriptionExpiryJob wires subscription expiry into the worker loop.
func NewSubscriptionExpiryJob(subscriptions subscriptionExpirer, logg *logger.Logger) (*SubscriptionExpiryJob, error) {
	if subscriptions == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &SubscriptionExpiryJob{subscriptions: subscriptions, logg: logg}, nil
}

// Name identifies the job in logs and metrics.
func (j *SubscriptionExpiryJob) Name() string {
	return "subscription_expiry"
}

// Run expires every lapsed subscription row.
func (j *SubscriptionExpiryJob) Run(ctx context.Context) error {
	expired, err := j.subscriptions.ExpireLapsed(ctx)
	if err != nil {
		return err
	}
	if expired > 0 {
		j.logg.Info(j.logg.WithField(ctx, "expired", expired), "subscriptions expired")
	}
	return nil
}
