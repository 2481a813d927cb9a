package cron

import (
	"context"
	"fmt"

	"github.com/jarilabs/jariecom-backend/pkg/logger"
)

type statusPoller interface {
	RunOnce(ctx context.Context) (int, error)
}

// PaymentPollJob sweeps pending payment intents whose webhook never
// arrived and reconciles them against the provider.
type PaymentPollJob struct {
	poller statusPoller
	logg   *logger.Logger
}

// NewPaymentPollJob wires the poll fallback into the worker loop.
func NewPaymentPollJob(poller statusPoller, logg *logger.Logger) (*PaymentPollJob, error) {
	if poller == nil {
		return nil, fmt.Errorf("poller required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &PaymentPollJob{poller: poller, logg: logg}, nil
}

// Name identifies the job in logs and metrics.
func (j *PaymentPollJob) Name() string {
	return "payment_poll"
}

// Run executes one reconciliation sweep.
func (j *PaymentPollJob) Run(ctx context.Context) error {
	resolved, err := j.poller.RunOnce(ctx)
	if err != nil {
		return err
	}
	if resolved > 0 {
		j.logg.Info(j.logg.WithField(ctx, "resolved", resolved), "payments reconciled")
	}
	return nil
}
