package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jarilabs/jariecom-backend/pkg/config"
	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	"github.com/jarilabs/jariecom-backend/pkg/intasend"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
	"github.com/jarilabs/jariecom-backend/pkg/mpesa"
)

const pollBatchSize = 50

type pollableRepository interface {
	ListPollable(ctx context.Context, olderThan time.Time, limit int) ([]models.PaymentIntent, error)
	MarkPolled(ctx context.Context, id uuid.UUID, at time.Time) error
}

type darajaStatusClient interface {
	QueryStatus(ctx context.Context, checkoutRequestID string) (*mpesa.StatusResult, error)
}

type intasendStatusClient interface {
	PaymentStatus(ctx context.Context, invoiceID string) (*intasend.StatusResult, error)
}

// Poller is the webhook fallback: it sweeps non-terminal intents and
// asks the provider directly. Intents that outlive the overall timeout
// are failed rather than polled forever.
type Poller struct {
	repo     pollableRepository
	service  Service
	daraja   darajaStatusClient
	intasend intasendStatusClient
	cfg      config.PaymentsConfig
	logg     *logger.Logger
	now      func() time.Time
}

// PollerParams bundles the poller dependencies.
type PollerParams struct {
	Repo     pollableRepository
	Service  Service
	Daraja   darajaStatusClient
	IntaSend intasendStatusClient
	Config   config.PaymentsConfig
	Logger   *logger.Logger
}

// NewPoller builds the payment status poller.
func NewPoller(params PollerParams) (*Poller, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("intent repository required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("payment service required")
	}
	if params.Daraja == nil {
		return nil, fmt.Errorf("daraja client required")
	}
	if params.IntaSend == nil {
		return nil, fmt.Errorf("intasend client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Poller{
		repo:     params.Repo,
		service:  params.Service,
		daraja:   params.Daraja,
		intasend: params.IntaSend,
		cfg:      params.Config,
		logg:     params.Logger,
		now:      time.Now,
	}, nil
}

// RunOnce sweeps one batch of pollable intents and returns how many
// reached a terminal state.
func (p *Poller) RunOnce(ctx context.Context) (int, error) {
	now := p.now().UTC()
	// Give the webhook one poll interval to arrive before querying.
	cutoff := now.Add(-p.cfg.PollInterval)

	intents, err := p.repo.ListPollable(ctx, cutoff, pollBatchSize)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for i := range intents {
		intent := &intents[i]
		if err := ctx.Err(); err != nil {
			return resolved, err
		}

		if now.Sub(intent.CreatedAt) > p.cfg.PollTimeout {
			if _, err := p.service.Resolve(ctx, intent.ProviderRef, enums.PaymentStatusFailed, "status poll timed out"); err != nil {
				p.logg.Error(ctx, "fail timed-out payment", err)
				continue
			}
			resolved++
			continue
		}

		status, reason, err := p.queryProvider(ctx, intent)
		if err != nil {
			p.logg.Error(ctx, "poll payment status", err)
			continue
		}
		if err := p.repo.MarkPolled(ctx, intent.ID, now); err != nil {
			p.logg.Error(ctx, "mark payment polled", err)
		}
		if !status.Terminal() {
			continue
		}
		if _, err := p.service.Resolve(ctx, intent.ProviderRef, status, reason); err != nil {
			p.logg.Error(ctx, "resolve polled payment", err)
			continue
		}
		resolved++
	}
	return resolved, nil
}

func (p *Poller) queryProvider(ctx context.Context, intent *models.PaymentIntent) (enums.PaymentStatus, string, error) {
	switch intent.Provider {
	case enums.PaymentProviderDaraja:
		result, err := p.daraja.QueryStatus(ctx, intent.ProviderRef)
		if err != nil {
			return "", "", err
		}
		return result.Status, result.ResultDesc, nil
	case enums.PaymentProviderIntaSend:
		result, err := p.intasend.PaymentStatus(ctx, intent.ProviderRef)
		if err != nil {
			return "", "", err
		}
		return result.Status, result.FailedReason, nil
	default:
		return "", "", fmt.Errorf("unknown provider %q", intent.Provider)
	}
}
