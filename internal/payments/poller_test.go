package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jarilabs/jariecom-backend/pkg/config"
	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	"github.com/jarilabs/jariecom-backend/pkg/intasend"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
	"github.com/jarilabs/jariecom-backend/pkg/mpesa"
)

type stubPollableRepo struct {
	intents []models.PaymentIntent
	polled  []uuid.UUID
}

func (s *stubPollableRepo) ListPollable(_ context.Context, _ time.Time, _ int) ([]models.PaymentIntent, error) {
	return s.intents, nil
}

func (s *stubPollableRepo) MarkPolled(_ context.Context, id uuid.UUID, _ time.Time) error {
	s.polled = append(s.polled, id)
	return nil
}

type resolveCall struct {
	ref    string
	status enums.PaymentStatus
	reason string
}

type stubResolveService struct {
	calls []resolveCall
}

func (s *stubResolveService) Initiate(context.Context, uuid.UUID, InitiateRequest) (*IntentDTO, error) {
	panic("not used")
}

func (s *stubResolveService) Get(context.Context, uuid.UUID, uuid.UUID) (*IntentDTO, error) {
	panic("not used")
}

func (s *stubResolveService) Resolve(_ context.Context, ref string, status enums.PaymentStatus, reason string) (*IntentDTO, error) {
	s.calls = append(s.calls, resolveCall{ref: ref, status: status, reason: reason})
	return &IntentDTO{ProviderRef: ref, Status: status}, nil
}

type stubDarajaStatus struct {
	result mpesa.StatusResult
}

func (s *stubDarajaStatus) QueryStatus(context.Context, string) (*mpesa.StatusResult, error) {
	out := s.result
	return &out, nil
}

type stubIntaSendStatus struct {
	result intasend.StatusResult
}

func (s *stubIntaSendStatus) PaymentStatus(context.Context, string) (*intasend.StatusResult, error) {
	out := s.result
	return &out, nil
}

type pollerFixture struct {
	repo     *stubPollableRepo
	service  *stubResolveService
	daraja   *stubDarajaStatus
	intasend *stubIntaSendStatus
	poller   *Poller
}

func buildPoller(t *testing.T) *pollerFixture {
	t.Helper()
	f := &pollerFixture{
		repo:     &stubPollableRepo{},
		service:  &stubResolveService{},
		daraja:   &stubDarajaStatus{},
		intasend: &stubIntaSendStatus{},
	}
	poller, err := NewPoller(PollerParams{
		Repo:     f.repo,
		Service:  f.service,
		Daraja:   f.daraja,
		IntaSend: f.intasend,
		Config: config.PaymentsConfig{
			PollInterval: 5 * time.Second,
			PollTimeout:  2 * time.Minute,
		},
		Logger: logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("new poller: %v", err)
	}
	f.poller = poller
	return f
}

func pollableIntent(provider enums.PaymentProvider, age time.Duration) models.PaymentIntent {
	return models.PaymentIntent{
		ID:          uuid.New(),
		StoreID:     uuid.New(),
		Provider:    provider,
		ProviderRef: "ref-" + uuid.NewString()[:8],
		Purpose:     PurposeOrder,
		Status:      enums.PaymentStatusPending,
		CreatedAt:   time.Now().UTC().Add(-age),
	}
}

func TestPollerResolvesTerminalStatus(t *testing.T) {
	f := buildPoller(t)
	intent := pollableIntent(enums.PaymentProviderDaraja, 30*time.Second)
	f.repo.intents = []models.PaymentIntent{intent}
	f.daraja.result = mpesa.StatusResult{
		Status:     enums.PaymentStatusComplete,
		ResultDesc: "The service request is processed successfully.",
	}

	resolved, err := f.poller.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if resolved != 1 {
		t.Fatalf("resolved = %d, want 1", resolved)
	}
	if len(f.service.calls) != 1 {
		t.Fatalf("resolve calls = %d, want 1", len(f.service.calls))
	}
	call := f.service.calls[0]
	if call.ref != intent.ProviderRef || call.status != enums.PaymentStatusComplete {
		t.Fatalf("unexpected resolve call %+v", call)
	}
	if len(f.repo.polled) != 1 || f.repo.polled[0] != intent.ID {
		t.Fatalf("intent should be marked polled")
	}
}

func TestPollerSkipsNonTerminalStatus(t *testing.T) {
	f := buildPoller(t)
	intent := pollableIntent(enums.PaymentProviderIntaSend, 30*time.Second)
	f.repo.intents = []models.PaymentIntent{intent}
	f.intasend.result = intasend.StatusResult{Status: enums.PaymentStatusProcessing}

	resolved, err := f.poller.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if resolved != 0 {
		t.Fatalf("resolved = %d, want 0", resolved)
	}
	if len(f.service.calls) != 0 {
		t.Fatalf("no resolve call expected for processing status")
	}
	if len(f.repo.polled) != 1 {
		t.Fatalf("intent should still be marked polled")
	}
}

func TestPollerFailsTimedOutIntents(t *testing.T) {
	f := buildPoller(t)
	intent := pollableIntent(enums.PaymentProviderDaraja, 3*time.Minute)
	f.repo.intents = []models.PaymentIntent{intent}

	resolved, err := f.poller.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if resolved != 1 {
		t.Fatalf("resolved = %d, want 1", resolved)
	}
	call := f.service.calls[0]
	if call.status != enums.PaymentStatusFailed {
		t.Fatalf("timed-out intent should fail, got %s", call.status)
	}
	if call.reason != "status poll timed out" {
		t.Fatalf("reason = %q", call.reason)
	}
	if len(f.repo.polled) != 0 {
		t.Fatalf("timed-out intent should not hit the provider")
	}
}

func TestPollerRecordsFailureReason(t *testing.T) {
	f := buildPoller(t)
	intent := pollableIntent(enums.PaymentProviderIntaSend, time.Minute)
	f.repo.intents = []models.PaymentIntent{intent}
	f.intasend.result = intasend.StatusResult{
		Status:       enums.PaymentStatusFailed,
		FailedReason: "Insufficient balance",
	}

	if _, err := f.poller.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if len(f.service.calls) != 1 || f.service.calls[0].reason != "Insufficient balance" {
		t.Fatalf("expected provider failure reason to flow through, got %+v", f.service.calls)
	}
}
