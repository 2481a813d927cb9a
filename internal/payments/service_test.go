package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jarilabs/jariecom-backend/internal/subscriptions"
	"github.com/jarilabs/jariecom-backend/pkg/db/models"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/intasend"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
	"github.com/jarilabs/jariecom-backend/pkg/mpesa"
)

type stubIntentRepo struct {
	byRef   map[string]*models.PaymentIntent
	created []*models.PaymentIntent
	updates int
}

func newStubIntentRepo() *stubIntentRepo {
	return &stubIntentRepo{byRef: map[string]*models.PaymentIntent{}}
}

func (s *stubIntentRepo) Create(_ context.Context, intent *models.PaymentIntent) error {
	if intent.ID == uuid.Nil {
		intent.ID = uuid.New()
	}
	s.created = append(s.created, intent)
	s.byRef[intent.ProviderRef] = intent
	return nil
}

func (s *stubIntentRepo) FindByID(_ context.Context, id uuid.UUID) (*models.PaymentIntent, error) {
	for _, intent := range s.byRef {
		if intent.ID == id {
			return intent, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubIntentRepo) FindByProviderRef(_ context.Context, ref string) (*models.PaymentIntent, error) {
	intent, ok := s.byRef[ref]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return intent, nil
}

func (s *stubIntentRepo) Update(_ context.Context, intent *models.PaymentIntent) error {
	s.updates++
	s.byRef[intent.ProviderRef] = intent
	return nil
}

type stubDaraja struct {
	pushes int
	err    error
}

func (s *stubDaraja) STKPush(context.Context, mpesa.STKPushParams) (*mpesa.STKPushResult, error) {
	s.pushes++
	if s.err != nil {
		return nil, s.err
	}
	return &mpesa.STKPushResult{
		MerchantRequestID: "MR-1",
		CheckoutRequestID: "ws_CO_TEST",
	}, nil
}

type stubIntaSend struct {
	collects int
	state    enums.PaymentStatus
}

func (s *stubIntaSend) Collect(context.Context, intasend.CollectParams) (*intasend.CollectResult, error) {
	s.collects++
	state := s.state
	if state == "" {
		state = enums.PaymentStatusPending
	}
	return &intasend.CollectResult{InvoiceID: "INV-1", State: state}, nil
}

type stubOrderResolver struct {
	order   *models.Order
	updated *models.Order
}

func (s *stubOrderResolver) FindByID(_ context.Context, storeID, orderID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.StoreID != storeID || s.order.ID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrderResolver) Update(_ context.Context, order *models.Order) error {
	s.updated = order
	return nil
}

type stubActivator struct {
	usable      bool
	activations int
}

func (s *stubActivator) Activate(context.Context, uuid.UUID, enums.AddonFeature, decimal.Decimal) (*subscriptions.SubscriptionDTO, error) {
	s.activations++
	return &subscriptions.SubscriptionDTO{State: enums.SubscriptionStateActive}, nil
}

func (s *stubActivator) FeatureUsable(context.Context, uuid.UUID, enums.AddonFeature) (bool, error) {
	return s.usable, nil
}

type paymentFixture struct {
	intents  *stubIntentRepo
	daraja   *stubDaraja
	intasend *stubIntaSend
	orders   *stubOrderResolver
	subs     *stubActivator
	svc      Service
}

func buildPaymentService(t *testing.T) *paymentFixture {
	t.Helper()
	f := &paymentFixture{
		intents:  newStubIntentRepo(),
		daraja:   &stubDaraja{},
		intasend: &stubIntaSend{},
		orders:   &stubOrderResolver{},
		subs:     &stubActivator{usable: true},
	}
	svc, err := NewService(ServiceParams{
		Intents:       f.intents,
		Daraja:        f.daraja,
		IntaSend:      f.intasend,
		Orders:        f.orders,
		Subscriptions: f.subs,
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func pendingOrder(storeID uuid.UUID) *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		StoreID:     storeID,
		OrderNumber: "JE-TEST-0001",
		Status:      enums.OrderStatusPending,
		Amount:      decimal.NewFromInt(1500),
	}
}

func TestInitiateRejectsInvalidProvider(t *testing.T) {
	f := buildPaymentService(t)
	_, err := f.svc.Initiate(context.Background(), uuid.New(), InitiateRequest{
		Provider: "paypal",
		Purpose:  PurposeOrder,
		Phone:    "0712345678",
		Amount:   decimal.NewFromInt(100),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestInitiateRejectsNonPositiveAmount(t *testing.T) {
	f := buildPaymentService(t)
	_, err := f.svc.Initiate(context.Background(), uuid.New(), InitiateRequest{
		Provider: enums.PaymentProviderDaraja,
		Purpose:  PurposeOrder,
		Phone:    "0712345678",
		Amount:   decimal.Zero,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestInitiateOrderPayment(t *testing.T) {
	f := buildPaymentService(t)
	storeID := uuid.New()
	order := pendingOrder(storeID)
	f.orders.order = order

	dto, err := f.svc.Initiate(context.Background(), storeID, InitiateRequest{
		Provider: enums.PaymentProviderDaraja,
		Purpose:  PurposeOrder,
		Phone:    "0712 345 678",
		Amount:   decimal.NewFromInt(1500),
		OrderID:  &order.ID,
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if dto.ProviderRef != "ws_CO_TEST" {
		t.Fatalf("provider ref = %q", dto.ProviderRef)
	}
	if dto.Status != enums.PaymentStatusPending {
		t.Fatalf("status = %s, want pending", dto.Status)
	}
	if dto.Phone != "254712345678" {
		t.Fatalf("phone = %q, want normalized msisdn", dto.Phone)
	}
	if f.daraja.pushes != 1 {
		t.Fatalf("pushes = %d, want 1", f.daraja.pushes)
	}
	if len(f.intents.created) != 1 {
		t.Fatalf("created = %d, want 1", len(f.intents.created))
	}
}

func TestInitiateOrderRequiresPendingOrder(t *testing.T) {
	f := buildPaymentService(t)
	storeID := uuid.New()
	order := pendingOrder(storeID)
	order.Status = enums.OrderStatusPaid
	f.orders.order = order

	_, err := f.svc.Initiate(context.Background(), storeID, InitiateRequest{
		Provider: enums.PaymentProviderDaraja,
		Purpose:  PurposeOrder,
		Phone:    "0712345678",
		Amount:   decimal.NewFromInt(1500),
		OrderID:  &order.ID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for settled order, got %v", err)
	}
	if f.daraja.pushes != 0 {
		t.Fatalf("no push should fire for a settled order")
	}
}

func TestInitiateSettledAtCollectRunsSideEffect(t *testing.T) {
	f := buildPaymentService(t)
	f.intasend.state = enums.PaymentStatusComplete
	storeID := uuid.New()
	order := pendingOrder(storeID)
	f.orders.order = order

	dto, err := f.svc.Initiate(context.Background(), storeID, InitiateRequest{
		Provider: enums.PaymentProviderIntaSend,
		Purpose:  PurposeOrder,
		Phone:    "0712345678",
		Amount:   decimal.NewFromInt(1500),
		OrderID:  &order.ID,
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if dto.Status != enums.PaymentStatusComplete {
		t.Fatalf("status = %s, want complete", dto.Status)
	}
	if dto.CompletedAt == nil {
		t.Fatalf("completed_at should be stamped when collect settles")
	}
	if f.orders.updated == nil || f.orders.updated.Status != enums.OrderStatusPaid {
		t.Fatalf("order should be marked paid at initiation")
	}

	// A webhook replay for the already-terminal intent must not write.
	f.orders.updated = nil
	if _, err := f.svc.Resolve(context.Background(), "INV-1", enums.PaymentStatusComplete, ""); err != nil {
		t.Fatalf("resolve replay: %v", err)
	}
	if f.orders.updated != nil {
		t.Fatalf("replay must not touch the order again")
	}
	if f.intents.updates != 0 {
		t.Fatalf("replay must not rewrite the intent")
	}
}

func TestInitiateDarajaGatedByAddon(t *testing.T) {
	f := buildPaymentService(t)
	f.subs.usable = false
	storeID := uuid.New()
	order := pendingOrder(storeID)
	f.orders.order = order

	_, err := f.svc.Initiate(context.Background(), storeID, InitiateRequest{
		Provider: enums.PaymentProviderDaraja,
		Purpose:  PurposeOrder,
		Phone:    "0712345678",
		Amount:   decimal.NewFromInt(1500),
		OrderID:  &order.ID,
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden when mpesa_stk is locked, got %v", err)
	}
}

func TestInitiateSubscriptionPayment(t *testing.T) {
	f := buildPaymentService(t)
	feature := enums.AddonFeatureMpesaSTK

	dto, err := f.svc.Initiate(context.Background(), uuid.New(), InitiateRequest{
		Provider: enums.PaymentProviderIntaSend,
		Purpose:  PurposeSubscription,
		Phone:    "+254712345678",
		Amount:   decimal.NewFromInt(500),
		Feature:  &feature,
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if dto.ProviderRef != "INV-1" {
		t.Fatalf("provider ref = %q", dto.ProviderRef)
	}
	if f.intasend.collects != 1 {
		t.Fatalf("collects = %d, want 1", f.intasend.collects)
	}
}

func TestInitiateSubscriptionRequiresFeature(t *testing.T) {
	f := buildPaymentService(t)
	_, err := f.svc.Initiate(context.Background(), uuid.New(), InitiateRequest{
		Provider: enums.PaymentProviderIntaSend,
		Purpose:  PurposeSubscription,
		Phone:    "0712345678",
		Amount:   decimal.NewFromInt(500),
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetScopedToStore(t *testing.T) {
	f := buildPaymentService(t)
	intent := &models.PaymentIntent{
		ID:          uuid.New(),
		StoreID:     uuid.New(),
		ProviderRef: "INV-9",
		Status:      enums.PaymentStatusPending,
	}
	f.intents.byRef[intent.ProviderRef] = intent

	if _, err := f.svc.Get(context.Background(), intent.StoreID, intent.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	_, err := f.svc.Get(context.Background(), uuid.New(), intent.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("foreign store must see not found, got %v", err)
	}
}

func TestResolveCompletesOrderPayment(t *testing.T) {
	f := buildPaymentService(t)
	storeID := uuid.New()
	order := pendingOrder(storeID)
	f.orders.order = order

	intent := &models.PaymentIntent{
		ID:          uuid.New(),
		StoreID:     storeID,
		Provider:    enums.PaymentProviderDaraja,
		ProviderRef: "ws_CO_TEST",
		Purpose:     PurposeOrder,
		OrderID:     &order.ID,
		Phone:       "254712345678",
		Status:      enums.PaymentStatusPending,
	}
	f.intents.byRef[intent.ProviderRef] = intent

	dto, err := f.svc.Resolve(context.Background(), "ws_CO_TEST", enums.PaymentStatusComplete, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if dto.Status != enums.PaymentStatusComplete {
		t.Fatalf("status = %s, want complete", dto.Status)
	}
	if dto.CompletedAt == nil {
		t.Fatalf("completed_at should be stamped")
	}
	if f.orders.updated == nil || f.orders.updated.Status != enums.OrderStatusPaid {
		t.Fatalf("order should move to paid")
	}
	if got := f.orders.updated.Payment["provider_ref"]; got != "ws_CO_TEST" {
		t.Fatalf("payment provider_ref = %v", got)
	}
}

func TestResolveActivatesSubscription(t *testing.T) {
	f := buildPaymentService(t)
	feature := enums.AddonFeatureMpesaSTK
	intent := &models.PaymentIntent{
		ID:          uuid.New(),
		StoreID:     uuid.New(),
		Provider:    enums.PaymentProviderIntaSend,
		ProviderRef: "INV-1",
		Purpose:     PurposeSubscription,
		Feature:     &feature,
		Phone:       "254712345678",
		Amount:      decimal.NewFromInt(500),
		Status:      enums.PaymentStatusProcessing,
	}
	f.intents.byRef[intent.ProviderRef] = intent

	if _, err := f.svc.Resolve(context.Background(), "INV-1", enums.PaymentStatusComplete, ""); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if f.subs.activations != 1 {
		t.Fatalf("activations = %d, want 1", f.subs.activations)
	}
}

func TestResolveIsIdempotentOnTerminalIntents(t *testing.T) {
	f := buildPaymentService(t)
	storeID := uuid.New()
	order := pendingOrder(storeID)
	f.orders.order = order

	intent := &models.PaymentIntent{
		ID:          uuid.New(),
		StoreID:     storeID,
		Provider:    enums.PaymentProviderDaraja,
		ProviderRef: "ws_CO_TEST",
		Purpose:     PurposeOrder,
		OrderID:     &order.ID,
		Status:      enums.PaymentStatusPending,
	}
	f.intents.byRef[intent.ProviderRef] = intent

	if _, err := f.svc.Resolve(context.Background(), "ws_CO_TEST", enums.PaymentStatusComplete, ""); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	updatesAfterFirst := f.intents.updates

	// Replayed webhook: intent is terminal, nothing may change.
	dto, err := f.svc.Resolve(context.Background(), "ws_CO_TEST", enums.PaymentStatusFailed, "late duplicate")
	if err != nil {
		t.Fatalf("replayed resolve: %v", err)
	}
	if dto.Status != enums.PaymentStatusComplete {
		t.Fatalf("replay must not overwrite terminal status, got %s", dto.Status)
	}
	if f.intents.updates != updatesAfterFirst {
		t.Fatalf("replay must not write")
	}
}

func TestResolveRecordsFailureReason(t *testing.T) {
	f := buildPaymentService(t)
	intent := &models.PaymentIntent{
		ID:          uuid.New(),
		StoreID:     uuid.New(),
		Provider:    enums.PaymentProviderDaraja,
		ProviderRef: "ws_CO_FAIL",
		Purpose:     PurposeOrder,
		Status:      enums.PaymentStatusPending,
	}
	f.intents.byRef[intent.ProviderRef] = intent

	dto, err := f.svc.Resolve(context.Background(), "ws_CO_FAIL", enums.PaymentStatusCancelled, "Request cancelled by user")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if dto.FailureReason == nil || *dto.FailureReason != "Request cancelled by user" {
		t.Fatalf("failure reason = %v", dto.FailureReason)
	}
}

func TestResolveUnknownReference(t *testing.T) {
	f := buildPaymentService(t)
	_, err := f.svc.Resolve(context.Background(), "ws_CO_MISSING", enums.PaymentStatusComplete, "")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
