package payments

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/jarilabs/jariecom-backend/pkg/config"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/intasend"
	"github.com/jarilabs/jariecom-backend/pkg/mpesa"
)

// DarajaCallback is the STK result Safaricom posts to our callback URL.
type DarajaCallback struct {
	Body struct {
		STKCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// IntaSendWebhook is the collection event IntaSend posts, authenticated
// by the account's challenge token.
type IntaSendWebhook struct {
	InvoiceID    string `json:"invoice_id"`
	State        string `json:"state"`
	FailedReason string `json:"failed_reason"`
	Challenge    string `json:"challenge"`
}

// WebhookHandler translates provider callbacks into intent resolutions.
type WebhookHandler struct {
	service Service
	cfg     config.IntaSendConfig
}

// NewWebhookHandler builds the webhook translation layer.
func NewWebhookHandler(service Service, cfg config.IntaSendConfig) (*WebhookHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("payment service required")
	}
	return &WebhookHandler{service: service, cfg: cfg}, nil
}

// HandleDaraja resolves the intent named by the callback's checkout
// request id.
func (h *WebhookHandler) HandleDaraja(ctx context.Context, callback DarajaCallback) (*IntentDTO, error) {
	stk := callback.Body.STKCallback
	if strings.TrimSpace(stk.CheckoutRequestID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing checkout request id")
	}

	status := mpesa.MapResultCode(fmt.Sprintf("%d", stk.ResultCode))
	return h.service.Resolve(ctx, stk.CheckoutRequestID, status, stk.ResultDesc)
}

// HandleIntaSend verifies the challenge token and resolves the intent
// named by the invoice id.
func (h *WebhookHandler) HandleIntaSend(ctx context.Context, webhook IntaSendWebhook) (*IntentDTO, error) {
	if h.cfg.WebhookSecret != "" {
		if subtle.ConstantTimeCompare([]byte(webhook.Challenge), []byte(h.cfg.WebhookSecret)) != 1 {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook challenge mismatch")
		}
	}
	if strings.TrimSpace(webhook.InvoiceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing invoice id")
	}

	status := intasend.MapState(webhook.State)
	return h.service.Resolve(ctx, webhook.InvoiceID, status, webhook.FailedReason)
}
