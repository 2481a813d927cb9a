package intasend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jarilabs/jariecom-backend/pkg/config"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
)

const (
	sandboxEnv = "sandbox"
	liveEnv    = "live"
)

var (
	errSecretKeyRequired      = errors.New("intasend secret key is required")
	errPublishableKeyRequired = errors.New("intasend publishable key is required")
	errInvalidEnv             = fmt.Errorf("intasend environment must be %q or %q", sandboxEnv, liveEnv)
	errLoggerRequired         = errors.New("intasend logger is required")
)

var baseURLs = map[string]string{
	sandboxEnv: "https://sandbox.intasend.com",
	liveEnv:    "https://payment.intasend.com",
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the IntaSend REST API. Wallet endpoints authenticate
// with the secret key as a bearer token; collection endpoints use the
// publishable key header.
type Client struct {
	httpClient  httpDoer
	baseURL     string
	environment string
	cfg         config.IntaSendConfig
	logger      *logger.Logger
}

// NewClient initializes the IntaSend wrapper and validates credentials.
func NewClient(ctx context.Context, cfg config.IntaSendConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errSecretKeyRequired
	}
	if strings.TrimSpace(cfg.PublishableKey) == "" {
		return nil, errPublishableKeyRequired
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     baseURLs[env],
		environment: env,
		cfg:         cfg,
		logger:      logg,
	}

	logg.Info(ctx, "intasend client initialized")
	return c, nil
}

// Environment reports the normalized IntaSend environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// Wallet is an IntaSend merchant wallet.
type Wallet struct {
	WalletID       string `json:"wallet_id"`
	Label          string `json:"label"`
	Currency       string `json:"currency"`
	WalletType     string `json:"wallet_type"`
	CanDisburse    bool   `json:"can_disburse"`
	AvailableFunds string `json:"available_balance"`
}

// CollectParams carries the fields for an M-Pesa collection charge.
type CollectParams struct {
	Phone     string
	Amount    int64
	Reference string
	Narrative string
	WalletID  string
}

// CollectResult carries the invoice created for a collection charge.
type CollectResult struct {
	InvoiceID string
	State     enums.PaymentStatus
}

// StatusResult captures the outcome of a payment-status lookup.
type StatusResult struct {
	Status       enums.PaymentStatus
	State        string
	FailedReason string
}

// CreateWallet provisions a working wallet for a merchant. The label
// must be unique per IntaSend account.
func (c *Client) CreateWallet(ctx context.Context, label, currency string) (*Wallet, error) {
	if strings.TrimSpace(label) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet label is required")
	}
	if currency == "" {
		currency = "KES"
	}

	payload := map[string]any{
		"label":        label,
		"currency":     currency,
		"wallet_type":  "WORKING",
		"can_disburse": true,
	}

	c.log(ctx, "request", "create_wallet", map[string]any{"label": label})

	var wallet Wallet
	if err := c.do(ctx, http.MethodPost, "/api/v1/wallets/", secretAuth, payload, &wallet); err != nil {
		c.log(ctx, "error", "create_wallet", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_wallet", map[string]any{"wallet_id": wallet.WalletID})
	return &wallet, nil
}

// ListWallets returns the wallets on the configured account.
func (c *Client) ListWallets(ctx context.Context) ([]Wallet, error) {
	var result struct {
		Results []Wallet `json:"results"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/wallets/", secretAuth, nil, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// Collect initiates an M-Pesa STK collection charge and returns the
// provider invoice id.
func (c *Client) Collect(ctx context.Context, params CollectParams) (*CollectResult, error) {
	payload := map[string]any{
		"phone_number": params.Phone,
		"amount":       params.Amount,
		"api_ref":      params.Reference,
		"narrative":    params.Narrative,
		"currency":     "KES",
	}
	if params.WalletID != "" {
		payload["wallet_id"] = params.WalletID
	}

	c.log(ctx, "request", "collect", map[string]any{
		"phone":  params.Phone,
		"amount": params.Amount,
	})

	var result struct {
		Invoice struct {
			InvoiceID string `json:"invoice_id"`
			State     string `json:"state"`
		} `json:"invoice"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/payment/mpesa-stk-push/", publishableAuth, payload, &result); err != nil {
		c.log(ctx, "error", "collect", map[string]any{"error": err.Error()})
		return nil, err
	}
	if result.Invoice.InvoiceID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "intasend returned no invoice id")
	}

	c.log(ctx, "response", "collect", map[string]any{"invoice_id": result.Invoice.InvoiceID})
	return &CollectResult{
		InvoiceID: result.Invoice.InvoiceID,
		State:     MapState(result.Invoice.State),
	}, nil
}

// PaymentStatus looks up a collection invoice by id.
func (c *Client) PaymentStatus(ctx context.Context, invoiceID string) (*StatusResult, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id is required")
	}

	payload := map[string]any{"invoice_id": invoiceID}
	var result struct {
		Invoice struct {
			State        string `json:"state"`
			FailedReason string `json:"failed_reason"`
		} `json:"invoice"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/payment/status/", publishableAuth, payload, &result); err != nil {
		return nil, err
	}

	return &StatusResult{
		Status:       MapState(result.Invoice.State),
		State:        result.Invoice.State,
		FailedReason: result.Invoice.FailedReason,
	}, nil
}

// MapState translates IntaSend invoice states into payment statuses.
// PENDING and PROCESSING are non-terminal.
func MapState(state string) enums.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(state)) {
	case "COMPLETE":
		return enums.PaymentStatusComplete
	case "FAILED":
		return enums.PaymentStatusFailed
	case "CANCELLED":
		return enums.PaymentStatusCancelled
	case "PROCESSING":
		return enums.PaymentStatusProcessing
	default:
		return enums.PaymentStatusPending
	}
}

type authScheme int

const (
	secretAuth authScheme = iota
	publishableAuth
)

func (c *Client) do(ctx context.Context, method, path string, auth authScheme, payload any, dest any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode intasend request")
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build intasend request")
	}
	req.Header.Set("Content-Type", "application/json")
	switch auth {
	case secretAuth:
		req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	case publishableAuth:
		req.Header.Set("X-IntaSend-Public-API-Key", c.cfg.PublishableKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "intasend request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read intasend response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("intasend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode intasend response")
	}
	return nil
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("intasend %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("intasend %s", phase))
	}
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, liveEnv:
		return env, nil
	default:
		return "", errInvalidEnv
	}
}
