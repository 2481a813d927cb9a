package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jarilabs/jariecom-backend/pkg/config"
	"github.com/jarilabs/jariecom-backend/pkg/enums"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"

	// Daraja field limits for STK push requests.
	maxAccountReferenceLen = 12
	maxDescriptionLen      = 13

	timestampLayout = "20060102150405"

	// Tokens are refreshed when absent or within this window of expiry.
	tokenExpirySlack = 60 * time.Second

	// Daraja reports an in-flight STK query with this error code; it is
	// non-terminal and must be polled again.
	stillProcessingCode = "500.001.1001"
)

var (
	errCredentialsRequired = errors.New("daraja consumer key and secret are required")
	errShortcodeRequired   = errors.New("daraja shortcode and passkey are required")
	errInvalidEnv          = fmt.Errorf("daraja environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired      = errors.New("daraja logger is required")
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://sandbox.safaricom.co.ke",
	productionEnv: "https://api.safaricom.co.ke",
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client wraps the Daraja REST API with centralized auth, token
// caching, logging, and error mapping.
type Client struct {
	httpClient  httpDoer
	baseURL     string
	environment string
	cfg         config.MpesaConfig
	logger      *logger.Logger
	now         func() time.Time

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient initializes the Daraja wrapper and validates credentials.
func NewClient(ctx context.Context, cfg config.MpesaConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.ConsumerKey) == "" || strings.TrimSpace(cfg.ConsumerSecret) == "" {
		return nil, errCredentialsRequired
	}
	if strings.TrimSpace(cfg.Shortcode) == "" || strings.TrimSpace(cfg.Passkey) == "" {
		return nil, errShortcodeRequired
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     baseURLs[env],
		environment: env,
		cfg:         cfg,
		logger:      logg,
		now:         time.Now,
	}

	logg.Info(ctx, "daraja client initialized")
	return c, nil
}

// Environment reports the normalized Daraja environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// STKPushParams carries the fields for a payment prompt.
type STKPushParams struct {
	Phone            string
	Amount           int64
	AccountReference string
	Description      string
}

// STKPushResult carries the provider-assigned ids for a push.
type STKPushResult struct {
	MerchantRequestID string
	CheckoutRequestID string
}

// StatusResult captures the outcome of an STK status query.
type StatusResult struct {
	Status     enums.PaymentStatus
	ResultCode string
	ResultDesc string
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// bearerToken returns a cached OAuth bearer token, requesting a
// fresh one when absent or within 60 seconds of expiry.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.tokenExpiry.Add(-tokenExpirySlack)) {
		return c.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build token request")
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "daraja token request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("daraja token request failed: %s", strings.TrimSpace(string(body))))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode token response")
	}
	if token.AccessToken == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "daraja returned an empty access token")
	}

	ttl := 3600 * time.Second
	if secs, parseErr := time.ParseDuration(token.ExpiresIn + "s"); parseErr == nil && secs > 0 {
		ttl = secs
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = c.now().Add(ttl)
	return c.accessToken, nil
}

// Password derives the Daraja STK password for the given timestamp:
// base64(shortcode + passkey + timestamp).
func Password(shortcode, passkey string, ts time.Time) (string, string) {
	timestamp := ts.Format(timestampLayout)
	raw := shortcode + passkey + timestamp
	return base64.StdEncoding.EncodeToString([]byte(raw)), timestamp
}

// STKPush submits a payment prompt to the customer's phone and returns
// the provider-assigned checkout request id.
func (c *Client) STKPush(ctx context.Context, params STKPushParams) (*STKPushResult, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := Password(c.cfg.Shortcode, c.cfg.Passkey, c.now())

	payload := map[string]any{
		"BusinessShortCode": c.cfg.Shortcode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            params.Amount,
		"PartyA":            params.Phone,
		"PartyB":            c.cfg.Shortcode,
		"PhoneNumber":       params.Phone,
		"CallBackURL":       c.cfg.CallbackURL,
		"AccountReference":  truncate(params.AccountReference, maxAccountReferenceLen),
		"TransactionDesc":   truncate(params.Description, maxDescriptionLen),
	}

	c.log(ctx, "request", "stk_push", map[string]any{
		"phone":  params.Phone,
		"amount": params.Amount,
	})

	var result struct {
		MerchantRequestID   string `json:"MerchantRequestID"`
		CheckoutRequestID   string `json:"CheckoutRequestID"`
		ResponseCode        string `json:"ResponseCode"`
		ResponseDescription string `json:"ResponseDescription"`
		ErrorMessage        string `json:"errorMessage"`
	}
	if err := c.postJSON(ctx, token, "/mpesa/stkpush/v1/processrequest", payload, &result); err != nil {
		c.log(ctx, "error", "stk_push", map[string]any{"error": err.Error()})
		return nil, err
	}

	if result.ResponseCode != "0" {
		msg := result.ResponseDescription
		if msg == "" {
			msg = result.ErrorMessage
		}
		c.log(ctx, "error", "stk_push", map[string]any{"error": msg})
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("stk push rejected: %s", msg))
	}

	c.log(ctx, "response", "stk_push", map[string]any{
		"checkout_request_id": result.CheckoutRequestID,
	})
	return &STKPushResult{
		MerchantRequestID: result.MerchantRequestID,
		CheckoutRequestID: result.CheckoutRequestID,
	}, nil
}

// QueryStatus asks Daraja for the state of a previously pushed payment.
func (c *Client) QueryStatus(ctx context.Context, checkoutRequestID string) (*StatusResult, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := Password(c.cfg.Shortcode, c.cfg.Passkey, c.now())
	payload := map[string]any{
		"BusinessShortCode": c.cfg.Shortcode,
		"Password":          password,
		"Timestamp":         timestamp,
		"CheckoutRequestID": checkoutRequestID,
	}

	var result struct {
		ResultCode   string `json:"ResultCode"`
		ResultDesc   string `json:"ResultDesc"`
		ErrorCode    string `json:"errorCode"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := c.postJSON(ctx, token, "/mpesa/stkpushquery/v1/query", payload, &result); err != nil {
		// An in-flight transaction surfaces as an HTTP error body with a
		// dedicated code; treat it as still processing.
		var typed *pkgerrors.Error
		if errors.As(err, &typed) && strings.Contains(typed.Message(), stillProcessingCode) {
			return &StatusResult{Status: enums.PaymentStatusProcessing}, nil
		}
		return nil, err
	}

	if result.ErrorCode == stillProcessingCode {
		return &StatusResult{Status: enums.PaymentStatusProcessing, ResultDesc: result.ErrorMessage}, nil
	}

	return &StatusResult{
		Status:     MapResultCode(result.ResultCode),
		ResultCode: result.ResultCode,
		ResultDesc: result.ResultDesc,
	}, nil
}

// MapResultCode translates a Daraja result code into a payment status.
// 0 is success, 1032 is a customer cancel, anything else is a failure.
func MapResultCode(code string) enums.PaymentStatus {
	switch strings.TrimSpace(code) {
	case "0":
		return enums.PaymentStatusComplete
	case "1032":
		return enums.PaymentStatusCancelled
	case "":
		return enums.PaymentStatusProcessing
	default:
		return enums.PaymentStatusFailed
	}
}

func (c *Client) postJSON(ctx context.Context, token, path string, payload any, dest any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode daraja request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build daraja request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "daraja request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read daraja response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("daraja returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode daraja response")
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
		c.logger.Error(ctx, fmt.Sprintf("daraja %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("daraja %s", phase))
	}
}

func truncate(value string, max int) string {
	value = strings.TrimSpace(value)
	if value == "" {
		value = "Jari.Ecom"
	}
	if len(value) <= max {
		return value
	}
	return value[:max]
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidEnv
	}
}
