package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"encoding/json"

	"github.com/jarilabs/jariecom-backend/pkg/config"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
)

var baseURLs = map[string]string{
	"sandbox":    "https://api.sandbox.africastalking.com",
	"production": "https://api.africastalking.com",
}

var errLoggerRequired = errors.New("sms logger is required")

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Sender delivers transactional SMS (OTP codes, order notifications).
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// Client talks to the Africa's Talking messaging endpoint. When no
// credentials are configured it degrades to a mock sender that logs
// the message and reports success, so local development never breaks
// on missing SMS credentials.
type Client struct {
	httpClient httpDoer
	baseURL    string
	cfg        config.SMSConfig
	logger     *logger.Logger
	mock       bool
}

// NewClient builds an SMS client, selecting the mock path when the
// Africa's Talking credentials are absent.
func NewClient(ctx context.Context, cfg config.SMSConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	base := baseURLs["production"]
	if strings.EqualFold(cfg.Env, "sandbox") {
		base = baseURLs["sandbox"]
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    base,
		cfg:        cfg,
		logger:     logg,
		mock:       !cfg.Configured(),
	}

	if c.mock {
		logg.Warn(ctx, "sms credentials absent; using mock sender")
	} else {
		logg.Info(ctx, "sms client initialized")
	}
	return c, nil
}

// Mock reports whether the client is running without real credentials.
func (c *Client) Mock() bool {
	return c != nil && c.mock
}

// Send delivers the message to a single recipient.
func (c *Client) Send(ctx context.Context, phone, message string) error {
	if strings.TrimSpace(phone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient phone is required")
	}
	if strings.TrimSpace(message) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}

	if c.mock {
		mctx := c.logger.WithFields(ctx, map[string]any{"phone": phone, "mock": true})
		c.logger.Info(mctx, "sms mock delivery")
		return nil
	}

	form := url.Values{}
	form.Set("username", c.cfg.Username)
	form.Set("to", "+"+strings.TrimPrefix(phone, "+"))
	form.Set("message", message)
	if c.cfg.SenderID != "" {
		form.Set("from", c.cfg.SenderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/version1/messaging", strings.NewReader(form.Encode()))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build sms request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sms request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read sms response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("africastalking returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var result struct {
		SMSMessageData struct {
			Recipients []struct {
				Status     string `json:"status"`
				StatusCode int    `json:"statusCode"`
			} `json:"Recipients"`
		} `json:"SMSMessageData"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode sms response")
	}
	for _, recipient := range result.SMSMessageData.Recipients {
		if recipient.StatusCode >= 400 {
			return pkgerrors.New(pkgerrors.CodeDependency,
				fmt.Sprintf("sms delivery failed: %s", recipient.Status))
		}
	}
	return nil
}
