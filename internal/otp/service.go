package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/jarilabs/jariecom-backend/pkg/config"
	pkgerrors "github.com/jarilabs/jariecom-backend/pkg/errors"
	"github.com/jarilabs/jariecom-backend/pkg/logger"
	"github.com/jarilabs/jariecom-backend/pkg/phone"
	"github.com/jarilabs/jariecom-backend/pkg/redis"
	"github.com/jarilabs/jariecom-backend/pkg/sms"
)

type codeStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	OTPKey(phone string) string
}

// Service issues and verifies one-time codes. Codes live in Redis so
// verification works across instances; sends are rate limited per
// phone with a fixed window.
type Service interface {
	Send(ctx context.Context, rawPhone string) error
	Verify(ctx context.Context, rawPhone, code string) error
}

type service struct {
	store  codeStore
	sender sms.Sender
	cfg    config.OTPConfig
	logg   *logger.Logger
}

// NewService builds an OTP service with the provided dependencies.
func NewService(store codeStore, sender sms.Sender, cfg config.OTPConfig, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("code store required")
	}
	if sender == nil {
		return nil, fmt.Errorf("sms sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{store: store, sender: sender, cfg: cfg, logg: logg}, nil
}

func (s *service) Send(ctx context.Context, rawPhone string) error {
	msisdn, err := phone.Normalize(rawPhone)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid phone number")
	}

	allowed, _, err := s.store.FixedWindowAllow(ctx, "otp:"+msisdn, int64(s.cfg.SendLimit), s.cfg.SendWindow)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rate limit check")
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many codes requested, try again later")
	}

	code, err := generateCode(s.cfg.CodeLength)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}
	if err := s.store.Set(ctx, s.store.OTPKey(msisdn), code, s.cfg.TTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store code")
	}

	message := fmt.Sprintf("Your Jari verification code is %s. It expires in %d minutes.", code, int(s.cfg.TTL.Minutes()))
	if err := s.sender.Send(ctx, msisdn, message); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send sms")
	}

	s.logg.Info(s.logg.WithField(ctx, "phone", msisdn), "otp sent")
	return nil
}

// Verify compares and consumes the stored code. The code is deleted on
// success so it cannot be replayed.
func (s *service) Verify(ctx context.Context, rawPhone, code string) error {
	msisdn, err := phone.Normalize(rawPhone)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid phone number")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}

	key := s.store.OTPKey(msisdn)
	stored, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return pkgerrors.New(pkgerrors.CodeValidation, "code expired or not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load code")
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "incorrect code")
	}

	if err := s.store.Del(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consume code")
	}
	return nil
}

func generateCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	var b strings.Builder
	max := big.NewInt(10)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%d", n.Int64())
	}
	return b.String(), nil
}
