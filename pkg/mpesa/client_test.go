package mpesa

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/jarilabs/jariecom-backend/pkg/enums"
)

func TestPassword(t *testing.T) {
	ts := time.Date(2026, 8, 29, 14, 30, 5, 0, time.UTC)
	password, timestamp := Password("174379", "passkey123", ts)

	if timestamp != "20260829143005" {
		t.Fatalf("timestamp = %q", timestamp)
	}
	decoded, err := base64.StdEncoding.DecodeString(password)
	if err != nil {
		t.Fatalf("password is not base64: %v", err)
	}
	if string(decoded) != "174379passkey12320260829143005" {
		t.Fatalf("decoded password = %q", decoded)
	}
}

func TestMapResultCode(t *testing.T) {
	cases := []struct {
		code string
		want enums.PaymentStatus
	}{
		{"0", enums.PaymentStatusComplete},
		{"1032", enums.PaymentStatusCancelled},
		{"", enums.PaymentStatusProcessing},
		{"  ", enums.PaymentStatusProcessing},
		{"1", enums.PaymentStatusFailed},
		{"1037", enums.PaymentStatusFailed},
		{"2001", enums.PaymentStatusFailed},
	}
	for _, tc := range cases {
		if got := MapResultCode(tc.code); got != tc.want {
			t.Errorf("MapResultCode(%q) = %s, want %s", tc.code, got, tc.want)
		}
	}
}
