package orders

import (
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"
)

var orderNumberPattern = regexp.MustCompile(`^JE-[0-9a-z]+-[0-9a-z]{4}$`)

func TestGenerateOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	number, err := GenerateOrderNumber(now)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !orderNumberPattern.MatchString(number) {
		t.Fatalf("order number %q does not match expected format", number)
	}

	parts := strings.Split(number, "-")
	ts, err := strconv.ParseInt(parts[1], 36, 64)
	if err != nil {
		t.Fatalf("parse timestamp component: %v", err)
	}
	if ts != now.UnixMilli() {
		t.Fatalf("timestamp component = %d, want %d", ts, now.UnixMilli())
	}
}

func TestGenerateOrderNumberSameMillisecondDistinct(t *testing.T) {
	now := time.Now()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		number, err := GenerateOrderNumber(now)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if seen[number] {
			t.Fatalf("duplicate order number %q within same millisecond", number)
		}
		seen[number] = true
	}
}
