package phone

import (
	"fmt"
	"strings"
)

// Kenyan MSISDN prefix expected by both payment providers.
const countryPrefix = "254"

// Normalize converts merchant-entered phone numbers into the
// 254XXXXXXXXX form the providers require. Accepted inputs:
// "+254712345678", "254712345678", "0712345678", "712345678".
func Normalize(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	cleaned = strings.TrimPrefix(cleaned, "+")

	switch {
	case strings.HasPrefix(cleaned, countryPrefix):
		// already normalized
	case strings.HasPrefix(cleaned, "0"):
		cleaned = countryPrefix + cleaned[1:]
	case strings.HasPrefix(cleaned, "7") || strings.HasPrefix(cleaned, "1"):
		cleaned = countryPrefix + cleaned
	default:
		return "", fmt.Errorf("unrecognized phone number %q", raw)
	}

	if len(cleaned) != 12 {
		return "", fmt.Errorf("phone number %q must normalize to 12 digits", raw)
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("phone number %q contains non-digits", raw)
		}
	}
	return cleaned, nil
}
