package enums

import "fmt"

// CheckoutMode names a storefront checkout flow variant a merchant can
// unlock. Every store starts with standard unlocked.
type CheckoutMode string

const (
	CheckoutModeStandard CheckoutMode = "standard"
	CheckoutModePremium  CheckoutMode = "premium"
	CheckoutModeExpress  CheckoutMode = "express"
)

var validCheckoutModes = []CheckoutMode{
	CheckoutModeStandard,
	CheckoutModePremium,
	CheckoutModeExpress,
}

// String implements fmt.Stringer.
func (m CheckoutMode) String() string {
	return string(m)
}

// IsValid reports whether the value is a known CheckoutMode.
func (m CheckoutMode) IsValid() bool {
	for _, candidate := range validCheckoutModes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseCheckoutMode converts raw input into a CheckoutMode.
func ParseCheckoutMode(value string) (CheckoutMode, error) {
	for _, candidate := range validCheckoutModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout mode %q", value)
}
