package enums

import "fmt"

// PaymentProvider identifies which upstream processed a payment.
type PaymentProvider string

const (
	PaymentProviderDaraja   PaymentProvider = "daraja"
	PaymentProviderIntaSend PaymentProvider = "intasend"
)

var validPaymentProviders = []PaymentProvider{
	PaymentProviderDaraja,
	PaymentProviderIntaSend,
}

// String implements fmt.Stringer.
func (p PaymentProvider) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentProvider.
func (p PaymentProvider) IsValid() bool {
	for _, candidate := range validPaymentProviders {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentProvider converts raw input into a PaymentProvider.
func ParsePaymentProvider(value string) (PaymentProvider, error) {
	for _, candidate := range validPaymentProviders {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment provider %q", value)
}

// PaymentStatus tracks a payment intent through the provider lifecycle.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusComplete   PaymentStatus = "complete"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusProcessing,
	PaymentStatusComplete,
	PaymentStatusFailed,
	PaymentStatusCancelled,
}

// String implements fmt.Stringer.
func (s PaymentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PaymentStatus.
func (s PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Terminal reports whether the provider will never change this status.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusComplete, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	default:
		return false
	}
}
