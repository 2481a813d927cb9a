package enums

import "fmt"

// SubscriptionState tracks a per-store per-feature subscription.
type SubscriptionState string

const (
	SubscriptionStateNone    SubscriptionState = "none"
	SubscriptionStateTrial   SubscriptionState = "trial"
	SubscriptionStateActive  SubscriptionState = "active"
	SubscriptionStateExpired SubscriptionState = "expired"
)

var validSubscriptionStates = []SubscriptionState{
	SubscriptionStateNone,
	SubscriptionStateTrial,
	SubscriptionStateActive,
	SubscriptionStateExpired,
}

// String implements fmt.Stringer.
func (s SubscriptionState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SubscriptionState.
func (s SubscriptionState) IsValid() bool {
	for _, candidate := range validSubscriptionStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSubscriptionState converts raw input into a SubscriptionState.
func ParseSubscriptionState(value string) (SubscriptionState, error) {
	for _, candidate := range validSubscriptionStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription state %q", value)
}

// Usable reports whether the state currently grants feature access.
func (s SubscriptionState) Usable() bool {
	return s == SubscriptionStateTrial || s == SubscriptionStateActive
}
