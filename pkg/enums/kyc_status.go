package enums

import "fmt"

// KYCStatus captures the merchant verification workflow:
// draft -> docs_uploaded -> submitted_to_intasend -> approved|rejected,
// with rejected -> docs_uploaded allowed on resubmission.
type KYCStatus string

const (
	KYCStatusDraft               KYCStatus = "draft"
	KYCStatusDocsUploaded        KYCStatus = "docs_uploaded"
	KYCStatusSubmittedToIntaSend KYCStatus = "submitted_to_intasend"
	KYCStatusApproved            KYCStatus = "approved"
	KYCStatusRejected            KYCStatus = "rejected"
)

var validKYCStatuses = []KYCStatus{
	KYCStatusDraft,
	KYCStatusDocsUploaded,
	KYCStatusSubmittedToIntaSend,
	KYCStatusApproved,
	KYCStatusRejected,
}

// String implements fmt.Stringer.
func (s KYCStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known KYCStatus.
func (s KYCStatus) IsValid() bool {
	for _, candidate := range validKYCStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseKYCStatus converts raw input into a KYCStatus.
func ParseKYCStatus(value string) (KYCStatus, error) {
	for _, candidate := range validKYCStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid KYC status %q", value)
}

// CanTransitionTo reports whether moving from s to next is an allowed
// KYC transition. Every mutating endpoint checks this before writing.
func (s KYCStatus) CanTransitionTo(next KYCStatus) bool {
	switch s {
	case KYCStatusDraft:
		return next == KYCStatusDocsUploaded
	case KYCStatusDocsUploaded:
		return next == KYCStatusSubmittedToIntaSend
	case KYCStatusSubmittedToIntaSend:
		return next == KYCStatusApproved || next == KYCStatusRejected
	case KYCStatusRejected:
		return next == KYCStatusDocsUploaded
	default:
		return false
	}
}
