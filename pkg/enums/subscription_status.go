package enums

import (
	"fmt"
	"strings"
)

// SubscriptionStatus mirrors the vendor's recurring-payment subscription state.
type SubscriptionStatus string

const (
	SubscriptionStatusNew       SubscriptionStatus = "new"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusFailed    SubscriptionStatus = "failed"
	SubscriptionStatusDeleted   SubscriptionStatus = "deleted"
)

var validSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusNew,
	SubscriptionStatusActive,
	SubscriptionStatusSuspended,
	SubscriptionStatusCancelled,
	SubscriptionStatusExpired,
	SubscriptionStatusFailed,
	SubscriptionStatusDeleted,
}

// String implements fmt.Stringer.
func (s SubscriptionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SubscriptionStatus) IsValid() bool {
	for _, candidate := range validSubscriptionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsActive reports whether the subscription should keep billing.
func (s SubscriptionStatus) IsActive() bool {
	return s == SubscriptionStatusNew || s == SubscriptionStatusActive
}

// ParseSubscriptionStatus converts raw input (any case) into a SubscriptionStatus.
func ParseSubscriptionStatus(value string) (SubscriptionStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validSubscriptionStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription status %q", value)
}
