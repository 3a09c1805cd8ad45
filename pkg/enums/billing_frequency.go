package enums

import (
	"fmt"
	"strings"
	"time"
)

// BillingFrequency is the recurring-charge cadence for subscription orders.
type BillingFrequency string

const (
	BillingFrequencyDaily     BillingFrequency = "daily"
	BillingFrequencyWeekly    BillingFrequency = "weekly"
	BillingFrequencyBiweekly  BillingFrequency = "biweekly"
	BillingFrequencyMonthly   BillingFrequency = "monthly"
	BillingFrequencyQuarterly BillingFrequency = "quarterly"
	BillingFrequencyBiannual  BillingFrequency = "biannual"
	BillingFrequencyAnnual    BillingFrequency = "annual"
)

var validBillingFrequencies = []BillingFrequency{
	BillingFrequencyDaily,
	BillingFrequencyWeekly,
	BillingFrequencyBiweekly,
	BillingFrequencyMonthly,
	BillingFrequencyQuarterly,
	BillingFrequencyBiannual,
	BillingFrequencyAnnual,
}

// String implements fmt.Stringer.
func (f BillingFrequency) String() string {
	return string(f)
}

// IsValid reports whether the value is known.
func (f BillingFrequency) IsValid() bool {
	for _, candidate := range validBillingFrequencies {
		if candidate == f {
			return true
		}
	}
	return false
}

// NextFrom returns the instant one billing interval after t.
func (f BillingFrequency) NextFrom(t time.Time) time.Time {
	switch f {
	case BillingFrequencyDaily:
		return t.AddDate(0, 0, 1)
	case BillingFrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case BillingFrequencyBiweekly:
		return t.AddDate(0, 0, 14)
	case BillingFrequencyMonthly:
		return t.AddDate(0, 1, 0)
	case BillingFrequencyQuarterly:
		return t.AddDate(0, 3, 0)
	case BillingFrequencyBiannual:
		return t.AddDate(0, 6, 0)
	case BillingFrequencyAnnual:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// ParseBillingFrequency converts raw input into a BillingFrequency.
func ParseBillingFrequency(value string) (BillingFrequency, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validBillingFrequencies {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing frequency %q", value)
}
