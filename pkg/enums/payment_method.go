package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod describes how a shopper settles an order through the gateway.
type PaymentMethod string

const (
	PaymentMethodCard      PaymentMethod = "card"
	PaymentMethodEFT       PaymentMethod = "eft"
	PaymentMethodETransfer PaymentMethod = "e_transfer"
	PaymentMethodCheque    PaymentMethod = "cheque"
	PaymentMethodCash      PaymentMethod = "cash"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCard,
	PaymentMethodEFT,
	PaymentMethodETransfer,
	PaymentMethodCheque,
	PaymentMethodCash,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// VendorPath returns the sub-path segment the vendor API uses for
// method-scoped endpoints (e_transfer is spelled with a dash there).
func (p PaymentMethod) VendorPath() string {
	if p == PaymentMethodETransfer {
		return "e-transfer"
	}
	return string(p)
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPaymentMethods {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
