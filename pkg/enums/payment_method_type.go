package enums

import (
	"fmt"
	"strings"
)

// PaymentMethodType categorizes a saved payment method. The vendor spells the
// same category several ways across its payloads; NormalizePaymentMethodType
// collapses them into this closed set.
type PaymentMethodType string

const (
	PaymentMethodTypeCard      PaymentMethodType = "card"
	PaymentMethodTypeCredit    PaymentMethodType = "credit"
	PaymentMethodTypeDebit     PaymentMethodType = "debit"
	PaymentMethodTypeEFT       PaymentMethodType = "eft"
	PaymentMethodTypeETransfer PaymentMethodType = "e_transfer"
	PaymentMethodTypeCheque    PaymentMethodType = "cheque"
	PaymentMethodTypeCash      PaymentMethodType = "cash"
)

var validPaymentMethodTypes = []PaymentMethodType{
	PaymentMethodTypeCard,
	PaymentMethodTypeCredit,
	PaymentMethodTypeDebit,
	PaymentMethodTypeEFT,
	PaymentMethodTypeETransfer,
	PaymentMethodTypeCheque,
	PaymentMethodTypeCash,
}

// String implements fmt.Stringer.
func (p PaymentMethodType) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PaymentMethodType) IsValid() bool {
	for _, candidate := range validPaymentMethodTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// NormalizePaymentMethodType maps the vendor-side spellings onto the canonical
// set. Unknown spellings fall back to card, matching how the vendor treats
// unlabeled tokenized methods.
func NormalizePaymentMethodType(raw string) PaymentMethodType {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	switch normalized {
	case "card", "credit_card", "creditcard":
		return PaymentMethodTypeCard
	case "credit":
		return PaymentMethodTypeCredit
	case "debit", "debit_card":
		return PaymentMethodTypeDebit
	case "eft", "bank", "bank_account":
		return PaymentMethodTypeEFT
	case "e_transfer", "etransfer", "email_transfer":
		return PaymentMethodTypeETransfer
	case "cheque", "check":
		return PaymentMethodTypeCheque
	case "cash":
		return PaymentMethodTypeCash
	default:
		return PaymentMethodTypeCard
	}
}

// ParsePaymentMethodType converts raw input into a PaymentMethodType.
func ParsePaymentMethodType(value string) (PaymentMethodType, error) {
	for _, candidate := range validPaymentMethodTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method type %q", value)
}
