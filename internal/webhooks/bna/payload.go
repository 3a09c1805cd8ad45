package bna

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	bnaapi "github.com/bnasmart/gateway-backend/pkg/bna"
)

var (
	// ErrEmptyBody marks a delivery with no usable request body.
	ErrEmptyBody = errors.New("empty webhook body")
	// ErrMissingID marks a record the vendor sent without an id field.
	ErrMissingID = errors.New("webhook record has no id")
)

// Payload is the normalized inner record of a webhook envelope. The vendor
// wraps records three ways over its API versions: {"data":{"transaction":...}},
// {"transaction":...}, or the bare record itself. Fields not decoded here are
// preserved in Raw and passed through to handlers untouched.
type Payload struct {
	ID            string
	Status        string
	CustomerID    string
	ReferenceUUID string
	Total         decimal.Decimal
	Currency      string
	PaymentMethod string
	Frequency     string
	TrialDays     int
	FirstChargeAt string

	declineReason string
	cancelReason  string
	failureReason string
	message       string

	Raw      json.RawMessage
	Customer *bnaapi.Customer
}

// Reason returns the vendor's failure explanation, trying the field
// spellings the vendor has used in the order they are most specific.
func (p *Payload) Reason() string {
	for _, candidate := range []string{p.declineReason, p.cancelReason, p.failureReason, p.message} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

type recordFields struct {
	ID            string          `json:"id"`
	Status        string          `json:"status"`
	CustomerID    string          `json:"customerId"`
	ReferenceUUID string          `json:"referenceUUID"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"paymentMethod"`
	Frequency     string          `json:"recurringFrequency"`
	TrialDays     int             `json:"freeTrialLength"`
	FirstChargeAt string          `json:"firstChargeDate"`
	DeclineReason string          `json:"declineReason"`
	CancelReason  string          `json:"cancelReason"`
	FailureReason string          `json:"failureReason"`
	Message       string          `json:"message"`
}

var recordKeyByFamily = map[EventFamily]string{
	FamilyTransaction:   "transaction",
	FamilySubscription:  "subscription",
	FamilyCustomer:      "customer",
	FamilyPaymentMethod: "paymentMethod",
}

// Normalize extracts the inner record for the given event family, plus the
// sibling customer object when the envelope carries one.
func Normalize(body []byte, family EventFamily) (*Payload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	record, customer, err := unwrap(body, recordKeyByFamily[family])
	if err != nil {
		return nil, err
	}

	var fields recordFields
	if err := json.Unmarshal(record, &fields); err != nil {
		return nil, err
	}
	if fields.ID == "" {
		return nil, ErrMissingID
	}

	payload := &Payload{
		ID:            fields.ID,
		Status:        fields.Status,
		CustomerID:    fields.CustomerID,
		ReferenceUUID: fields.ReferenceUUID,
		Total:         fields.Total,
		Currency:      fields.Currency,
		PaymentMethod: fields.PaymentMethod,
		Frequency:     fields.Frequency,
		TrialDays:     fields.TrialDays,
		FirstChargeAt: fields.FirstChargeAt,
		declineReason: fields.DeclineReason,
		cancelReason:  fields.CancelReason,
		failureReason: fields.FailureReason,
		message:       fields.Message,
		Raw:           record,
	}

	if len(customer) > 0 {
		var cust bnaapi.Customer
		if err := json.Unmarshal(customer, &cust); err == nil && cust.ID != "" {
			payload.Customer = &cust
		}
	}
	if payload.CustomerID == "" && payload.Customer != nil {
		payload.CustomerID = payload.Customer.ID
	}
	return payload, nil
}

// unwrap walks the envelope levels from outermost to innermost looking for
// the family's record key. The bare-record shape is the fallback.
func unwrap(body []byte, key string) (record, customer json.RawMessage, err error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, nil, err
	}

	level := top
	if data, ok := top["data"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err == nil && inner[key] != nil {
			level = inner
		}
	}

	if rec, ok := level[key]; ok {
		if key != "customer" {
			customer = level["customer"]
		}
		return rec, customer, nil
	}
	return body, nil, nil
}
