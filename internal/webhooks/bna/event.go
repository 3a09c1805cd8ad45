package bna

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedEvent marks an event type the gateway does not process.
// Unsupported events are acknowledged and logged, never queued or retried.
var ErrUnsupportedEvent = errors.New("unsupported webhook event")

// EventFamily is the dot-prefix of a vendor event type.
type EventFamily string

const (
	FamilyTransaction   EventFamily = "transaction"
	FamilySubscription  EventFamily = "subscription"
	FamilyCustomer      EventFamily = "customer"
	FamilyPaymentMethod EventFamily = "payment_method"
)

// EventAction is the dot-suffix of a vendor event type.
type EventAction string

const (
	ActionApproved   EventAction = "approved"
	ActionDeclined   EventAction = "declined"
	ActionCanceled   EventAction = "canceled"
	ActionFailed     EventAction = "failed"
	ActionCreated    EventAction = "created"
	ActionProcessed  EventAction = "processed"
	ActionWillExpire EventAction = "will_expire"
	ActionUpdated    EventAction = "updated"
	ActionDeleted    EventAction = "deleted"
)

// EventKind is a closed variant of the webhook events the gateway handles.
// Parsing rejects anything outside the supported set, so a new vendor event
// has to be added here before any handler can see it.
type EventKind struct {
	Family EventFamily
	Action EventAction
}

var supportedEvents = map[EventKind]struct{}{
	{FamilyTransaction, ActionApproved}:    {},
	{FamilyTransaction, ActionDeclined}:    {},
	{FamilyTransaction, ActionCanceled}:    {},
	{FamilyTransaction, ActionFailed}:      {},
	{FamilySubscription, ActionCreated}:    {},
	{FamilySubscription, ActionProcessed}:  {},
	{FamilySubscription, ActionWillExpire}: {},
	{FamilySubscription, ActionUpdated}:    {},
	{FamilySubscription, ActionDeleted}:    {},
	{FamilyCustomer, ActionCreated}:        {},
	{FamilyCustomer, ActionUpdated}:        {},
	{FamilyCustomer, ActionDeleted}:        {},
	{FamilyPaymentMethod, ActionCreated}:   {},
	{FamilyPaymentMethod, ActionDeleted}:   {},
}

// String implements fmt.Stringer.
func (k EventKind) String() string {
	return string(k.Family) + "." + string(k.Action)
}

// ParseEventKind converts a vendor event-type string such as
// "transaction.approved" into an EventKind. The vendor spells some suffixes
// inconsistently across API versions ("delete" vs "deleted"), so a few
// aliases are folded here.
func ParseEventKind(eventType string) (EventKind, error) {
	rawFamily, rawAction, found := strings.Cut(strings.TrimSpace(strings.ToLower(eventType)), ".")
	if !found || rawFamily == "" || rawAction == "" {
		return EventKind{}, fmt.Errorf("%w: %q", ErrUnsupportedEvent, eventType)
	}

	family := EventFamily(rawFamily)
	if rawFamily == "paymentmethod" || rawFamily == "payment-method" {
		family = FamilyPaymentMethod
	}

	action := EventAction(rawAction)
	switch rawAction {
	case "delete":
		action = ActionDeleted
	case "update":
		action = ActionUpdated
	case "cancelled":
		action = ActionCanceled
	case "willexpire", "will-expire":
		action = ActionWillExpire
	}

	kind := EventKind{Family: family, Action: action}
	if _, ok := supportedEvents[kind]; !ok {
		return EventKind{}, fmt.Errorf("%w: %q", ErrUnsupportedEvent, eventType)
	}
	return kind, nil
}
