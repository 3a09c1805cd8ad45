package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateOrder           OutboxAggregateType = "order"
	AggregateCustomerProfile OutboxAggregateType = "customer_profile"
	AggregatePaymentMethod   OutboxAggregateType = "payment_method"
	AggregateSubscription    OutboxAggregateType = "subscription"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateCustomerProfile,
	AggregatePaymentMethod,
	AggregateSubscription,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres. These are the
// integration hooks downstream consumers subscribe to.
type OutboxEventType string

const (
	EventOrderPaid              OutboxEventType = "order_paid"
	EventOrderFailed            OutboxEventType = "order_failed"
	EventOrderCancelled         OutboxEventType = "order_cancelled"
	EventCheckoutTokenIssued    OutboxEventType = "checkout_token_issued"
	EventCustomerSynced         OutboxEventType = "customer_synced"
	EventCustomerRemoved        OutboxEventType = "customer_removed"
	EventPaymentMethodSaved     OutboxEventType = "payment_method_saved"
	EventPaymentMethodRemoved   OutboxEventType = "payment_method_removed"
	EventSubscriptionCreated    OutboxEventType = "subscription_created"
	EventSubscriptionProcessed  OutboxEventType = "subscription_processed"
	EventSubscriptionWillExpire OutboxEventType = "subscription_will_expire"
	EventSubscriptionUpdated    OutboxEventType = "subscription_updated"
	EventSubscriptionDeleted    OutboxEventType = "subscription_deleted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPaid,
	EventOrderFailed,
	EventOrderCancelled,
	EventCheckoutTokenIssued,
	EventCustomerSynced,
	EventCustomerRemoved,
	EventPaymentMethodSaved,
	EventPaymentMethodRemoved,
	EventSubscriptionCreated,
	EventSubscriptionProcessed,
	EventSubscriptionWillExpire,
	EventSubscriptionUpdated,
	EventSubscriptionDeleted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
