package bna

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// SubscriptionRecord is the gateway's view of a recurring schedule.
type SubscriptionRecord struct {
	ID                 string          `json:"id"`
	CustomerID         string          `json:"customerId"`
	Status             string          `json:"status"`
	RecurringFrequency string          `json:"recurringFrequency"`
	NextPaymentDate    string          `json:"nextPaymentDate,omitempty"`
	Items              json.RawMessage `json:"items,omitempty"`
}

// GetSubscription fetches a recurring schedule by gateway id.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*SubscriptionRecord, error) {
	var out SubscriptionRecord
	path := fmt.Sprintf("/v1/subscription/%s", url.PathEscape(subscriptionID))
	if err := c.do(ctx, http.MethodGet, path, nil, &out, "get_subscription"); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelSubscription stops a recurring schedule at the gateway.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	path := fmt.Sprintf("/v1/subscription/%s", url.PathEscape(subscriptionID))
	return c.do(ctx, http.MethodDelete, path, nil, nil, "cancel_subscription")
}
