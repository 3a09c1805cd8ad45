package bna

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bnasmart/gateway-backend/pkg/enums"
	"github.com/bnasmart/gateway-backend/pkg/types"
)

// CheckoutItem is one line of the checkout request sent to the gateway.
type CheckoutItem struct {
	SKU         string          `json:"sku"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Amount      decimal.Decimal `json:"amount"`
}

// CheckoutCustomer carries the shopper fields collected at checkout. Optional
// fields stay empty unless the matching capture feature is enabled.
type CheckoutCustomer struct {
	CustomerID  string         `json:"customerId,omitempty"`
	Type        string         `json:"type,omitempty"`
	Email       string         `json:"email"`
	FirstName   string         `json:"firstName"`
	LastName    string         `json:"lastName"`
	PhoneNumber string         `json:"phoneNumber,omitempty"`
	PhoneCode   string         `json:"phoneCode,omitempty"`
	BirthDate   string         `json:"birthDate,omitempty"`
	Address     *types.Address `json:"address,omitempty"`
	Shipping    *types.Address `json:"shippingAddress,omitempty"`
}

// CheckoutSubscription requests a recurring schedule alongside the checkout.
type CheckoutSubscription struct {
	RecurringFrequency enums.BillingFrequency `json:"recurringFrequency"`
	FreeTrialLength    int                    `json:"freeTrialLength,omitempty"`
	FirstChargeDate    string                 `json:"firstChargeDate,omitempty"`
	NumberOfPayments   int                    `json:"numberOfPayments,omitempty"`
}

// CheckoutParams is the full token request.
type CheckoutParams struct {
	IframeID      string                `json:"iframeId"`
	InvoiceID     string                `json:"invoiceId"`
	Currency      enums.Currency        `json:"currency"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	Items         []CheckoutItem        `json:"items"`
	CustomerInfo  CheckoutCustomer      `json:"customerInfo"`
	SaveCard      bool                  `json:"saveCard,omitempty"`
	Subscription  *CheckoutSubscription `json:"recurring,omitempty"`
	ReferenceUUID string                `json:"referenceUUID,omitempty"`
}

type checkoutResponse struct {
	Token string `json:"token"`
}

// CreateCheckout requests a one-time checkout token from the gateway.
func (c *Client) CreateCheckout(ctx context.Context, params CheckoutParams) (string, error) {
	if params.IframeID == "" {
		params.IframeID = c.iframeID
	}
	var resp checkoutResponse
	if err := c.do(ctx, http.MethodPost, "/v1/checkout", params, &resp, "create_checkout"); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// IframeURL builds the hosted-checkout URL for a previously issued token.
func (c *Client) IframeURL(token string) string {
	return fmt.Sprintf("%s/v1/checkout/%s?iframeId=%s", c.baseURL, token, c.iframeID)
}
