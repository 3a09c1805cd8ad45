package bna

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bnasmart/gateway-backend/pkg/enums"
	pkgerrors "github.com/bnasmart/gateway-backend/pkg/errors"
)

// PaymentMethodRecord is a gateway-vaulted payment method as returned by the
// customer payment-method listing.
type PaymentMethodRecord struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	CardBrand  string          `json:"cardBrand,omitempty"`
	CardNumber string          `json:"cardNumber,omitempty"`
	ExpiryDate string          `json:"expiryDate,omitempty"`
	BankName   string          `json:"bankName,omitempty"`
	Email      string          `json:"email,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

type paymentMethodListResponse struct {
	Data []PaymentMethodRecord `json:"data"`
}

// ListPaymentMethods fetches the vaulted payment methods for a customer.
func (c *Client) ListPaymentMethods(ctx context.Context, customerID string) ([]PaymentMethodRecord, error) {
	var out paymentMethodListResponse
	path := fmt.Sprintf("/v1/customers/%s/payment-methods", url.PathEscape(customerID))
	if err := c.do(ctx, http.MethodGet, path, nil, &out, "list_payment_methods"); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// DeletePaymentMethod removes a vaulted payment method. The gateway routes
// deletes by method type, so each type has its own sub-path. A 404 means the
// method is already gone and is treated as success.
func (c *Client) DeletePaymentMethod(ctx context.Context, customerID string, method enums.PaymentMethod, paymentMethodID string) error {
	path := fmt.Sprintf("/v1/customers/%s/payment-methods/%s/%s",
		url.PathEscape(customerID), method.VendorPath(), url.PathEscape(paymentMethodID))
	err := c.do(ctx, http.MethodDelete, path, nil, nil, "delete_payment_method")
	if err != nil {
		if domainErr := pkgerrors.As(err); domainErr != nil && domainErr.Code() == pkgerrors.CodeNotFound {
			return nil
		}
		return err
	}
	return nil
}
