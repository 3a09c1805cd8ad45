package bna

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bnasmart/gateway-backend/pkg/types"
)

// Customer is the gateway-side customer record.
type Customer struct {
	ID          string         `json:"id"`
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

// CustomerParams is the create/update payload.
type CustomerParams struct {
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

type customerListResponse struct {
	Data []Customer `json:"data"`
}

// CreateCustomer registers a customer with the gateway.
func (c *Client) CreateCustomer(ctx context.Context, params CustomerParams) (*Customer, error) {
	var out Customer
	if err := c.do(ctx, http.MethodPost, "/v1/customers", params, &out, "create_customer"); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCustomer fetches a customer by gateway id.
func (c *Client) GetCustomer(ctx context.Context, customerID string) (*Customer, error) {
	var out Customer
	path := fmt.Sprintf("/v1/customers/%s", url.PathEscape(customerID))
	if err := c.do(ctx, http.MethodGet, path, nil, &out, "get_customer"); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindCustomerByEmail looks up existing customers by email. Returns nil when
// no match exists.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	var out customerListResponse
	path := fmt.Sprintf("/v1/customers?email=%s", url.QueryEscape(email))
	if err := c.do(ctx, http.MethodGet, path, nil, &out, "find_customer"); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, nil
	}
	return &out.Data[0], nil
}

// UpdateCustomer patches a gateway customer in place.
func (c *Client) UpdateCustomer(ctx context.Context, customerID string, params CustomerParams) (*Customer, error) {
	var out Customer
	path := fmt.Sprintf("/v1/customers/%s", url.PathEscape(customerID))
	if err := c.do(ctx, http.MethodPatch, path, params, &out, "update_customer"); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteCustomer removes a customer from the gateway.
func (c *Client) DeleteCustomer(ctx context.Context, customerID string) error {
	path := fmt.Sprintf("/v1/customers/%s", url.PathEscape(customerID))
	return c.do(ctx, http.MethodDelete, path, nil, nil, "delete_customer")
}
