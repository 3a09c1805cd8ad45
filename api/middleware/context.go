package middleware

import "context"

type contextKey string

const (
	ctxShopperID     contextKey = "shopper_id"
	ctxShopperEmail  contextKey = "shopper_email"
	ctxBNACustomerID contextKey = "bna_customer_id"
)

func ShopperIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxShopperID).(string); ok {
		return v
	}
	return ""
}

func ShopperEmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxShopperEmail).(string); ok {
		return v
	}
	return ""
}

func BNACustomerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxBNACustomerID).(string); ok {
		return v
	}
	return ""
}

// WithShopper seeds the identity values for downstream handlers. Used by the
// auth middleware and by handler tests.
func WithShopper(ctx context.Context, shopperID, email, bnaCustomerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxShopperID, shopperID)
	ctx = context.WithValue(ctx, ctxShopperEmail, email)
	return context.WithValue(ctx, ctxBNACustomerID, bnaCustomerID)
}
