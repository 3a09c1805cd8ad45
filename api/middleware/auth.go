package middleware

import (
	"net/http"
	"strings"

	"github.com/bnasmart/gateway-backend/api/responses"
	pkgauth "github.com/bnasmart/gateway-backend/pkg/auth"
	"github.com/bnasmart/gateway-backend/pkg/config"
	pkgerrors "github.com/bnasmart/gateway-backend/pkg/errors"
	"github.com/bnasmart/gateway-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// shopper identity.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseShopperToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithShopper(r.Context(), claims.ShopperID, claims.Email, claims.BNACustomerID)
			if logg != nil {
				fields := map[string]any{"shopper_id": claims.ShopperID}
				if claims.BNACustomerID != "" {
					fields["bna_customer_id"] = claims.BNACustomerID
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
