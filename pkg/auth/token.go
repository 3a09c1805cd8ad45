package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bnasmart/gateway-backend/pkg/config"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ShopperClaims identifies the storefront account a token was issued for.
// The gateway does not manage accounts itself; tokens are minted by the
// storefront backend with the shared secret.
type ShopperClaims struct {
	ShopperID     string `json:"shopperId"`
	Email         string `json:"email,omitempty"`
	BNACustomerID string `json:"bnaCustomerId,omitempty"`
	jwt.RegisteredClaims
}

// MintShopperToken issues a signed JWT for the shopper. Mostly used by tests
// and the storefront integration harness.
func MintShopperToken(cfg config.JWTConfig, now time.Time, claims ShopperClaims) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return "", fmt.Errorf("jwt expiration minutes must be positive")
	}
	if claims.ShopperID == "" {
		return "", fmt.Errorf("shopper id is required")
	}

	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)),
		ID:        uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseShopperToken validates the JWT string and returns typed claims.
func ParseShopperToken(cfg config.JWTConfig, tokenString string) (*ShopperClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	claims := &ShopperClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithIssuer(cfg.Issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing jwt: %w", err)
	}
	if claims.ShopperID == "" {
		return nil, fmt.Errorf("token has no shopper id")
	}
	return claims, nil
}
