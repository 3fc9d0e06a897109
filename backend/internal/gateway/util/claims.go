package util

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims for JWT
type CustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type userKey struct{}

// WithUser stores verified claims on the request context.
func WithUser(ctx context.Context, claims *CustomClaims) context.Context {
	return context.WithValue(ctx, userKey{}, claims)
}

// UserFromContext returns the claims stored by the auth middleware, or nil.
func UserFromContext(ctx context.Context) *CustomClaims {
	claims, _ := ctx.Value(userKey{}).(*CustomClaims)
	return claims
}
