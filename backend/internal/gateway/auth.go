package gateway

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/golang-jwt/jwt/v5"

	"college_portal/backend/internal/gateway/util"
)

// TokenVerifier checks HS256 tokens issued by the portal's auth service.
// Issuing tokens is not this service's job.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier creates a verifier. An empty issuer accepts any issuer.
func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses and validates tokenString.
func (v *TokenVerifier) Verify(tokenString string) (*util.CustomClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &util.CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" || claims.Role == "" {
		return nil, fmt.Errorf("token is missing user claims")
	}
	return claims, nil
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the verified claims on the request context.
func AuthMiddleware(verifier *TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Extract Token
			tokenStr, err := util.ExtractToken(r)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			// 2. Verify
			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				util.WriteJSONError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			// 3. Inject User into Context
			next.ServeHTTP(w, r.WithContext(util.WithUser(r.Context(), claims)))
		})
	}
}

// RequireRole lets through only users holding one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := util.UserFromContext(r.Context())
			if user == nil || !slices.Contains(roles, user.Role) {
				util.WriteJSONError(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
