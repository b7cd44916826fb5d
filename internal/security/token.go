// Package security validates bearer credentials issued by the external
// identity service and exposes the resulting caller identity to handlers.
// Token issuance is out of scope; only validation happens here.
package security

import (
	"github.com/featherframe/featherframe/internal/errors"
	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors for authentication failures.
var (
	ErrMissingToken = errors.NewStd("missing bearer token")
	ErrInvalidToken = errors.NewStd("invalid or expired token")
)

// TokenValidator validates HMAC-signed JWTs against the shared secret.
type TokenValidator struct {
	signingKey []byte
	issuer     string
}

// NewTokenValidator creates a validator for tokens signed with signingKey.
// When issuer is non-empty, the token's iss claim must match it.
func NewTokenValidator(signingKey, issuer string) *TokenValidator {
	return &TokenValidator{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// ValidateToken checks the token signature and registered claims and returns
// the subject, which serves as the trusted owner identity downstream.
func (v *TokenValidator) ValidateToken(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (any, error) {
		return v.signingKey, nil
	}, opts...)
	if err != nil {
		return "", ErrInvalidToken
	}
	if !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
