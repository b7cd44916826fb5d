package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateTokenReturnsSubject(t *testing.T) {
	t.Parallel()

	v := NewTokenValidator(testSecret, "")
	token := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	owner, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	t.Parallel()

	v := NewTokenValidator(testSecret, "")
	token := signToken(t, "a-different-secret", jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := v.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	t.Parallel()

	v := NewTokenValidator(testSecret, "")
	token := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	})

	_, err := v.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsMissingSubject(t *testing.T) {
	t.Parallel()

	v := NewTokenValidator(testSecret, "")
	token := signToken(t, testSecret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	_, err := v.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenIssuerCheck(t *testing.T) {
	t.Parallel()

	v := NewTokenValidator(testSecret, "featherframe-idp")

	good := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "alice",
		Issuer:    "featherframe-idp",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	owner, err := v.ValidateToken(good)
	require.NoError(t, err)
	assert.Equal(t, "alice", owner)

	bad := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "alice",
		Issuer:    "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	_, err = v.ValidateToken(bad)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	t.Parallel()

	v := NewTokenValidator(testSecret, "")

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := v.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}
