package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthTestServer(t *testing.T) (*echo.Echo, *Middleware) {
	t.Helper()
	e := echo.New()
	mw := NewMiddleware(NewTokenValidator(testSecret, ""))
	return e, mw
}

func doAuthRequest(e *echo.Echo, mw *Middleware, authHeader string) (*httptest.ResponseRecorder, string) {
	var gotOwner string
	handler := mw.Authenticate(func(c echo.Context) error {
		gotOwner = OwnerFromContext(c)
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	_ = handler(e.NewContext(req, rec))
	return rec, gotOwner
}

func TestAuthenticateSetsOwner(t *testing.T) {
	t.Parallel()

	e, mw := newAuthTestServer(t)
	token := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	rec, owner := doAuthRequest(e, mw, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", owner)
}

func TestAuthenticateRejectsMissingHeader(t *testing.T) {
	t.Parallel()

	e, mw := newAuthTestServer(t)
	rec, owner := doAuthRequest(e, mw, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, owner)
}

func TestAuthenticateRejectsMalformedHeader(t *testing.T) {
	t.Parallel()

	e, mw := newAuthTestServer(t)
	for _, header := range []string{"Bearer", "Basic dXNlcjpwYXNz", "token-without-scheme"} {
		rec, owner := doAuthRequest(e, mw, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.Empty(t, owner)
	}
}

func TestAuthenticateRejectsInvalidToken(t *testing.T) {
	t.Parallel()

	e, mw := newAuthTestServer(t)
	rec, owner := doAuthRequest(e, mw, "Bearer not-a-real-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, owner)
}
