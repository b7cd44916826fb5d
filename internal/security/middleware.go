package security

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// bearerTokenParts is the expected number of parts when splitting the
// Authorization header.
const bearerTokenParts = 2

// CtxKeyOwner is the echo context key holding the authenticated caller
// identity. The "auth:" prefix prevents collisions with other packages.
const CtxKeyOwner = "auth:owner"

// Middleware provides bearer authentication for owner-scoped routes.
type Middleware struct {
	validator *TokenValidator
}

// NewMiddleware creates an authentication middleware backed by validator.
func NewMiddleware(validator *TokenValidator) *Middleware {
	return &Middleware{validator: validator}
}

// Authenticate extracts and validates the bearer token, storing the caller
// identity in the request context. Requests without a valid token get a 401
// before any handler logic runs.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "authentication required",
			})
		}

		parts := strings.SplitN(authHeader, " ", bearerTokenParts)
		if len(parts) != bearerTokenParts || !strings.EqualFold(parts[0], "Bearer") {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "invalid authorization header",
			})
		}

		owner, err := m.validator.ValidateToken(parts[1])
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "invalid or expired token",
			})
		}

		c.Set(CtxKeyOwner, owner)
		return next(c)
	}
}

// OwnerFromContext returns the authenticated caller identity set by
// Authenticate, or an empty string when the request is unauthenticated.
func OwnerFromContext(c echo.Context) string {
	owner, _ := c.Get(CtxKeyOwner).(string)
	return owner
}
