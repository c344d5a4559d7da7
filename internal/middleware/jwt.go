package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/oguzhanyavuz/tradeport/internal/utils"
)

// JWTAuth validates a Bearer access token and stores the user id, role and
// raw bearer in the request context. Wrap routes that require a signed-in
// user; anonymous-friendly routes use OptionalAuth instead.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			userID, role, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set("user_id", userID)
			c.Set("role", role)
			c.Set("bearer", raw)
			return next(c)
		}
	}
}

// OptionalAuth stores the identity when a valid bearer is present and lets
// the request through as anonymous otherwise. A malformed token is treated
// as absent rather than rejected; visibility filtering downgrades instead.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				raw := strings.TrimPrefix(auth, "Bearer ")
				if userID, role, err := utils.ParseAccessToken(secret, raw); err == nil {
					c.Set("user_id", userID)
					c.Set("role", role)
					c.Set("bearer", raw)
				}
			}
			return next(c)
		}
	}
}
