package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oguzhanyavuz/tradeport/internal/model"
)

// PermissionLookup resolves the permissions granted to a user.
type PermissionLookup interface {
	Permissions(ctx context.Context, userID uint64) ([]model.Permission, error)
}

// RequirePermission aborts with 403 unless the caller holds the codename.
// Superusers hold every codename implicitly. Must run after JWTAuth; role
// gating stays with RequireRole, this adds the finer staff capability check.
func RequirePermission(perms PermissionLookup, codename string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if role, _ := c.Get("role").(string); role == model.RoleSuperuser {
				return next(c)
			}
			uid, ok := c.Get("user_id").(uint64)
			if !ok || uid == 0 {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			granted, err := perms.Permissions(c.Request().Context(), uid)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal"})
			}
			for _, p := range granted {
				if p.Codename == codename {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
	}
}
