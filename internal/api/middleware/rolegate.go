package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cks-portal/identity-service/internal/core/domain"
	"github.com/cks-portal/identity-service/internal/core/ports"
)

// RoleGate restricts a route to the given principal roles. Requests without
// an authenticated principal are always rejected.
func RoleGate(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, _ := c.Get(PrincipalKey).(ports.PrincipalClaims)
			if !principal.Authenticated() {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if _, ok := allowed[principal.Role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
