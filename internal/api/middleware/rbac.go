package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/graphrag/tenantgate/internal/core/domain"
)

// RBAC enforces role-based access control on the resolved identity.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := GetIdentity(c)
			if !ok {
				return domain.ErrAuthRequired
			}
			if _, ok := allowed[id.Role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
