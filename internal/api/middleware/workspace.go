package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/graphrag/tenantgate/internal/core/ports"
)

// Workspace resolves the engine handle for the request's identity and
// attaches it to the request scope. Requests without an identity
// (bypassed paths) pass through untouched. API-key and anonymous
// identities carry no workspace and land in the shared default one.
func Workspace(registry ports.WorkspaceRegistry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := GetIdentity(c)
			if !ok {
				return next(c)
			}

			inst, err := registry.GetOrCreate(c.Request().Context(), id.Workspace)
			if err != nil {
				return fmt.Errorf("workspace %q: %w", id.Workspace, err)
			}

			SetInstance(c, inst)
			return next(c)
		}
	}
}
