package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/graphrag/tenantgate/internal/api/middleware"
	"github.com/graphrag/tenantgate/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the middleware chain and
// performs a fast-fail check before any service call: an authenticated
// identity without a subject means the token was structurally valid but
// operationally unusable, so reject rather than act on it.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		return domain.Identity{}, domain.ErrAuthRequired
	}
	if id.Kind == domain.IdentityAuthenticated && id.Username == "" {
		return domain.Identity{}, domain.ErrTokenInvalid
	}
	return id, nil
}
