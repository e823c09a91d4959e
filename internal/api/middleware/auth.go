package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/graphrag/tenantgate/internal/core/domain"
	"github.com/graphrag/tenantgate/internal/core/ports"
)

// Auth requires a valid bearer token and injects the resulting identity
// into the request scope. Used on the protected /auth routes, which the
// global resolver bypasses so that login and register stay reachable.
// Claims resolve to an identity the same way the global resolver does,
// including the workspace fallback for older tokens.
func Auth(tokens ports.TokenService, users ports.UserService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c)
			if !ok {
				return domain.ErrAuthRequired
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				return err
			}

			SetIdentity(c, identityFromClaims(users, claims))
			return next(c)
		}
	}
}
