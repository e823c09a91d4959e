package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/graphrag/tenantgate/internal/api/metrics"
	"github.com/graphrag/tenantgate/internal/core/domain"
	"github.com/graphrag/tenantgate/internal/core/ports"
)

// DefaultBypassPrefixes skips identity resolution entirely for paths
// that must work before (or without) authentication.
var DefaultBypassPrefixes = []string{
	"/health", "/auth/", "/docs", "/webui", "/static", "/favicon", "/metrics",
}

const apiKeyHeader = "X-API-Key"

// IdentityConfig wires the resolver's collaborators and policy knobs.
type IdentityConfig struct {
	Tokens ports.TokenService
	Users  ports.UserService
	// APIKey enables the static-key identity when non-empty.
	APIKey string
	// AuthRequired turns resolution failures into 401 rejections
	// instead of anonymous degradation.
	AuthRequired bool
	// BypassPrefixes overrides DefaultBypassPrefixes when non-nil.
	BypassPrefixes []string
}

// Identity classifies every inbound request into exactly one identity
// outcome, evaluated in strict priority order: bypass, bearer token,
// API key, enforcement, anonymous. The outcome is attached to the
// request scope; rejections surface as errors for the central handler.
func Identity(cfg IdentityConfig) echo.MiddlewareFunc {
	bypass := cfg.BypassPrefixes
	if bypass == nil {
		bypass = DefaultBypassPrefixes
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, prefix := range bypass {
				if strings.HasPrefix(path, prefix) {
					return next(c)
				}
			}

			if token, ok := bearerToken(c); ok {
				return resolveBearer(c, cfg, token, next)
			}

			if cfg.APIKey != "" && apiKeyMatches(c, cfg.APIKey) {
				metrics.IdentityOutcomesTotal.WithLabelValues("api_key").Inc()
				SetIdentity(c, domain.APIKeyIdentity())
				return next(c)
			}

			if cfg.AuthRequired {
				metrics.IdentityOutcomesTotal.WithLabelValues("rejected").Inc()
				return domain.ErrAuthRequired
			}

			metrics.IdentityOutcomesTotal.WithLabelValues("anonymous").Inc()
			SetIdentity(c, domain.AnonymousIdentity())
			return next(c)
		}
	}
}

func resolveBearer(c echo.Context, cfg IdentityConfig, token string, next echo.HandlerFunc) error {
	claims, err := cfg.Tokens.Validate(token)
	if err != nil {
		if cfg.AuthRequired {
			metrics.IdentityOutcomesTotal.WithLabelValues("rejected").Inc()
			return err
		}
		// Enforcement off: a broken token degrades to anonymous rather
		// than blocking the request.
		metrics.IdentityOutcomesTotal.WithLabelValues("anonymous").Inc()
		SetIdentity(c, domain.AnonymousIdentity())
		return next(c)
	}

	metrics.IdentityOutcomesTotal.WithLabelValues("authenticated").Inc()
	SetIdentity(c, identityFromClaims(cfg.Users, claims))
	return next(c)
}

// identityFromClaims builds the authenticated identity for validated
// claims. Tokens issued before workspaces were embedded in claims fall
// back to the credential record.
func identityFromClaims(users ports.UserService, claims *domain.SessionClaims) domain.Identity {
	workspace := claims.Workspace
	if workspace == "" {
		if user, err := users.Get(claims.Subject); err == nil {
			workspace = user.Workspace
		}
	}
	return domain.Identity{
		Kind:      domain.IdentityAuthenticated,
		Username:  claims.Subject,
		Role:      claims.Role,
		Workspace: workspace,
	}
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func apiKeyMatches(c echo.Context, want string) bool {
	got := c.Request().Header.Get(apiKeyHeader)
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
