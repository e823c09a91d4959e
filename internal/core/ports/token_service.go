package ports

import "github.com/graphrag/tenantgate/internal/core/domain"

// TokenOptions carries the identity attributes embedded in a session
// token beyond subject and role.
type TokenOptions struct {
	Workspace string
	Email     string
	Metadata  map[string]string
}

// TokenService issues and validates signed, time-limited session
// tokens. Validation is pure computation over the secret and the token;
// no storage or network I/O.
type TokenService interface {
	Issue(username, role string, opts TokenOptions) (string, error)
	// Validate fails with domain.ErrTokenExpired past expiry,
	// domain.ErrTokenMalformed on undecodable input, and
	// domain.ErrTokenInvalid on a bad signature.
	Validate(token string) (*domain.SessionClaims, error)
}
