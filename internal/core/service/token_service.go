package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/graphrag/tenantgate/internal/api/metrics"
	"github.com/graphrag/tenantgate/internal/core/domain"
	"github.com/graphrag/tenantgate/internal/core/ports"
)

const defaultTokenTTL = 48 * time.Hour

// sessionClaims is the wire shape of a session token payload.
type sessionClaims struct {
	Workspace string            `json:"workspace,omitempty"`
	Email     string            `json:"email,omitempty"`
	Role      string            `json:"role,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256-signed session tokens. It is
// stateless: validity is a pure function of the signature and the clock,
// which trades revocability for zero-lookup validation.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

func (s *TokenService) Issue(username, role string, opts ports.TokenOptions) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Workspace: opts.Workspace,
		Email:     opts.Email,
		Role:      role,
		Metadata:  opts.Metadata,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Validate parses and verifies a token. Failures surface as the sentinel
// errors only; parser details (and therefore anything about the signing
// setup) never reach the caller.
func (s *TokenService) Validate(token string) (*domain.SessionClaims, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		metrics.TokenValidationsTotal.WithLabelValues("expired").Inc()
		return nil, domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		metrics.TokenValidationsTotal.WithLabelValues("malformed").Inc()
		return nil, domain.ErrTokenMalformed
	case err != nil, !parsed.Valid:
		metrics.TokenValidationsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrTokenInvalid
	}

	var expiry time.Time
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	metrics.TokenValidationsTotal.WithLabelValues("valid").Inc()
	return &domain.SessionClaims{
		Subject:   claims.Subject,
		Workspace: claims.Workspace,
		Email:     claims.Email,
		Role:      claims.Role,
		ExpiresAt: expiry,
		Metadata:  claims.Metadata,
	}, nil
}
