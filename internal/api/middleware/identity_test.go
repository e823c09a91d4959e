package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/graphrag/tenantgate/internal/core/domain"
	"github.com/graphrag/tenantgate/internal/core/ports"
)

type stubTokens struct {
	claims *domain.SessionClaims
	err    error
}

func (s *stubTokens) Issue(username, role string, opts ports.TokenOptions) (string, error) {
	return "stub-token", nil
}

func (s *stubTokens) Validate(token string) (*domain.SessionClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

// stubUsers only backs the workspace fallback lookup; everything else is
// unreachable from the resolver.
type stubUsers struct {
	user *domain.User
}

func (s *stubUsers) Get(username string) (*domain.User, error) {
	if s.user == nil || s.user.Username != username {
		return nil, domain.ErrUserNotFound
	}
	return s.user, nil
}

func (s *stubUsers) Create(context.Context, string, string, string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}
func (s *stubUsers) Authenticate(context.Context, string, string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}
func (s *stubUsers) List() []*domain.User { return nil }
func (s *stubUsers) Update(context.Context, string, ports.UserUpdate) (*domain.User, error) {
	return nil, errors.New("not implemented")
}
func (s *stubUsers) ChangePassword(context.Context, string, string, string) error {
	return errors.New("not implemented")
}
func (s *stubUsers) Delete(context.Context, string) error { return errors.New("not implemented") }
func (s *stubUsers) Persist(context.Context) error        { return nil }

func runIdentity(t *testing.T, cfg IdentityConfig, req *http.Request) (echo.Context, error, bool) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := Identity(cfg)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return c, err, called
}

func TestIdentity_BypassPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	c, err, called := runIdentity(t, IdentityConfig{AuthRequired: true}, req)

	if err != nil {
		t.Fatalf("bypass path must not resolve: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if _, ok := GetIdentity(c); ok {
		t.Fatalf("bypassed request must carry no identity")
	}
}

func TestIdentity_ValidBearer(t *testing.T) {
	tokens := &stubTokens{claims: &domain.SessionClaims{
		Subject:   "alice",
		Workspace: "user_alice",
		Role:      domain.RoleUser,
	}}
	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer whatever")

	c, err, called := runIdentity(t, IdentityConfig{Tokens: tokens, AuthRequired: true}, req)
	if err != nil || !called {
		t.Fatalf("expected pass-through, err=%v called=%v", err, called)
	}

	id, ok := GetIdentity(c)
	if !ok {
		t.Fatalf("identity not attached")
	}
	if id.Kind != domain.IdentityAuthenticated || id.Username != "alice" || id.Workspace != "user_alice" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestIdentity_WorkspaceFallbackFromStore(t *testing.T) {
	// Claims without a workspace fall back to the credential record.
	tokens := &stubTokens{claims: &domain.SessionClaims{Subject: "bob", Role: domain.RoleUser}}
	users := &stubUsers{user: &domain.User{Username: "bob", Workspace: "user_bob"}}
	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer whatever")

	c, err, _ := runIdentity(t, IdentityConfig{Tokens: tokens, Users: users}, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, _ := GetIdentity(c)
	if id.Workspace != "user_bob" {
		t.Fatalf("expected workspace from store, got %q", id.Workspace)
	}
}

func TestIdentity_InvalidToken_Enforced(t *testing.T) {
	tokens := &stubTokens{err: domain.ErrTokenExpired}
	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer stale")

	_, err, called := runIdentity(t, IdentityConfig{Tokens: tokens, AuthRequired: true}, req)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected the token error to surface, got %v", err)
	}
	if called {
		t.Fatalf("next must not run on rejection")
	}
}

func TestIdentity_InvalidToken_Degrades(t *testing.T) {
	tokens := &stubTokens{err: domain.ErrTokenInvalid}
	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer bogus")

	c, err, called := runIdentity(t, IdentityConfig{Tokens: tokens, AuthRequired: false}, req)
	if err != nil || !called {
		t.Fatalf("expected anonymous degradation, err=%v called=%v", err, called)
	}

	id, _ := GetIdentity(c)
	if id.Kind != domain.IdentityAnonymous || id.Username != "anonymous" || id.Workspace != "" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestIdentity_APIKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	req.Header.Set("X-API-Key", "service-key")

	c, err, _ := runIdentity(t, IdentityConfig{APIKey: "service-key", AuthRequired: true}, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	id, _ := GetIdentity(c)
	if id.Kind != domain.IdentityAPIKey {
		t.Fatalf("expected api_key identity, got %+v", id)
	}
	if id.Workspace != "" {
		t.Fatalf("api key identity must use the shared namespace, got %q", id.Workspace)
	}
}

func TestIdentity_WrongAPIKey_Enforced(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/query", nil)
	req.Header.Set("X-API-Key", "wrong")

	_, err, called := runIdentity(t, IdentityConfig{APIKey: "service-key", AuthRequired: true}, req)
	if !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if called {
		t.Fatalf("next must not run on rejection")
	}
}

func TestIdentity_NoCredentials(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/query", nil)

	if _, err, _ := runIdentity(t, IdentityConfig{AuthRequired: true}, req.Clone(context.Background())); !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired when enforced, got %v", err)
	}

	c, err, _ := runIdentity(t, IdentityConfig{AuthRequired: false}, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id, _ := GetIdentity(c); id.Kind != domain.IdentityAnonymous {
		t.Fatalf("expected anonymous identity, got %+v", id)
	}
}
