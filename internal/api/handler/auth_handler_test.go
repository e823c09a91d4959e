package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/graphrag/tenantgate/internal/api/middleware"
	"github.com/graphrag/tenantgate/internal/core/domain"
	"github.com/graphrag/tenantgate/internal/core/service"
	"github.com/graphrag/tenantgate/internal/infrastructure/db/jsonfile"
)

type authFixture struct {
	e       *echo.Echo
	users   *service.UserService
	tokens  *service.TokenService
	handler *AuthHandler
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	repo := jsonfile.NewUserRepository(filepath.Join(t.TempDir(), "users.json"), zerolog.Nop())
	users := service.NewUserService(repo, false, zerolog.Nop())
	tokens := service.NewTokenService("test-secret", time.Hour)

	e := echo.New()
	e.Validator = NewValidator()
	return &authFixture{
		e:       e,
		users:   users,
		tokens:  tokens,
		handler: NewAuthHandler(users, tokens),
	}
}

func (f *authFixture) jsonRequest(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return f.e.NewContext(req, rec), rec
}

func TestAuthHandler_Login_Success(t *testing.T) {
	f := newAuthFixture(t)
	if _, err := f.users.Create(context.Background(), "alice", "alice@example.com", "secret1"); err != nil {
		t.Fatalf("create user: %v", err)
	}

	c, rec := f.jsonRequest(http.MethodPost, "/auth/login", `{"username":"alice","password":"secret1"}`)
	if err := f.handler.Login(c); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token_type"] != "bearer" || resp["username"] != "alice" || resp["workspace"] != "user_alice" {
		t.Fatalf("unexpected response: %v", resp)
	}

	claims, err := f.tokens.Validate(resp["access_token"])
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.Subject != "alice" || claims.Workspace != "user_alice" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	f := newAuthFixture(t)
	_, _ = f.users.Create(context.Background(), "bob", "bob@example.com", "secret1")

	// Wrong password and unknown username must yield the same error.
	c, _ := f.jsonRequest(http.MethodPost, "/auth/login", `{"username":"bob","password":"wrong"}`)
	wrongPass := f.handler.Login(c)

	c, _ = f.jsonRequest(http.MethodPost, "/auth/login", `{"username":"nobody","password":"secret1"}`)
	unknown := f.handler.Login(c)

	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) || !errors.Is(unknown, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for both, got %v and %v", wrongPass, unknown)
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	f := newAuthFixture(t)

	c, rec := f.jsonRequest(http.MethodPost, "/auth/register", `{"username":"carol","email":"carol@example.com","password":"secret1"}`)
	if err := f.handler.Register(c); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["workspace"] != "user_carol" {
		t.Fatalf("unexpected workspace: %v", resp["workspace"])
	}
	if _, leaked := resp["password_hash"]; leaked {
		t.Fatalf("password hash leaked in response")
	}
	if _, leaked := resp["salt"]; leaked {
		t.Fatalf("salt leaked in response")
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	f := newAuthFixture(t)
	_, _ = f.users.Create(context.Background(), "dave", "dave@example.com", "secret1")

	c, _ := f.jsonRequest(http.MethodPost, "/auth/register", `{"username":"dave","email":"new@example.com","password":"different"}`)
	if err := f.handler.Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	f := newAuthFixture(t)

	cases := []string{
		`{"username":"x!","email":"a@b.com","password":"secret1"}`, // non-alphanum username
		`{"username":"eve","email":"not-an-email","password":"secret1"}`,
		`{"username":"eve","email":"a@b.com","password":"shrt"}`,
		`not-json`,
	}
	for _, body := range cases {
		c, _ := f.jsonRequest(http.MethodPost, "/auth/register", body)
		err := f.handler.Register(c)
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %v", body, err)
		}
	}
}

func TestAuthHandler_Me(t *testing.T) {
	f := newAuthFixture(t)
	_, _ = f.users.Create(context.Background(), "frank", "frank@example.com", "secret1")

	c, rec := f.jsonRequest(http.MethodGet, "/auth/me", "")
	middleware.SetIdentity(c, domain.Identity{Kind: domain.IdentityAuthenticated, Username: "frank", Workspace: "user_frank"})

	if err := f.handler.Me(c); err != nil {
		t.Fatalf("me failed: %v", err)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["email"] != "frank@example.com" || resp["workspace"] != "user_frank" {
		t.Fatalf("unexpected record: %v", resp)
	}
}

func TestAuthHandler_Me_DeletedUser(t *testing.T) {
	f := newAuthFixture(t)
	_, _ = f.users.Create(context.Background(), "gina", "gina@example.com", "secret1")
	_ = f.users.Delete(context.Background(), "gina")

	// Token outlives the account; the lookup must 404.
	c, _ := f.jsonRequest(http.MethodGet, "/auth/me", "")
	middleware.SetIdentity(c, domain.Identity{Kind: domain.IdentityAuthenticated, Username: "gina", Workspace: "user_gina"})

	if err := f.handler.Me(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestAuthHandler_ChangePassword_WrongOld(t *testing.T) {
	f := newAuthFixture(t)
	_, _ = f.users.Create(context.Background(), "hank", "hank@example.com", "secret1")
	before, _ := f.users.Get("hank")

	c, _ := f.jsonRequest(http.MethodPut, "/auth/change-password", `{"old_password":"wrong","new_password":"brandnew"}`)
	middleware.SetIdentity(c, domain.Identity{Kind: domain.IdentityAuthenticated, Username: "hank"})

	if err := f.handler.ChangePassword(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	after, _ := f.users.Get("hank")
	if after.PasswordHash != before.PasswordHash {
		t.Fatalf("stored hash changed on failed password change")
	}
	if _, err := f.users.Authenticate(context.Background(), "hank", "secret1"); err != nil {
		t.Fatalf("original password no longer works: %v", err)
	}
}

func TestAuthHandler_ChangePassword_Success(t *testing.T) {
	f := newAuthFixture(t)
	_, _ = f.users.Create(context.Background(), "iris", "iris@example.com", "secret1")

	c, rec := f.jsonRequest(http.MethodPut, "/auth/change-password", `{"old_password":"secret1","new_password":"secret2"}`)
	middleware.SetIdentity(c, domain.Identity{Kind: domain.IdentityAuthenticated, Username: "iris"})

	if err := f.handler.ChangePassword(c); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, err := f.users.Authenticate(context.Background(), "iris", "secret2"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestAuthHandler_Verify(t *testing.T) {
	f := newAuthFixture(t)
	_, _ = f.users.Create(context.Background(), "judy", "judy@example.com", "secret1")

	c, rec := f.jsonRequest(http.MethodGet, "/auth/verify", "")
	middleware.SetIdentity(c, domain.Identity{Kind: domain.IdentityAuthenticated, Username: "judy", Workspace: "user_judy"})

	if err := f.handler.Verify(c); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["valid"] != true || resp["username"] != "judy" || resp["workspace"] != "user_judy" || resp["email"] != "judy@example.com" {
		t.Fatalf("unexpected response: %v", resp)
	}
}
