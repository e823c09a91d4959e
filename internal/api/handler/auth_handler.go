package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphrag/tenantgate/internal/core/domain"
	"github.com/graphrag/tenantgate/internal/core/ports"
)

type AuthHandler struct {
	users  ports.UserService
	tokens ports.TokenService
}

func NewAuthHandler(users ports.UserService, tokens ports.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Workspace   string `json:"workspace"`
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=2,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type verifyResponse struct {
	Valid     bool   `json:"valid"`
	Username  string `json:"username"`
	Workspace string `json:"workspace"`
	Email     string `json:"email"`
}

// Login authenticates a username/password pair and issues a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	role := user.Metadata["role"]
	if role == "" {
		role = domain.RoleUser
	}
	token, err := h.tokens.Issue(user.Username, role, ports.TokenOptions{
		Workspace: user.Workspace,
		Email:     user.Email,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Username:    user.Username,
		Email:       user.Email,
		Workspace:   user.Workspace,
	})
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  domain.User
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.Create(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	if err := h.users.Persist(c.Request().Context()); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, user)
}

// Me returns the account record behind the presented token. The account
// may have been deleted since issuance; stateless tokens outlive it.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.User
// @Failure      404  {object}  map[string]string
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	user, err := h.users.Get(id.Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Verify reports whether the presented token is valid, echoing its
// identity claims.
//
// @Summary      Verify token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  verifyResponse
// @Router       /auth/verify [get]
func (h *AuthHandler) Verify(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	email := ""
	if user, err := h.users.Get(id.Username); err == nil {
		email = user.Email
	}
	return c.JSON(http.StatusOK, verifyResponse{
		Valid:     true,
		Username:  id.Username,
		Workspace: id.Workspace,
		Email:     email,
	})
}

// Logout acknowledges a logout. Tokens are stateless and not revoked;
// the client discards its copy.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if _, err := ctxIdentity(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// ChangePassword rotates the caller's password after verifying the old
// one. A wrong old password leaves the stored hash unchanged.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Old and new password"
// @Success      200   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/change-password [put]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.users.ChangePassword(c.Request().Context(), id.Username, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	if err := h.users.Persist(c.Request().Context()); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "password changed successfully"})
}
