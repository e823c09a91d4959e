package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/graphrag/tenantgate/internal/core/ports"
)

// UsersHandler exposes account administration over HTTP. All routes sit
// behind the admin role.
type UsersHandler struct {
	users ports.UserService
}

func NewUsersHandler(users ports.UserService) *UsersHandler {
	return &UsersHandler{users: users}
}

type updateUserRequest struct {
	Email    *string           `json:"email,omitempty" validate:"omitempty,email"`
	IsActive *bool             `json:"is_active,omitempty"`
	Password *string           `json:"password,omitempty" validate:"omitempty,min=6"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// List returns all registered accounts.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {array}  domain.User
// @Router       /auth/users [get]
func (h *UsersHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.users.List())
}

// Update mutates the whitelisted fields of an account: email, active
// flag, metadata, and password (which re-salts the hash).
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        username  path      string             true  "Username"
// @Param        body      body      updateUserRequest  true  "Fields to update"
// @Success      200       {object}  domain.User
// @Failure      404       {object}  map[string]string
// @Router       /auth/users/{username} [put]
func (h *UsersHandler) Update(c echo.Context) error {
	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.Update(c.Request().Context(), c.Param("username"), ports.UserUpdate{
		Email:    req.Email,
		IsActive: req.IsActive,
		Password: req.Password,
		Metadata: req.Metadata,
	})
	if err != nil {
		return err
	}
	if err := h.users.Persist(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Delete removes an account. Outstanding tokens for it keep validating
// until expiry but /auth/me will return 404.
//
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Router       /auth/users/{username} [delete]
func (h *UsersHandler) Delete(c echo.Context) error {
	username := c.Param("username")
	if err := h.users.Delete(c.Request().Context(), username); err != nil {
		return err
	}
	if err := h.users.Persist(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "user deleted"})
}
