package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/graphrag/tenantgate/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
// Code is a stable machine-readable reason; Error is the human text.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes
//     and stable reason codes an automated client can branch on.
//   - Logs unexpected errors internally without leaking details to the
//     client (token errors in particular never expose signing internals).
//   - Renders a consistent JSON envelope: {"error": ..., "code": ...}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, code, msg := resolveError(err, log, c)
		_ = c.JSON(status, errorResponse{Error: msg, Code: code})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, "http_error", fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic statuses and reason codes.
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "user_exists", "user already exists"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found", "user not found"
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, "token_expired", "token expired"
	case errors.Is(err, domain.ErrTokenMalformed):
		return http.StatusUnauthorized, "token_malformed", "malformed token"
	case errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusUnauthorized, "token_invalid", "invalid token"
	case errors.Is(err, domain.ErrPersistence):
		// The save failed but in-memory state is intact; log the cause,
		// surface a code the client can branch on for retry.
		log.Error().Err(err).Str("path", c.Path()).Msg("user store persist failed")
		return http.StatusInternalServerError, "persistence_error", "failed to save user data"
	case errors.Is(err, domain.ErrAuthRequired):
		return http.StatusUnauthorized, "auth_required", "authentication required"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden", "access forbidden"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal", "internal server error"
}
