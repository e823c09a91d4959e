package domain

import "errors"

// Sentinel errors for the identity layer. Handlers never build status
// codes from these directly; the central HTTP error handler owns that
// mapping so every rejection carries a stable machine-readable code.
var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")

	// ErrPersistence marks a failed durable save of the user store. The
	// in-memory state is still intact; only the write to disk was lost.
	ErrPersistence = errors.New("user store persistence failed")

	// ErrInvalidCredentials covers unknown username, disabled account and
	// wrong password alike. Callers must not be able to tell them apart.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("malformed token")

	ErrAuthRequired = errors.New("authentication required")
	ErrForbidden    = errors.New("access forbidden")
)
