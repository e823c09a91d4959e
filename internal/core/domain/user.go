package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// WorkspacePrefix is prepended to a username to derive the account's
// storage namespace. The workspace is fixed at account creation and
// never changes for the life of the account.
const WorkspacePrefix = "user_"

// User models a registered account. PasswordHash and Salt are never
// rendered in API responses.
type User struct {
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"-"`
	Salt         string            `json:"-"`
	Workspace    string            `json:"workspace"`
	IsActive     bool              `json:"is_active"`
	CreatedAt    time.Time         `json:"created_at"`
	LastLogin    *time.Time        `json:"last_login,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// WorkspaceFor derives the storage namespace for a username.
func WorkspaceFor(username string) string {
	return WorkspacePrefix + username
}
