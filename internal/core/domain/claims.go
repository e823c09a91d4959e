package domain

import "time"

// SessionClaims is the decoded payload of a signed session token.
// Claims are immutable once issued; validity depends only on the
// signature and the clock, never on server-side state.
type SessionClaims struct {
	Subject   string
	Workspace string
	Email     string
	Role      string
	ExpiresAt time.Time
	Metadata  map[string]string
}
