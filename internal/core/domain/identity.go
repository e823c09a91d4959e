package domain

// IdentityKind classifies how a request was authenticated.
type IdentityKind string

const (
	// IdentityAuthenticated is a caller with valid session claims.
	IdentityAuthenticated IdentityKind = "authenticated"
	// IdentityAPIKey is a caller holding the static service API key.
	// It operates in the shared default workspace, not a user one.
	IdentityAPIKey IdentityKind = "api_key"
	// IdentityAnonymous is an unauthenticated caller admitted because
	// auth enforcement is off.
	IdentityAnonymous IdentityKind = "anonymous"
)

// Identity is the per-request resolution outcome. It lives in the
// request scope only and is never persisted. A rejected request is
// expressed as an error, not an Identity value.
type Identity struct {
	Kind     IdentityKind
	Username string
	Role     string
	// Workspace is empty for API-key and anonymous callers, which map
	// to the shared default namespace.
	Workspace string
}

// AnonymousIdentity is the identity attached when enforcement is off
// and no credentials were presented (or presented and unusable).
func AnonymousIdentity() Identity {
	return Identity{Kind: IdentityAnonymous, Username: "anonymous"}
}

// APIKeyIdentity is the identity attached on a static-key match.
func APIKeyIdentity() Identity {
	return Identity{Kind: IdentityAPIKey, Username: "api_user"}
}
