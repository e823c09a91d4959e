package ports

import (
	"context"

	"github.com/graphrag/tenantgate/internal/core/domain"
)

// UserUpdate is the whitelisted mutable subset of a credential record.
// Nil fields are left untouched. A non-nil Password regenerates the
// salt and hash; the plaintext is never stored.
type UserUpdate struct {
	Email    *string
	IsActive *bool
	Password *string
	Metadata map[string]string
}

// UserService owns credential records: creation, verification and the
// whitelisted mutations. Mutations are in-memory side effects; callers
// decide when to Persist.
type UserService interface {
	Create(ctx context.Context, username, email, password string) (*domain.User, error)
	// Authenticate returns domain.ErrInvalidCredentials for unknown
	// username, inactive account and wrong password alike.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	Get(username string) (*domain.User, error)
	List() []*domain.User
	Update(ctx context.Context, username string, upd UserUpdate) (*domain.User, error)
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error
	Delete(ctx context.Context, username string) error
	Persist(ctx context.Context) error
}
