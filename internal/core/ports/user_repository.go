package ports

import (
	"context"

	"github.com/graphrag/tenantgate/internal/core/domain"
)

// UserRepository is the durable store of credential records. Lookups and
// mutations operate on the in-memory map and take no context; Persist is
// the only suspension point and serializes the whole map to disk.
// Implementations return copies, never aliases into their own state.
type UserRepository interface {
	Get(username string) (*domain.User, bool)
	// Create fails with domain.ErrUserExists on a duplicate username.
	Create(user *domain.User) error
	// Update replaces an existing record, domain.ErrUserNotFound if absent.
	Update(user *domain.User) error
	Delete(username string) bool
	List() []*domain.User
	Len() int
	// Persist writes the full map atomically. Errors always propagate;
	// a silently lost save is never acceptable.
	Persist(ctx context.Context) error
}
