// Package jsonfile implements the user repository on a single JSON file,
// mirroring the in-memory map to disk on every explicit Persist call.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/graphrag/tenantgate/internal/api/metrics"
	"github.com/graphrag/tenantgate/internal/core/domain"
)

// storedUser is the on-disk schema. Timestamps serialize as RFC 3339.
// Unlike domain.User, the hash and salt are written out; the file is the
// system of record.
type storedUser struct {
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"password_hash"`
	Salt         string            `json:"salt"`
	Workspace    string            `json:"workspace"`
	IsActive     bool              `json:"is_active"`
	CreatedAt    time.Time         `json:"created_at"`
	LastLogin    *time.Time        `json:"last_login,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// UserRepository keeps all credential records in memory behind a single
// coarse lock (per-username contention is low) and serializes the full
// map to one durable file.
type UserRepository struct {
	path string
	log  zerolog.Logger

	mu    sync.RWMutex
	users map[string]domain.User
}

func NewUserRepository(path string, log zerolog.Logger) *UserRepository {
	return &UserRepository{
		path:  path,
		log:   log,
		users: make(map[string]domain.User),
	}
}

// Load reads the users file into memory. A missing file is a normal
// first run. A corrupt or unreadable file degrades to an empty store
// with a logged warning so startup never aborts on bad state; save
// errors, by contrast, always propagate from Persist.
// Returns true when a file was present, readable or not.
func (r *UserRepository) Load(ctx context.Context) bool {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			r.log.Warn().Err(err).Str("path", r.path).Msg("users file unreadable, starting with empty store")
			return true
		}
		return false
	}

	var stored map[string]storedUser
	if err := json.Unmarshal(data, &stored); err != nil {
		r.log.Warn().Err(err).Str("path", r.path).Msg("users file corrupt, starting with empty store")
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = make(map[string]domain.User, len(stored))
	for username, su := range stored {
		r.users[username] = domain.User{
			Username:     su.Username,
			Email:        su.Email,
			PasswordHash: su.PasswordHash,
			Salt:         su.Salt,
			Workspace:    su.Workspace,
			IsActive:     su.IsActive,
			CreatedAt:    su.CreatedAt,
			LastLogin:    su.LastLogin,
			Metadata:     su.Metadata,
		}
	}
	r.log.Info().Int("users", len(r.users)).Str("path", r.path).Msg("users loaded")
	return true
}

func (r *UserRepository) Get(username string) (*domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return nil, false
	}
	return cloneUser(&u), true
}

func (r *UserRepository) Create(user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Username]; exists {
		return domain.ErrUserExists
	}
	r.users[user.Username] = *cloneUser(user)
	return nil
}

func (r *UserRepository) Update(user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Username]; !exists {
		return domain.ErrUserNotFound
	}
	r.users[user.Username] = *cloneUser(user)
	return nil
}

func (r *UserRepository) Delete(username string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[username]; !exists {
		return false
	}
	delete(r.users, username)
	return true
}

func (r *UserRepository) List() []*domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(&u))
	}
	return out
}

func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// Persist writes the full user map to the users file atomically: the
// snapshot is serialized to a temp file in the same directory, synced,
// then renamed over the target so a crash mid-write can never leave a
// truncated file behind.
func (r *UserRepository) Persist(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.RLock()
	stored := make(map[string]storedUser, len(r.users))
	for username, u := range r.users {
		stored[username] = storedUser{
			Username:     u.Username,
			Email:        u.Email,
			PasswordHash: u.PasswordHash,
			Salt:         u.Salt,
			Workspace:    u.Workspace,
			IsActive:     u.IsActive,
			CreatedAt:    u.CreatedAt,
			LastLogin:    u.LastLogin,
			Metadata:     u.Metadata,
		}
	}
	r.mu.RUnlock()

	if err := r.writeAtomic(stored); err != nil {
		metrics.UsersPersistTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	metrics.UsersPersistTotal.WithLabelValues("success").Inc()
	return nil
}

func (r *UserRepository) writeAtomic(stored map[string]storedUser) error {
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".users-*.json")
	if err != nil {
		return err
	}
	defer func() {
		// No-op after a successful rename.
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	if u.LastLogin != nil {
		t := *u.LastLogin
		clone.LastLogin = &t
	}
	if u.Metadata != nil {
		clone.Metadata = make(map[string]string, len(u.Metadata))
		for k, v := range u.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}
