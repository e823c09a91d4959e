package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/pbkdf2"

	"github.com/graphrag/tenantgate/internal/api/metrics"
	"github.com/graphrag/tenantgate/internal/core/domain"
	"github.com/graphrag/tenantgate/internal/core/ports"
)

const (
	saltBytes = 16
	hashIters = 100_000
	hashBytes = 32
)

// UserService implements credential storage and verification on top of
// a user repository. All password handling lives here: the repository
// only ever sees the salted hash.
type UserService struct {
	repo ports.UserRepository
	// persistOnLogin makes the last_login update durable on every
	// successful authentication. Off by default: the update is an
	// in-memory side effect and a crash before the next persist loses
	// it, which is accepted staleness.
	persistOnLogin bool
	logger         zerolog.Logger
}

func NewUserService(repo ports.UserRepository, persistOnLogin bool, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, persistOnLogin: persistOnLogin, logger: logger}
}

// Create registers a new account. The workspace is derived from the
// username at creation and never changes afterwards. The record is held
// in memory only; the caller decides when to Persist.
func (s *UserService) Create(ctx context.Context, username, email, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	salt, err := generateSalt()
	if err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashPassword(password, salt),
		Salt:         salt,
		Workspace:    domain.WorkspaceFor(username),
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
		Metadata:     map[string]string{},
	}

	if err := s.repo.Create(user); err != nil {
		return nil, err
	}
	s.logger.Info().Str("username", username).Str("workspace", user.Workspace).Msg("user created")
	return user, nil
}

// Authenticate verifies a username/password pair. Unknown username,
// disabled account and wrong password all fail with the same error so
// callers cannot probe for account existence. On success last_login is
// updated in memory; durability depends on the persist-on-login knob.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, ok := s.repo.Get(username)
	if !ok || !user.IsActive || !verifyPassword(password, user.Salt, user.PasswordHash) {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.repo.Update(user); err != nil {
		return nil, err
	}
	if s.persistOnLogin {
		if err := s.repo.Persist(ctx); err != nil {
			return nil, err
		}
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return user, nil
}

func (s *UserService) Get(username string) (*domain.User, error) {
	user, ok := s.repo.Get(username)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) List() []*domain.User {
	return s.repo.List()
}

// Update mutates the whitelisted fields of an existing account. A new
// password gets a fresh salt; email, active flag and metadata are
// replaced when set.
func (s *UserService) Update(ctx context.Context, username string, upd ports.UserUpdate) (*domain.User, error) {
	user, ok := s.repo.Get(username)
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	if upd.Email != nil {
		user.Email = *upd.Email
	}
	if upd.IsActive != nil {
		user.IsActive = *upd.IsActive
	}
	if upd.Metadata != nil {
		user.Metadata = upd.Metadata
	}
	if upd.Password != nil {
		salt, err := generateSalt()
		if err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
		user.Salt = salt
		user.PasswordHash = hashPassword(*upd.Password, salt)
	}

	if err := s.repo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the old password before rehashing with the
// new one. A wrong old password leaves the stored hash untouched. The
// check is a direct hash comparison, not a login: rotation touches
// neither last_login nor the login metrics.
func (s *UserService) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	user, ok := s.repo.Get(username)
	if !ok || !user.IsActive || !verifyPassword(oldPassword, user.Salt, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}
	_, err := s.Update(ctx, username, ports.UserUpdate{Password: &newPassword})
	return err
}

func (s *UserService) Delete(ctx context.Context, username string) error {
	if !s.repo.Delete(username) {
		return domain.ErrUserNotFound
	}
	s.logger.Info().Str("username", username).Msg("user deleted")
	return nil
}

func (s *UserService) Persist(ctx context.Context) error {
	return s.repo.Persist(ctx)
}

// Seed creates accounts from a configuration-supplied list of
// "username:password" pairs, comma separated. A username containing "@"
// is treated as an email whose local part becomes the username. Used on
// first run when no users file exists yet; individual bad entries are
// logged and skipped rather than failing the whole bootstrap.
func (s *UserService) Seed(ctx context.Context, accounts string) int {
	seeded := 0
	for _, account := range strings.Split(accounts, ",") {
		account = strings.TrimSpace(account)
		if account == "" {
			continue
		}
		name, password, ok := strings.Cut(account, ":")
		if !ok || name == "" || password == "" {
			s.logger.Warn().Str("account", account).Msg("skipping malformed seed account")
			continue
		}

		email := name + "@example.com"
		if at := strings.Index(name, "@"); at > 0 {
			email = name
			name = name[:at]
		}

		if _, err := s.Create(ctx, name, email, password); err != nil {
			s.logger.Warn().Err(err).Str("username", name).Msg("seed account not created")
			continue
		}
		seeded++
	}
	return seeded
}

func generateSalt() (string, error) {
	b := make([]byte, saltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashPassword derives a hex-encoded PBKDF2-SHA256 key from the
// password and the hex salt.
func hashPassword(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), hashIters, hashBytes, sha256.New)
	return hex.EncodeToString(key)
}

func verifyPassword(password, salt, wantHash string) bool {
	got := hashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(wantHash)) == 1
}
