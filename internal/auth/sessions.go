package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/maneesh/filevault/internal/models"
	"github.com/maneesh/filevault/internal/storage"
)

const (
	// SessionTTL is the fixed lifetime of a session token. Presenting a
	// token does not extend it.
	SessionTTL = 86400 * time.Second

	// sessionKeyPrefix namespaces session entries in the cache.
	sessionKeyPrefix = "auth_"
)

// Cache is the expiring key-value store backing sessions. All operations
// are single-key and atomic.
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}

// Sessions issues, resolves, and revokes opaque session tokens. A token
// that does not resolve to a live session behaves identically to no
// token at all.
type Sessions struct {
	cache Cache
	users UserStore
}

// NewSessions creates a session store over a cache and a user store.
func NewSessions(cache Cache, users UserStore) *Sessions {
	return &Sessions{cache: cache, users: users}
}

// Issue generates a fresh opaque token for user, valid for SessionTTL.
// The mapping is readable by Resolve as soon as Issue returns.
func (s *Sessions) Issue(ctx context.Context, user *models.User) (string, error) {
	token := uuid.New().String()
	if err := s.cache.Set(ctx, sessionKeyPrefix+token, user.ID, SessionTTL); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve maps a token back to its user. Empty, unknown, and expired
// tokens all yield (nil, nil). A hit whose user no longer exists also
// yields nil; that should not occur under normal operation.
func (s *Sessions) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}

	userID, err := s.cache.Get(ctx, sessionKeyPrefix+token)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return user, nil
}

// Revoke deletes the session unconditionally. Revoking an expired or
// unknown token is a no-op, not an error.
func (s *Sessions) Revoke(ctx context.Context, token string) error {
	return s.cache.Del(ctx, sessionKeyPrefix+token)
}
