package auth

import (
	"context"
	"testing"
	"time"

	"github.com/maneesh/filevault/internal/models"
	"github.com/maneesh/filevault/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCache is an in-memory expiring key-value store with a controllable
// clock.
type fakeCache struct {
	now     time.Time
	entries map[string]fakeEntry
	setErr  error
}

type fakeEntry struct {
	value   string
	expires time.Time
}

func newFakeCache() *fakeCache {
	return &fakeCache{now: time.Now(), entries: map[string]fakeEntry{}}
}

func (f *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = fakeEntry{value: value, expires: f.now.Add(ttl)}
	return nil
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	e, ok := f.entries[key]
	if !ok || !f.now.Before(e.expires) {
		return "", storage.ErrNotFound
	}
	return e.value, nil
}

func (f *fakeCache) Del(ctx context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

func TestSessionsIssueResolve(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: "u1", Email: "bob@dylan.com"}
	cache := newFakeCache()
	sessions := NewSessions(cache, newFakeUserStore(user))

	token, err := sessions.Issue(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Immediately readable after issuance.
	got, err := sessions.Resolve(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.ID)

	// Each login gets its own token.
	second, err := sessions.Issue(ctx, user)
	require.NoError(t, err)
	assert.NotEqual(t, token, second)
}

func TestSessionsResolveAbsent(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessions(newFakeCache(), newFakeUserStore())

	t.Run("empty token", func(t *testing.T) {
		got, err := sessions.Resolve(ctx, "")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("unknown token", func(t *testing.T) {
		got, err := sessions.Resolve(ctx, "deadbeef")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestSessionsExpiry(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: "u1", Email: "bob@dylan.com"}
	cache := newFakeCache()
	sessions := NewSessions(cache, newFakeUserStore(user))

	token, err := sessions.Issue(ctx, user)
	require.NoError(t, err)

	// Just before the TTL elapses the token still resolves.
	cache.now = cache.now.Add(SessionTTL - time.Second)
	got, err := sessions.Resolve(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, got)

	// Once the TTL elapses the token reads as absent.
	cache.now = cache.now.Add(2 * time.Second)
	got, err = sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionsRevoke(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: "u1", Email: "bob@dylan.com"}
	sessions := NewSessions(newFakeCache(), newFakeUserStore(user))

	token, err := sessions.Issue(ctx, user)
	require.NoError(t, err)

	require.NoError(t, sessions.Revoke(ctx, token))

	got, err := sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, got)

	// Revoking again, or revoking garbage, is a no-op.
	require.NoError(t, sessions.Revoke(ctx, token))
	require.NoError(t, sessions.Revoke(ctx, "unknown"))
}

func TestSessionsResolveVanishedUser(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: "gone", Email: "gone@dylan.com"}
	cache := newFakeCache()
	// The cache holds a session for a user the store no longer knows.
	sessions := NewSessions(cache, newFakeUserStore())

	token, err := sessions.Issue(ctx, user)
	require.NoError(t, err)

	got, err := sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, got)
}
