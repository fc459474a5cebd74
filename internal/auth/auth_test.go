package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/maneesh/filevault/internal/models"
	"github.com/maneesh/filevault/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	err     error
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	f := &fakeUserStore{
		byEmail: map[string]*models.User{},
		byID:    map[string]*models.User{},
	}
	for _, u := range users {
		f.byEmail[u.Email] = u
		f.byID[u.ID] = u
	}
	return f
}

func TestHashPassword(t *testing.T) {
	// Known SHA-1 vector.
	assert.Equal(t, "8cb2237d0679ca88db6464eac60da96345513964", HashPassword("12345"))
	assert.NotEqual(t, HashPassword("a"), HashPassword("b"))
}

func TestParseBasicAuth(t *testing.T) {
	encode := func(s string) string {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(s))
	}

	tests := []struct {
		name     string
		header   string
		email    string
		password string
		ok       bool
	}{
		{name: "valid", header: encode("bob@dylan.com:toto1234!"), email: "bob@dylan.com", password: "toto1234!", ok: true},
		{name: "password with colon", header: encode("bob@dylan.com:to:to"), email: "bob@dylan.com", password: "to:to", ok: true},
		{name: "empty password", header: encode("bob@dylan.com:"), email: "bob@dylan.com", password: "", ok: true},
		{name: "no colon", header: encode("bobdylan.com"), ok: false},
		{name: "not basic", header: "Bearer abc", ok: false},
		{name: "bad base64", header: "Basic !!!", ok: false},
		{name: "empty header", header: "", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			email, password, ok := ParseBasicAuth(tc.header)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.email, email)
				assert.Equal(t, tc.password, password)
			}
		})
	}
}

func TestVerifier(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: "u1", Email: "bob@dylan.com", PasswordHash: HashPassword("toto1234!")}
	v := NewVerifier(newFakeUserStore(user))

	t.Run("valid credentials", func(t *testing.T) {
		got, err := v.Verify(ctx, "bob@dylan.com", "toto1234!")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "u1", got.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		got, err := v.Verify(ctx, "bob@dylan.com", "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("unknown email", func(t *testing.T) {
		got, err := v.Verify(ctx, "nobody@dylan.com", "toto1234!")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		broken := NewVerifier(&fakeUserStore{err: errors.New("db down")})
		_, err := broken.Verify(ctx, "bob@dylan.com", "toto1234!")
		require.Error(t, err)
	})
}
