// Package auth implements credential verification and the session-token
// lifecycle. Credentials are checked against stored password digests;
// sessions are opaque tokens mapped to user ids in an expiring cache.
package auth

import (
	"context"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/maneesh/filevault/internal/models"
	"github.com/maneesh/filevault/internal/storage"
)

// UserStore is the slice of the document store the auth layer needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// HashPassword returns the hex SHA-1 digest of a plaintext password.
func HashPassword(password string) string {
	sum := sha1.Sum([]byte(password))
	return hex.EncodeToString(sum[:])
}

// ParseBasicAuth extracts the email and password from an HTTP Basic
// Authorization header value. Returns ok=false for anything malformed.
func ParseBasicAuth(header string) (email, password string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}

	credentials := string(decoded)
	if !strings.Contains(credentials, ":") {
		return "", "", false
	}

	parts := strings.SplitN(credentials, ":", 2)
	return parts[0], parts[1], true
}

// Verifier validates email/password pairs against stored digests.
type Verifier struct {
	users UserStore
}

// NewVerifier creates a credential verifier backed by a user store.
func NewVerifier(users UserStore) *Verifier {
	return &Verifier{users: users}
}

// Verify returns the matching user, or nil when either the email is
// unknown or the password digest does not match. The two cases are not
// distinguishable to the caller. No side effects.
func (v *Verifier) Verify(ctx context.Context, email, password string) (*models.User, error) {
	user, err := v.users.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	digest := HashPassword(password)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(user.PasswordHash)) != 1 {
		return nil, nil
	}
	return user, nil
}
