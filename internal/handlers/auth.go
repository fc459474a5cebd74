package handlers

import (
	"context"
	"net/http"

	"github.com/maneesh/filevault/internal/auth"
	"github.com/maneesh/filevault/internal/models"
)

// CredentialVerifier validates an email/password pair; nil means no match.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*models.User, error)
}

// SessionStore is the full session lifecycle used by login and logout.
type SessionStore interface {
	SessionResolver
	Issue(ctx context.Context, user *models.User) (string, error)
	Revoke(ctx context.Context, token string) error
}

// AuthHandler serves login (Basic auth) and logout (token) endpoints.
type AuthHandler struct {
	verifier CredentialVerifier
	sessions SessionStore
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(verifier CredentialVerifier, sessions SessionStore) *AuthHandler {
	return &AuthHandler{verifier: verifier, sessions: sessions}
}

// GetConnect handles GET /connect
func (h *AuthHandler) GetConnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email, password, ok := auth.ParseBasicAuth(r.Header.Get("Authorization"))
	if !ok {
		respondUnauthorized(w)
		return
	}

	user, err := h.verifier.Verify(ctx, email, password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if user == nil {
		respondUnauthorized(w)
		return
	}

	token, err := h.sessions.Issue(ctx, user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// GetDisconnect handles GET /disconnect
func (h *AuthHandler) GetDisconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := r.Header.Get(TokenHeader)

	user, err := h.sessions.Resolve(ctx, token)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if user == nil {
		respondUnauthorized(w)
		return
	}

	if err := h.sessions.Revoke(ctx, token); err != nil {
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
