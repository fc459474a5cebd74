package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/maneesh/filevault/internal/auth"
	"github.com/maneesh/filevault/internal/models"
	"github.com/maneesh/filevault/internal/storage"
)

// UserRegistry is the slice of the document store registration needs.
type UserRegistry interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// UsersHandler serves registration and the current-user endpoint.
type UsersHandler struct {
	users    UserRegistry
	sessions SessionResolver
}

// NewUsersHandler creates the users handler.
func NewUsersHandler(users UserRegistry, sessions SessionResolver) *UsersHandler {
	return &UsersHandler{users: users, sessions: sessions}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PostNew handles POST /users
func (h *UsersHandler) PostNew(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = registerRequest{}
	}

	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "Missing email")
		return
	}
	if req.Password == "" {
		respondError(w, http.StatusBadRequest, "Missing password")
		return
	}

	_, err := h.users.GetUserByEmail(ctx, req.Email)
	if err == nil {
		respondError(w, http.StatusBadRequest, "Already exists")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: auth.HashPassword(req.Password),
		CreatedAt:    time.Now(),
	}
	if err := h.users.CreateUser(ctx, user); err != nil {
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{
		"id":    user.ID,
		"email": user.Email,
	})
}

// GetMe handles GET /users/me
func (h *UsersHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.sessions.Resolve(ctx, r.Header.Get(TokenHeader))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if user == nil {
		respondUnauthorized(w)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"id":    user.ID,
		"email": user.Email,
	})
}
