// Package handlers maps HTTP requests onto the auth, files, and storage
// services and translates service errors into stable error bodies.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/maneesh/filevault/internal/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TokenHeader carries the session token on authenticated requests.
const TokenHeader = "X-Token"

// SessionResolver resolves a session token to its user; nil means the
// token is absent, unknown, or expired.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

// respondJSON writes v as a JSON response body.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError writes the stable {"error": reason} body.
func respondError(w http.ResponseWriter, status int, reason string) {
	respondJSON(w, status, map[string]string{"error": reason})
}

func respondUnauthorized(w http.ResponseWriter) {
	respondError(w, http.StatusUnauthorized, "Unauthorized")
}

func respondNotFound(w http.ResponseWriter) {
	respondError(w, http.StatusNotFound, "Not found")
}

// NewRouter wires every route, wrapping each handler with tracing.
func NewRouter(app *AppHandler, users *UsersHandler, authH *AuthHandler, filesH *FilesHandler) *mux.Router {
	router := mux.NewRouter()

	route := func(path, method, name string, h http.HandlerFunc) {
		router.Handle(path, otelhttp.NewHandler(h, name)).Methods(method)
	}

	route("/status", "GET", "GET /status", app.GetStatus)
	route("/stats", "GET", "GET /stats", app.GetStats)

	route("/users", "POST", "POST /users", users.PostNew)
	route("/users/me", "GET", "GET /users/me", users.GetMe)

	route("/connect", "GET", "GET /connect", authH.GetConnect)
	route("/disconnect", "GET", "GET /disconnect", authH.GetDisconnect)

	route("/files", "POST", "POST /files", filesH.PostUpload)
	route("/files", "GET", "GET /files", filesH.GetIndex)
	route("/files/{id}", "GET", "GET /files/{id}", filesH.GetShow)
	route("/files/{id}/publish", "PUT", "PUT /files/{id}/publish", filesH.PutPublish)
	route("/files/{id}/unpublish", "PUT", "PUT /files/{id}/unpublish", filesH.PutUnpublish)
	route("/files/{id}/data", "GET", "GET /files/{id}/data", filesH.GetFile)

	return router
}
