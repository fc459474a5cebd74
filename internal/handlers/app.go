package handlers

import (
	"context"
	"net/http"
)

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// StatsStore exposes the collection counters for /stats.
type StatsStore interface {
	CountUsers(ctx context.Context) (int64, error)
	CountFiles(ctx context.Context) (int64, error)
}

// AppHandler serves the service health and stats endpoints.
type AppHandler struct {
	db    HealthChecker
	cache HealthChecker
	stats StatsStore
}

// NewAppHandler creates the app handler.
func NewAppHandler(db, cache HealthChecker, stats StatsStore) *AppHandler {
	return &AppHandler{db: db, cache: cache, stats: stats}
}

// GetStatus handles GET /status
func (h *AppHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	respondJSON(w, http.StatusOK, map[string]bool{
		"redis": h.cache.Ping(ctx) == nil,
		"db":    h.db.Ping(ctx) == nil,
	})
}

// GetStats handles GET /stats
func (h *AppHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.stats.CountUsers(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	files, err := h.stats.CountFiles(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"users": users, "files": files})
}
