package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/maneesh/filevault/internal/files"
	"github.com/maneesh/filevault/internal/models"
)

// FileService is the file-tree surface the HTTP layer consumes.
type FileService interface {
	CreateFolder(ctx context.Context, ownerID, name, parentID string, isPublic bool) (*models.FileNode, error)
	CreateContent(ctx context.Context, ownerID, name, kind, parentID string, isPublic bool, data []byte) (*models.FileNode, error)
	Get(ctx context.Context, id, requesterID string) (*models.FileNode, error)
	List(ctx context.Context, ownerID, parentID string, page int) ([]*models.FileNode, error)
	SetVisibility(ctx context.Context, id, ownerID string, isPublic bool) (*models.FileNode, error)
	Download(ctx context.Context, id, requesterID string, size int) ([]byte, string, error)
}

// FilesHandler serves the file tree endpoints.
type FilesHandler struct {
	svc      FileService
	sessions SessionResolver
}

// NewFilesHandler creates the files handler.
func NewFilesHandler(svc FileService, sessions SessionResolver) *FilesHandler {
	return &FilesHandler{svc: svc, sessions: sessions}
}

type uploadRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID any    `json:"parentId"`
	IsPublic bool   `json:"isPublic"`
	Data     string `json:"data"`
}

// parentID normalizes the flexible parentId field: absent, 0, and "0"
// all mean the root sentinel.
func (req *uploadRequest) parentID() string {
	switch v := req.ParentID.(type) {
	case string:
		if v == "" {
			return models.RootParentID
		}
		return v
	case float64:
		if v == 0 {
			return models.RootParentID
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return models.RootParentID
	}
}

// validate mirrors the upload field checks: name, recognized type, and
// data for non-folder kinds. Returns the error reason or "".
func (req *uploadRequest) validate() string {
	if req.Name == "" {
		return "Missing name"
	}
	if !models.ValidType(req.Type) {
		return "Missing type"
	}
	if req.Data == "" && req.Type != models.TypeFolder {
		return "Missing data"
	}
	return ""
}

// PostUpload handles POST /files
func (h *FilesHandler) PostUpload(w http.ResponseWriter, r *http.Request) {
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

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req = uploadRequest{}
	}
	if reason := req.validate(); reason != "" {
		respondError(w, http.StatusBadRequest, reason)
		return
	}

	var node *models.FileNode
	if req.Type == models.TypeFolder {
		node, err = h.svc.CreateFolder(ctx, user.ID, req.Name, req.parentID(), req.IsPublic)
	} else {
		var data []byte
		data, err = base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			// Present but undecodable, a different defect than absence.
			respondError(w, http.StatusBadRequest, "Invalid data")
			return
		}
		node, err = h.svc.CreateContent(ctx, user.ID, req.Name, req.Type, req.parentID(), req.IsPublic, data)
	}

	switch {
	case errors.Is(err, files.ErrParentNotFound):
		respondError(w, http.StatusBadRequest, "Parent not found")
		return
	case errors.Is(err, files.ErrParentNotFolder):
		respondError(w, http.StatusBadRequest, "Parent is not a folder")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	respondJSON(w, http.StatusCreated, node)
}

// GetShow handles GET /files/{id}
func (h *FilesHandler) GetShow(w http.ResponseWriter, r *http.Request) {
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

	node, err := h.svc.Get(ctx, mux.Vars(r)["id"], user.ID)
	if errors.Is(err, files.ErrNotFound) {
		respondNotFound(w)
		return
	} else if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	respondJSON(w, http.StatusOK, node)
}

// GetIndex handles GET /files?parentId=&page=
func (h *FilesHandler) GetIndex(w http.ResponseWriter, r *http.Request) {
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

	parentID := r.URL.Query().Get("parentId")
	if parentID == "" {
		parentID = models.RootParentID
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		page = 0
	}

	nodes, err := h.svc.List(ctx, user.ID, parentID, page)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	respondJSON(w, http.StatusOK, nodes)
}

// PutPublish handles PUT /files/{id}/publish
func (h *FilesHandler) PutPublish(w http.ResponseWriter, r *http.Request) {
	h.updateVisibility(w, r, true)
}

// PutUnpublish handles PUT /files/{id}/unpublish
func (h *FilesHandler) PutUnpublish(w http.ResponseWriter, r *http.Request) {
	h.updateVisibility(w, r, false)
}

func (h *FilesHandler) updateVisibility(w http.ResponseWriter, r *http.Request, isPublic bool) {
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

	node, err := h.svc.SetVisibility(ctx, mux.Vars(r)["id"], user.ID, isPublic)
	if errors.Is(err, files.ErrNotFound) {
		respondNotFound(w)
		return
	} else if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	respondJSON(w, http.StatusOK, node)
}

// GetFile handles GET /files/{id}/data?size=. The token is optional
// here: public files are readable without a session.
func (h *FilesHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requesterID := ""
	if token := r.Header.Get(TokenHeader); token != "" {
		user, err := h.sessions.Resolve(ctx, token)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		if user != nil {
			requesterID = user.ID
		}
	}

	size := 0
	if s := r.URL.Query().Get("size"); s != "" {
		size, _ = strconv.Atoi(s)
	}

	data, contentType, err := h.svc.Download(ctx, mux.Vars(r)["id"], requesterID, size)
	switch {
	case errors.Is(err, files.ErrNotFound):
		respondNotFound(w)
		return
	case errors.Is(err, files.ErrFolderNoContent):
		respondError(w, http.StatusBadRequest, "A folder doesn't have content")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
