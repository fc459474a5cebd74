// Package files implements the hierarchical file-metadata tree layered
// over the flat document store. Folders and content nodes form a forest
// per user; parent links point only at pre-existing folders, so cycles
// cannot arise structurally.
package files

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/maneesh/filevault/internal/models"
	"github.com/maneesh/filevault/internal/storage"
	"github.com/maneesh/filevault/internal/thumbs"
)

// PageSize is the fixed page size for listings.
const PageSize = 20

var (
	// ErrNotFound covers both absent nodes and nodes the requester may
	// not see. Unauthorized access is indistinguishable from nonexistence.
	ErrNotFound = errors.New("file not found")
	// ErrParentNotFound means the parent id resolves to nothing.
	ErrParentNotFound = errors.New("parent not found")
	// ErrParentNotFolder means the parent exists but is not a folder.
	ErrParentNotFolder = errors.New("parent is not a folder")
	// ErrFolderNoContent means a download was requested for a folder.
	ErrFolderNoContent = errors.New("a folder doesn't have content")
)

// FileStore is the slice of the document store the tree needs.
type FileStore interface {
	CreateFile(ctx context.Context, node *models.FileNode) error
	GetFileByID(ctx context.Context, id string) (*models.FileNode, error)
	GetFileByIDAndOwner(ctx context.Context, id, ownerID string) (*models.FileNode, error)
	ListFiles(ctx context.Context, ownerID, parentID string, limit, offset int) ([]*models.FileNode, error)
	SetFilePublic(ctx context.Context, id, ownerID string, isPublic bool) error
}

// Enqueuer hands a thumbnail job to the work queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, job models.ThumbnailJob) error
}

// Service validates and mutates the file tree and delegates byte
// persistence to the blob store.
type Service struct {
	store FileStore
	blobs storage.BlobStore
	queue Enqueuer
}

// NewService constructs the file tree service.
func NewService(store FileStore, blobs storage.BlobStore, queue Enqueuer) *Service {
	return &Service{store: store, blobs: blobs, queue: queue}
}

// validateParent enforces that a non-root parent exists and is a folder.
func (s *Service) validateParent(ctx context.Context, parentID string) error {
	if parentID == models.RootParentID {
		return nil
	}

	parent, err := s.store.GetFileByID(ctx, parentID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrParentNotFound
	} else if err != nil {
		return err
	}
	if !parent.IsFolder() {
		return ErrParentNotFolder
	}
	return nil
}

// CreateFolder inserts a folder node under parentID. Folders never carry
// a storage path.
func (s *Service) CreateFolder(ctx context.Context, ownerID, name, parentID string, isPublic bool) (*models.FileNode, error) {
	if err := s.validateParent(ctx, parentID); err != nil {
		return nil, err
	}

	node := &models.FileNode{
		ID:       uuid.New().String(),
		UserID:   ownerID,
		Name:     name,
		Type:     models.TypeFolder,
		IsPublic: isPublic,
		ParentID: parentID,
	}
	if err := s.store.CreateFile(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// CreateContent persists the blob, then inserts a file or image node
// referencing it. For images, a thumbnail job is enqueued after the node
// is durably created; an enqueue failure is logged and swallowed, never
// surfaced to the uploader.
func (s *Service) CreateContent(ctx context.Context, ownerID, name, kind, parentID string, isPublic bool, data []byte) (*models.FileNode, error) {
	if kind != models.TypeFile && kind != models.TypeImage {
		return nil, fmt.Errorf("unsupported content kind: %s", kind)
	}
	if err := s.validateParent(ctx, parentID); err != nil {
		return nil, err
	}

	path, err := s.blobs.Write(ctx, data)
	if err != nil {
		return nil, err
	}

	node := &models.FileNode{
		ID:        uuid.New().String(),
		UserID:    ownerID,
		Name:      name,
		Type:      kind,
		IsPublic:  isPublic,
		ParentID:  parentID,
		LocalPath: path,
	}
	if err := s.store.CreateFile(ctx, node); err != nil {
		return nil, err
	}

	if kind == models.TypeImage {
		job := models.ThumbnailJob{UserID: ownerID, FileID: node.ID}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			log.Printf("Warning: failed to enqueue thumbnail job for file %s: %v", node.ID, err)
		}
	}
	return node, nil
}

// Get returns the node when it is public or owned by requesterID.
// Anything else reads as not found.
func (s *Service) Get(ctx context.Context, id, requesterID string) (*models.FileNode, error) {
	node, err := s.store.GetFileByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	if !node.IsPublic && node.UserID != requesterID {
		return nil, ErrNotFound
	}
	return node, nil
}

// List returns one page of the owner's nodes under parentID, in
// insertion order. A parent that does not resolve to an existing folder
// yields an empty page, not an error; callers cannot tell "no such
// folder" from "empty folder".
func (s *Service) List(ctx context.Context, ownerID, parentID string, page int) ([]*models.FileNode, error) {
	if page < 0 {
		page = 0
	}

	if parentID != models.RootParentID {
		parent, err := s.store.GetFileByID(ctx, parentID)
		if errors.Is(err, storage.ErrNotFound) {
			return []*models.FileNode{}, nil
		} else if err != nil {
			return nil, err
		}
		if !parent.IsFolder() {
			return []*models.FileNode{}, nil
		}
	}

	return s.store.ListFiles(ctx, ownerID, parentID, PageSize, PageSize*page)
}

// SetVisibility flips the visibility flag on a node owned by ownerID and
// returns the updated node. A node owned by someone else reports not
// found, never revealing its existence.
func (s *Service) SetVisibility(ctx context.Context, id, ownerID string, isPublic bool) (*models.FileNode, error) {
	err := s.store.SetFilePublic(ctx, id, ownerID, isPublic)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	node, err := s.store.GetFileByIDAndOwner(ctx, id, ownerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return node, nil
}

// Download resolves the blob bytes for a node, honoring visibility.
// For images, a supported size selects the derived variant; an
// unsupported size falls through to the original. The MIME type is
// derived from the display name.
func (s *Service) Download(ctx context.Context, id, requesterID string, size int) ([]byte, string, error) {
	node, err := s.store.GetFileByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", ErrNotFound
	} else if err != nil {
		return nil, "", err
	}

	if !node.IsPublic && node.UserID != requesterID {
		return nil, "", ErrNotFound
	}
	if node.IsFolder() {
		return nil, "", ErrFolderNoContent
	}

	path := node.LocalPath
	if node.Type == models.TypeImage && thumbs.SupportedWidth(size) {
		path = storage.VariantPath(path, size)
	}

	data, err := s.blobs.Read(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", ErrNotFound
	} else if err != nil {
		return nil, "", err
	}

	return data, ContentType(node.Name), nil
}

// ContentType maps a display name to a MIME type, defaulting to an
// opaque byte stream.
func ContentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
