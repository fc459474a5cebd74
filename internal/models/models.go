package models

import "time"

// Node types accepted by the upload endpoint.
const (
	TypeFolder = "folder"
	TypeFile   = "file"
	TypeImage  = "image"
)

// RootParentID is the sentinel parent id for top-level nodes.
const RootParentID = "0"

// User is a registered account. PasswordHash holds a hex SHA-1 digest,
// never the plaintext.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// FileNode is one entry in a user's file tree: a folder, a plain file,
// or an image. Folders never carry a LocalPath.
type FileNode struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	IsPublic  bool   `json:"isPublic"`
	ParentID  string `json:"parentId"`
	LocalPath string `json:"-"`
}

// IsFolder reports whether the node is a folder.
func (n *FileNode) IsFolder() bool { return n.Type == TypeFolder }

// ValidType reports whether t is one of the accepted node types.
func ValidType(t string) bool {
	return t == TypeFolder || t == TypeFile || t == TypeImage
}

// ThumbnailJob is the payload placed on the work queue when an image is
// uploaded. Both fields are required; a job missing either is
// permanently invalid.
type ThumbnailJob struct {
	UserID string `json:"userId"`
	FileID string `json:"fileId"`
}
