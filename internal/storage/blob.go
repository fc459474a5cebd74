package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// BlobStore persists raw byte content under generated, opaque names.
// Display names never appear in the path, so same-name files coexist.
type BlobStore interface {
	// Write stores data under a freshly generated path and returns it.
	Write(ctx context.Context, data []byte) (string, error)
	// WriteTo stores data at an explicit path (thumbnail variants).
	WriteTo(ctx context.Context, path string, data []byte) error
	// Read returns the content at path, or ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)
}

// VariantPath derives the storage path of a resized variant. Pure, no I/O.
func VariantPath(path string, width int) string {
	return fmt.Sprintf("%s_%d", path, width)
}

// LocalBlobStore keeps blobs as flat files on a content volume
type LocalBlobStore struct {
	rootDir string
}

// NewLocalBlobStore creates the content directory if absent
func NewLocalBlobStore(rootDir string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create content directory: %w", err)
	}
	return &LocalBlobStore{rootDir: rootDir}, nil
}

// Write stores data under a generated filename and returns the full path
func (bs *LocalBlobStore) Write(ctx context.Context, data []byte) (string, error) {
	path := filepath.Join(bs.rootDir, uuid.New().String())
	if err := bs.WriteTo(ctx, path, data); err != nil {
		return "", err
	}
	return path, nil
}

// WriteTo stores data at path. The write is atomic: content lands in a
// temp file first and is renamed into place, so a reader never observes
// a partially-written blob.
func (bs *LocalBlobStore) WriteTo(ctx context.Context, path string, data []byte) error {
	_, span := tracer.Start(ctx, "blob.write",
		trace.WithAttributes(
			attribute.String("path", path),
			attribute.Int("size_bytes", len(data)),
		),
	)
	defer span.End()

	tmp, err := os.CreateTemp(bs.rootDir, ".blob-*")
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create blob: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		span.RecordError(err)
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		span.RecordError(err)
		return fmt.Errorf("failed to close blob: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		span.RecordError(err)
		return fmt.Errorf("failed to link blob: %w", err)
	}
	return nil
}

// Read returns the blob content at path
func (bs *LocalBlobStore) Read(ctx context.Context, path string) ([]byte, error) {
	_, span := tracer.Start(ctx, "blob.read",
		trace.WithAttributes(
			attribute.String("path", path),
		),
	)
	defer span.End()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		span.SetAttributes(attribute.Bool("found", false))
		return nil, ErrNotFound
	} else if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}

	span.SetAttributes(attribute.Int("size_bytes", len(data)))
	return data, nil
}
