package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MinioBlobStore is the object-storage BlobStore backend. Paths are
// object keys inside a single bucket.
type MinioBlobStore struct {
	client     *minio.Client
	bucketName string
}

// NewMinioBlobStore initializes a MinIO-backed blob store
func NewMinioBlobStore(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinioBlobStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	bs := &MinioBlobStore{
		client:     client,
		bucketName: bucketName,
	}

	// Ensure bucket exists
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		log.Printf("Creating bucket: %s", bucketName)
		err = client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return bs, nil
}

// Write stores data under a generated object key and returns it
func (bs *MinioBlobStore) Write(ctx context.Context, data []byte) (string, error) {
	key := uuid.New().String()
	if err := bs.WriteTo(ctx, key, data); err != nil {
		return "", err
	}
	return key, nil
}

// WriteTo stores data at an explicit object key
func (bs *MinioBlobStore) WriteTo(ctx context.Context, path string, data []byte) error {
	ctx, span := tracer.Start(ctx, "minio.put_object",
		trace.WithAttributes(
			attribute.String("object_key", path),
			attribute.Int("size_bytes", len(data)),
		),
	)
	defer span.End()

	reader := bytes.NewReader(data)
	_, err := bs.client.PutObject(ctx, bs.bucketName, path, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upload blob: %w", err)
	}
	return nil
}

// Read returns the content at an object key, or ErrNotFound
func (bs *MinioBlobStore) Read(ctx context.Context, path string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "minio.get_object",
		trace.WithAttributes(
			attribute.String("object_key", path),
		),
	)
	defer span.End()

	object, err := bs.client.GetObject(ctx, bs.bucketName, path, minio.GetObjectOptions{})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			span.SetAttributes(attribute.Bool("found", false))
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to read object data: %w", err)
	}

	span.SetAttributes(attribute.Int("size_bytes", len(data)))
	return data, nil
}
