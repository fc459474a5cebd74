package thumbs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/maneesh/filevault/internal/models"
	"github.com/maneesh/filevault/internal/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("filevault-thumbs")

// dequeueTimeout bounds each blocking poll so the worker can notice a
// canceled context between jobs.
const dequeueTimeout = 5 * time.Second

// NodeStore is the slice of the document store the worker needs.
type NodeStore interface {
	GetFileByIDAndOwner(ctx context.Context, id, ownerID string) (*models.FileNode, error)
}

// Worker is the consumer side of the pipeline: a long-lived loop that
// dequeues jobs one at a time and materializes the resized variants.
// Job failures are logged and terminate only that job, never the loop.
type Worker struct {
	jobs  JobQueue
	store NodeStore
	blobs storage.BlobStore
}

// NewWorker constructs a thumbnail worker.
func NewWorker(jobs JobQueue, store NodeStore, blobs storage.BlobStore) *Worker {
	return &Worker{jobs: jobs, store: store, blobs: blobs}
}

// Recover returns jobs claimed by a previous worker but never acked to
// the queue. Call it once at startup, before any loop begins consuming;
// variant writes are idempotent, so redelivering a job that had partially
// completed is harmless.
func (w *Worker) Recover(ctx context.Context) error {
	n, err := w.jobs.RecoverJobs(ctx)
	if err != nil {
		return fmt.Errorf("failed to recover stranded jobs: %w", err)
	}
	if n > 0 {
		log.Printf("Requeued %d unacknowledged thumbnail job(s)", n)
	}
	return nil
}

// Run processes jobs until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		payload, err := w.jobs.DequeueJob(ctx, dequeueTimeout)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		} else if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("Dequeue failed: %v", err)
			continue
		}

		if err := w.Process(ctx, payload); err != nil {
			log.Printf("Job failed: %v", err)
		}

		// The job is acknowledged once every width has been attempted,
		// whether or not individual widths succeeded.
		if err := w.jobs.AckJob(ctx, payload); err != nil {
			log.Printf("Ack failed: %v", err)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Process handles a single job. Malformed jobs and jobs whose file no
// longer exists (or belongs to a different user) are permanently
// invalid; no retry is attempted.
func (w *Worker) Process(ctx context.Context, payload []byte) error {
	ctx, span := tracer.Start(ctx, "thumbs.process_job",
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	var job models.ThumbnailJob
	if err := json.Unmarshal(payload, &job); err != nil {
		span.RecordError(err)
		return fmt.Errorf("malformed job payload: %w", err)
	}
	if job.FileID == "" {
		return errors.New("Missing fileId")
	}
	if job.UserID == "" {
		return errors.New("Missing userId")
	}

	span.SetAttributes(
		attribute.String("file_id", job.FileID),
		attribute.String("user_id", job.UserID),
	)

	node, err := w.store.GetFileByIDAndOwner(ctx, job.FileID, job.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return errors.New("File not found")
	} else if err != nil {
		return err
	}

	original, err := w.blobs.Read(ctx, node.LocalPath)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to load original blob: %w", err)
	}

	// The three width derivations run independently; one failing width
	// does not abort the others. Partial thumbnail sets are acceptable.
	var wg sync.WaitGroup
	for _, width := range Widths {
		wg.Add(1)
		go func(width int) {
			defer wg.Done()

			_, widthSpan := tracer.Start(ctx, fmt.Sprintf("derive_thumbnail_%d", width),
				trace.WithAttributes(
					attribute.Int("width", width),
				),
			)
			defer widthSpan.End()

			thumb, err := Thumbnail(original, width)
			if err != nil {
				widthSpan.RecordError(err)
				log.Printf("Failed to derive %dpx thumbnail for file %s: %v", width, node.ID, err)
				return
			}

			variant := storage.VariantPath(node.LocalPath, width)
			if err := w.blobs.WriteTo(ctx, variant, thumb); err != nil {
				widthSpan.RecordError(err)
				log.Printf("Failed to write %dpx thumbnail for file %s: %v", width, node.ID, err)
			}
		}(width)
	}
	wg.Wait()

	return nil
}
