// Package thumbs implements the asynchronous thumbnail pipeline: a
// producer that enqueues jobs when images are uploaded, and a worker
// that derives resized variants and writes them next to the original.
package thumbs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/maneesh/filevault/internal/models"
)

// Widths are the thumbnail sizes derived for every image, in pixels.
var Widths = []int{500, 250, 100}

// SupportedWidth reports whether w is a generated thumbnail width.
func SupportedWidth(w int) bool {
	for _, known := range Widths {
		if w == known {
			return true
		}
	}
	return false
}

// JobQueue is the durable, at-least-once work queue contract. Dequeued
// jobs stay claimed until acked; RecoverJobs returns unacked claims to
// the queue so a crash between dequeue and ack cannot strand a job.
type JobQueue interface {
	EnqueueJob(ctx context.Context, payload []byte) error
	DequeueJob(ctx context.Context, timeout time.Duration) ([]byte, error)
	AckJob(ctx context.Context, payload []byte) error
	RecoverJobs(ctx context.Context) (int, error)
}

// Queue is the producer side of the pipeline.
type Queue struct {
	jobs JobQueue
}

// NewQueue creates a producer over a job queue.
func NewQueue(jobs JobQueue) *Queue {
	return &Queue{jobs: jobs}
}

// Enqueue places a thumbnail job on the queue. The caller does not wait
// for, and cannot cancel, the resulting derivation.
func (q *Queue) Enqueue(ctx context.Context, job models.ThumbnailJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	return q.jobs.EnqueueJob(ctx, payload)
}
