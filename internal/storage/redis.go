package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// jobQueueKey is the Redis list holding pending thumbnail jobs.
	jobQueueKey = "thumbnail_jobs"
	// jobProcessingKey holds jobs moved out of the queue but not yet
	// acknowledged, preserving at-least-once delivery across worker crashes.
	jobProcessingKey = "thumbnail_jobs:processing"
)

// RedisClient wraps the expiring key-value cache and the work queue
// with tracing
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient initializes a new Redis client
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test the connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// Close closes the Redis connection
func (rc *RedisClient) Close() error {
	return rc.client.Close()
}

// Ping reports whether Redis is reachable
func (rc *RedisClient) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Set stores a key with a TTL
func (rc *RedisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, span := tracer.Start(ctx, "redis.set",
		trace.WithAttributes(
			attribute.String("key", key),
			attribute.Int64("ttl_seconds", int64(ttl.Seconds())),
		),
	)
	defer span.End()

	if err := rc.client.Set(ctx, key, value, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

// Get retrieves a key. A miss (including post-expiry) returns ErrNotFound.
func (rc *RedisClient) Get(ctx context.Context, key string) (string, error) {
	ctx, span := tracer.Start(ctx, "redis.get",
		trace.WithAttributes(
			attribute.String("key", key),
		),
	)
	defer span.End()

	value, err := rc.client.Get(ctx, key).Result()
	if err == redis.Nil {
		span.SetAttributes(attribute.Bool("cache_hit", false))
		return "", ErrNotFound
	} else if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to get key: %w", err)
	}

	span.SetAttributes(attribute.Bool("cache_hit", true))
	return value, nil
}

// Del removes a key. Deleting an absent key is a no-op.
func (rc *RedisClient) Del(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "redis.del",
		trace.WithAttributes(
			attribute.String("key", key),
		),
	)
	defer span.End()

	if err := rc.client.Del(ctx, key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// EnqueueJob pushes a serialized job onto the work queue
func (rc *RedisClient) EnqueueJob(ctx context.Context, payload []byte) error {
	ctx, span := tracer.Start(ctx, "redis.enqueue_job",
		trace.WithAttributes(
			attribute.Int("payload_bytes", len(payload)),
		),
	)
	defer span.End()

	if err := rc.client.LPush(ctx, jobQueueKey, payload).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// DequeueJob blocks up to timeout for the next job, atomically moving it
// to the processing list. A timeout with no job returns ErrNotFound.
// Deliberately unspanned: the call idles for up to timeout between jobs,
// and a span per empty poll would dwarf the real work in any trace.
func (rc *RedisClient) DequeueJob(ctx context.Context, timeout time.Duration) ([]byte, error) {
	payload, err := rc.client.BLMove(ctx, jobQueueKey, jobProcessingKey, "RIGHT", "LEFT", timeout).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}
	return []byte(payload), nil
}

// RecoverJobs moves jobs stranded on the processing list back onto the
// queue and returns how many were moved. A worker that died between
// DequeueJob and AckJob leaves its job there; running this at startup
// makes the entry deliverable again.
func (rc *RedisClient) RecoverJobs(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "redis.recover_jobs")
	defer span.End()

	recovered := 0
	for {
		// Oldest claims sit at the tail of the processing list; moving
		// them to the consumption end of the queue redelivers them first.
		err := rc.client.LMove(ctx, jobProcessingKey, jobQueueKey, "RIGHT", "RIGHT").Err()
		if err == redis.Nil {
			break
		} else if err != nil {
			span.RecordError(err)
			return recovered, fmt.Errorf("failed to recover jobs: %w", err)
		}
		recovered++
	}

	span.SetAttributes(attribute.Int("recovered", recovered))
	return recovered, nil
}

// AckJob removes a processed job from the processing list
func (rc *RedisClient) AckJob(ctx context.Context, payload []byte) error {
	ctx, span := tracer.Start(ctx, "redis.ack_job")
	defer span.End()

	if err := rc.client.LRem(ctx, jobProcessingKey, 1, payload).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to ack job: %w", err)
	}
	return nil
}
