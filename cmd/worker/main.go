package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/maneesh/filevault/internal/config"
	"github.com/maneesh/filevault/internal/storage"
	"github.com/maneesh/filevault/internal/thumbs"
	"github.com/maneesh/filevault/internal/tracing"
)

func main() {
	log.Println("Starting filevault thumbnail worker...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize OpenTelemetry tracing
	shutdownTracer, err := tracing.InitTracer(cfg.ServiceName+"-worker", cfg.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	// Initialize MySQL client
	log.Println("Connecting to MySQL...")
	dbClient, err := storage.NewMySQLClient(cfg.GetDSN())
	if err != nil {
		log.Fatalf("Failed to initialize MySQL client: %v", err)
	}
	defer dbClient.Close()

	// Initialize Redis client
	log.Println("Connecting to Redis...")
	redisClient, err := storage.NewRedisClient(cfg.GetRedisAddr(), cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}
	defer redisClient.Close()

	// Initialize blob store
	blobs := newBlobStore(cfg)

	worker := thumbs.NewWorker(redisClient, dbClient, blobs)

	// Cancel the worker context on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())

	// Requeue jobs a previous worker claimed but never acknowledged.
	if err := worker.Recover(ctx); err != nil {
		log.Printf("Job recovery failed, stranded jobs stay parked until the next restart: %v", err)
	}
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down worker...")
		cancel()
	}()

	var wg sync.WaitGroup
	for i := 0; i < cfg.WorkerConcurrency; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			log.Printf("Worker loop %d started", n)
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Worker loop %d stopped: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	log.Println("Worker exited")
}

// newBlobStore selects the configured blob backend.
func newBlobStore(cfg *config.Config) storage.BlobStore {
	if cfg.StorageBackend == "minio" {
		blobs, err := storage.NewMinioBlobStore(
			cfg.MinIOEndpoint,
			cfg.MinIOAccessKey,
			cfg.MinIOSecretKey,
			cfg.MinIOBucketName,
			cfg.MinIOUseSSL,
		)
		if err != nil {
			log.Fatalf("Failed to initialize MinIO blob store: %v", err)
		}
		return blobs
	}

	blobs, err := storage.NewLocalBlobStore(cfg.FolderPath)
	if err != nil {
		log.Fatalf("Failed to initialize local blob store: %v", err)
	}
	return blobs
}
