package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maneesh/filevault/internal/auth"
	"github.com/maneesh/filevault/internal/config"
	"github.com/maneesh/filevault/internal/files"
	"github.com/maneesh/filevault/internal/handlers"
	"github.com/maneesh/filevault/internal/storage"
	"github.com/maneesh/filevault/internal/thumbs"
	"github.com/maneesh/filevault/internal/tracing"
)

func main() {
	log.Println("Starting filevault service...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Printf("Service: %s, Port: %s", cfg.ServiceName, cfg.ServicePort)

	// Initialize OpenTelemetry tracing
	shutdownTracer, err := tracing.InitTracer(cfg.ServiceName, cfg.JaegerEndpoint)
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
	log.Println("MySQL client initialized")

	// Initialize Redis client
	log.Println("Connecting to Redis...")
	redisClient, err := storage.NewRedisClient(cfg.GetRedisAddr(), cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to initialize Redis client: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis client initialized")

	// Initialize blob store
	blobs := newBlobStore(cfg)

	// Assemble services
	verifier := auth.NewVerifier(dbClient)
	sessions := auth.NewSessions(redisClient, dbClient)
	queue := thumbs.NewQueue(redisClient)
	fileService := files.NewService(dbClient, blobs, queue)

	// Setup HTTP router
	router := handlers.NewRouter(
		handlers.NewAppHandler(dbClient, redisClient, dbClient),
		handlers.NewUsersHandler(dbClient, sessions),
		handlers.NewAuthHandler(verifier, sessions),
		handlers.NewFilesHandler(fileService, sessions),
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.ServicePort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server listening on port %s", cfg.ServicePort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// newBlobStore selects the configured blob backend.
func newBlobStore(cfg *config.Config) storage.BlobStore {
	if cfg.StorageBackend == "minio" {
		log.Println("Connecting to MinIO...")
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
		log.Println("MinIO blob store initialized")
		return blobs
	}

	blobs, err := storage.NewLocalBlobStore(cfg.FolderPath)
	if err != nil {
		log.Fatalf("Failed to initialize local blob store: %v", err)
	}
	log.Printf("Local blob store initialized at %s", cfg.FolderPath)
	return blobs
}
