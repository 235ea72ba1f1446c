package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/msomdec/lensart-api/internal/config"
	"github.com/msomdec/lensart-api/internal/domain"
	"github.com/msomdec/lensart-api/internal/handler"
	"github.com/msomdec/lensart-api/internal/repository/firestore"
	"github.com/msomdec/lensart-api/internal/repository/mongodb"
	"github.com/msomdec/lensart-api/internal/repository/sqlite"
	"github.com/msomdec/lensart-api/internal/service"
	"github.com/msomdec/lensart-api/internal/storage/gcs"
	"github.com/msomdec/lensart-api/internal/storage/local"
	"github.com/msomdec/lensart-api/internal/storage/s3"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	ctx := context.Background()

	db, err := openRecordStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open record store", "store", cfg.RecordStore, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("record store ready", "store", cfg.RecordStore)

	blobs, closeBlobs, err := openBlobStore(ctx, cfg, db)
	if err != nil {
		slog.Error("failed to open blob store", "store", cfg.BlobStore, "error", err)
		os.Exit(1)
	}
	defer closeBlobs()
	slog.Info("blob store ready", "store", cfg.BlobStore)

	credential, err := adminCredential(cfg)
	if err != nil {
		slog.Error("invalid admin credential", "error", err)
		os.Exit(1)
	}

	authService := service.NewAuthService(credential, cfg.JWTSecret, cfg.TokenTTL)
	collectionService := service.NewCollectionService(db.Collections(), db.Photos(), blobs)
	photoService := service.NewPhotoService(db.Photos(), db.Collections(), blobs)

	router := handler.NewRouter(handler.RouterConfig{
		Auth:               authService,
		Collections:        collectionService,
		Photos:             photoService,
		Blobs:              blobs,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitRequests:  cfg.RateLimitRequests,
		RateLimitWindow:    cfg.RateLimitWindow,
		LoginLimitAttempts: cfg.LoginLimitAttempts,
		LoginLimitWindow:   cfg.LoginLimitWindow,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		return
	}
	slog.Info("server stopped")
}

func openRecordStore(ctx context.Context, cfg config.Config) (domain.Database, error) {
	switch cfg.RecordStore {
	case config.RecordStoreMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		return mongodb.New(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	case config.RecordStoreFirestore:
		return firestore.New(ctx, cfg.FirestoreProjectID)
	default:
		return sqlite.New(cfg.DatabasePath)
	}
}

// openBlobStore returns the configured blob store and a function releasing
// any client it holds.
func openBlobStore(ctx context.Context, cfg config.Config, db domain.Database) (domain.BlobStore, func(), error) {
	noop := func() {}

	switch cfg.BlobStore {
	case config.BlobStoreSQLite:
		sqlDB, ok := db.(*sqlite.DB)
		if !ok {
			return nil, noop, fmt.Errorf("sqlite blob store needs the sqlite record store, have %s", cfg.RecordStore)
		}
		return sqlDB.FileStore(), noop, nil
	case config.BlobStoreS3:
		store, err := s3.New(ctx, s3.Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		return store, noop, err
	case config.BlobStoreGCS:
		store, err := gcs.New(ctx, cfg.GCSBucket)
		if err != nil {
			return nil, noop, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				slog.Warn("close gcs client", "error", err)
			}
		}, nil
	default:
		store, err := local.New(cfg.UploadsDir)
		return store, noop, err
	}
}

// adminCredential prefers a pre-hashed secret over hashing the plain password.
func adminCredential(cfg config.Config) (service.Credential, error) {
	if cfg.AdminPasswordHash != "" {
		return service.CredentialFromHash(cfg.AdminPasswordHash)
	}
	return service.NewCredential(cfg.AdminPassword, cfg.BcryptCost)
}
