// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	RecordStoreSQLite    = "sqlite"
	RecordStoreMongo     = "mongo"
	RecordStoreFirestore = "firestore"

	BlobStoreLocal  = "local"
	BlobStoreSQLite = "sqlite"
	BlobStoreS3     = "s3"
	BlobStoreGCS    = "gcs"
)

const defaultCORSOrigins = "http://localhost:3000,https://lensart-photography.vercel.app"

type Config struct {
	Port string

	// auth
	JWTSecret         string
	AdminPassword     string
	AdminPasswordHash string
	BcryptCost        int
	TokenTTL          time.Duration

	// record store
	RecordStore        string
	DatabasePath       string
	MongoURI           string
	MongoDatabase      string
	FirestoreProjectID string

	// blob store
	BlobStore         string
	UploadsDir        string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	GCSBucket         string

	// http
	CORSOrigins        []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	LoginLimitAttempts int
	LoginLimitWindow   time.Duration

	LogLevel slog.Level
}

// Load reads the configuration and validates it. Every problem found is
// reported, joined into one error.
func Load() (Config, error) {
	var errs []error

	cfg := Config{
		Port:              getEnvOrDefault("PORT", "5000"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		RecordStore:        strings.ToLower(getEnvOrDefault("RECORD_STORE", RecordStoreSQLite)),
		DatabasePath:       getEnvOrDefault("DATABASE_PATH", "portfolio.db"),
		MongoURI:           getEnvOrDefault("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnvOrDefault("MONGODB_DATABASE", "photographer_portfolio"),
		FirestoreProjectID: os.Getenv("FIRESTORE_PROJECT_ID"),

		BlobStore:         strings.ToLower(getEnvOrDefault("BLOB_STORE", BlobStoreLocal)),
		UploadsDir:        getEnvOrDefault("UPLOADS_DIR", "uploads"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3Region:          getEnvOrDefault("S3_REGION", "auto"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		GCSBucket:         os.Getenv("GCS_BUCKET"),

		CORSOrigins: splitList(getEnvOrDefault("CORS_ORIGINS", defaultCORSOrigins)),
	}

	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 12, &errs)
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 24*time.Hour, &errs)
	cfg.RateLimitRequests = getEnvInt("RATE_LIMIT_REQUESTS", 100, &errs)
	cfg.RateLimitWindow = getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute, &errs)
	cfg.LoginLimitAttempts = getEnvInt("LOGIN_LIMIT_ATTEMPTS", 5, &errs)
	cfg.LoginLimitWindow = getEnvDuration("LOGIN_LIMIT_WINDOW", 15*time.Minute, &errs)

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnvOrDefault("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL: %w", err))
	}

	errs = append(errs, cfg.validate()...)
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func (c Config) validate() []error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	} else if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security"))
	}
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.BcryptCost))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive"))
	}
	if c.LoginLimitAttempts <= 0 || c.LoginLimitWindow <= 0 {
		errs = append(errs, errors.New("LOGIN_LIMIT_ATTEMPTS and LOGIN_LIMIT_WINDOW must be positive"))
	}

	switch c.RecordStore {
	case RecordStoreSQLite, RecordStoreMongo:
	case RecordStoreFirestore:
		if c.FirestoreProjectID == "" {
			errs = append(errs, errors.New("FIRESTORE_PROJECT_ID is required for the firestore record store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown RECORD_STORE %q", c.RecordStore))
	}

	switch c.BlobStore {
	case BlobStoreLocal:
	case BlobStoreSQLite:
		if c.RecordStore != RecordStoreSQLite {
			errs = append(errs, errors.New("BLOB_STORE=sqlite requires RECORD_STORE=sqlite"))
		}
	case BlobStoreS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 blob store"))
		}
	case BlobStoreGCS:
		if c.GCSBucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET is required for the gcs blob store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown BLOB_STORE %q", c.BlobStore))
	}

	return errs
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return defaultValue
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
