package storage

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/image-api/internal/config"
	"jan-server/services/image-api/internal/infrastructure/metrics"
)

// Backend is an object store the asset service can write to and read from.
type Backend interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Bucket() string
	Health(ctx context.Context) error
}

// New selects the backend named by IMAGE_STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (Backend, error) {
	switch {
	case cfg.IsLocalStorage():
		return NewLocalStorage(cfg, log)
	case cfg.IsMinioStorage():
		return NewMinioStorage(ctx, cfg, log)
	default:
		return NewS3Storage(ctx, cfg, log)
	}
}

// observe records the outcome of one storage call.
func observe(backend, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordStorageOperation(backend, operation, status, time.Since(start).Seconds())
}
