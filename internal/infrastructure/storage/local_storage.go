package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"jan-server/services/image-api/internal/config"
)

const backendLocal = "local"

var (
	errLocalStorageDisabled = errors.New("local storage is not configured; set IMAGE_LOCAL_STORAGE_PATH to enable")
	errInvalidKey           = errors.New("object key escapes the storage root")
)

// LocalStorage keeps objects on the local filesystem, laid out by object key.
type LocalStorage struct {
	basePath string
	baseURL  string
	bucket   string
	log      zerolog.Logger
	disabled bool
}

func NewLocalStorage(cfg *config.Config, log zerolog.Logger) (*LocalStorage, error) {
	logger := log.With().Str("component", "local-storage").Logger()

	bucket := strings.TrimSpace(cfg.StorageBucket)
	if bucket == "" {
		bucket = backendLocal
	}

	basePath := strings.TrimSpace(cfg.LocalStoragePath)
	if basePath == "" {
		logger.Warn().Msg("IMAGE_LOCAL_STORAGE_PATH is not set; local storage will be disabled")
		return &LocalStorage{bucket: bucket, log: logger, disabled: true}, nil
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}

	storage := &LocalStorage{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(strings.TrimSpace(cfg.LocalStorageBaseURL), "/"),
		bucket:   bucket,
		log:      logger,
	}
	logger.Info().Str("path", basePath).Str("base_url", storage.baseURL).Msg("local storage initialized")
	return storage, nil
}

func (l *LocalStorage) Bucket() string {
	return l.bucket
}

// resolve maps an object key to a path under basePath.
func (l *LocalStorage) resolve(key string) (string, error) {
	if l.disabled {
		return "", errLocalStorageDisabled
	}
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	full := filepath.Join(l.basePath, clean)
	rel, err := filepath.Rel(l.basePath, full)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", errInvalidKey
	}
	return full, nil
}

func (l *LocalStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (err error) {
	start := time.Now()
	defer func() { observe(backendLocal, "upload", start, err) }()

	fullPath, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to a temp file first so readers never see a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	written, err := io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err = os.Rename(tmp.Name(), fullPath); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	l.log.Debug().Str("key", key).Int64("bytes", written).Msg("file uploaded to local storage")
	return nil
}

func (l *LocalStorage) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	start := time.Now()
	fullPath, err := l.resolve(key)
	if err != nil {
		return nil, "", err
	}

	file, err := os.Open(fullPath)
	observe(backendLocal, "download", start, err)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("file not found: %s", key)
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}

	contentType := "application/octet-stream"
	if mtype, detectErr := mimetype.DetectFile(fullPath); detectErr == nil {
		contentType = mtype.String()
	}
	return file, contentType, nil
}

// PresignGet returns a URL under LocalStorageBaseURL, or a file:// URL when no base URL is set.
func (l *LocalStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	fullPath, err := l.resolve(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return "", fmt.Errorf("file not found: %s", key)
	}
	if l.baseURL != "" {
		return l.baseURL + "/" + strings.TrimPrefix(filepath.ToSlash(key), "/"), nil
	}
	return "file://" + fullPath, nil
}

// Health checks the storage directory is writable.
func (l *LocalStorage) Health(ctx context.Context) error {
	if l.disabled {
		return nil
	}
	testFile := filepath.Join(l.basePath, ".health_check")
	if err := os.WriteFile(testFile, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(testFile)
	return nil
}
