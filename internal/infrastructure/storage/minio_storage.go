package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"jan-server/services/image-api/internal/config"
)

const backendMinio = "minio"

var errMinioDisabled = errors.New("minio storage is not configured; set MINIO_ENDPOINT and credentials to enable uploads")

// MinioStorage stores objects in a MinIO bucket.
type MinioStorage struct {
	bucket   string
	region   string
	client   *minio.Client
	log      zerolog.Logger
	disabled bool
}

func NewMinioStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*MinioStorage, error) {
	logger := log.With().Str("component", "minio-storage").Logger()
	storage := &MinioStorage{
		bucket: strings.TrimSpace(cfg.StorageBucket),
		region: cfg.MinioRegion,
		log:    logger,
	}

	endpoint := strings.TrimSpace(cfg.MinioEndpoint)
	if endpoint == "" || cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" || storage.bucket == "" {
		logger.Warn().Msg("MINIO_ENDPOINT or credentials are not set; uploads fall back to metadata only")
		storage.disabled = true
		return storage, nil
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioSecure,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize minio client: %w", err)
	}
	storage.client = client

	if err := storage.ensureBucket(ctx); err != nil {
		logger.Warn().Err(err).Str("bucket", storage.bucket).Msg("could not ensure minio bucket exists")
	}

	logger.Info().Str("bucket", storage.bucket).Str("endpoint", endpoint).Msg("minio storage initialized")
	return storage, nil
}

func (m *MinioStorage) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	err = m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region})
	if err != nil {
		if exists, errExists := m.client.BucketExists(ctx, m.bucket); errExists == nil && exists {
			return nil
		}
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

func (m *MinioStorage) Bucket() string {
	return m.bucket
}

func (m *MinioStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (err error) {
	if m.disabled {
		return errMinioDisabled
	}
	start := time.Now()
	defer func() { observe(backendMinio, "upload", start, err) }()

	if size <= 0 {
		size = -1
	}
	_, err = m.client.PutObject(ctx, m.bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (m *MinioStorage) Download(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if m.disabled {
		return nil, "", errMinioDisabled
	}
	start := time.Now()
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err == nil {
		var info minio.ObjectInfo
		info, err = obj.Stat()
		if err == nil {
			observe(backendMinio, "download", start, nil)
			return obj, info.ContentType, nil
		}
		_ = obj.Close()
	}
	observe(backendMinio, "download", start, err)
	return nil, "", fmt.Errorf("get object %s: %w", key, err)
}

func (m *MinioStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.disabled {
		return "", errMinioDisabled
	}
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return u.String(), nil
}

func (m *MinioStorage) Health(ctx context.Context) error {
	if m.disabled {
		return nil
	}
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", m.bucket)
	}
	return nil
}
