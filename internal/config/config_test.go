package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "image-api", cfg.ServiceName)
	assert.Equal(t, ":8290", cfg.Addr())
	assert.True(t, cfg.IsSQLite())
	assert.Equal(t, "s3", cfg.StorageBackend)
	assert.Equal(t, "image_app", cfg.AgentAppName)
	assert.Equal(t, int64(20*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, 3, cfg.MaxUploadFiles)
	assert.Equal(t, time.Hour, cfg.PresignTTL)
	assert.False(t, cfg.UseMemorySessions())
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoadNormalizes(t *testing.T) {
	t.Setenv("DB_DRIVER", " SQLite ")
	t.Setenv("IMAGE_STORAGE_BACKEND", "MinIO")
	t.Setenv("SESSION_STORE_BACKEND", "Memory")
	t.Setenv("REFINER_PROVIDER", "OpenAI")
	t.Setenv("IMAGE_MAX_UPLOAD_FILES", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsSQLite())
	assert.True(t, cfg.IsMinioStorage())
	assert.True(t, cfg.UseMemorySessions())
	assert.Equal(t, "openai", cfg.RefinerProvider)
	assert.Equal(t, 3, cfg.MaxUploadFiles)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without dsn", map[string]string{"DB_DRIVER": "postgres", "DB_POSTGRESQL_WRITE_DSN": ""}},
		{"unknown driver", map[string]string{"DB_DRIVER": "mysql"}},
		{"unknown storage", map[string]string{"DB_DRIVER": "sqlite", "IMAGE_STORAGE_BACKEND": "gcs"}},
		{"unknown refiner", map[string]string{"DB_DRIVER": "sqlite", "REFINER_PROVIDER": "llama"}},
		{"auth without issuer", map[string]string{"DB_DRIVER": "sqlite", "AUTH_ENABLED": "true", "AUTH_JWKS_URL": "http://kc/certs"}},
		{"auth without jwks", map[string]string{"DB_DRIVER": "sqlite", "AUTH_ENABLED": "true", "AUTH_ISSUER": "http://kc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
