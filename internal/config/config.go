package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the image service.
type Config struct {
	// Service Configuration
	ServiceName      string        `env:"SERVICE_NAME" envDefault:"image-api"`
	ServiceNamespace string        `env:"SERVICE_NAMESPACE" envDefault:"jan"`
	Environment      string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort         int           `env:"IMAGE_API_PORT" envDefault:"8290"`
	LogLevel         string        `env:"IMAGE_LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"IMAGE_LOG_FORMAT" envDefault:"console"`
	EnableTracing    bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint     string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTLPHeaders      string        `env:"OTEL_EXPORTER_OTLP_HEADERS" envDefault:""`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	CORSOrigins      []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Database
	DBDriver       string        `env:"DB_DRIVER" envDefault:"postgres"` // Options: "postgres" or "sqlite"
	DatabaseURL    string        `env:"DB_POSTGRESQL_WRITE_DSN"`
	SQLitePath     string        `env:"DB_SQLITE_PATH" envDefault:"image-api.db"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Storage Backend Selection
	StorageBackend string        `env:"IMAGE_STORAGE_BACKEND" envDefault:"s3"` // Options: "s3", "minio" or "local"
	StorageBucket  string        `env:"IMAGE_STORAGE_BUCKET" envDefault:"jinuai-assets"`
	PresignTTL     time.Duration `env:"IMAGE_STORAGE_PRESIGN_TTL" envDefault:"1h"`

	// Local Storage Configuration
	LocalStoragePath    string `env:"IMAGE_LOCAL_STORAGE_PATH"`
	LocalStorageBaseURL string `env:"IMAGE_LOCAL_STORAGE_BASE_URL"`

	// S3 Storage Configuration
	S3Endpoint     string `env:"IMAGE_S3_ENDPOINT"`
	S3Region       string `env:"IMAGE_S3_REGION" envDefault:"us-west-2"`
	S3AccessKeyID  string `env:"IMAGE_S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"IMAGE_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool   `env:"IMAGE_S3_USE_PATH_STYLE" envDefault:"true"`

	// MinIO Storage Configuration
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioSecure    bool   `env:"MINIO_SECURE" envDefault:"false"`
	MinioRegion    string `env:"MINIO_REGION" envDefault:"us-east-1"`

	// Storage prefixes
	PrefixMedia  string `env:"STORAGE_PREFIX_MEDIA" envDefault:"media"`
	PrefixModels string `env:"STORAGE_PREFIX_MODELS" envDefault:"models/static"`
	PrefixStyles string `env:"STORAGE_PREFIX_STYLES" envDefault:"styles"`

	// Upload limits
	MaxUploadBytes int64 `env:"IMAGE_MAX_UPLOAD_BYTES" envDefault:"20971520"`
	MaxUploadFiles int   `env:"IMAGE_MAX_UPLOAD_FILES" envDefault:"3"`

	// Agent / model configuration
	AgentAppName    string `env:"GOOGLE_AGENT_NAME" envDefault:"image_app"`
	RefinerProvider string `env:"REFINER_PROVIDER" envDefault:"gemini"` // Options: "gemini", "openai" or "claude"
	GoogleAPIKey    string `env:"GOOGLE_API_KEY"`
	FlashText       string `env:"FLASH_TEXT" envDefault:"gemini-2.5-flash"`
	FlashImage      string `env:"FLASH_IMAGE" envDefault:"gemini-2.5-flash-image-preview"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIModel     string `env:"OPENAI_MODEL" envDefault:"gpt-5-mini"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	ClaudeModel     string `env:"CLAUDE_MODEL" envDefault:"claude-sonnet-4-5"`
	ClaudeMaxTokens int    `env:"CLAUDE_MAX_TOKENS" envDefault:"1024"`
	RefinerMaxSteps int    `env:"REFINER_MAX_STEPS" envDefault:"6"`

	// Session store
	SessionStoreBackend string        `env:"SESSION_STORE_BACKEND" envDefault:"database"` // Options: "database" or "memory"
	RedisURL            string        `env:"REDIS_URL"`
	RedisCacheTTL       time.Duration `env:"REDIS_CACHE_TTL" envDefault:"3600s"`

	// Authentication
	AuthEnabled   bool          `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer    string        `env:"AUTH_ISSUER"`
	AuthAudience  string        `env:"AUTH_AUDIENCE"`
	AuthJWKSURL   string        `env:"AUTH_JWKS_URL"`
	AuthRefresh   time.Duration `env:"AUTH_JWKS_REFRESH" envDefault:"1h"`
	AuthClockSkew time.Duration `env:"AUTH_CLOCK_SKEW" envDefault:"60s"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.StorageBackend = strings.ToLower(strings.TrimSpace(c.StorageBackend))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.RefinerProvider = strings.ToLower(strings.TrimSpace(c.RefinerProvider))
	c.SessionStoreBackend = strings.ToLower(strings.TrimSpace(c.SessionStoreBackend))
	c.StorageBucket = strings.TrimSpace(c.StorageBucket)
	c.S3AccessKeyID = strings.TrimSpace(c.S3AccessKeyID)
	c.S3SecretKey = strings.TrimSpace(c.S3SecretKey)
	c.S3Endpoint = strings.TrimSpace(c.S3Endpoint)

	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 20 * 1024 * 1024
	}
	if c.MaxUploadFiles <= 0 {
		c.MaxUploadFiles = 3
	}

	switch c.DBDriver {
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DB_POSTGRESQL_WRITE_DSN is required when DB_DRIVER is postgres")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.StorageBackend {
	case "", "s3", "minio", "local":
	default:
		return fmt.Errorf("unsupported IMAGE_STORAGE_BACKEND %q", c.StorageBackend)
	}

	switch c.RefinerProvider {
	case "gemini", "openai", "claude":
	default:
		return fmt.Errorf("unsupported REFINER_PROVIDER %q", c.RefinerProvider)
	}

	if c.AuthEnabled {
		if strings.TrimSpace(c.AuthIssuer) == "" {
			return fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(c.AuthJWKSURL) == "" {
			return fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsLocalStorage returns true if local storage backend is configured.
func (c *Config) IsLocalStorage() bool {
	return c.StorageBackend == "local"
}

// IsMinioStorage returns true if the MinIO backend is configured.
func (c *Config) IsMinioStorage() bool {
	return c.StorageBackend == "minio"
}

// IsSQLite reports whether the service runs against an embedded sqlite database.
func (c *Config) IsSQLite() bool {
	return c.DBDriver == "sqlite"
}

// UseMemorySessions reports whether agent sessions live only in process memory.
func (c *Config) UseMemorySessions() bool {
	return c.SessionStoreBackend == "memory"
}
