package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
	"gorm.io/gorm"

	"jan-server/services/image-api/internal/config"
	"jan-server/services/image-api/internal/domain/asset"
	"jan-server/services/image-api/internal/domain/generation"
	"jan-server/services/image-api/internal/domain/guardrail"
	"jan-server/services/image-api/internal/domain/session"
	"jan-server/services/image-api/internal/domain/style"
	"jan-server/services/image-api/internal/infrastructure/agent"
	"jan-server/services/image-api/internal/infrastructure/auth"
	"jan-server/services/image-api/internal/infrastructure/cache"
	"jan-server/services/image-api/internal/infrastructure/database"
	"jan-server/services/image-api/internal/infrastructure/imagegen"
	assetrepo "jan-server/services/image-api/internal/infrastructure/repository/asset"
	sessionrepo "jan-server/services/image-api/internal/infrastructure/repository/session"
	"jan-server/services/image-api/internal/infrastructure/storage"
	"jan-server/services/image-api/internal/interfaces/httpserver"
	"jan-server/services/image-api/internal/interfaces/httpserver/handlers"
)

// buildApplication assembles the service by hand. wire.go describes the same graph for the Wire generator.
func buildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Application, func(), error) {
		cleanup()
		return nil, nil, err
	}

	db, err := newGormDB(ctx, newDatabaseConfig(cfg), cfg, log)
	if err != nil {
		return fail(fmt.Errorf("connect database: %w", err))
	}
	closers = append(closers, func() { closeDB(db, log) })

	backend, err := storage.New(ctx, cfg, log)
	if err != nil {
		return fail(fmt.Errorf("initialize storage: %w", err))
	}

	redisClient, err := provideRedis(ctx, cfg, log)
	if err != nil {
		return fail(fmt.Errorf("connect redis: %w", err))
	}
	if redisClient != nil {
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	assets := asset.NewService(cfg, assetrepo.NewRepository(db), backend, log)
	sessions := provideSessionStore(cfg, db, redisClient, log)
	catalog := style.NewCatalog()

	client, err := agent.NewGenAIClient(ctx, cfg)
	if err != nil {
		return fail(fmt.Errorf("initialize genai client: %w", err))
	}
	refiner, err := provideRefiner(ctx, cfg, client, catalog, log)
	if err != nil {
		return fail(fmt.Errorf("initialize refiner: %w", err))
	}
	synthesizer := provideSynthesizer(cfg, client, log)

	orchestrator := generation.NewOrchestrator(cfg, assets, sessions, catalog, guardrail.NewPolicy(), refiner, synthesizer, log)

	validator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		return fail(fmt.Errorf("initialize auth: %w", err))
	}

	provider := handlers.NewProvider(cfg, orchestrator, assets, sessions, catalog, provideReadinessChecks(db, backend, redisClient), log)
	httpServer := httpserver.New(cfg, log, provider, validator)
	return NewApplication(httpServer, validator, log), cleanup, nil
}

func newDatabaseConfig(cfg *config.Config) database.Config {
	return database.FromAppConfig(cfg)
}

func newGormDB(ctx context.Context, dbCfg database.Config, cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(dbCfg, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db, cfg.DBDriver, log); err != nil {
		closeDB(db, log)
		return nil, err
	}
	return db, nil
}

func closeDB(db *gorm.DB, log zerolog.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn().Err(err).Msg("close database")
	}
}

// provideRedis returns nil when REDIS_URL is unset.
func provideRedis(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*cache.RedisClient, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("session cache enabled")
	return client, nil
}

// provideSessionStore picks the durable or in-memory store and fronts it with redis when available.
func provideSessionStore(cfg *config.Config, db *gorm.DB, redisClient *cache.RedisClient, log zerolog.Logger) session.Store {
	var store session.Store
	if cfg.UseMemorySessions() {
		log.Warn().Msg("agent sessions are kept in memory and will not survive a restart")
		store = session.NewMemoryStore()
	} else {
		store = sessionrepo.NewStore(db)
	}
	if redisClient == nil {
		return store
	}
	return cache.NewSessionStore(store, redisClient, cfg.RedisCacheTTL, log)
}

func provideRefiner(ctx context.Context, cfg *config.Config, client *genai.Client, catalog *style.Catalog, log zerolog.Logger) (generation.Refiner, error) {
	chatModel, err := agent.NewChatModel(ctx, cfg, client)
	if err != nil {
		return nil, err
	}
	refiner, err := agent.NewRefiner(ctx, cfg, chatModel, catalog, log)
	if err != nil {
		return nil, err
	}
	return refiner, nil
}

func provideSynthesizer(cfg *config.Config, client *genai.Client, log zerolog.Logger) generation.Synthesizer {
	return imagegen.NewSynthesizer(client, cfg.FlashImage, log)
}

func provideReadinessChecks(db *gorm.DB, backend storage.Backend, redisClient *cache.RedisClient) []handlers.ReadinessCheck {
	checks := []handlers.ReadinessCheck{
		{Name: "database", Check: func(context.Context) error { return database.Ping(db) }},
		{Name: "storage", Check: backend.Health},
	}
	if redisClient != nil {
		checks = append(checks, handlers.ReadinessCheck{Name: "redis", Check: redisClient.Ping})
	}
	return checks
}
