//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"jan-server/services/image-api/internal/config"
	"jan-server/services/image-api/internal/domain/asset"
	"jan-server/services/image-api/internal/domain/generation"
	"jan-server/services/image-api/internal/domain/guardrail"
	"jan-server/services/image-api/internal/domain/style"
	"jan-server/services/image-api/internal/infrastructure/agent"
	"jan-server/services/image-api/internal/infrastructure/auth"
	assetrepo "jan-server/services/image-api/internal/infrastructure/repository/asset"
	"jan-server/services/image-api/internal/infrastructure/storage"
	"jan-server/services/image-api/internal/interfaces/httpserver"
	"jan-server/services/image-api/internal/interfaces/httpserver/handlers"
)

var assetSet = wire.NewSet(
	assetrepo.NewRepository,
	wire.Bind(new(asset.Repository), new(*assetrepo.Repository)),
	storage.New,
	provideAssetStorage,
	asset.NewService,
	wire.Bind(new(generation.AssetService), new(*asset.Service)),
)

var generationSet = wire.NewSet(
	style.NewCatalog,
	wire.Bind(new(generation.StyleResolver), new(*style.Catalog)),
	guardrail.NewPolicy,
	wire.Bind(new(generation.Guardrail), new(*guardrail.Policy)),
	agent.NewGenAIClient,
	provideRefiner,
	provideSynthesizer,
	provideSessionStore,
	provideRedis,
	generation.NewOrchestrator,
)

// BuildApplication assembles the image API with Wire.
func BuildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, error) {
	wire.Build(
		newDatabaseConfig,
		newGormDB,
		assetSet,
		generationSet,
		auth.NewValidator,
		provideReadinessChecks,
		handlers.NewProvider,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func provideAssetStorage(backend storage.Backend) asset.Storage {
	return backend
}
