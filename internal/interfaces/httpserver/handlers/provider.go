package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/image-api/internal/config"
	"jan-server/services/image-api/internal/domain/asset"
	"jan-server/services/image-api/internal/domain/generation"
	"jan-server/services/image-api/internal/domain/session"
	"jan-server/services/image-api/internal/domain/style"
	"jan-server/services/image-api/internal/infrastructure/auth"
	"jan-server/services/image-api/internal/interfaces/httpserver/responses"
	"jan-server/services/image-api/internal/utils/platformerrors"
)

// Provider wires HTTP handlers.
type Provider struct {
	Generation *GenerationHandler
	Media      *MediaHandler
	Sessions   *SessionHandler
	Styles     *StyleHandler
	Health     *HealthHandler
}

func NewProvider(
	cfg *config.Config,
	orchestrator *generation.Orchestrator,
	assets *asset.Service,
	sessions session.Store,
	catalog *style.Catalog,
	checks []ReadinessCheck,
	log zerolog.Logger,
) *Provider {
	return &Provider{
		Generation: NewGenerationHandler(cfg, orchestrator, assets, log),
		Media:      NewMediaHandler(cfg, assets, log),
		Sessions:   NewSessionHandler(sessions, cfg.AgentAppName, log),
		Styles:     NewStyleHandler(catalog),
		Health:     NewHealthHandler(checks, log),
	}
}

// currentUserID aborts with 401 when no principal was resolved.
func currentUserID(c *gin.Context) (string, bool) {
	principal, ok := auth.CurrentUser(c)
	if !ok {
		responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "authentication required", "a1c7e3f4-6b8d-4f25-9a0e-3c5d7b9f1e24")
		return "", false
	}
	return principal.UserID, true
}
