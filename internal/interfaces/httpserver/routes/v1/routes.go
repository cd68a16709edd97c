package v1

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/image-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under the /v1/agent prefix. auth runs before every handler.
func (r *Routes) Register(router gin.IRouter, auth gin.HandlerFunc) {
	group := router.Group("/v1/agent", auth)

	group.POST("/prompt", r.handlers.Generation.GenerateImage)
	group.GET("/prompt/search", r.handlers.Generation.SearchPrompts)

	group.POST("/media", r.handlers.Media.Upload)
	group.GET("/media", r.handlers.Media.List)
	group.GET("/media/:asset_id", r.handlers.Media.Get)
	group.GET("/media/:asset_id/download", r.handlers.Media.Download)
	group.PATCH("/media/:asset_id/visibility", r.handlers.Media.ToggleVisibility)
	group.DELETE("/media/:asset_id", r.handlers.Media.Delete)

	group.GET("/sessions", r.handlers.Sessions.List)
	group.GET("/sessions/:session_id", r.handlers.Sessions.Get)
	group.DELETE("/sessions/:session_id", r.handlers.Sessions.Delete)

	group.GET("/styles", r.handlers.Styles.List)
}
