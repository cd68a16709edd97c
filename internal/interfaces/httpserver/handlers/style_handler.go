package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jan-server/services/image-api/internal/domain/style"
)

// StyleCatalog lists the built-in presets.
type StyleCatalog interface {
	Presets() []style.Preset
	Keys() []string
}

type styleSummary struct {
	Key      string `json:"key"`
	Group    string `json:"group"`
	Category string `json:"category"`
}

type styleListResponse struct {
	Total   int            `json:"total"`
	Styles  []styleSummary `json:"styles"`
	Aliases []string       `json:"aliases"`
}

// StyleHandler exposes the preset catalog.
type StyleHandler struct {
	catalog StyleCatalog
}

func NewStyleHandler(catalog StyleCatalog) *StyleHandler {
	return &StyleHandler{catalog: catalog}
}

// List godoc
// @Summary      List style presets
// @Description  Returns every preset and every key the style field accepts.
// @Tags         styles
// @Produce      json
// @Success      200  {object}  styleListResponse
// @Router       /v1/agent/styles [get]
func (h *StyleHandler) List(c *gin.Context) {
	presets := h.catalog.Presets()
	out := styleListResponse{
		Total:   len(presets),
		Styles:  make([]styleSummary, 0, len(presets)),
		Aliases: h.catalog.Keys(),
	}
	for _, p := range presets {
		out.Styles = append(out.Styles, styleSummary{Key: p.Key, Group: p.Group, Category: p.Category})
	}
	c.JSON(http.StatusOK, out)
}
