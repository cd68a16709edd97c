package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/image-api/internal/config"
	"jan-server/services/image-api/internal/domain/asset"
	"jan-server/services/image-api/internal/domain/generation"
	"jan-server/services/image-api/internal/interfaces/httpserver/requests"
	"jan-server/services/image-api/internal/interfaces/httpserver/responses"
	"jan-server/services/image-api/internal/utils/platformerrors"
)

// ImageGenerator runs the generation workflow.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req generation.ImageRequest, userID string) (*generation.ImageResponse, error)
}

// PromptSearcher searches the caller's generated media by prompt.
type PromptSearcher interface {
	SearchByPrompt(ctx context.Context, userID, query string, limit int) ([]*asset.Asset, error)
}

// GenerationHandler exposes the prompt endpoints.
type GenerationHandler struct {
	cfg       *config.Config
	generator ImageGenerator
	searcher  PromptSearcher
	log       zerolog.Logger
}

func NewGenerationHandler(cfg *config.Config, generator ImageGenerator, searcher PromptSearcher, log zerolog.Logger) *GenerationHandler {
	return &GenerationHandler{
		cfg:       cfg,
		generator: generator,
		searcher:  searcher,
		log:       log.With().Str("handler", "generation").Logger(),
	}
}

// GenerateImage godoc
// @Summary      Generate an image
// @Description  Refines the prompt with the category agent, synthesizes an image and stores it. Blocked prompts return status "blocked" with HTTP 200.
// @Tags         agent
// @Accept       multipart/form-data
// @Produce      json
// @Param        prompt           formData  string  false  "User prompt"
// @Param        files            formData  file    false  "Reference images (PNG or JPEG)"
// @Param        model_asset_ids  formData  string  false  "Comma separated model asset ids"
// @Param        category         formData  string  false  "creativity, template, fit or lightbox"
// @Param        style            formData  string  false  "Style preset key"
// @Param        size             formData  string  false  "Output size, e.g. 1024x1024"
// @Param        aspect_ratio     formData  string  false  "Aspect ratio, e.g. 1:1"
// @Param        output_format    formData  string  false  "image/png or image/jpeg"
// @Param        session_id       formData  string  false  "Existing session id"
// @Success      200  {object}  generation.ImageResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Failure      502  {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/agent/prompt [post]
func (h *GenerationHandler) GenerateImage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var form requests.GenerateImageForm
	if err := c.ShouldBind(&form); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "b2d8f405-7c9e-4036-8b1f-4d6e8c0a2f35")
		return
	}
	files, err := readFormFiles(c, "files", h.cfg.MaxUploadBytes, h.cfg.MaxUploadFiles)
	if err != nil {
		responses.HandleError(c, err, "invalid upload")
		return
	}

	resp, err := h.generator.GenerateImage(c.Request.Context(), form.ToDomain(files), userID)
	if err != nil {
		responses.HandleError(c, err, "image generation failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SearchPrompts godoc
// @Summary      Search prompts
// @Description  Case-insensitive search over the refined prompts of the caller's media.
// @Tags         agent
// @Produce      json
// @Param        q      query     string  true   "Search text"
// @Param        limit  query     int     false  "Max results"  default(20)
// @Success      200    {object}  responses.SearchResponse
// @Failure      400    {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/agent/prompt/search [get]
func (h *GenerationHandler) SearchPrompts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var query requests.SearchPromptsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "c3e90516-8daf-4147-9c20-5e7f9d1b3046")
		return
	}

	assets, err := h.searcher.SearchByPrompt(c.Request.Context(), userID, query.Q, query.Limit)
	if err != nil {
		responses.HandleError(c, err, "prompt search failed")
		return
	}
	c.JSON(http.StatusOK, responses.NewSearchResponse(query.Q, assets))
}
