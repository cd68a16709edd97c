package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/image-api/internal/config"
	"jan-server/services/image-api/internal/domain/asset"
	"jan-server/services/image-api/internal/interfaces/httpserver/requests"
	"jan-server/services/image-api/internal/interfaces/httpserver/responses"
	"jan-server/services/image-api/internal/utils/platformerrors"
)

// AssetService is the part of the asset service the media endpoints use.
type AssetService interface {
	GenerateStorageFilename(original, contentType string) string
	UploadAndTrackMedia(ctx context.Context, params asset.UploadParams) (*asset.Asset, error)
	UploadAndTrackModel(ctx context.Context, params asset.UploadParams) (*asset.Asset, error)
	UploadAndTrackStyle(ctx context.Context, params asset.UploadParams) (*asset.Asset, error)
	GetUserAssets(ctx context.Context, userID string, limit, offset int) ([]*asset.Asset, error)
	GetUserMedia(ctx context.Context, userID string, limit, offset int) ([]*asset.Asset, error)
	GetModelAssets(ctx context.Context, userID string, limit, offset int) ([]*asset.Asset, error)
	GetStyleAssets(ctx context.Context, subcategory asset.StyleSubcategory, limit, offset int) ([]*asset.Asset, error)
	ResolveAssetByIdentifier(ctx context.Context, userID, identifier string) (*asset.Asset, error)
	OpenAsset(ctx context.Context, a *asset.Asset) (io.ReadCloser, string, error)
	ToggleAssetVisibility(ctx context.Context, userID, id string) (*asset.Asset, error)
	DeleteAsset(ctx context.Context, userID, id string) error
	PresignURL(ctx context.Context, a *asset.Asset) string
}

// MediaHandler exposes media endpoints.
type MediaHandler struct {
	cfg    *config.Config
	assets AssetService
	log    zerolog.Logger
}

func NewMediaHandler(cfg *config.Config, assets AssetService, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		cfg:    cfg,
		assets: assets,
		log:    log.With().Str("handler", "media").Logger(),
	}
}

// Upload godoc
// @Summary      Upload assets
// @Description  Stores files in the media, models or style collection and tracks them.
// @Tags         media
// @Accept       multipart/form-data
// @Produce      json
// @Param        files              formData  file    true   "Files to upload"
// @Param        collection         formData  string  false  "media, models or style"  default(media)
// @Param        style_subcategory  formData  string  false  "fit, template or product (style collection only)"
// @Param        session_id         formData  string  false  "Session to attach media to"
// @Success      200  {object}  responses.UploadResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/agent/media [post]
func (h *MediaHandler) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var form requests.UploadMediaForm
	if err := c.ShouldBind(&form); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "d4fa1627-9eb0-4258-ad31-6f80ae2c4157")
		return
	}

	collection := requests.NormalizeCollection(form.Collection, requests.CollectionMedia)
	var upload func(context.Context, asset.UploadParams) (*asset.Asset, error)
	switch collection {
	case requests.CollectionMedia:
		upload = h.assets.UploadAndTrackMedia
	case requests.CollectionModels:
		upload = h.assets.UploadAndTrackModel
	case requests.CollectionStyle:
		upload = h.assets.UploadAndTrackStyle
	default:
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("invalid collection %q", form.Collection), "e50b2738-a0c1-4369-be42-7091bf3d5268")
		return
	}

	files, err := readFormFiles(c, "files", h.cfg.MaxUploadBytes, h.cfg.MaxUploadFiles)
	if err != nil {
		responses.HandleError(c, err, "invalid upload")
		return
	}
	if len(files) == 0 {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "no files provided", "f61c3849-b1d2-447a-8f53-81a2c04e6379")
		return
	}

	var subcategory *asset.StyleSubcategory
	if raw := strings.ToLower(strings.TrimSpace(form.StyleSubcategory)); raw != "" && collection == requests.CollectionStyle {
		sub := asset.StyleSubcategory(raw)
		subcategory = &sub
	}
	var sessionID *string
	if id := strings.TrimSpace(form.SessionID); id != "" && collection == requests.CollectionMedia {
		sessionID = &id
	}

	out := responses.UploadResponse{Success: true, Assets: make([]responses.UploadedAsset, 0, len(files))}
	for _, f := range files {
		contentType := mimetype.Detect(f.Data).String()
		if i := strings.IndexByte(contentType, ';'); i >= 0 {
			contentType = contentType[:i]
		}
		stored, err := upload(c.Request.Context(), asset.UploadParams{
			UserID:           userID,
			Filename:         h.assets.GenerateStorageFilename(f.Filename, contentType),
			Data:             f.Data,
			ContentType:      contentType,
			SessionID:        sessionID,
			StyleSubcategory: subcategory,
		})
		if err != nil {
			responses.HandleError(c, err, "upload failed")
			return
		}
		out.Assets = append(out.Assets, responses.UploadedAsset{
			ID:        stored.ID,
			Filename:  stored.Filename,
			CreatedAt: stored.CreatedAt,
		})
	}
	out.Uploaded = len(out.Assets)
	c.JSON(http.StatusOK, out)
}

// List godoc
// @Summary      List assets
// @Description  Lists the caller's assets by collection. The style collection is shared by all users.
// @Tags         media
// @Produce      json
// @Param        collection         query     string  false  "all, media, models or style"  default(all)
// @Param        style_subcategory  query     string  false  "fit, template or product"
// @Param        skip               query     int     false  "Offset"
// @Param        limit              query     int     false  "Page size"  default(50)
// @Success      200  {object}  responses.AssetListResponse
// @Failure      400  {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/agent/media [get]
func (h *MediaHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var query requests.ListMediaQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, err.Error(), "072d4950-c2e3-458b-9064-92b3d15f748a")
		return
	}
	limit, skip := asset.NormalizePagination(query.Limit, query.Skip)
	ctx := c.Request.Context()

	var (
		assets []*asset.Asset
		err    error
	)
	collection := requests.NormalizeCollection(query.Collection, requests.CollectionAll)
	switch collection {
	case requests.CollectionAll:
		assets, err = h.assets.GetUserAssets(ctx, userID, limit, skip)
	case requests.CollectionMedia:
		assets, err = h.assets.GetUserMedia(ctx, userID, limit, skip)
	case requests.CollectionModels:
		assets, err = h.assets.GetModelAssets(ctx, userID, limit, skip)
	case requests.CollectionStyle:
		var sub asset.StyleSubcategory
		if raw := strings.TrimSpace(query.StyleSubcategory); raw != "" {
			parsed, ok := asset.ParseStyleSubcategory(raw)
			if !ok {
				responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
					fmt.Sprintf("unknown style_subcategory %q", raw), "183e5a61-d3f4-469c-a175-a3c4e2608a9b")
				return
			}
			sub = parsed
		}
		assets, err = h.assets.GetStyleAssets(ctx, sub, limit, skip)
	default:
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("invalid collection %q", query.Collection), "294f6b72-e405-47ad-b286-b4d5f3719bac")
		return
	}
	if err != nil {
		responses.HandleError(c, err, "failed to list assets")
		return
	}

	items := make([]responses.AssetResponse, 0, len(assets))
	for _, a := range assets {
		items = append(items, responses.NewAssetResponse(a, h.assets.PresignURL(ctx, a)))
	}
	c.JSON(http.StatusOK, responses.AssetListResponse{
		Collection: collection,
		Total:      len(items),
		Skip:       skip,
		Limit:      limit,
		Assets:     items,
	})
}

// Get godoc
// @Summary      Get asset
// @Description  Resolves one of the caller's assets by id, filename or object path.
// @Tags         media
// @Produce      json
// @Param        asset_id  path      string  true  "Asset id, filename or object path"
// @Success      200       {object}  responses.AssetResponse
// @Failure      404       {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/agent/media/{asset_id} [get]
func (h *MediaHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	a, err := h.assets.ResolveAssetByIdentifier(c.Request.Context(), userID, c.Param("asset_id"))
	if err != nil {
		responses.HandleError(c, err, "asset not found")
		return
	}
	c.JSON(http.StatusOK, responses.NewAssetResponse(a, h.assets.PresignURL(c.Request.Context(), a)))
}

// Download godoc
// @Summary      Download asset bytes
// @Description  Streams the stored object through the API.
// @Tags         media
// @Produce      octet-stream
// @Param        asset_id  path  string  true  "Asset id, filename or object path"
// @Success      200  "binary data"
// @Failure      404  {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/agent/media/{asset_id}/download [get]
func (h *MediaHandler) Download(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	a, err := h.assets.ResolveAssetByIdentifier(ctx, userID, c.Param("asset_id"))
	if err != nil {
		responses.HandleError(c, err, "asset not found")
		return
	}
	reader, contentType, err := h.assets.OpenAsset(ctx, a)
	if err != nil {
		responses.HandleError(c, err, "download failed")
		return
	}
	defer reader.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	length := a.FileSize
	if length <= 0 {
		length = -1
	}
	c.DataFromReader(http.StatusOK, length, contentType, reader, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", a.Filename),
	})
}

// ToggleVisibility godoc
// @Summary      Toggle asset visibility
// @Description  Flips is_public on an asset the caller owns.
// @Tags         media
// @Produce      json
// @Param        asset_id  path      string  true  "Asset id"
// @Success      200       {object}  responses.VisibilityResponse
// @Failure      403       {object}  responses.ErrorResponse
// @Failure      404       {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/agent/media/{asset_id}/visibility [patch]
func (h *MediaHandler) ToggleVisibility(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	a, err := h.assets.ToggleAssetVisibility(c.Request.Context(), userID, c.Param("asset_id"))
	if err != nil {
		responses.HandleError(c, err, "failed to toggle visibility")
		return
	}
	c.JSON(http.StatusOK, responses.VisibilityResponse{ID: a.ID, IsPublic: a.IsPublic})
}

// Delete godoc
// @Summary      Delete asset
// @Description  Soft deletes an asset the caller owns. Deleting twice succeeds.
// @Tags         media
// @Produce      json
// @Param        asset_id  path      string  true  "Asset id"
// @Success      200       {object}  map[string]interface{}
// @Failure      403       {object}  responses.ErrorResponse
// @Failure      404       {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/agent/media/{asset_id} [delete]
func (h *MediaHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	id := c.Param("asset_id")
	if err := h.assets.DeleteAsset(c.Request.Context(), userID, id); err != nil {
		responses.HandleError(c, err, "failed to delete asset")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "deleted": true})
}
