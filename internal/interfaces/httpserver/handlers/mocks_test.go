package handlers_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"jan-server/services/image-api/internal/domain/asset"
	"jan-server/services/image-api/internal/domain/generation"
	"jan-server/services/image-api/internal/infrastructure/auth"
)

// MockImageGenerator stands in for the generation orchestrator.
type MockImageGenerator struct {
	GenerateImageFunc func(ctx context.Context, req generation.ImageRequest, userID string) (*generation.ImageResponse, error)
}

func (m *MockImageGenerator) GenerateImage(ctx context.Context, req generation.ImageRequest, userID string) (*generation.ImageResponse, error) {
	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, req, userID)
	}
	return nil, nil
}

// MockAssetService is a mock implementation of the asset service for testing.
// Only includes the methods actually used by the handlers.
type MockAssetService struct {
	UploadMediaFunc    func(ctx context.Context, params asset.UploadParams) (*asset.Asset, error)
	UploadModelFunc    func(ctx context.Context, params asset.UploadParams) (*asset.Asset, error)
	UploadStyleFunc    func(ctx context.Context, params asset.UploadParams) (*asset.Asset, error)
	GetUserAssetsFunc  func(ctx context.Context, userID string, limit, offset int) ([]*asset.Asset, error)
	GetUserMediaFunc   func(ctx context.Context, userID string, limit, offset int) ([]*asset.Asset, error)
	GetModelAssetsFunc func(ctx context.Context, userID string, limit, offset int) ([]*asset.Asset, error)
	GetStyleAssetsFunc func(ctx context.Context, subcategory asset.StyleSubcategory, limit, offset int) ([]*asset.Asset, error)
	ResolveFunc        func(ctx context.Context, userID, identifier string) (*asset.Asset, error)
	OpenFunc           func(ctx context.Context, a *asset.Asset) (io.ReadCloser, string, error)
	ToggleFunc         func(ctx context.Context, userID, id string) (*asset.Asset, error)
	DeleteFunc         func(ctx context.Context, userID, id string) error
	SearchFunc         func(ctx context.Context, userID, query string, limit int) ([]*asset.Asset, error)
}

func (m *MockAssetService) GenerateStorageFilename(original, _ string) string {
	return "stored-" + original
}

func (m *MockAssetService) UploadAndTrackMedia(ctx context.Context, params asset.UploadParams) (*asset.Asset, error) {
	if m.UploadMediaFunc != nil {
		return m.UploadMediaFunc(ctx, params)
	}
	return &asset.Asset{ID: "ast_media", Filename: params.Filename}, nil
}

func (m *MockAssetService) UploadAndTrackModel(ctx context.Context, params asset.UploadParams) (*asset.Asset, error) {
	if m.UploadModelFunc != nil {
		return m.UploadModelFunc(ctx, params)
	}
	return &asset.Asset{ID: "ast_model", Filename: params.Filename}, nil
}

func (m *MockAssetService) UploadAndTrackStyle(ctx context.Context, params asset.UploadParams) (*asset.Asset, error) {
	if m.UploadStyleFunc != nil {
		return m.UploadStyleFunc(ctx, params)
	}
	return &asset.Asset{ID: "ast_style", Filename: params.Filename}, nil
}

func (m *MockAssetService) GetUserAssets(ctx context.Context, userID string, limit, offset int) ([]*asset.Asset, error) {
	if m.GetUserAssetsFunc != nil {
		return m.GetUserAssetsFunc(ctx, userID, limit, offset)
	}
	return nil, nil
}

func (m *MockAssetService) GetUserMedia(ctx context.Context, userID string, limit, offset int) ([]*asset.Asset, error) {
	if m.GetUserMediaFunc != nil {
		return m.GetUserMediaFunc(ctx, userID, limit, offset)
	}
	return nil, nil
}

func (m *MockAssetService) GetModelAssets(ctx context.Context, userID string, limit, offset int) ([]*asset.Asset, error) {
	if m.GetModelAssetsFunc != nil {
		return m.GetModelAssetsFunc(ctx, userID, limit, offset)
	}
	return nil, nil
}

func (m *MockAssetService) GetStyleAssets(ctx context.Context, subcategory asset.StyleSubcategory, limit, offset int) ([]*asset.Asset, error) {
	if m.GetStyleAssetsFunc != nil {
		return m.GetStyleAssetsFunc(ctx, subcategory, limit, offset)
	}
	return nil, nil
}

func (m *MockAssetService) ResolveAssetByIdentifier(ctx context.Context, userID, identifier string) (*asset.Asset, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, userID, identifier)
	}
	return nil, nil
}

func (m *MockAssetService) OpenAsset(ctx context.Context, a *asset.Asset) (io.ReadCloser, string, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, a)
	}
	return io.NopCloser(bytes.NewReader(nil)), "", nil
}

func (m *MockAssetService) ToggleAssetVisibility(ctx context.Context, userID, id string) (*asset.Asset, error) {
	if m.ToggleFunc != nil {
		return m.ToggleFunc(ctx, userID, id)
	}
	return nil, nil
}

func (m *MockAssetService) DeleteAsset(ctx context.Context, userID, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, id)
	}
	return nil
}

func (m *MockAssetService) PresignURL(_ context.Context, a *asset.Asset) string {
	return "https://cdn.test/" + a.ID
}

func (m *MockAssetService) SearchByPrompt(ctx context.Context, userID, query string, limit int) ([]*asset.Asset, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, userID, query, limit)
	}
	return nil, nil
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

// asUser installs a principal the way the auth middleware does.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			auth.SetPrincipal(c, userID)
		}
		c.Next()
	}
}

func newRouter(userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(asUser(userID))
	return router
}

type formFile struct {
	name string
	data []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
