package asset

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jan-server/services/image-api/internal/config"
	"jan-server/services/image-api/internal/utils/platformerrors"
)

type memoryRepo struct {
	mu        sync.Mutex
	assets    map[string]*Asset
	createErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{assets: make(map[string]*Asset)}
}

func (r *memoryRepo) Create(_ context.Context, a *Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	clone := *a
	r.assets[a.ID] = &clone
	return nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id string) (*Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[id]
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, "asset not found", ErrAssetNotFound, "")
	}
	clone := *a
	return &clone, nil
}

func (r *memoryRepo) List(_ context.Context, q Query) ([]*Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Asset
	for _, a := range r.assets {
		if !a.IsActive {
			continue
		}
		if q.UserID != "" && a.UserID != q.UserID {
			continue
		}
		if q.AssetType != "" && a.AssetType != q.AssetType {
			continue
		}
		if q.SessionID != "" && (a.SessionID == nil || *a.SessionID != q.SessionID) {
			continue
		}
		clone := *a
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryRepo) FindByIdentifier(_ context.Context, userID, identifier string) (*Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assets {
		if a.IsActive && a.UserID == userID && (a.ID == identifier || a.Filename == identifier || a.ObjectPath == identifier) {
			clone := *a
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) FindLatestStyleByStem(_ context.Context, stem string) (*Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.assets {
		if a.IsActive && a.AssetType == AssetTypeStyle && strings.HasPrefix(a.Filename, stem+".") {
			clone := *a
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) SearchByPrompt(_ context.Context, userID, query string, limit int) ([]*Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Asset
	for _, a := range r.assets {
		if a.IsActive && a.UserID == userID && a.AssetType == AssetTypeMedia &&
			strings.Contains(strings.ToLower(a.RefinedPrompt), strings.ToLower(query)) {
			clone := *a
			out = append(out, &clone)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepo) Update(_ context.Context, a *Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *a
	r.assets[a.ID] = &clone
	return nil
}

type memoryStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	uploadErr error
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (s *memoryStorage) Upload(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.types[key] = contentType
	return nil
}

func (s *memoryStorage) Download(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, "", errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), s.types[key], nil
}

func (s *memoryStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.test/" + key, nil
}

func (s *memoryStorage) Bucket() string { return "test-bucket" }

func testConfig() *config.Config {
	return &config.Config{
		PrefixMedia:    "media",
		PrefixModels:   "models/static",
		PrefixStyles:   "styles",
		MaxUploadBytes: 1 << 20,
		PresignTTL:     time.Minute,
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestService() (*Service, *memoryRepo, *memoryStorage) {
	repo := newMemoryRepo()
	storage := newMemoryStorage()
	return NewService(testConfig(), repo, storage, zerolog.Nop()), repo, storage
}

func TestUploadAndTrackMedia(t *testing.T) {
	svc, repo, storage := newTestService()
	sessionID := "ses_1"

	a, err := svc.UploadAndTrackMedia(context.Background(), UploadParams{
		UserID:        "user-1",
		Filename:      "sunset_01.png",
		Data:          pngBytes(t, 4, 3),
		ContentType:   MimePNG,
		SessionID:     &sessionID,
		RefinedPrompt: "a warm sunset over mountains",
	})
	require.NoError(t, err)

	assert.Equal(t, "media/user-1/sunset_01.png", a.ObjectPath)
	assert.Equal(t, "test-bucket", a.BucketName)
	assert.Equal(t, AssetTypeMedia, a.AssetType)
	assert.Nil(t, a.StyleSubcategory)
	assert.True(t, a.IsActive)
	assert.Nil(t, a.DeletedAt)
	require.NotNil(t, a.Width)
	assert.Equal(t, 4, *a.Width)
	assert.Equal(t, 3, *a.Height)
	assert.Equal(t, []string{}, a.SourceModelIDs)
	assert.Contains(t, storage.objects, "media/user-1/sunset_01.png")
	assert.Len(t, repo.assets, 1)
}

func TestUploadAndTrackMediaFallsBackToFilenameWhenStorageFails(t *testing.T) {
	svc, repo, storage := newTestService()
	storage.uploadErr = errors.New("bucket unreachable")

	a, err := svc.UploadAndTrackMedia(context.Background(), UploadParams{
		UserID:   "user-1",
		Filename: "lost.png",
		Data:     pngBytes(t, 2, 2),
	})
	require.NoError(t, err)

	assert.Equal(t, "lost.png", a.ObjectPath)
	assert.Len(t, repo.assets, 1)
	assert.Empty(t, storage.objects)
}

func TestUploadAndTrackMediaSurfacesConflict(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.createErr = platformerrors.NewError(context.Background(), platformerrors.LayerRepository,
		platformerrors.ErrorTypeConflict, "duplicate object path", ErrPersistenceConflict, "")

	_, err := svc.UploadAndTrackMedia(context.Background(), UploadParams{
		UserID:   "user-1",
		Filename: "dup.png",
		Data:     pngBytes(t, 2, 2),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistenceConflict)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict))
}

func TestUploadValidation(t *testing.T) {
	svc, _, _ := newTestService()
	tests := []struct {
		name   string
		params UploadParams
	}{
		{name: "missing user", params: UploadParams{Filename: "a.png", Data: []byte{1}}},
		{name: "missing filename", params: UploadParams{UserID: "u", Data: []byte{1}}},
		{name: "empty data", params: UploadParams{UserID: "u", Filename: "a.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UploadAndTrackMedia(context.Background(), tt.params)
			require.Error(t, err)
			assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
		})
	}
}

func TestUploadAndTrackStyle(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.UploadAndTrackStyle(context.Background(), UploadParams{
		UserID: "admin", Filename: "polaroid.png", Data: pngBytes(t, 2, 2),
	})
	require.Error(t, err)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))

	sub := StyleSubcategoryTemplate
	a, err := svc.UploadAndTrackStyle(context.Background(), UploadParams{
		UserID: "admin", Filename: "polaroid.png", Data: pngBytes(t, 2, 2), StyleSubcategory: &sub,
	})
	require.NoError(t, err)
	assert.Equal(t, "styles/template/polaroid.png", a.ObjectPath)
	assert.Equal(t, AssetTypeStyle, a.AssetType)
	require.NotNil(t, a.StyleSubcategory)
	assert.Equal(t, StyleSubcategoryTemplate, *a.StyleSubcategory)

	ref, err := svc.FindStyleReference(context.Background(), "Polaroid")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, a.ID, ref.ID)
}

func TestUploadAndTrackModelDropsSubcategory(t *testing.T) {
	svc, _, _ := newTestService()
	sub := StyleSubcategoryFit

	a, err := svc.UploadAndTrackModel(context.Background(), UploadParams{
		UserID: "user-1", Filename: "person.png", Data: pngBytes(t, 2, 2), StyleSubcategory: &sub,
	})
	require.NoError(t, err)
	assert.Equal(t, "models/static/person.png", a.ObjectPath)
	assert.Nil(t, a.StyleSubcategory)
}

func TestDeleteAssetIsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService()
	a, err := svc.UploadAndTrackMedia(context.Background(), UploadParams{
		UserID: "user-1", Filename: "x.png", Data: pngBytes(t, 2, 2),
	})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.DeleteAsset(context.Background(), "user-1", a.ID))
		stored := repo.assets[a.ID]
		assert.False(t, stored.IsActive)
		assert.NotNil(t, stored.DeletedAt)
	}

	listed, err := svc.GetUserMedia(context.Background(), "user-1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestDeleteAssetRequiresOwnership(t *testing.T) {
	svc, _, _ := newTestService()
	a, err := svc.UploadAndTrackMedia(context.Background(), UploadParams{
		UserID: "owner", Filename: "x.png", Data: pngBytes(t, 2, 2),
	})
	require.NoError(t, err)

	err = svc.DeleteAsset(context.Background(), "intruder", a.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	err = svc.DeleteAsset(context.Background(), "owner", "ast_missing")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestToggleAssetVisibility(t *testing.T) {
	svc, _, _ := newTestService()
	a, err := svc.UploadAndTrackMedia(context.Background(), UploadParams{
		UserID: "owner", Filename: "x.png", Data: pngBytes(t, 2, 2),
	})
	require.NoError(t, err)
	require.False(t, a.IsPublic)

	toggled, err := svc.ToggleAssetVisibility(context.Background(), "owner", a.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsPublic)

	toggled, err = svc.ToggleAssetVisibility(context.Background(), "owner", a.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsPublic)

	_, err = svc.ToggleAssetVisibility(context.Background(), "intruder", a.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeForbidden))
}

func TestLoadModelAssets(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.UploadAndTrackModel(ctx, UploadParams{UserID: "user-1", Filename: "a.png", Data: pngBytes(t, 2, 2)})
	require.NoError(t, err)
	second, err := svc.UploadAndTrackModel(ctx, UploadParams{UserID: "user-1", Filename: "b.png", Data: pngBytes(t, 3, 3)})
	require.NoError(t, err)
	media, err := svc.UploadAndTrackMedia(ctx, UploadParams{UserID: "user-1", Filename: "c.png", Data: pngBytes(t, 2, 2)})
	require.NoError(t, err)

	images, err := svc.LoadModelAssets(ctx, "user-1", []string{second.ID, first.ID})
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, second.ID, images[0].AssetID)
	assert.Equal(t, first.ID, images[1].AssetID)
	assert.Equal(t, MimePNG, images[0].ContentType)

	_, err = svc.LoadModelAssets(ctx, "user-1", []string{media.ID})
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))

	_, err = svc.LoadModelAssets(ctx, "user-2", []string{first.ID})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestResolveAssetByIdentifier(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	a, err := svc.UploadAndTrackMedia(ctx, UploadParams{UserID: "user-1", Filename: "beach.png", Data: pngBytes(t, 2, 2)})
	require.NoError(t, err)

	got, err := svc.ResolveAssetByIdentifier(ctx, "user-1", "beach.png")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = svc.ResolveAssetByIdentifier(ctx, "user-2", "beach.png")
	assert.ErrorIs(t, err, ErrAssetNotFound)

	_, err = svc.ResolveAssetByIdentifier(ctx, "user-1", "  ")
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestSearchByPrompt(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	_, err := svc.UploadAndTrackMedia(ctx, UploadParams{UserID: "user-1", Filename: "a.png", Data: pngBytes(t, 2, 2), RefinedPrompt: "Golden Sunset over hills"})
	require.NoError(t, err)
	_, err = svc.UploadAndTrackMedia(ctx, UploadParams{UserID: "user-1", Filename: "b.png", Data: pngBytes(t, 2, 2), RefinedPrompt: "city at night"})
	require.NoError(t, err)

	found, err := svc.SearchByPrompt(ctx, "user-1", "sunset", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "a.png", found[0].Filename)

	_, err = svc.SearchByPrompt(ctx, "user-1", "", 10)
	assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation))
}

func TestGenerateStorageFilename(t *testing.T) {
	svc, _, _ := newTestService()
	pattern := regexp.MustCompile(`^[A-Za-z0-9_-]+_[0-9a-z]{26}\.[a-z]+$`)

	tests := []struct {
		original    string
		contentType string
		wantPrefix  string
		wantExt     string
	}{
		{original: "My Photo (1).jpeg", contentType: MimeJPEG, wantPrefix: "My_Photo_1_", wantExt: ".jpg"},
		{original: "sunset.png", contentType: MimePNG, wantPrefix: "sunset_", wantExt: ".png"},
		{original: "", contentType: MimePNG, wantPrefix: "image_", wantExt: ".png"},
		{original: "../../etc/passwd", contentType: MimePNG, wantPrefix: "passwd_", wantExt: ".png"},
	}
	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			got := svc.GenerateStorageFilename(tt.original, tt.contentType)
			assert.Regexp(t, pattern, got)
			assert.True(t, strings.HasPrefix(got, tt.wantPrefix), got)
			assert.True(t, strings.HasSuffix(got, tt.wantExt), got)
		})
	}
}

func TestInspect(t *testing.T) {
	info, err := Inspect(pngBytes(t, 5, 7))
	require.NoError(t, err)
	assert.Equal(t, MimePNG, info.MimeType)
	assert.Equal(t, 5, info.Width)
	assert.Equal(t, 7, info.Height)

	_, err = Inspect([]byte("GIF89a not really"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, err = Inspect(nil)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
