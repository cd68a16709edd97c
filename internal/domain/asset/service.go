package asset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/image-api/internal/config"
	"jan-server/services/image-api/internal/infrastructure/metrics"
	"jan-server/services/image-api/internal/utils/platformerrors"
	"jan-server/services/image-api/utils/idgen"
)

// Repository defines persistence operations needed by the service.
type Repository interface {
	Create(ctx context.Context, a *Asset) error
	// GetByID returns the asset even when it is inactive.
	GetByID(ctx context.Context, id string) (*Asset, error)
	List(ctx context.Context, q Query) ([]*Asset, error)
	FindByIdentifier(ctx context.Context, userID, identifier string) (*Asset, error)
	FindLatestStyleByStem(ctx context.Context, stem string) (*Asset, error)
	SearchByPrompt(ctx context.Context, userID, query string, limit int) ([]*Asset, error)
	Update(ctx context.Context, a *Asset) error
}

// Storage defines object storage operations.
type Storage interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Bucket() string
}

var unsafeStemChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Service coordinates a storage write with a metadata write.
type Service struct {
	cfg     *config.Config
	repo    Repository
	storage Storage
	log     zerolog.Logger
	now     func() time.Time
}

func NewService(cfg *config.Config, repo Repository, storage Storage, log zerolog.Logger) *Service {
	return &Service{
		cfg:     cfg,
		repo:    repo,
		storage: storage,
		log:     log.With().Str("component", "asset-service").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GenerateStorageFilename builds "<stem>_<ulid>.<ext>" with the extension taken from the content type.
func (s *Service) GenerateStorageFilename(original, contentType string) string {
	stem := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	stem = strings.Trim(unsafeStemChars.ReplaceAllString(stem, "_"), "_")
	if stem == "" || stem == "." {
		stem = "image"
	}
	if len(stem) > 64 {
		stem = stem[:64]
	}
	return fmt.Sprintf("%s_%s.%s", stem, idgen.NewToken(), ExtensionForMIME(contentType))
}

// UploadAndTrackMedia stores a generated or uploaded image under media/<user>/<filename>.
func (s *Service) UploadAndTrackMedia(ctx context.Context, params UploadParams) (*Asset, error) {
	if err := validateUpload(ctx, params); err != nil {
		return nil, err
	}
	key := path.Join(s.cfg.PrefixMedia, params.UserID, params.Filename)
	params.StyleSubcategory = nil
	return s.uploadAndTrack(ctx, AssetTypeMedia, key, params)
}

// UploadAndTrackModel stores a reusable model reference under models/static/<filename>.
func (s *Service) UploadAndTrackModel(ctx context.Context, params UploadParams) (*Asset, error) {
	if err := validateUpload(ctx, params); err != nil {
		return nil, err
	}
	key := path.Join(s.cfg.PrefixModels, params.Filename)
	params.StyleSubcategory = nil
	return s.uploadAndTrack(ctx, AssetTypeModel, key, params)
}

// UploadAndTrackStyle stores a style reference under styles/<subcategory>/<filename>.
func (s *Service) UploadAndTrackStyle(ctx context.Context, params UploadParams) (*Asset, error) {
	if err := validateUpload(ctx, params); err != nil {
		return nil, err
	}
	if params.StyleSubcategory == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"style_subcategory is required for style assets (fit, template or product)", nil,
			"5d0c7a12-9e3b-4f61-8a2d-3b7e1c9f4a06")
	}
	if _, ok := ParseStyleSubcategory(string(*params.StyleSubcategory)); !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unknown style_subcategory %q", *params.StyleSubcategory), nil,
			"6e1d8b23-0f4c-4a72-9b3e-4c8f2d0a5b17")
	}
	key := path.Join(s.cfg.PrefixStyles, string(*params.StyleSubcategory), params.Filename)
	return s.uploadAndTrack(ctx, AssetTypeStyle, key, params)
}

func validateUpload(ctx context.Context, params UploadParams) error {
	switch {
	case strings.TrimSpace(params.UserID) == "":
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"user id is required", nil, "0a4f2c6e-8b1d-4e93-a7c5-1f3b9d2e6a80")
	case strings.TrimSpace(params.Filename) == "":
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"filename is required", nil, "1b5a3d7f-9c2e-4fa4-b8d6-2a4c0e3f7b91")
	case len(params.Data) == 0:
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"file is empty", nil, "2c6b4e80-0d3f-4ab5-89e7-3b5d1f4a8ca2")
	}
	return nil
}

func (s *Service) uploadAndTrack(ctx context.Context, assetType AssetType, key string, params UploadParams) (*Asset, error) {
	contentType := params.ContentType
	if params.Width == nil || params.Height == nil || contentType == "" {
		if info, err := Inspect(params.Data); err == nil {
			contentType = info.MimeType
			params.Width, params.Height = &info.Width, &info.Height
		}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	collection := string(assetType)
	size := int64(len(params.Data))
	objectPath := key
	if err := s.storage.Upload(ctx, key, bytes.NewReader(params.Data), size, contentType); err != nil {
		// Metadata is recorded even while storage is degraded.
		s.log.Warn().
			Err(err).
			Str("object_path", key).
			Str("user_id", params.UserID).
			Msg("storage upload failed, recording asset with filename as object path")
		metrics.RecordUpload(collection, "failed", size)
		objectPath = params.Filename
	} else {
		metrics.RecordUpload(collection, "success", size)
	}

	sourceModels := params.SourceModelIDs
	if sourceModels == nil {
		sourceModels = []string{}
	}

	now := s.now()
	a := &Asset{
		ID:               idgen.NewAssetID(),
		ObjectPath:       objectPath,
		BucketName:       s.storage.Bucket(),
		AssetType:        assetType,
		StyleSubcategory: params.StyleSubcategory,
		Filename:         params.Filename,
		MimeType:         contentType,
		FileSize:         size,
		Width:            params.Width,
		Height:           params.Height,
		UserID:           params.UserID,
		SessionID:        params.SessionID,
		SourceModelIDs:   sourceModels,
		SourceStyleID:    params.SourceStyleID,
		RefinedPrompt:    params.RefinedPrompt,
		IsActive:         true,
		IsPublic:         params.IsPublic,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to record asset")
	}

	s.log.Info().
		Str("asset_id", a.ID).
		Str("asset_type", collection).
		Str("object_path", a.ObjectPath).
		Int64("file_size", size).
		Msg("asset tracked")
	return a, nil
}

// GetUserAssets lists every active asset owned by the user.
func (s *Service) GetUserAssets(ctx context.Context, userID string, limit, offset int) ([]*Asset, error) {
	return s.list(ctx, Query{UserID: userID}, limit, offset)
}

// GetUserMedia lists the user's generated and uploaded media.
func (s *Service) GetUserMedia(ctx context.Context, userID string, limit, offset int) ([]*Asset, error) {
	return s.list(ctx, Query{UserID: userID, AssetType: AssetTypeMedia}, limit, offset)
}

// GetSessionAssets lists assets produced within one session.
func (s *Service) GetSessionAssets(ctx context.Context, sessionID string, limit, offset int) ([]*Asset, error) {
	return s.list(ctx, Query{SessionID: sessionID}, limit, offset)
}

// GetStyleAssets lists style references, optionally narrowed to one subcategory.
func (s *Service) GetStyleAssets(ctx context.Context, subcategory StyleSubcategory, limit, offset int) ([]*Asset, error) {
	return s.list(ctx, Query{AssetType: AssetTypeStyle, StyleSubcategory: subcategory}, limit, offset)
}

// GetModelAssets lists the user's model references.
func (s *Service) GetModelAssets(ctx context.Context, userID string, limit, offset int) ([]*Asset, error) {
	return s.list(ctx, Query{UserID: userID, AssetType: AssetTypeModel}, limit, offset)
}

func (s *Service) list(ctx context.Context, q Query, limit, offset int) ([]*Asset, error) {
	q.Limit, q.Offset = NormalizePagination(limit, offset)
	assets, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list assets")
	}
	return assets, nil
}

// ResolveAssetByIdentifier finds one of the caller's active assets by id, filename or object path.
func (s *Service) ResolveAssetByIdentifier(ctx context.Context, userID, identifier string) (*Asset, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"asset identifier is required", nil, "3d7c5f91-1e40-4bc6-9af8-4c6e2a5b9db3")
	}
	a, err := s.repo.FindByIdentifier(ctx, userID, identifier)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to resolve asset")
	}
	if a == nil {
		return nil, assetNotFound(ctx, identifier)
	}
	return a, nil
}

// OpenAsset streams the stored bytes of an asset.
func (s *Service) OpenAsset(ctx context.Context, a *Asset) (io.ReadCloser, string, error) {
	reader, contentType, err := s.storage.Download(ctx, a.ObjectPath)
	if err != nil {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			fmt.Sprintf("failed to download asset %s", a.ID), err, "4e8d6a02-2f51-4cd7-8b09-5d7f3b6cae04")
	}
	if contentType == "" {
		contentType = a.MimeType
	}
	return reader, contentType, nil
}

// FetchAssetBytes downloads the whole object into memory.
func (s *Service) FetchAssetBytes(ctx context.Context, a *Asset) ([]byte, string, error) {
	reader, contentType, err := s.OpenAsset(ctx, a)
	if err != nil {
		return nil, "", err
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeStorage,
			fmt.Sprintf("failed to read asset %s", a.ID), err, "5f9e7b13-3a62-4de8-9c1a-6e8a4c7dbf15")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("asset %s exceeds max size of %d bytes", a.ID, s.cfg.MaxUploadBytes), nil,
			"60af8c24-4b73-4ef9-8d2b-7f9b5d8ec026")
	}
	return data, contentType, nil
}

// LoadModelAssets returns the bytes of the caller's active model assets, in the order requested.
func (s *Service) LoadModelAssets(ctx context.Context, userID string, ids []string) ([]ModelImage, error) {
	images := make([]ModelImage, 0, len(ids))
	for _, id := range ids {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, fmt.Sprintf("failed to load model asset %s", id))
		}
		if !a.IsActive {
			return nil, assetNotFound(ctx, id)
		}
		if !a.OwnedBy(userID) {
			return nil, notOwner(ctx, id)
		}
		if a.AssetType != AssetTypeModel {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("asset %s is a %s asset, not a model", id, a.AssetType), nil,
				"71b09d35-5c84-4f0a-9e3c-8a0c6e9fd137")
		}

		data, contentType, err := s.FetchAssetBytes(ctx, a)
		if err != nil {
			return nil, err
		}
		images = append(images, ModelImage{
			AssetID:     a.ID,
			Filename:    a.Filename,
			ContentType: contentType,
			Data:        data,
		})
	}
	return images, nil
}

// FindStyleReference returns the newest style asset registered for a preset key, or nil.
func (s *Service) FindStyleReference(ctx context.Context, presetKey string) (*Asset, error) {
	presetKey = strings.ToLower(strings.TrimSpace(presetKey))
	if presetKey == "" {
		return nil, nil
	}
	a, err := s.repo.FindLatestStyleByStem(ctx, presetKey)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to look up style reference")
	}
	return a, nil
}

// SearchByPrompt matches the caller's media by refined prompt, case-insensitively.
func (s *Service) SearchByPrompt(ctx context.Context, userID, query string, limit int) ([]*Asset, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"search query is required", nil, "82c1ae46-6d95-401b-8f4d-9b1d7fa0e248")
	}
	limit, _ = NormalizePagination(limit, 0)
	assets, err := s.repo.SearchByPrompt(ctx, userID, query, limit)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to search assets")
	}
	return assets, nil
}

// DeleteAsset soft deletes an asset. Deleting an already inactive asset succeeds.
func (s *Service) DeleteAsset(ctx context.Context, userID, id string) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete asset")
	}
	if !a.OwnedBy(userID) {
		return notOwner(ctx, id)
	}
	if !a.IsActive {
		return nil
	}

	now := s.now()
	a.IsActive = false
	a.DeletedAt = &now
	a.UpdatedAt = now
	if err := s.repo.Update(ctx, a); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete asset")
	}
	s.log.Info().Str("asset_id", id).Str("user_id", userID).Msg("asset soft deleted")
	return nil
}

// ToggleAssetVisibility flips is_public on an asset the caller owns.
func (s *Service) ToggleAssetVisibility(ctx context.Context, userID, id string) (*Asset, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to toggle asset visibility")
	}
	if !a.IsActive {
		return nil, assetNotFound(ctx, id)
	}
	if !a.OwnedBy(userID) {
		return nil, notOwner(ctx, id)
	}

	a.IsPublic = !a.IsPublic
	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to toggle asset visibility")
	}
	return a, nil
}

// PresignURL returns a short-lived download URL, or "" when storage cannot sign.
func (s *Service) PresignURL(ctx context.Context, a *Asset) string {
	url, err := s.storage.PresignGet(ctx, a.ObjectPath, s.cfg.PresignTTL)
	if err != nil {
		s.log.Debug().Err(err).Str("asset_id", a.ID).Msg("presign failed")
		return ""
	}
	return url
}

func assetNotFound(ctx context.Context, identifier string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
		fmt.Sprintf("asset %s not found", identifier), ErrAssetNotFound, "93d2bf57-7ea6-412c-a05e-0c2e8ab1f359")
}

func notOwner(ctx context.Context, id string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
		fmt.Sprintf("asset %s belongs to another user", id), ErrNotOwner, "a4e3c068-8fb7-423d-b16f-1d3f9bc2f46a")
}
