package asset

import (
	"context"
	"errors"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	domain "jan-server/services/image-api/internal/domain/asset"
	"jan-server/services/image-api/internal/infrastructure/database/entities"
	"jan-server/services/image-api/internal/utils/platformerrors"
	"jan-server/services/image-api/utils/idgen"
)

// Repository persists asset metadata with gorm.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, a *domain.Asset) error {
	entity := toEntity(a)
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		if isUniqueViolation(err) {
			return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict,
				"asset object path already exists", errors.Join(domain.ErrPersistenceConflict, err),
				"4a1b7c0e-2f4d-4c8a-9e53-6d0f1a2b3c4d")
		}
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to create asset", err, "5b2c8d1f-3a5e-4d9b-8f64-7e1a2b3c4d5e")
	}
	a.CreatedAt, a.UpdatedAt = entity.CreatedAt, entity.UpdatedAt
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	var entity entities.Asset
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
				"asset not found", errors.Join(domain.ErrAssetNotFound, err), "6c3d9e2a-4b6f-4e0c-9a75-8f2b3c4d5e6f")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to get asset by id", err, "7d4e0f3b-5c7a-4f1d-8b86-9a3c4d5e6f70")
	}
	return toDomain(entity), nil
}

func (r *Repository) List(ctx context.Context, q domain.Query) ([]*domain.Asset, error) {
	tx := r.db.WithContext(ctx).Model(&entities.Asset{}).Where("is_active = ?", true)
	if q.UserID != "" {
		tx = tx.Where("user_id = ?", q.UserID)
	}
	if q.SessionID != "" {
		tx = tx.Where("session_id = ?", q.SessionID)
	}
	if q.AssetType != "" {
		tx = tx.Where("asset_type = ?", string(q.AssetType))
	}
	if q.StyleSubcategory != "" {
		tx = tx.Where("style_subcategory = ?", string(q.StyleSubcategory))
	}
	limit, offset := domain.NormalizePagination(q.Limit, q.Offset)

	var rows []entities.Asset
	if err := tx.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list assets", err, "8e5f1a4c-6d8b-4a2e-9c97-0b4d5e6f7081")
	}
	return toDomainList(rows), nil
}

// FindByIdentifier matches an id, an exact filename or object path, or an extension-less stem.
// Only active assets of userID are considered; a miss returns nil, nil.
func (r *Repository) FindByIdentifier(ctx context.Context, userID, identifier string) (*domain.Asset, error) {
	identifier = strings.TrimSpace(identifier)
	base := r.db.WithContext(ctx).Where("user_id = ? AND is_active = ?", userID, true)

	if idgen.IsValid(idgen.PrefixAsset, identifier) {
		return r.first(ctx, base.Where("id = ?", strings.ToLower(identifier)))
	}

	escaped := escapeLike(identifier)
	cond := r.db.Where("object_path = ?", identifier).Or("filename = ?", identifier)
	if !strings.Contains(identifier, ".") {
		cond = cond.
			Or("filename LIKE ? ESCAPE '\\'", escaped+".%").
			Or("object_path LIKE ? ESCAPE '\\'", "%/"+escaped+".%")
	} else {
		cond = cond.Or("object_path LIKE ? ESCAPE '\\'", "%/"+escaped)
	}
	return r.first(ctx, base.Where(cond))
}

// FindLatestStyleByStem returns the newest active style asset whose filename starts with stem,
// either as "<stem>.<ext>" or as a generated "<stem>_<token>.<ext>".
func (r *Repository) FindLatestStyleByStem(ctx context.Context, stem string) (*domain.Asset, error) {
	stem = strings.ToLower(strings.TrimSpace(stem))
	if stem == "" {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).
		Where("asset_type = ? AND is_active = ?", string(domain.AssetTypeStyle), true).
		Where("LOWER(filename) = ? OR LOWER(filename) LIKE ? ESCAPE '\\' OR LOWER(filename) LIKE ? ESCAPE '\\'",
			stem, escapeLike(stem)+".%", escapeLike(stem)+`\_%`)
	return r.first(ctx, tx)
}

// SearchByPrompt does a case-insensitive substring match over the user's media prompts.
func (r *Repository) SearchByPrompt(ctx context.Context, userID, query string, limit int) ([]*domain.Asset, error) {
	limit, _ = domain.NormalizePagination(limit, 0)
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	var rows []entities.Asset
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND asset_type = ? AND is_active = ?", userID, string(domain.AssetTypeMedia), true).
		Where("LOWER(refined_prompt) LIKE ? ESCAPE '\\'", pattern).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to search assets", err, "9f6a2b5d-7e9c-4b3f-8da8-1c5e6f708192")
	}
	return toDomainList(rows), nil
}

func (r *Repository) Update(ctx context.Context, a *domain.Asset) error {
	entity := toEntity(a)
	res := r.db.WithContext(ctx).Model(&entities.Asset{}).Where("id = ?", a.ID).Updates(map[string]any{
		"is_active":      entity.IsActive,
		"is_public":      entity.IsPublic,
		"deleted_at":     entity.DeletedAt,
		"refined_prompt": entity.RefinedPrompt,
		"session_id":     entity.SessionID,
		"updated_at":     entity.UpdatedAt,
	})
	if res.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to update asset", res.Error, "a07b3c6e-8f0d-4c4a-9eb9-2d6f708192a3")
	}
	if res.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
			"asset not found", domain.ErrAssetNotFound, "b18c4d7f-9a1e-4d5b-8fca-3e708192a3b4")
	}
	return nil
}

func (r *Repository) first(ctx context.Context, tx *gorm.DB) (*domain.Asset, error) {
	var entity entities.Asset
	err := tx.Order("created_at DESC").Order("id DESC").First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to find asset", err, "c29d5e80-ab2f-4e6c-9adb-4f8192a3b4c5")
	}
	return toDomain(entity), nil
}

// isUniqueViolation checks the translated gorm error first, then the driver message.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func toEntity(a *domain.Asset) entities.Asset {
	var sub *string
	if a.StyleSubcategory != nil {
		v := string(*a.StyleSubcategory)
		sub = &v
	}
	sources := datatypes.JSONSlice[string]{}
	if len(a.SourceModelIDs) > 0 {
		sources = append(sources, a.SourceModelIDs...)
	}
	return entities.Asset{
		ID:               a.ID,
		ObjectPath:       a.ObjectPath,
		BucketName:       a.BucketName,
		AssetType:        string(a.AssetType),
		StyleSubcategory: sub,
		Filename:         a.Filename,
		MimeType:         a.MimeType,
		FileSize:         a.FileSize,
		Width:            a.Width,
		Height:           a.Height,
		UserID:           a.UserID,
		SessionID:        a.SessionID,
		SourceModelIDs:   sources,
		SourceStyleID:    a.SourceStyleID,
		RefinedPrompt:    a.RefinedPrompt,
		IsActive:         a.IsActive,
		IsPublic:         a.IsPublic,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
		DeletedAt:        a.DeletedAt,
	}
}

func toDomain(e entities.Asset) *domain.Asset {
	var sub *domain.StyleSubcategory
	if e.StyleSubcategory != nil {
		v := domain.StyleSubcategory(*e.StyleSubcategory)
		sub = &v
	}
	sources := make([]string, len(e.SourceModelIDs))
	copy(sources, e.SourceModelIDs)
	return &domain.Asset{
		ID:               e.ID,
		ObjectPath:       e.ObjectPath,
		BucketName:       e.BucketName,
		AssetType:        domain.AssetType(e.AssetType),
		StyleSubcategory: sub,
		Filename:         e.Filename,
		MimeType:         e.MimeType,
		FileSize:         e.FileSize,
		Width:            e.Width,
		Height:           e.Height,
		UserID:           e.UserID,
		SessionID:        e.SessionID,
		SourceModelIDs:   sources,
		SourceStyleID:    e.SourceStyleID,
		RefinedPrompt:    e.RefinedPrompt,
		IsActive:         e.IsActive,
		IsPublic:         e.IsPublic,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
		DeletedAt:        e.DeletedAt,
	}
}

func toDomainList(rows []entities.Asset) []*domain.Asset {
	out := make([]*domain.Asset, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomain(row))
	}
	return out
}
