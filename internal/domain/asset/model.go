package asset

import (
	"strings"
	"time"
)

// AssetType classifies what a stored object is used for.
type AssetType string

const (
	AssetTypeMedia AssetType = "media"
	AssetTypeModel AssetType = "model"
	AssetTypeStyle AssetType = "style"
)

// StyleSubcategory tags style assets. It is only set when the asset type is style.
type StyleSubcategory string

const (
	StyleSubcategoryFit      StyleSubcategory = "fit"
	StyleSubcategoryTemplate StyleSubcategory = "template"
	StyleSubcategoryProduct  StyleSubcategory = "product"
)

// ParseStyleSubcategory accepts fit, template or product in any case.
func ParseStyleSubcategory(raw string) (StyleSubcategory, bool) {
	switch sub := StyleSubcategory(strings.ToLower(strings.TrimSpace(raw))); sub {
	case StyleSubcategoryFit, StyleSubcategoryTemplate, StyleSubcategoryProduct:
		return sub, true
	default:
		return "", false
	}
}

// Asset is a tracked binary object plus its metadata row.
type Asset struct {
	ID               string            `json:"id"`
	ObjectPath       string            `json:"object_path"`
	BucketName       string            `json:"bucket_name"`
	AssetType        AssetType         `json:"asset_type"`
	StyleSubcategory *StyleSubcategory `json:"style_subcategory,omitempty"`
	Filename         string            `json:"filename"`
	MimeType         string            `json:"mime_type"`
	FileSize         int64             `json:"file_size"`
	Width            *int              `json:"width,omitempty"`
	Height           *int              `json:"height,omitempty"`
	UserID           string            `json:"user_id"`
	SessionID        *string           `json:"session_id,omitempty"`
	SourceModelIDs   []string          `json:"source_model_ids"`
	SourceStyleID    *string           `json:"source_style_id,omitempty"`
	RefinedPrompt    string            `json:"refined_prompt,omitempty"`
	IsActive         bool              `json:"is_active"`
	IsPublic         bool              `json:"is_public"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
	DeletedAt        *time.Time        `json:"deleted_at,omitempty"`
}

// OwnedBy reports whether userID owns the asset.
func (a *Asset) OwnedBy(userID string) bool {
	return a != nil && a.UserID == userID
}

// UploadParams carries everything needed to store bytes and record the asset row.
type UploadParams struct {
	UserID           string
	Filename         string
	Data             []byte
	ContentType      string
	SessionID        *string
	RefinedPrompt    string
	SourceModelIDs   []string
	SourceStyleID    *string
	StyleSubcategory *StyleSubcategory
	Width            *int
	Height           *int
	IsPublic         bool
}

// Query filters asset listings. Zero values mean "no filter".
type Query struct {
	UserID           string
	SessionID        string
	AssetType        AssetType
	StyleSubcategory StyleSubcategory
	Limit            int
	Offset           int
}

// ModelImage is the raw payload of a model asset, ready to hand to a delegate.
type ModelImage struct {
	AssetID     string
	Filename    string
	ContentType string
	Data        []byte
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// NormalizePagination clamps limit and offset into the accepted range.
func NormalizePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
