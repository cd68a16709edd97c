package responses

import (
	"time"

	"jan-server/services/image-api/internal/domain/asset"
)

// AssetResponse is the public view of an asset.
type AssetResponse struct {
	ID               string                  `json:"id"`
	AssetType        asset.AssetType         `json:"asset_type"`
	StyleSubcategory *asset.StyleSubcategory `json:"style_subcategory,omitempty"`
	Filename         string                  `json:"filename"`
	ObjectPath       string                  `json:"object_path"`
	MimeType         string                  `json:"mime_type"`
	FileSize         int64                   `json:"file_size"`
	Width            *int                    `json:"width,omitempty"`
	Height           *int                    `json:"height,omitempty"`
	SessionID        *string                 `json:"session_id,omitempty"`
	Prompt           string                  `json:"prompt,omitempty"`
	SourceModelIDs   []string                `json:"source_model_ids"`
	SourceStyleID    *string                 `json:"source_style_id,omitempty"`
	IsPublic         bool                    `json:"is_public"`
	URL              string                  `json:"url,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
}

// UploadedAsset is one entry of an upload response.
type UploadedAsset struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadResponse is returned by the media upload endpoint.
type UploadResponse struct {
	Success  bool            `json:"success"`
	Uploaded int             `json:"uploaded"`
	Assets   []UploadedAsset `json:"assets"`
}

// AssetListResponse is returned by the media list endpoint.
type AssetListResponse struct {
	Collection string          `json:"collection"`
	Total      int             `json:"total"`
	Skip       int             `json:"skip"`
	Limit      int             `json:"limit"`
	Assets     []AssetResponse `json:"assets"`
}

// SearchResult is one match of a prompt search.
type SearchResult struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
}

// SearchResponse is returned by the prompt search endpoint.
type SearchResponse struct {
	Query   string         `json:"query"`
	Total   int            `json:"total"`
	Results []SearchResult `json:"results"`
}

// VisibilityResponse reports the visibility after a toggle.
type VisibilityResponse struct {
	ID       string `json:"id"`
	IsPublic bool   `json:"is_public"`
}

// NewAssetResponse maps a domain asset. url may be empty.
func NewAssetResponse(a *asset.Asset, url string) AssetResponse {
	sourceModels := a.SourceModelIDs
	if sourceModels == nil {
		sourceModels = []string{}
	}
	return AssetResponse{
		ID:               a.ID,
		AssetType:        a.AssetType,
		StyleSubcategory: a.StyleSubcategory,
		Filename:         a.Filename,
		ObjectPath:       a.ObjectPath,
		MimeType:         a.MimeType,
		FileSize:         a.FileSize,
		Width:            a.Width,
		Height:           a.Height,
		SessionID:        a.SessionID,
		Prompt:           a.RefinedPrompt,
		SourceModelIDs:   sourceModels,
		SourceStyleID:    a.SourceStyleID,
		IsPublic:         a.IsPublic,
		URL:              url,
		CreatedAt:        a.CreatedAt,
	}
}

func NewSearchResponse(query string, assets []*asset.Asset) SearchResponse {
	results := make([]SearchResult, 0, len(assets))
	for _, a := range assets {
		results = append(results, SearchResult{ID: a.ID, Prompt: a.RefinedPrompt, CreatedAt: a.CreatedAt})
	}
	return SearchResponse{Query: query, Total: len(results), Results: results}
}
