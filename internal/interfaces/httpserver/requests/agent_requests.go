package requests

import (
	"strings"

	"jan-server/services/image-api/internal/domain/generation"
)

// GenerateImageForm holds the non-file fields of POST /v1/agent/prompt.
type GenerateImageForm struct {
	Prompt        string `form:"prompt"`
	ModelAssetIDs string `form:"model_asset_ids"`
	Size          string `form:"size"`
	Style         string `form:"style"`
	AspectRatio   string `form:"aspect_ratio"`
	OutputFormat  string `form:"output_format"`
	SessionID     string `form:"session_id"`
	Category      string `form:"category"`
}

// ToDomain converts the form plus its uploaded files into a generation request.
// model_asset_ids is a comma separated list.
func (f *GenerateImageForm) ToDomain(files []generation.UploadFile) generation.ImageRequest {
	var modelIDs []string
	if strings.TrimSpace(f.ModelAssetIDs) != "" {
		modelIDs = strings.Split(f.ModelAssetIDs, ",")
	}
	return generation.ImageRequest{
		Prompt:        f.Prompt,
		Files:         files,
		ModelAssetIDs: modelIDs,
		Size:          f.Size,
		Style:         f.Style,
		AspectRatio:   f.AspectRatio,
		OutputFormat:  f.OutputFormat,
		SessionID:     f.SessionID,
		Category:      f.Category,
	}
}

// SearchPromptsQuery is the query of GET /v1/agent/prompt/search.
type SearchPromptsQuery struct {
	Q     string `form:"q"`
	Limit int    `form:"limit,default=20"`
}
