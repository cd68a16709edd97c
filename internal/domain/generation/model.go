package generation

import (
	"strings"

	"jan-server/services/image-api/internal/domain/asset"
	"jan-server/services/image-api/internal/domain/guardrail"
	"jan-server/services/image-api/internal/domain/session"
)

// Category routes a request to a refinement specialist.
type Category string

const (
	CategoryCreativity Category = "creativity"
	CategoryTemplate   Category = "template"
	CategoryFit        Category = "fit"
	CategoryLightbox   Category = "lightbox"
)

// ParseCategory accepts a category name in any case. Empty and "default" mean creativity.
func ParseCategory(raw string) (Category, bool) {
	switch c := Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case "", "default":
		return CategoryCreativity, true
	case CategoryCreativity, CategoryTemplate, CategoryFit, CategoryLightbox:
		return c, true
	default:
		return "", false
	}
}

// OutputFormat is the MIME type requested for the generated image.
type OutputFormat string

const (
	OutputFormatPNG  OutputFormat = asset.MimePNG
	OutputFormatJPEG OutputFormat = asset.MimeJPEG
)

// ParseOutputFormat accepts png, jpeg, jpg or a full MIME type. Empty means PNG.
func ParseOutputFormat(raw string) (OutputFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "png", "image/png":
		return OutputFormatPNG, true
	case "jpeg", "jpg", "image/jpeg", "image/jpg":
		return OutputFormatJPEG, true
	default:
		return "", false
	}
}

// ImageSize is a target resolution.
type ImageSize string

const (
	Size512       ImageSize = "512x512"
	Size1024      ImageSize = "1024x1024"
	Size2048      ImageSize = "2048x2048"
	SizeFullHD    ImageSize = "1920x1080"
	SizeUltraWide ImageSize = "3840x2160"
)

var sizeAliases = map[string]ImageSize{
	"small":     Size512,
	"medium":    Size1024,
	"large":     Size2048,
	"wide":      SizeFullHD,
	"ultrawide": SizeUltraWide,
}

// ParseImageSize accepts a resolution or one of its aliases. Empty means 1024x1024.
func ParseImageSize(raw string) (ImageSize, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return Size1024, true
	}
	if size, ok := sizeAliases[value]; ok {
		return size, true
	}
	switch size := ImageSize(value); size {
	case Size512, Size1024, Size2048, SizeFullHD, SizeUltraWide:
		return size, true
	}
	return "", false
}

// AspectRatio is the requested frame shape.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "3:4"
	AspectLandscape AspectRatio = "4:3"
	AspectTall      AspectRatio = "9:16"
	AspectWide      AspectRatio = "16:9"
)

var aspectAliases = map[string]AspectRatio{
	"square":    AspectSquare,
	"portrait":  AspectPortrait,
	"landscape": AspectLandscape,
	"tall":      AspectTall,
	"wide":      AspectWide,
}

// ParseAspectRatio accepts a ratio or one of its aliases. Empty means 1:1.
func ParseAspectRatio(raw string) (AspectRatio, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return AspectSquare, true
	}
	if ratio, ok := aspectAliases[value]; ok {
		return ratio, true
	}
	switch ratio := AspectRatio(value); ratio {
	case AspectSquare, AspectPortrait, AspectLandscape, AspectTall, AspectWide:
		return ratio, true
	}
	return "", false
}

// UploadFile is one raw file attached to a request.
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImageRequest is the raw input of one generation request.
type ImageRequest struct {
	Prompt        string
	Files         []UploadFile
	ModelAssetIDs []string
	Size          string
	Style         string
	AspectRatio   string
	OutputFormat  string
	SessionID     string
	Category      string
}

// NormalizedImage is an upload whose encoding was verified from its content.
type NormalizedImage struct {
	Filename      string
	MimeType      string
	Data          []byte
	Width         int
	Height        int
	SourceAssetID string
}

// ImageResponse is the terminal result of a workflow, including blocked outcomes.
type ImageResponse struct {
	Status          session.Status     `json:"status"`
	Message         string             `json:"message,omitempty"`
	OutputFile      string             `json:"output_file,omitempty"`
	RefinedPrompt   string             `json:"refined_prompt,omitempty"`
	SessionID       string             `json:"session_id"`
	UserID          string             `json:"user_id"`
	Category        Category           `json:"category"`
	Style           string             `json:"style,omitempty"`
	Size            ImageSize          `json:"size"`
	AspectRatio     AspectRatio        `json:"aspect_ratio"`
	OutputFormat    OutputFormat       `json:"output_format"`
	Asset           *asset.Asset       `json:"asset,omitempty"`
	MediaObjectPath string             `json:"media_object_path,omitempty"`
	Guardrail       *guardrail.Verdict `json:"-"`
}

// BlockedResponse is the fixed response for a prompt rejected by the guardrail.
func BlockedResponse(sessionID, userID string, category Category) *ImageResponse {
	return &ImageResponse{
		Status:    session.StatusBlocked,
		Message:   guardrail.BlockedPromptResponse,
		SessionID: sessionID,
		UserID:    userID,
		Category:  category,
	}
}
