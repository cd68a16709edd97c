package requests

import "strings"

// Collections accepted by the media endpoints.
const (
	CollectionAll    = "all"
	CollectionMedia  = "media"
	CollectionModels = "models"
	CollectionStyle  = "style"
)

// UploadMediaForm holds the non-file fields of POST /v1/agent/media.
type UploadMediaForm struct {
	Collection       string `form:"collection,default=media"`
	StyleSubcategory string `form:"style_subcategory"`
	SessionID        string `form:"session_id"`
}

// ListMediaQuery is the query of GET /v1/agent/media.
type ListMediaQuery struct {
	Collection       string `form:"collection,default=all"`
	StyleSubcategory string `form:"style_subcategory"`
	Skip             int    `form:"skip"`
	Limit            int    `form:"limit,default=50"`
}

// NormalizeCollection lowercases the collection and applies def when it is blank.
func NormalizeCollection(raw, def string) string {
	c := strings.ToLower(strings.TrimSpace(raw))
	if c == "" {
		return def
	}
	return c
}
