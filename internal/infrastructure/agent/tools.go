package agent

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"

	"jan-server/services/image-api/internal/domain/style"
)

const styleToolName = "resolve_style_preset"

// StyleLookupInput is the argument of the style preset tool.
type StyleLookupInput struct {
	Style string `json:"style" jsonschema:"description=Style name as written after 'Style:' in the request, e.g. polaroid or lightbox:studio"`
}

// StyleLookupOutput is returned to the model.
type StyleLookupOutput struct {
	Found    bool   `json:"found"`
	Style    string `json:"style"`
	Prompt   string `json:"prompt,omitempty"`
	Category string `json:"category,omitempty"`
}

// StyleResolver resolves style keys for the tool.
type StyleResolver interface {
	Resolve(style string) style.Resolution
}

func lookupStyle(resolver StyleResolver) func(context.Context, *StyleLookupInput) (*StyleLookupOutput, error) {
	return func(_ context.Context, in *StyleLookupInput) (*StyleLookupOutput, error) {
		res := resolver.Resolve(in.Style)
		if !res.Found {
			return &StyleLookupOutput{Found: false, Style: res.NormalizedKey}, nil
		}
		return &StyleLookupOutput{
			Found:    true,
			Style:    res.Preset.Key,
			Prompt:   res.Preset.Instructions,
			Category: res.Preset.Category,
		}, nil
	}
}

// NewStyleTool exposes the style catalog to the refinement agents.
func NewStyleTool(resolver StyleResolver) (tool.InvokableTool, error) {
	return utils.InferTool(styleToolName,
		"Look up a predefined image style by name and return its prompt instructions. Call at most once per request.",
		lookupStyle(resolver))
}
