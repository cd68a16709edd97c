package generation

import (
	"fmt"
	"strings"

	"jan-server/services/image-api/internal/domain/style"
)

// PromptPlan is the resolved intent of a request before refinement.
type PromptPlan struct {
	Category     Category
	Style        style.Resolution
	UserPrompt   string
	AspectRatio  AspectRatio
	Size         ImageSize
	ImageCount   int
	Instructions string
}

// BuildPromptPlan merges category, style preset and free text into one instruction payload.
// An unknown style contributes nothing.
func BuildPromptPlan(category Category, resolution style.Resolution, userPrompt string, aspect AspectRatio, size ImageSize, imageCount int) PromptPlan {
	plan := PromptPlan{
		Category:    category,
		Style:       resolution,
		UserPrompt:  strings.TrimSpace(userPrompt),
		AspectRatio: aspect,
		Size:        size,
		ImageCount:  imageCount,
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ImageCategory: %s\n", category)
	if resolution.Found {
		fmt.Fprintf(&b, "Style: %s\n", resolution.Preset.Key)
		fmt.Fprintf(&b, "StylePrompt: %s\n", resolution.Preset.Instructions)
	}
	fmt.Fprintf(&b, "AspectRatio: %s\n", aspect)
	fmt.Fprintf(&b, "Size: %s\n", size)
	fmt.Fprintf(&b, "ReferenceImages: %d\n", imageCount)
	if plan.UserPrompt != "" {
		fmt.Fprintf(&b, "Prompt: %s\n", plan.UserPrompt)
	}
	plan.Instructions = strings.TrimRight(b.String(), "\n")
	return plan
}
