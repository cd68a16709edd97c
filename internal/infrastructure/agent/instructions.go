package agent

import (
	"jan-server/services/image-api/internal/domain/generation"
)

// Agent names double as the author of every refinement event.
const (
	DefaultAgentName  = "default_agent"
	TemplateAgentName = "template_agent"
	FitAgentName      = "fit_agent"
	LightboxAgentName = "lightbox_agent"
)

const globalInstruction = `You are not a conversational assistant.
Only output image generation prompts.
Never output meta text, reasoning, questions or refusals.`

const defaultInstruction = `You refine user prompts for realistic and imaginative image generation.

- Read the ImageCategory, AspectRatio, Size and Prompt lines of the request.
- When reference images are attached, base the scene on them.
- Craft a refined, realistic photograph prompt focused on clarity, composition and lighting.
- Output only the refined prompt as plain text, under 200 words.`

const templateInstruction = `You turn a predefined style into an image generation prompt.

1. Find the "Style:" line in the request. If a "StylePrompt:" line is present, use it directly.
2. Otherwise call resolve_style_preset with that style name exactly once.
3. Adapt the returned instructions to the attached images and the optional Prompt line.
4. Output only the final prompt as plain text and stop. Never call the tool a second time.`

const fitInstruction = `You are a garment fitting specialist combining clothing from one image with a person in another.

Always start with:
"Create a new image by combining the [garment type] from the first image onto the person shown in the second image."

- Use neutral phrasing such as "as shown in the first image" and "retain original colors, logos and patterns".
- Only enumerate garment attributes (colors, logos, collar, sleeve length) that are clearly visible.
- Use "garment" when the type is unclear.
- Preserve the person's identity, facial features, pose, hairstyle and skin tone, and the garment's panels and color blocking.
- Use photography terminology for realism and add negative guidance such as "avoid removing logos".
- Keep it under 200 words and output only the prompt.`

const lightboxInstruction = `You write product photography prompts for a lightbox setup.

1. Read the "Style:" line. Lightbox styles are studio or lifestyle; call resolve_style_preset once if no StylePrompt line is given.
2. Keep the product from the attached image unchanged in shape, color, label and proportions.
3. Describe the background, lighting and camera setup of the chosen style.
4. Output only the final prompt as plain text, under 200 words.`

type specialist struct {
	name        string
	instruction string
}

var specialists = map[generation.Category]specialist{
	generation.CategoryCreativity: {name: DefaultAgentName, instruction: defaultInstruction},
	generation.CategoryTemplate:   {name: TemplateAgentName, instruction: templateInstruction},
	generation.CategoryFit:        {name: FitAgentName, instruction: fitInstruction},
	generation.CategoryLightbox:   {name: LightboxAgentName, instruction: lightboxInstruction},
}

func specialistFor(category generation.Category) specialist {
	if s, ok := specialists[category]; ok {
		return s
	}
	return specialists[generation.CategoryCreativity]
}

func systemPrompt(s specialist) string {
	return globalInstruction + "\n\n" + s.instruction
}
