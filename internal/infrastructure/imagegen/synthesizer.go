package imagegen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	"jan-server/services/image-api/internal/domain/generation"
	"jan-server/services/image-api/internal/infrastructure/observability"
)

// ErrNoImage is returned when the model answered without inline image data.
var ErrNoImage = errors.New("image generation response did not include inline image data")

// contentGenerator is satisfied by (*genai.Client).Models.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Synthesizer renders images with a Gemini image model.
type Synthesizer struct {
	models contentGenerator
	model  string
	log    zerolog.Logger
}

func NewSynthesizer(client *genai.Client, model string, log zerolog.Logger) *Synthesizer {
	return newSynthesizer(client.Models, model, log)
}

func newSynthesizer(models contentGenerator, model string, log zerolog.Logger) *Synthesizer {
	return &Synthesizer{
		models: models,
		model:  model,
		log:    log.With().Str("component", "synthesizer").Logger(),
	}
}

var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockOnlyHigh},
}

// Synthesize sends the reference images followed by the refined prompt and returns the first inline image.
func (s *Synthesizer) Synthesize(ctx context.Context, req generation.SynthesisRequest) (*generation.SynthesisResult, error) {
	ctx, span := observability.StartSpan(ctx, "imagegen.Synthesize",
		attribute.String("model", s.model),
		attribute.Int("reference_images", len(req.Images)),
	)
	defer span.End()

	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		mime := img.MimeType
		if mime == "" {
			mime = string(req.OutputFormat)
		}
		parts = append(parts, genai.NewPartFromBytes(img.Data, mime))
	}
	parts = append(parts, genai.NewPartFromText(promptText(req)))

	resp, err := s.models.GenerateContent(ctx, s.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{"IMAGE"},
			SafetySettings:     safetySettings,
		})
	if err != nil {
		observability.RecordError(ctx, err)
		return nil, fmt.Errorf("generate content: %w", err)
	}

	result, err := extractImage(resp)
	if err != nil {
		observability.RecordError(ctx, err)
		return nil, err
	}
	s.log.Debug().Int("bytes", len(result.Data)).Str("content_type", result.ContentType).Msg("image synthesized")
	return result, nil
}

// promptText appends the requested framing to the refined prompt.
func promptText(req generation.SynthesisRequest) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(req.Prompt))
	if req.AspectRatio != "" {
		b.WriteString("\nAspect ratio: ")
		b.WriteString(string(req.AspectRatio))
	}
	if req.Size != "" {
		b.WriteString("\nResolution: ")
		b.WriteString(string(req.Size))
	}
	return b.String()
}

func extractImage(resp *genai.GenerateContentResponse) (*generation.SynthesisResult, error) {
	if resp == nil {
		return nil, ErrNoImage
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return &generation.SynthesisResult{
				Data:        part.InlineData.Data,
				ContentType: part.InlineData.MIMEType,
			}, nil
		}
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked (%s)", ErrNoImage, resp.PromptFeedback.BlockReason)
	}
	for _, candidate := range resp.Candidates {
		if candidate != nil && candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonStop {
			return nil, fmt.Errorf("%w: finish reason %s", ErrNoImage, candidate.FinishReason)
		}
	}
	return nil, ErrNoImage
}
