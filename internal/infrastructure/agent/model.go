package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"jan-server/services/image-api/internal/config"
)

// NewChatModel builds the tool calling chat model selected by REFINER_PROVIDER.
// The gemini provider reuses the shared genai client.
func NewChatModel(ctx context.Context, cfg *config.Config, client *genai.Client) (model.ToolCallingChatModel, error) {
	switch cfg.RefinerProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when REFINER_PROVIDER is openai")
		}
		m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
		})
		if err != nil {
			return nil, fmt.Errorf("create openai chat model: %w", err)
		}
		return m, nil
	case "claude":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when REFINER_PROVIDER is claude")
		}
		m, err := claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.AnthropicAPIKey,
			Model:     cfg.ClaudeModel,
			MaxTokens: cfg.ClaudeMaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("create claude chat model: %w", err)
		}
		return m, nil
	default:
		if client == nil {
			return nil, fmt.Errorf("a genai client is required when REFINER_PROVIDER is gemini")
		}
		m, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  cfg.FlashText,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini chat model: %w", err)
		}
		return m, nil
	}
}

// NewGenAIClient creates the Gemini API client shared by refinement and synthesis.
func NewGenAIClient(ctx context.Context, cfg *config.Config) (*genai.Client, error) {
	if cfg.GoogleAPIKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY is required")
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GoogleAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
}
