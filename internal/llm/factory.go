// internal/llm/factory.go
package llm

import (
	"context"
	"fmt"

	commonaws "supplychain-copilot/internal/common/aws"
	"supplychain-copilot/internal/common/config"
	"supplychain-copilot/internal/common/logger"
)

// New builds the configured provider wrapped with instrumentation.
func New(ctx context.Context, cfg config.LLMConfig, log logger.Logger) (LanguageModel, error) {
	opts := Options{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	var (
		model LanguageModel
		err   error
	)
	switch cfg.Provider {
	case "openai":
		model = NewOpenAIModel(cfg.BaseURL, cfg.APIKey, cfg.LLMTimeout(), opts)
	case "anthropic":
		model = NewAnthropicModel(cfg.APIKey, cfg.BaseURL, opts)
	case "bedrock":
		model, err = NewBedrockModel(ctx, commonaws.Credentials{
			Region:          cfg.Region,
			Profile:         cfg.Profile,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretKey,
		}, opts)
	case "gemini":
		model, err = NewGeminiModel(ctx, cfg.APIKey, cfg.BaseURL, opts)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return NewInstrumentedModel(model, cfg.Provider, cfg.Model, log), nil
}
