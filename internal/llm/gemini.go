// internal/llm/gemini.go
package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiModel calls the Gemini API through the genai SDK.
type GeminiModel struct {
	client *genai.Client
	opts   Options
}

func NewGeminiModel(ctx context.Context, apiKey, baseURL string, opts Options) (*GeminiModel, error) {
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiModel{client: client, opts: opts}, nil
}

func (m *GeminiModel) Invoke(ctx context.Context, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(m.opts.Temperature)),
	}
	if m.opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(m.opts.MaxTokens)
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("%w: gemini: %v", ErrGenerationFailed, err)
	}

	return resp.Text(), nil
}
