// internal/llm/openai.go
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	commonhttp "supplychain-copilot/internal/common/http"
)

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// OpenAIModel calls an OpenAI compatible chat completions endpoint.
type OpenAIModel struct {
	client  *commonhttp.Client
	baseURL string
	apiKey  string
	opts    Options
}

func NewOpenAIModel(baseURL, apiKey string, timeout time.Duration, opts Options) *OpenAIModel {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	return &OpenAIModel{
		client:  commonhttp.NewClient(timeout),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		opts:    opts,
	}
}

func (m *OpenAIModel) Invoke(ctx context.Context, prompt string) (string, error) {
	req := chatCompletionRequest{
		Model:       m.opts.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: m.opts.Temperature,
		MaxTokens:   m.opts.MaxTokens,
	}

	headers := map[string]string{}
	if m.apiKey != "" {
		headers["Authorization"] = "Bearer " + m.apiKey
	}

	var resp chatCompletionResponse
	if err := m.client.PostJSON(ctx, m.baseURL+"/chat/completions", headers, req, &resp); err != nil {
		return "", fmt.Errorf("%w: openai: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai returned no choices: %w", ErrGenerationFailed, ErrEmptyCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}
