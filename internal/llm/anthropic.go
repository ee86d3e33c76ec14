// internal/llm/anthropic.go
package llm

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicModel calls the Messages API, either directly or through
// Bedrock depending on how the client was built.
type AnthropicModel struct {
	client anthropic.Client
	opts   Options
}

// NewAnthropicModel builds a direct API client. baseURL may be empty.
// SDK retries are disabled; a failed call surfaces once.
func NewAnthropicModel(apiKey, baseURL string, opts Options) *AnthropicModel {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	return &AnthropicModel{client: anthropic.NewClient(reqOpts...), opts: opts}
}

func newAnthropicModelWithClient(client anthropic.Client, opts Options) *AnthropicModel {
	return &AnthropicModel{client: client, opts: opts}
}

func (m *AnthropicModel) Invoke(ctx context.Context, prompt string) (string, error) {
	maxTokens := int64(m.opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	message, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(m.opts.Model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: anthropic: %v", ErrGenerationFailed, err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}
