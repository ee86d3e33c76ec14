// internal/llm/bedrock.go
package llm

import (
	"context"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"

	commonaws "supplychain-copilot/internal/common/aws"
)

// NewBedrockModel serves Claude models through AWS Bedrock. The AWS config
// handles request signing and the regional endpoint.
func NewBedrockModel(ctx context.Context, creds commonaws.Credentials, opts Options) (*AnthropicModel, error) {
	awsCfg, err := commonaws.LoadConfig(ctx, creds)
	if err != nil {
		return nil, err
	}

	client := anthropic.NewClient(
		bedrock.WithConfig(awsCfg),
		option.WithMaxRetries(0),
	)
	return newAnthropicModelWithClient(client, opts), nil
}
