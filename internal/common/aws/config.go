// internal/common/aws/config.go
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Credentials selects how the AWS configuration is resolved: static keys
// win over a named profile, which wins over the default chain.
type Credentials struct {
	Region          string
	Profile         string
	AccessKeyID     string
	SecretAccessKey string
}

func LoadConfig(ctx context.Context, creds Credentials) (awssdk.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(creds.Region)}

	switch {
	case creds.AccessKeyID != "" && creds.SecretAccessKey != "":
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		))
	case creds.Profile != "":
		opts = append(opts, config.WithSharedConfigProfile(creds.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}
