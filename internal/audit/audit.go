// Package audit records finalized responses together with their provenance.
package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"supplychain-copilot/internal/common/aws"
	"supplychain-copilot/internal/common/config"
	"supplychain-copilot/internal/common/logger"
	"supplychain-copilot/internal/models"
)

var ErrAuditWriteFailed = errors.New("AUDIT_WRITE_FAILED")

// Recorder persists one finalized response.
type Recorder interface {
	Record(ctx context.Context, resp *models.Response) error
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, resp *models.Response) error { return nil }

// New builds the sink selected by cfg.Sink. rdb is only used by the redis sink.
func New(ctx context.Context, cfg config.AuditConfig, rdb redis.Cmdable, log logger.Logger) (Recorder, error) {
	switch cfg.Sink {
	case "", "none":
		return NopRecorder{}, nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("audit sink redis requires a redis client")
		}
		return NewRedisStreamRecorder(rdb, cfg.Stream, cfg.MaxLen, log), nil
	case "sns":
		client, err := aws.NewSNSClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("create sns client: %w", err)
		}
		return NewSNSRecorder(client, cfg.TopicARN, log), nil
	default:
		return nil, fmt.Errorf("unsupported audit sink %q", cfg.Sink)
	}
}

func requestID(resp *models.Response) string {
	if resp.Metadata == nil {
		return ""
	}
	return resp.Metadata.RequestID
}
