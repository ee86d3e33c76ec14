// internal/audit/redis.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"supplychain-copilot/internal/common/logger"
	"supplychain-copilot/internal/models"
)

// RedisStreamRecorder appends each response to a capped Redis stream.
type RedisStreamRecorder struct {
	client redis.Cmdable
	stream string
	maxLen int64
	logger logger.Logger
}

func NewRedisStreamRecorder(client redis.Cmdable, stream string, maxLen int64, log logger.Logger) *RedisStreamRecorder {
	return &RedisStreamRecorder{
		client: client,
		stream: stream,
		maxLen: maxLen,
		logger: logger.Component(log, "audit"),
	}
}

func (r *RedisStreamRecorder) Record(ctx context.Context, resp *models.Response) error {
	args, err := r.xaddArgs(resp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuditWriteFailed, err)
	}

	id, err := r.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("%w: redis xadd %s: %v", ErrAuditWriteFailed, r.stream, err)
	}

	r.logger.Debug("response recorded", map[string]interface{}{
		"stream":    r.stream,
		"entryId":   id,
		"requestId": requestID(resp),
	})
	return nil
}

func (r *RedisStreamRecorder) xaddArgs(resp *models.Response) (*redis.XAddArgs, error) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return &redis.XAddArgs{
		Stream: r.stream,
		MaxLen: r.maxLen,
		Approx: r.maxLen > 0,
		Values: []interface{}{
			"request_id", requestID(resp),
			"intent", string(resp.Intent),
			"payload", string(payload),
		},
	}, nil
}
