// internal/audit/sns.go
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	commonaws "supplychain-copilot/internal/common/aws"
	"supplychain-copilot/internal/common/logger"
	"supplychain-copilot/internal/models"
)

// SNSRecorder publishes each response to an SNS topic, with the intent as a
// message attribute so subscribers can filter.
type SNSRecorder struct {
	publisher commonaws.SNSPublisher
	topicARN  string
	logger    logger.Logger
}

func NewSNSRecorder(publisher commonaws.SNSPublisher, topicARN string, log logger.Logger) *SNSRecorder {
	return &SNSRecorder{
		publisher: publisher,
		topicARN:  topicARN,
		logger:    logger.Component(log, "audit"),
	}
}

func (s *SNSRecorder) Record(ctx context.Context, resp *models.Response) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuditWriteFailed, err)
	}

	out, err := s.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: awssdk.String(s.topicARN),
		Message:  awssdk.String(string(payload)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"intent": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(string(resp.Intent)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: sns publish: %v", ErrAuditWriteFailed, err)
	}

	s.logger.Debug("response published", map[string]interface{}{
		"topicArn":  s.topicARN,
		"messageId": awssdk.ToString(out.MessageId),
		"requestId": requestID(resp),
	})
	return nil
}
