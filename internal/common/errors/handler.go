// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"supplychain-copilot/internal/common/metrics"
)

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// JobErrorHandler reports job failures back to the broker. Invalid requests
// are thrown as BPMN errors so the process can branch on them; everything
// else fails the job with zero retries since the copilot never retries.
type JobErrorHandler struct {
	classifier *Classifier
	logger     Logger
}

func NewJobErrorHandler(classifier *Classifier, logger Logger) *JobErrorHandler {
	if classifier == nil {
		classifier = NewClassifier()
	}
	return &JobErrorHandler{classifier: classifier, logger: logger}
}

// ErrorVariables renders the variables attached to a failed or thrown job.
func ErrorVariables(stdErr *StandardError) map[string]interface{} {
	return map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"errorMessage":  stdErr.Message,
		"errorDetails":  stdErr.Details,
		"errorCategory": GetErrorCategory(stdErr.Code),
		"timestamp":     stdErr.Timestamp.Format(time.RFC3339),
	}
}

func (h *JobErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := h.classifier.Classify(err)

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"details":          stdErr.Details,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})

	metrics.WorkerJobsFailed.WithLabelValues(job.Type, string(stdErr.Code)).Inc()

	varsJSON, marshalErr := json.Marshal(ErrorVariables(stdErr))

	if stdErr.Code == ErrCodeInvalidRequest {
		cmd := client.NewThrowErrorCommand().
			JobKey(job.Key).
			ErrorCode(string(stdErr.Code)).
			ErrorMessage(stdErr.Message)
		if marshalErr == nil {
			if withVars, varErr := cmd.VariablesFromString(string(varsJSON)); varErr == nil {
				_, _ = withVars.Send(ctx)
				return
			}
		}
		_, _ = cmd.Send(ctx)
		return
	}

	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(0).
		ErrorMessage(string(stdErr.Code) + ": " + stdErr.Details)
	if marshalErr == nil {
		if withVars, varErr := cmd.VariablesFromString(string(varsJSON)); varErr == nil {
			_, _ = withVars.Send(ctx)
			return
		}
	}
	_, _ = cmd.Send(ctx)
}
