// internal/workers/copilot/ask-copilot/handler.go
package askcopilot

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"supplychain-copilot/internal/common/camunda"
	commonerrors "supplychain-copilot/internal/common/errors"
	"supplychain-copilot/internal/common/logger"
	"supplychain-copilot/internal/models"
)

const (
	TaskType = "ask-copilot"
)

// Runner answers one question end to end.
type Runner interface {
	Run(ctx context.Context, question string) (*models.Response, error)
}

// Handler serves the whole pipeline as a single job. The job completes with
// the response fields as process variables.
type Handler struct {
	config       *Config
	runner       Runner
	errorHandler *commonerrors.JobErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, runner Runner, classifier *commonerrors.Classifier, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	return &Handler{
		config:       config,
		runner:       runner,
		errorHandler: commonerrors.NewJobErrorHandler(classifier, log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, commonerrors.NewInvalidRequestError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	resp, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	camunda.CompleteJob(client, job, resp, h.logger)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*models.Response, error) {
	resp, err := h.runner.Run(ctx, input.Question)
	if err != nil {
		return nil, err
	}

	h.logger.Info("question answered", map[string]interface{}{
		"intent":    string(resp.Intent),
		"requestId": requestID(resp),
	})
	return resp, nil
}

func requestID(resp *models.Response) string {
	if resp.Metadata == nil {
		return ""
	}
	return resp.Metadata.RequestID
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*models.Response, error) {
	return h.execute(ctx, input)
}
