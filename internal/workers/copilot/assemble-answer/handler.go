// internal/workers/copilot/assemble-answer/handler.go
package assembleanswer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"supplychain-copilot/internal/audit"
	"supplychain-copilot/internal/common/camunda"
	commonerrors "supplychain-copilot/internal/common/errors"
	"supplychain-copilot/internal/common/logger"
	"supplychain-copilot/internal/common/metrics"
	"supplychain-copilot/internal/models"
)

const (
	TaskType = "assemble-answer"
)

// Handler finalizes a response. The state passes through untouched; only
// metadata is attached, and the result is handed to the audit recorder.
type Handler struct {
	config       *Config
	recorder     audit.Recorder
	errorHandler *commonerrors.JobErrorHandler
	logger       logger.Logger
	now          func() time.Time
}

func NewHandler(config *Config, recorder audit.Recorder, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}

	return &Handler{
		config:       config,
		recorder:     recorder,
		errorHandler: commonerrors.NewJobErrorHandler(commonerrors.NewClassifier(), log),
		logger:       log,
		now:          time.Now,
	}
}

// startedAt reads the optional started_at variable. A malformed value is
// logged and treated as absent.
func (h *Handler) startedAt(job entities.Job) time.Time {
	var timing jobTiming
	if err := json.Unmarshal([]byte(job.Variables), &timing); err != nil {
		h.logger.Debug("started_at variable ignored", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return time.Time{}
	}
	if timing.StartedAt == nil {
		return time.Time{}
	}
	return *timing.StartedAt
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var resp models.Response
	if err := camunda.DecodeVariables(job, &resp); err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, commonerrors.NewInvalidRequestError(err.Error()))
		return
	}

	input := &Input{State: resp.QueryState, StartedAt: h.startedAt(job)}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*models.Response, error) {
	finishedAt := h.now()
	startedAt := input.StartedAt
	if startedAt.IsZero() {
		startedAt = finishedAt
	}

	meta := &models.Metadata{
		RequestID:  uuid.NewString(),
		StartedAt:  startedAt.UTC(),
		DurationMs: finishedAt.Sub(startedAt).Milliseconds(),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		meta.TraceID = sc.TraceID().String()
	}

	resp := &models.Response{QueryState: input.State, Metadata: meta}

	if err := h.recorder.Record(ctx, resp); err != nil {
		metrics.RequestFailures.WithLabelValues("audit").Inc()
		h.logger.Warn("audit record failed", map[string]interface{}{
			"requestId": meta.RequestID,
			"error":     err.Error(),
		})
	}

	h.logger.Info("answer assembled", map[string]interface{}{
		"requestId":  meta.RequestID,
		"intent":     string(resp.Intent),
		"durationMs": meta.DurationMs,
	})

	return resp, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*models.Response, error) {
	return h.execute(ctx, input)
}
