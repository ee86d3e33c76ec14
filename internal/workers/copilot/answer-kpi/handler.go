// internal/workers/copilot/answer-kpi/handler.go
package answerkpi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"supplychain-copilot/internal/common/camunda"
	commonerrors "supplychain-copilot/internal/common/errors"
	"supplychain-copilot/internal/common/logger"
	"supplychain-copilot/internal/common/metrics"
	"supplychain-copilot/internal/llm"
	"supplychain-copilot/internal/models"
	"supplychain-copilot/internal/store"
)

const (
	TaskType = "answer-kpi"

	apologyPrefix = "Sorry, the KPI query could not be executed: "
)

var (
	ErrGenerationFailed = errors.New("LLM_GENERATION_FAILED")
)

// Handler answers KPI questions in three stages: generate a query, run it,
// narrate the rows. A failed run ends the request with an apology and the
// narrate stage is skipped.
type Handler struct {
	config       *Config
	model        llm.LanguageModel
	store        store.TabularStore
	errorHandler *commonerrors.JobErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, model llm.LanguageModel, tabular store.TabularStore, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	classifier := commonerrors.NewClassifier().
		Register(ErrGenerationFailed, commonerrors.NewLLMGenerationFailedError)

	return &Handler{
		config:       config,
		model:        model,
		store:        tabular,
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

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	camunda.CompleteJob(client, job, output, h.logger)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	generated, err := h.generate(ctx, input.Question)
	if err != nil {
		return nil, err
	}

	executed, err := h.run(ctx, generated)
	if err != nil {
		metrics.DegradedAnswers.WithLabelValues("kpi", "query_execution_failed").Inc()
		h.logger.Warn("kpi query failed, returning apology", map[string]interface{}{
			"sqlQuery": generated.SQL,
			"error":    err.Error(),
		})
		return &Output{
			Answer:         apologyPrefix + err.Error(),
			SQLQuery:       generated.SQL,
			SQLResult:      []models.Row{},
			ExecutionError: err.Error(),
		}, nil
	}

	answer, err := h.narrate(ctx, input.Question, executed)
	if err != nil {
		return nil, err
	}

	h.logger.Info("kpi answer generated", map[string]interface{}{
		"rows":         len(executed.Rows),
		"answerLength": len(answer),
	})

	return &Output{
		Answer:    answer,
		SQLQuery:  executed.SQL,
		SQLResult: executed.Rows,
	}, nil
}

func (h *Handler) generate(ctx context.Context, question string) (*generatedQuery, error) {
	raw, err := h.model.Invoke(ctx, buildQueryPrompt(question))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return &generatedQuery{SQL: strings.TrimSpace(raw)}, nil
}

func (h *Handler) run(ctx context.Context, q *generatedQuery) (*executedQuery, error) {
	rows, err := h.store.Execute(ctx, q.SQL)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []models.Row{}
	}
	return &executedQuery{SQL: q.SQL, Rows: rows}, nil
}

func (h *Handler) narrate(ctx context.Context, question string, q *executedQuery) (string, error) {
	answer, err := h.model.Invoke(ctx, buildNarrationPrompt(question, q.SQL, models.PromptJSON(q.Rows)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return answer, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
