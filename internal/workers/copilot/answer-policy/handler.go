// internal/workers/copilot/answer-policy/handler.go
package answerpolicy

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
	"supplychain-copilot/internal/llm"
	"supplychain-copilot/internal/models"
	"supplychain-copilot/internal/retrieval"
)

const (
	TaskType = "answer-policy"
)

var (
	ErrRetrievalFailed  = errors.New("RETRIEVAL_FAILED")
	ErrGenerationFailed = errors.New("LLM_GENERATION_FAILED")
)

type Handler struct {
	config       *Config
	retriever    retrieval.Retriever
	model        llm.LanguageModel
	errorHandler *commonerrors.JobErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, retriever retrieval.Retriever, model llm.LanguageModel, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	classifier := commonerrors.NewClassifier().
		Register(ErrRetrievalFailed, commonerrors.NewRetrievalFailedError).
		Register(ErrGenerationFailed, commonerrors.NewLLMGenerationFailedError)

	return &Handler{
		config:       config,
		retriever:    retriever,
		model:        model,
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
	passages, err := h.retriever.Query(ctx, input.Question, h.config.TopK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}

	docs := make([]models.RetrievedDoc, 0, len(passages))
	contents := make([]string, 0, len(passages))
	for _, p := range passages {
		docs = append(docs, models.RetrievedDoc{Content: p.Content, Source: p.Source})
		contents = append(contents, p.Content)
	}

	answer, err := h.model.Invoke(ctx, buildPrompt(input.Question, strings.Join(contents, "\n\n")))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	h.logger.Info("policy answer generated", map[string]interface{}{
		"passages":     len(docs),
		"answerLength": len(answer),
	})

	return &Output{
		Answer:        answer,
		RetrievedDocs: docs,
	}, nil
}

func buildPrompt(question, passages string) string {
	var parts []string

	parts = append(parts, "You are an enterprise supply chain policy assistant.")
	parts = append(parts, "\nUse ONLY the provided context (company policies, supplier rules, contracts) to answer.")
	parts = append(parts, "If the answer is not clearly supported by the context, say you don't know.")
	parts = append(parts, "\nContext:")
	parts = append(parts, passages)
	parts = append(parts, "\nQuestion:")
	parts = append(parts, question)
	parts = append(parts, "\nAnswer in concise, professional English.")
	parts = append(parts, "At the end, list the source filenames or sections you used (if available).")

	return strings.Join(parts, "\n")
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
