// internal/workers/copilot/route-question/handler.go
package routequestion

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
)

const (
	TaskType = "route-question"
)

var (
	ErrClassificationFailed = errors.New("CLASSIFICATION_FAILED")
)

// Handler resolves the intent of a question: a model label first, then
// keyword overrides. The KPI rule runs before the scenario rule, so a
// question matching both ends up as a scenario.
type Handler struct {
	config       *Config
	model        llm.LanguageModel
	rules        keywordRules
	errorHandler *commonerrors.JobErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, model llm.LanguageModel, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	classifier := commonerrors.NewClassifier().
		Register(ErrClassificationFailed, commonerrors.NewClassificationFailedError)

	return &Handler{
		config:       config,
		model:        model,
		rules:        newKeywordRules(config.SupplierNames),
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
	if strings.TrimSpace(input.Question) == "" {
		return nil, commonerrors.NewInvalidRequestError("question is required")
	}

	raw, err := h.model.Invoke(ctx, buildPrompt(input.Question))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}

	output := &Output{
		Intent:   models.ParseIntent(raw),
		RawLabel: strings.TrimSpace(raw),
	}

	if rule, ok := h.rules.kpiRule(input.Question); ok {
		h.override(output, models.IntentKPIQuery, rule)
	}
	if scenarioRule(input.Question) {
		h.override(output, models.IntentScenarioAnalysis, RuleScenarioTerm)
	}
	if !output.Intent.Dispatchable() {
		h.override(output, models.IntentPolicyQA, RuleDefaultPolicy)
	}

	h.logger.Info("intent resolved", map[string]interface{}{
		"rawLabel":  output.RawLabel,
		"overrides": output.Overrides,
		"intent":    string(output.Intent),
	})
	return output, nil
}

func (h *Handler) override(output *Output, intent models.Intent, rule string) {
	output.Intent = intent
	output.Overrides = append(output.Overrides, rule)
	metrics.IntentOverrides.WithLabelValues(rule).Inc()
}

func buildPrompt(question string) string {
	var parts []string

	parts = append(parts, "You are a classifier for a supply chain copilot.")
	parts = append(parts, "Decide which category the question belongs to:")
	parts = append(parts, "- policy_qa: questions about contracts, terms, policies, supplier rules, SOPs, incoterms")
	parts = append(parts, "- kpi_query: questions about performance metrics, OTIF, lead time, spend, etc.")
	parts = append(parts, "- scenario_analysis: what-if, risk, delay, disruption scenarios.")
	parts = append(parts, "\nReturn ONLY one of: policy_qa, kpi_query, scenario_analysis.")
	parts = append(parts, fmt.Sprintf("\nQuestion: %s", question))

	return strings.Join(parts, "\n")
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
