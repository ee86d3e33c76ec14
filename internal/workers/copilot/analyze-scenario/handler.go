// internal/workers/copilot/analyze-scenario/handler.go
package analyzescenario

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
	TaskType = "analyze-scenario"
)

// impactQuery lists every order of suppliers in one country. The country is
// always a bound parameter.
const impactQuery = `SELECT s.name AS supplier_name,
       s.country,
       COUNT(p.id) AS total_pos,
       SUM(p.qty) AS total_qty
FROM suppliers s
JOIN purchase_orders p ON s.id = p.supplier_id
WHERE s.country = ?
GROUP BY s.id, s.name, s.country
ORDER BY s.id`

var (
	ErrGenerationFailed = errors.New("LLM_GENERATION_FAILED")
)

// Handler analyses what-if disruption questions: extract the scenario
// parameters, query the exposed orders, narrate impact and mitigations.
// Extraction and query failures degrade the answer but never abort it.
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
	spec, err := h.extract(ctx, input.Question)
	if err != nil {
		return nil, err
	}

	impact := h.queryImpact(ctx, spec)

	answer, err := h.narrate(ctx, input.Question, spec, impact)
	if err != nil {
		return nil, err
	}

	h.logger.Info("scenario answer generated", map[string]interface{}{
		"country":      impact.Country,
		"delayDays":    spec.DelayDays,
		"impactRows":   len(impact.Rows),
		"impactFailed": impact.Failed,
	})

	return &Output{
		Answer:         answer,
		ScenarioSpec:   spec,
		ImpactRows:     impact.Rows,
		QueriedCountry: impact.Country,
	}, nil
}

func (h *Handler) extract(ctx context.Context, question string) (models.ScenarioSpec, error) {
	raw, err := h.model.Invoke(ctx, buildExtractionPrompt(question))
	if err != nil {
		return models.ScenarioSpec{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	spec, err := parseScenarioSpec(raw)
	if err != nil {
		metrics.DegradedAnswers.WithLabelValues("scenario", "extraction_fallback").Inc()
		h.logger.Warn("scenario extraction unusable, using default spec", map[string]interface{}{
			"completion": raw,
			"error":      err.Error(),
		})
		return models.DefaultScenarioSpec(), nil
	}
	return spec, nil
}

func (h *Handler) queryImpact(ctx context.Context, spec models.ScenarioSpec) impactResult {
	country := h.config.FallbackCountry
	if spec.Country != nil {
		country = *spec.Country
	}

	rows, err := h.store.Execute(ctx, impactQuery, country)
	if err != nil {
		metrics.DegradedAnswers.WithLabelValues("scenario", "impact_query_failed").Inc()
		h.logger.Warn("impact query failed, narrating diagnostic row", map[string]interface{}{
			"country": country,
			"error":   err.Error(),
		})
		return impactResult{
			Country: country,
			Rows:    []models.Row{models.NewRow("error", err.Error())},
			Failed:  true,
		}
	}
	if rows == nil {
		rows = []models.Row{}
	}
	return impactResult{Country: country, Rows: rows}
}

func (h *Handler) narrate(ctx context.Context, question string, spec models.ScenarioSpec, impact impactResult) (string, error) {
	prompt := buildNarrationPrompt(question, models.PromptJSON(spec), models.PromptJSON(impact.Rows))
	answer, err := h.model.Invoke(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return answer, nil
}

func buildExtractionPrompt(question string) string {
	var parts []string

	parts = append(parts, "Extract supply chain risk scenario parameters from the following question (in Chinese or English) and return as JSON:")
	parts = append(parts, "\nFields:")
	parts = append(parts, "- country: Country of affected suppliers (e.g., 'VN', 'CN', 'DE'); if not mentioned, use null")
	parts = append(parts, "- delay_days: Expected general delay days (integer); if not mentioned, use 7 as default")
	parts = append(parts, "\nOutput only JSON, no explanations.")
	parts = append(parts, fmt.Sprintf("\nQuestion:\n%s", question))

	return strings.Join(parts, "\n")
}

func buildNarrationPrompt(question, specJSON, rowsJSON string) string {
	var parts []string

	parts = append(parts, "You are a supply chain risk manager.")
	parts = append(parts, fmt.Sprintf("\nScenario Description:\n%s", question))
	parts = append(parts, fmt.Sprintf("\nExtracted Scenario Parameters:\n%s", specJSON))
	parts = append(parts, fmt.Sprintf("\nRelated Orders or Impact Data:\n%s", rowsJSON))
	parts = append(parts, "\nPlease:")
	parts = append(parts, "1. Summarize the potential impact (affected suppliers, countries, number of orders, total quantity, etc.).")
	parts = append(parts, "2. Provide 3-5 actionable mitigation recommendations (e.g., increase safety stock, pre-build inventory, activate backup suppliers, joint risk review with strategic suppliers).")
	parts = append(parts, "3. Conclude with a note that this is a demo analysis based on sample data.")
	parts = append(parts, "\nAnswer in professional English, concise and structured as a short management summary.")

	return strings.Join(parts, "\n")
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
