// internal/llm/instrumented.go
package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"supplychain-copilot/internal/common/logger"
	"supplychain-copilot/internal/common/metrics"
)

// InstrumentedModel records a span, Prometheus counters and a debug log
// line around every call. It never retries or caches.
type InstrumentedModel struct {
	inner    LanguageModel
	provider string
	model    string
	tracer   trace.Tracer
	logger   logger.Logger
}

func NewInstrumentedModel(inner LanguageModel, provider, model string, log logger.Logger) *InstrumentedModel {
	return &InstrumentedModel{
		inner:    inner,
		provider: provider,
		model:    model,
		tracer:   otel.Tracer("supplychain-copilot/llm"),
		logger:   logger.Component(log, "llm"),
	}
}

func (m *InstrumentedModel) Invoke(ctx context.Context, prompt string) (string, error) {
	ctx, span := m.tracer.Start(ctx, "llm.invoke", trace.WithAttributes(
		attribute.String("llm.provider", m.provider),
		attribute.String("llm.model", m.model),
		attribute.Int("llm.prompt_chars", len(prompt)),
	))
	defer span.End()

	start := time.Now()
	out, err := m.inner.Invoke(ctx, prompt)
	elapsed := time.Since(start)
	metrics.LLMLatency.WithLabelValues(m.provider).Observe(elapsed.Seconds())

	if err != nil {
		metrics.LLMCalls.WithLabelValues(m.provider, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.Warn("language model call failed", map[string]interface{}{
			"provider":   m.provider,
			"model":      m.model,
			"durationMs": elapsed.Milliseconds(),
			"error":      err.Error(),
		})
		return "", err
	}

	metrics.LLMCalls.WithLabelValues(m.provider, "ok").Inc()
	span.SetAttributes(attribute.Int("llm.completion_chars", len(out)))
	m.logger.Debug("language model call completed", map[string]interface{}{
		"provider":        m.provider,
		"model":           m.model,
		"durationMs":      elapsed.Milliseconds(),
		"promptChars":     len(prompt),
		"completionChars": len(out),
	})
	return out, nil
}
