// Package pipeline runs one question through router, strategy and assembler.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	commonerrors "supplychain-copilot/internal/common/errors"
	"supplychain-copilot/internal/common/logger"
	"supplychain-copilot/internal/common/metrics"
	"supplychain-copilot/internal/models"
	analyzescenario "supplychain-copilot/internal/workers/copilot/analyze-scenario"
	answerkpi "supplychain-copilot/internal/workers/copilot/answer-kpi"
	answerpolicy "supplychain-copilot/internal/workers/copilot/answer-policy"
	assembleanswer "supplychain-copilot/internal/workers/copilot/assemble-answer"
	routequestion "supplychain-copilot/internal/workers/copilot/route-question"
)

const (
	StageRoute    = "route"
	StageAssemble = "assemble"
)

type Router interface {
	Execute(ctx context.Context, input *routequestion.Input) (*routequestion.Output, error)
}

type PolicyStrategy interface {
	Execute(ctx context.Context, input *answerpolicy.Input) (*answerpolicy.Output, error)
}

type KPIStrategy interface {
	Execute(ctx context.Context, input *answerkpi.Input) (*answerkpi.Output, error)
}

type ScenarioStrategy interface {
	Execute(ctx context.Context, input *analyzescenario.Input) (*analyzescenario.Output, error)
}

type Assembler interface {
	Execute(ctx context.Context, input *assembleanswer.Input) (*models.Response, error)
}

// Stages are the collaborators of one pipeline. All fields are required.
type Stages struct {
	Router    Router
	Policy    PolicyStrategy
	KPI       KPIStrategy
	Scenario  ScenarioStrategy
	Assembler Assembler
}

// Pipeline is the state machine start -> routed -> handled -> answered.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	stages Stages
	tracer trace.Tracer
	logger logger.Logger
	now    func() time.Time
}

// New validates the stages. A nil tracer uses the global provider.
func New(stages Stages, tracer trace.Tracer, log logger.Logger) (*Pipeline, error) {
	switch {
	case stages.Router == nil:
		return nil, fmt.Errorf("pipeline: router is required")
	case stages.Policy == nil, stages.KPI == nil, stages.Scenario == nil:
		return nil, fmt.Errorf("pipeline: all three strategies are required")
	case stages.Assembler == nil:
		return nil, fmt.Errorf("pipeline: assembler is required")
	}
	if tracer == nil {
		tracer = otel.Tracer("supplychain-copilot/pipeline")
	}
	return &Pipeline{
		stages: stages,
		tracer: tracer,
		logger: logger.Component(log, "pipeline"),
		now:    time.Now,
	}, nil
}

// Run answers one question. Errors are returned once and never retried.
func (p *Pipeline) Run(ctx context.Context, question string) (*models.Response, error) {
	if strings.TrimSpace(question) == "" {
		return nil, commonerrors.NewInvalidRequestError("question is required")
	}

	startedAt := p.now()
	ctx, span := p.tracer.Start(ctx, "copilot.ask")
	defer span.End()

	p.logger.Info("question received", map[string]interface{}{
		"questionLength": len([]rune(question)),
	})

	state := models.NewQueryState(question)

	if err := p.stage(ctx, StageRoute, func(ctx context.Context) error {
		return p.route(ctx, state)
	}); err != nil {
		return nil, p.fail(span, StageRoute, err)
	}
	span.SetAttributes(attribute.String("copilot.intent", string(state.Intent)))

	strategy := string(state.Intent)
	if err := p.stage(ctx, strategy, func(ctx context.Context) error {
		return p.dispatch(ctx, state)
	}); err != nil {
		return nil, p.fail(span, strategy, err)
	}

	var resp *models.Response
	if err := p.stage(ctx, StageAssemble, func(ctx context.Context) error {
		var err error
		resp, err = p.stages.Assembler.Execute(ctx, &assembleanswer.Input{State: *state, StartedAt: startedAt})
		return err
	}); err != nil {
		return nil, p.fail(span, StageAssemble, err)
	}

	if resp.Intent != state.Intent {
		err := commonerrors.NewInternalError(fmt.Errorf("assembler changed intent from %s to %s", state.Intent, resp.Intent))
		return nil, p.fail(span, StageAssemble, err)
	}

	metrics.RequestsTotal.WithLabelValues(string(resp.Intent)).Inc()
	return resp, nil
}

func (p *Pipeline) route(ctx context.Context, state *models.QueryState) error {
	out, err := p.stages.Router.Execute(ctx, &routequestion.Input{Question: state.Question})
	if err != nil {
		return err
	}
	if !out.Intent.Dispatchable() {
		return commonerrors.NewInternalError(fmt.Errorf("router returned non-dispatchable intent %q", out.Intent))
	}
	state.Intent = out.Intent

	p.logger.Info("intent resolved", map[string]interface{}{
		"rawLabel":  out.RawLabel,
		"overrides": out.Overrides,
		"intent":    string(out.Intent),
	})
	return nil
}

// dispatch runs exactly one strategy and copies its provenance into state.
// Strategies only see the question, so the intent cannot change here.
func (p *Pipeline) dispatch(ctx context.Context, state *models.QueryState) error {
	switch state.Intent {
	case models.IntentPolicyQA:
		out, err := p.stages.Policy.Execute(ctx, &answerpolicy.Input{Question: state.Question})
		if err != nil {
			return err
		}
		state.Policy = &models.PolicyProvenance{RetrievedDocs: out.RetrievedDocs}
		state.Answer = out.Answer

	case models.IntentKPIQuery:
		out, err := p.stages.KPI.Execute(ctx, &answerkpi.Input{Question: state.Question})
		if err != nil {
			return err
		}
		state.KPI = &models.KPIProvenance{SQLQuery: out.SQLQuery, SQLResult: out.SQLResult}
		state.Answer = out.Answer

	case models.IntentScenarioAnalysis:
		out, err := p.stages.Scenario.Execute(ctx, &analyzescenario.Input{Question: state.Question})
		if err != nil {
			return err
		}
		state.Scenario = &models.ScenarioProvenance{Spec: out.ScenarioSpec, ImpactRows: out.ImpactRows}
		state.Answer = out.Answer

	default:
		return commonerrors.NewInternalError(fmt.Errorf("no strategy for intent %q", state.Intent))
	}
	return nil
}

func (p *Pipeline) stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "copilot.stage."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (p *Pipeline) fail(span trace.Span, stage string, err error) error {
	metrics.RequestFailures.WithLabelValues(stage).Inc()
	span.SetStatus(codes.Error, err.Error())

	p.logger.Error("request failed", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
	return err
}
