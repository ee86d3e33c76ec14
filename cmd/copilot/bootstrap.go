// cmd/copilot/bootstrap.go
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"supplychain-copilot/internal/api"
	"supplychain-copilot/internal/audit"
	"supplychain-copilot/internal/common/config"
	"supplychain-copilot/internal/common/database"
	"supplychain-copilot/internal/common/logger"
	"supplychain-copilot/internal/common/observability"
	"supplychain-copilot/internal/llm"
	"supplychain-copilot/internal/pipeline"
	"supplychain-copilot/internal/retrieval"
	"supplychain-copilot/internal/store"
	analyzescenario "supplychain-copilot/internal/workers/copilot/analyze-scenario"
	answerkpi "supplychain-copilot/internal/workers/copilot/answer-kpi"
	answerpolicy "supplychain-copilot/internal/workers/copilot/answer-policy"
	assembleanswer "supplychain-copilot/internal/workers/copilot/assemble-answer"
	routequestion "supplychain-copilot/internal/workers/copilot/route-question"
)

// stageHandlers are shared by the in-process pipeline and the job workers.
type stageHandlers struct {
	router    *routequestion.Handler
	policy    *answerpolicy.Handler
	kpi       *answerkpi.Handler
	scenario  *analyzescenario.Handler
	assembler *assembleanswer.Handler
}

type app struct {
	cfg      *config.Config
	zapLog   *zap.Logger
	log      logger.Logger
	obs      *observability.Observability
	stages   stageHandlers
	pipeline *pipeline.Pipeline
	checks   map[string]api.Check
	closers  []func() error
}

// retryWithBackoff runs operation until it succeeds, doubling the delay
// between attempts. Only used while connecting at startup.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// bootstrap wires every collaborator from cfg. connectAttempts bounds the
// startup retries for the store, index and redis connections.
func bootstrap(ctx context.Context, cfg *config.Config, connectAttempts int) (*app, error) {
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog)

	a := &app{
		cfg:    cfg,
		zapLog: zapLog,
		log:    log,
		checks: map[string]api.Check{},
	}

	obs, err := observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	})
	if err != nil {
		return nil, err
	}
	a.obs = obs
	a.closers = append(a.closers, func() error { return obs.Shutdown(context.Background()) })

	model, err := llm.New(ctx, cfg.LLM, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("language model: %w", err)
	}

	embedder, err := retrieval.NewEmbedder(ctx, cfg.Embedding)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("embedder: %w", err)
	}

	esClient, err := database.NewElasticsearch(cfg.Retrieval)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.checks["retrieval"] = esClient.Ready(cfg.Retrieval.Index)
	retriever := retrieval.NewElasticsearchRetriever(esClient.Client, embedder, retrieval.ElasticsearchOptions{
		Index:         cfg.Retrieval.Index,
		Namespace:     cfg.Retrieval.Namespace,
		Mode:          cfg.Retrieval.Mode,
		NumCandidates: cfg.Retrieval.NumCandidates,
	}, log)

	sqlClient, err := database.NewSQL(cfg.Store)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, sqlClient.Close)
	if err := retryWithBackoff(func() error { return sqlClient.Ping(ctx) }, connectAttempts, 2*time.Second, log, "store connection"); err != nil {
		a.Close()
		return nil, err
	}
	a.checks["store"] = sqlClient.Ping
	log.Info("store connected", map[string]interface{}{"store": cfg.Store.Describe()})

	tabular, err := store.FromClient(sqlClient, config.GetDuration(cfg.Store.QueryTimeout), log)
	if err != nil {
		a.Close()
		return nil, err
	}

	var rdb redis.Cmdable
	if cfg.Audit.Sink == "redis" {
		redisClient, err := database.NewRedis(cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, redisClient.Close)
		if err := retryWithBackoff(func() error { return redisClient.Ping(ctx) }, connectAttempts, 2*time.Second, log, "redis connection"); err != nil {
			a.Close()
			return nil, err
		}
		a.checks["redis"] = redisClient.Ping
		rdb = redisClient.Client
	}

	recorder, err := audit.New(ctx, cfg.Audit, rdb, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.stages = stageHandlers{
		router:    routequestion.NewHandler(routequestion.LoadConfig(cfg), model, log),
		policy:    answerpolicy.NewHandler(answerpolicy.LoadConfig(cfg), retriever, model, log),
		kpi:       answerkpi.NewHandler(answerkpi.LoadConfig(cfg), model, tabular, log),
		scenario:  analyzescenario.NewHandler(analyzescenario.LoadConfig(cfg), model, tabular, log),
		assembler: assembleanswer.NewHandler(assembleanswer.LoadConfig(cfg), recorder, log),
	}

	a.pipeline, err = pipeline.New(pipeline.Stages{
		Router:    a.stages.router,
		Policy:    a.stages.policy,
		KPI:       a.stages.kpi,
		Scenario:  a.stages.scenario,
		Assembler: a.stages.assembler,
	}, obs.Tracer(), log)
	if err != nil {
		a.Close()
		return nil, err
	}

	log.Info("copilot initialized", map[string]interface{}{
		"llmProvider":   cfg.LLM.Provider,
		"llmModel":      cfg.LLM.Model,
		"retrievalMode": cfg.Retrieval.Mode,
		"auditSink":     cfg.Audit.Sink,
	})
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if a.zapLog != nil {
		_ = a.zapLog.Sync()
	}
	return errors.Join(errs...)
}
