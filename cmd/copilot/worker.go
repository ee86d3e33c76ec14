// cmd/copilot/worker.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"supplychain-copilot/internal/common/camunda"
	"supplychain-copilot/internal/common/config"
	"supplychain-copilot/internal/pipeline"
	analyzescenario "supplychain-copilot/internal/workers/copilot/analyze-scenario"
	answerkpi "supplychain-copilot/internal/workers/copilot/answer-kpi"
	answerpolicy "supplychain-copilot/internal/workers/copilot/answer-policy"
	askcopilot "supplychain-copilot/internal/workers/copilot/ask-copilot"
	assembleanswer "supplychain-copilot/internal/workers/copilot/assemble-answer"
	routequestion "supplychain-copilot/internal/workers/copilot/route-question"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Serve the copilot stages as Zeebe job workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.ValidateForWorker(cfg); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := bootstrap(ctx, cfg, 15)
			if err != nil {
				return err
			}
			defer a.Close()

			var client *camunda.Client
			err = retryWithBackoff(func() error {
				var err error
				client, err = camunda.NewClient(ctx, cfg.Camunda)
				return err
			}, 10, 2*time.Second, a.log, "Zeebe client initialization")
			if err != nil {
				return err
			}
			defer client.Close()
			a.log.Info("Zeebe client connected successfully", nil)

			ask := askcopilot.NewHandler(askcopilot.LoadConfig(cfg), a.pipeline, pipeline.NewErrorClassifier(), a.log)

			workers := camunda.StartWorkers(client.Zeebe(), cfg, []camunda.Registration{
				{TaskType: askcopilot.TaskType, Handler: ask.Handle},
				{TaskType: routequestion.TaskType, Handler: a.stages.router.Handle},
				{TaskType: answerpolicy.TaskType, Handler: a.stages.policy.Handle},
				{TaskType: answerkpi.TaskType, Handler: a.stages.kpi.Handle},
				{TaskType: analyzescenario.TaskType, Handler: a.stages.scenario.Handle},
				{TaskType: assembleanswer.TaskType, Handler: a.stages.assembler.Handle},
			}, a.log)

			a.log.Info("workers running", map[string]interface{}{"count": len(workers)})
			<-ctx.Done()

			a.log.Info("shutting down workers", nil)
			for _, w := range workers {
				w.Close()
				w.AwaitClose()
			}
			return nil
		},
	}
}
