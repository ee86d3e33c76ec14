// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"supplychain-copilot/internal/common/config"
	"supplychain-copilot/internal/common/logger"
	"supplychain-copilot/internal/common/metrics"
)

// Registration binds a task type to the handler serving it.
type Registration struct {
	TaskType string
	Handler  worker.JobHandler
}

// StartWorkers opens one job worker per enabled registration. Callers close
// the returned workers on shutdown.
func StartWorkers(client zbc.Client, cfg *config.Config, regs []Registration, log logger.Logger) []worker.JobWorker {
	var workers []worker.JobWorker
	for _, reg := range regs {
		wcfg := config.GetWorkerConfig(cfg, reg.TaskType)
		if !wcfg.Enabled {
			log.Info("worker disabled", map[string]interface{}{"taskType": reg.TaskType})
			continue
		}

		jobWorker := client.NewJobWorker().
			JobType(reg.TaskType).
			Handler(reg.Handler).
			MaxJobsActive(maxJobsActive(wcfg)).
			Timeout(jobTimeout(wcfg)).
			Open()
		workers = append(workers, jobWorker)

		log.Info("worker started", map[string]interface{}{
			"taskType":      reg.TaskType,
			"maxJobsActive": maxJobsActive(wcfg),
			"timeout":       jobTimeout(wcfg).String(),
		})
	}
	return workers
}

func maxJobsActive(wcfg config.WorkerConfig) int {
	if wcfg.MaxJobsActive <= 0 {
		return 5
	}
	return wcfg.MaxJobsActive
}

func jobTimeout(wcfg config.WorkerConfig) time.Duration {
	if wcfg.Timeout <= 0 {
		return 2 * time.Minute
	}
	return config.GetDuration(wcfg.Timeout)
}

// DecodeVariables unmarshals job variables into v.
func DecodeVariables(job entities.Job, v interface{}) error {
	if err := json.Unmarshal([]byte(job.Variables), v); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	return nil
}

// CompleteJob completes the job with output as its variables.
func CompleteJob(client worker.JobClient, job entities.Job, output interface{}, log logger.Logger) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		log.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		log.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(job.Type).Inc()
	log.Info("job completed", map[string]interface{}{"jobKey": job.Key})
}
