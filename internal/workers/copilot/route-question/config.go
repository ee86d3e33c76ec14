// internal/workers/copilot/route-question/config.go
package routequestion

import (
	"time"

	"supplychain-copilot/internal/common/config"
)

type Config struct {
	Timeout       time.Duration
	SupplierNames []string
}

var defaultSupplierNames = []string{"Alpha", "Beta", "Gamma", "Delta"}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout:       30 * time.Second,
		SupplierNames: defaultSupplierNames,
	}
	if cfg == nil {
		return c
	}
	if w := config.GetWorkerConfig(cfg, TaskType); w.Timeout > 0 {
		c.Timeout = config.GetDuration(w.Timeout)
	}
	if len(cfg.Router.SupplierNames) > 0 {
		c.SupplierNames = cfg.Router.SupplierNames
	}
	return c
}
