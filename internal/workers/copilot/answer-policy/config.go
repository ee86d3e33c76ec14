// internal/workers/copilot/answer-policy/config.go
package answerpolicy

import (
	"time"

	"supplychain-copilot/internal/common/config"
)

// DefaultTopK is the number of passages fetched for every policy question.
const DefaultTopK = 5

type Config struct {
	Timeout time.Duration
	TopK    int
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout: 60 * time.Second,
		TopK:    DefaultTopK,
	}
	if cfg == nil {
		return c
	}
	if w := config.GetWorkerConfig(cfg, TaskType); w.Timeout > 0 {
		c.Timeout = config.GetDuration(w.Timeout)
	}
	return c
}
