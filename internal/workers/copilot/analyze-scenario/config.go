// internal/workers/copilot/analyze-scenario/config.go
package analyzescenario

import (
	"time"

	"supplychain-copilot/internal/common/config"
)

// DefaultFallbackCountry is queried when no country could be extracted.
const DefaultFallbackCountry = "VN"

type Config struct {
	Timeout         time.Duration
	FallbackCountry string
}

func LoadConfig(cfg *config.Config) *Config {
	c := &Config{
		Timeout:         60 * time.Second,
		FallbackCountry: DefaultFallbackCountry,
	}
	if cfg == nil {
		return c
	}
	if w := config.GetWorkerConfig(cfg, TaskType); w.Timeout > 0 {
		c.Timeout = config.GetDuration(w.Timeout)
	}
	if cfg.Router.FallbackCountry != "" {
		c.FallbackCountry = cfg.Router.FallbackCountry
	}
	return c
}
