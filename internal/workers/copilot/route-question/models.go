// internal/workers/copilot/route-question/models.go
package routequestion

import "supplychain-copilot/internal/models"

type Input struct {
	Question string `json:"question"`
}

type Output struct {
	Intent    models.Intent `json:"intent"`
	RawLabel  string        `json:"raw_label"`
	Overrides []string      `json:"overrides,omitempty"`
}
