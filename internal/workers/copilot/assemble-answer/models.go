// internal/workers/copilot/assemble-answer/models.go
package assembleanswer

import (
	"time"

	"supplychain-copilot/internal/models"
)

// Input is the state left by whichever strategy ran. StartedAt is when the
// request was received; a zero value means now.
type Input struct {
	State     models.QueryState
	StartedAt time.Time
}

type jobTiming struct {
	StartedAt *time.Time `json:"started_at"`
}
