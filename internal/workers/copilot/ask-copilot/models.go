// internal/workers/copilot/ask-copilot/models.go
package askcopilot

type Input struct {
	Question string `json:"question"`
}
