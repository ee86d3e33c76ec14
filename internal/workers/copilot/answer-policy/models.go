// internal/workers/copilot/answer-policy/models.go
package answerpolicy

import "supplychain-copilot/internal/models"

type Input struct {
	Question string `json:"question"`
}

// Output carries the answer and the passages it was grounded on, in
// retrieval rank order. RetrievedDocs is never nil.
type Output struct {
	Answer        string                `json:"answer"`
	RetrievedDocs []models.RetrievedDoc `json:"retrieved_docs"`
}
