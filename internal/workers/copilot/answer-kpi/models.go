// internal/workers/copilot/answer-kpi/models.go
package answerkpi

import "supplychain-copilot/internal/models"

type Input struct {
	Question string `json:"question"`
}

// Output is the KPI answer with its provenance. When the generated query
// failed, SQLResult is empty, ExecutionError holds the reason and Answer is
// the apology.
type Output struct {
	Answer         string       `json:"answer"`
	SQLQuery       string       `json:"sql_query"`
	SQLResult      []models.Row `json:"sql_result"`
	ExecutionError string       `json:"execution_error,omitempty"`
}

// generatedQuery is the output of the generate stage.
type generatedQuery struct {
	SQL string
}

// executedQuery is the output of the execute stage.
type executedQuery struct {
	SQL  string
	Rows []models.Row
}
