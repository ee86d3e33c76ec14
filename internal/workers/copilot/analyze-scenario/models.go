// internal/workers/copilot/analyze-scenario/models.go
package analyzescenario

import "supplychain-copilot/internal/models"

type Input struct {
	Question string `json:"question"`
}

// Output is the scenario answer. ScenarioSpec is what was extracted (a nil
// country stays nil); QueriedCountry is the code the impact query ran with.
type Output struct {
	Answer         string              `json:"answer"`
	ScenarioSpec   models.ScenarioSpec `json:"scenario_spec"`
	ImpactRows     []models.Row        `json:"scenario_impact"`
	QueriedCountry string              `json:"queried_country"`
}

type impactResult struct {
	Country string
	Rows    []models.Row
	Failed  bool
}
