// internal/workers/copilot/analyze-scenario/extract.go
package analyzescenario

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"supplychain-copilot/internal/common/validation"
	"supplychain-copilot/internal/models"
)

var extractionSchema = validation.MustCompile(`{
  "type": "object",
  "properties": {
    "country": {"type": ["string", "null"]},
    "delay_days": {"type": "integer"}
  }
}`)

type extraction struct {
	Country   *string  `json:"country"`
	DelayDays *float64 `json:"delay_days"`
}

// parseScenarioSpec reads the extraction completion. Any completion that is
// not a JSON object of the expected shape yields an error; the caller then
// uses the default spec.
func parseScenarioSpec(raw string) (models.ScenarioSpec, error) {
	doc := []byte(strings.TrimSpace(raw))

	result, err := extractionSchema.ValidateJSON(doc)
	if err != nil {
		return models.ScenarioSpec{}, err
	}
	if !result.Valid {
		return models.ScenarioSpec{}, fmt.Errorf("unexpected extraction shape: %s", result.Summary())
	}

	var ex extraction
	if err := json.Unmarshal(doc, &ex); err != nil {
		return models.ScenarioSpec{}, err
	}

	spec := models.ScenarioSpec{DelayDays: models.DefaultDelayDays}
	if ex.DelayDays != nil {
		if *ex.DelayDays > math.MaxInt32 || *ex.DelayDays < math.MinInt32 {
			return models.ScenarioSpec{}, fmt.Errorf("delay_days out of range: %v", *ex.DelayDays)
		}
		spec.DelayDays = int(*ex.DelayDays)
	}
	if ex.Country != nil {
		if code := strings.ToUpper(strings.TrimSpace(*ex.Country)); code != "" {
			spec.Country = &code
		}
	}
	return spec, nil
}
