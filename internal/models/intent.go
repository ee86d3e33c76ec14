// internal/models/intent.go
package models

import "strings"

// Intent selects the strategy that answers a question.
type Intent string

const (
	IntentPolicyQA         Intent = "policy_qa"
	IntentKPIQuery         Intent = "kpi_query"
	IntentScenarioAnalysis Intent = "scenario_analysis"
	IntentUnknown          Intent = "unknown"
)

// DispatchableIntents lists the intents a strategy exists for.
var DispatchableIntents = []Intent{IntentPolicyQA, IntentKPIQuery, IntentScenarioAnalysis}

const labelCutset = "`\"'. \t\r\n"

// ParseIntent maps a free-text classifier label onto the closed set.
// Surrounding whitespace, quotes, backticks and periods are ignored and
// matching is case-insensitive; anything else is IntentUnknown.
func ParseIntent(raw string) Intent {
	label := strings.ToLower(strings.Trim(raw, labelCutset))

	for _, intent := range DispatchableIntents {
		if label == string(intent) {
			return intent
		}
	}
	return IntentUnknown
}

// Dispatchable reports whether a strategy exists for the intent.
func (i Intent) Dispatchable() bool {
	switch i {
	case IntentPolicyQA, IntentKPIQuery, IntentScenarioAnalysis:
		return true
	default:
		return false
	}
}

// Label is the short badge shown next to an answer.
func (i Intent) Label() string {
	switch i {
	case IntentPolicyQA:
		return "Policy Q&A"
	case IntentKPIQuery:
		return "KPI Query"
	case IntentScenarioAnalysis:
		return "Scenario"
	default:
		return "Unknown"
	}
}
