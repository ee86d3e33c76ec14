// internal/models/state.go
package models

import (
	"encoding/json"
	"time"
)

// RetrievedDoc is one passage cited by a policy answer.
type RetrievedDoc struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Snippet returns at most n runes of the passage.
func (d RetrievedDoc) Snippet(n int) string {
	runes := []rune(d.Content)
	if len(runes) <= n {
		return d.Content
	}
	return string(runes[:n]) + "..."
}

// ScenarioSpec holds the parameters of a hypothetical disruption.
// A nil Country means none was extracted.
type ScenarioSpec struct {
	Country   *string `json:"country"`
	DelayDays int     `json:"delay_days"`
}

const DefaultDelayDays = 7

// DefaultScenarioSpec is used whenever extraction does not yield valid JSON.
func DefaultScenarioSpec() ScenarioSpec {
	return ScenarioSpec{Country: nil, DelayDays: DefaultDelayDays}
}

// PolicyProvenance is written only by the policy answerer.
type PolicyProvenance struct {
	RetrievedDocs []RetrievedDoc
}

// KPIProvenance is written only by the metric analyst. SQLResult is empty,
// never nil, when the generated query failed.
type KPIProvenance struct {
	SQLQuery  string
	SQLResult []Row
}

// ScenarioProvenance is written only by the scenario analyst.
type ScenarioProvenance struct {
	Spec       ScenarioSpec
	ImpactRows []Row
}

// QueryState is the value threaded through one pipeline invocation.
// Exactly one of the provenance pointers is set once a strategy has run.
type QueryState struct {
	Question string
	Intent   Intent
	Policy   *PolicyProvenance
	KPI      *KPIProvenance
	Scenario *ScenarioProvenance
	Answer   string
}

// NewQueryState starts a state with only the question set.
func NewQueryState(question string) *QueryState {
	return &QueryState{Question: question, Intent: IntentUnknown}
}

// Metadata is attached by the assembler; strategies never see it.
type Metadata struct {
	RequestID  string    `json:"request_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
}

// Response is the terminal value returned to callers.
type Response struct {
	QueryState
	Metadata *Metadata
}

type wireResponse struct {
	Question       string          `json:"question,omitempty"`
	Answer         string          `json:"answer"`
	Intent         Intent          `json:"intent"`
	RetrievedDocs  *[]RetrievedDoc `json:"retrieved_docs,omitempty"`
	SQLQuery       *string         `json:"sql_query,omitempty"`
	SQLResult      *[]Row          `json:"sql_result,omitempty"`
	ScenarioSpec   *ScenarioSpec   `json:"scenario_spec,omitempty"`
	ScenarioImpact *[]Row          `json:"scenario_impact,omitempty"`
	Metadata       *Metadata       `json:"metadata,omitempty"`
}

// MarshalJSON emits a provenance key only for the strategy that ran, and
// emits empty sequences as [] rather than omitting them.
func (r Response) MarshalJSON() ([]byte, error) {
	w := wireResponse{
		Question: r.Question,
		Answer:   r.Answer,
		Intent:   r.Intent,
		Metadata: r.Metadata,
	}
	if p := r.Policy; p != nil {
		docs := p.RetrievedDocs
		if docs == nil {
			docs = []RetrievedDoc{}
		}
		w.RetrievedDocs = &docs
	}
	if k := r.KPI; k != nil {
		query := k.SQLQuery
		rows := k.SQLResult
		if rows == nil {
			rows = []Row{}
		}
		w.SQLQuery = &query
		w.SQLResult = &rows
	}
	if s := r.Scenario; s != nil {
		spec := s.Spec
		rows := s.ImpactRows
		if rows == nil {
			rows = []Row{}
		}
		w.ScenarioSpec = &spec
		w.ScenarioImpact = &rows
	}
	return json.Marshal(w)
}

func (r *Response) UnmarshalJSON(data []byte) error {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*r = Response{
		QueryState: QueryState{Question: w.Question, Intent: w.Intent, Answer: w.Answer},
		Metadata:   w.Metadata,
	}
	if w.RetrievedDocs != nil {
		r.Policy = &PolicyProvenance{RetrievedDocs: *w.RetrievedDocs}
	}
	if w.SQLQuery != nil || w.SQLResult != nil {
		k := &KPIProvenance{SQLResult: []Row{}}
		if w.SQLQuery != nil {
			k.SQLQuery = *w.SQLQuery
		}
		if w.SQLResult != nil {
			k.SQLResult = *w.SQLResult
		}
		r.KPI = k
	}
	if w.ScenarioSpec != nil {
		s := &ScenarioProvenance{Spec: *w.ScenarioSpec}
		if w.ScenarioImpact != nil {
			s.ImpactRows = *w.ScenarioImpact
		}
		r.Scenario = s
	}
	return nil
}
