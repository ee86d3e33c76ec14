package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"supplychain-copilot/internal/models"
)

func TestRenderText(t *testing.T) {
	tests := []struct {
		name     string
		resp     *models.Response
		contains []string
	}{
		{
			name: "policy with citations",
			resp: &models.Response{QueryState: models.QueryState{
				Intent: models.IntentPolicyQA,
				Policy: &models.PolicyProvenance{RetrievedDocs: []models.RetrievedDoc{
					{Content: strings.Repeat("net 60 ", 100), Source: "supplier_contract.pdf"},
					{Content: "no source"},
				}},
				Answer: "Net 60.",
			}},
			contains: []string{"[Policy Q&A]", "Net 60.", "1. supplier_contract.pdf", "...", "2. unknown"},
		},
		{
			name: "kpi with empty answer",
			resp: &models.Response{QueryState: models.QueryState{
				Intent: models.IntentKPIQuery,
				KPI:    &models.KPIProvenance{SQLQuery: "SELECT 1"},
			}},
			contains: []string{"[KPI Query]", "(No answer generated)", "SELECT 1", "[]"},
		},
		{
			name: "scenario",
			resp: &models.Response{QueryState: models.QueryState{
				Intent:   models.IntentScenarioAnalysis,
				Scenario: &models.ScenarioProvenance{Spec: models.DefaultScenarioSpec()},
				Answer:   "Exposure is limited.",
			}},
			contains: []string{"[Scenario]", `{"country":null,"delay_days":7}`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			renderText(&buf, tt.resp)
			for _, want := range tt.contains {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"ask", "serve", "worker", "seed"} {
		cmd, _, err := root.Find([]string{name})
		assert.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}
