package analyzescenario

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"supplychain-copilot/internal/common/logger"
	"supplychain-copilot/internal/llm"
	"supplychain-copilot/internal/models"
	"supplychain-copilot/internal/store"
	"supplychain-copilot/internal/store/sampledata"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second, FallbackCountry: DefaultFallbackCountry}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

// expectReadOnly registers the session the store opens around every query.
func expectReadOnly(mock sqlmock.Sqlmock, dialect store.Dialect, query func()) {
	if dialect == store.DialectSQLite {
		mock.ExpectExec(regexp.QuoteMeta("PRAGMA query_only = ON")).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectBegin()
	query()
	mock.ExpectRollback()
	if dialect == store.DialectSQLite {
		mock.ExpectExec(regexp.QuoteMeta("PRAGMA query_only = OFF")).WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

type scriptedModel struct {
	extraction string
	narration  string
	prompts    []string
}

func (m *scriptedModel) Invoke(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if strings.HasPrefix(prompt, "Extract supply chain risk scenario parameters") {
		return m.extraction, nil
	}
	return m.narration, nil
}

func strPtr(s string) *string { return &s }

// ==========================
// Extraction Tests
// ==========================

func TestParseScenarioSpec(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    models.ScenarioSpec
		wantErr bool
	}{
		{"full", `{"country": "VN", "delay_days": 14}`, models.ScenarioSpec{Country: strPtr("VN"), DelayDays: 14}, false},
		{"null country", `{"country": null, "delay_days": 7}`, models.ScenarioSpec{DelayDays: 7}, false},
		{"missing delay uses default", `{"country": "cn"}`, models.ScenarioSpec{Country: strPtr("CN"), DelayDays: 7}, false},
		{"blank country is null", `{"country": "  ", "delay_days": 3}`, models.ScenarioSpec{DelayDays: 3}, false},
		{"surrounding whitespace", "\n {\"country\": \"DE\", \"delay_days\": 10}\n", models.ScenarioSpec{Country: strPtr("DE"), DelayDays: 10}, false},
		{"not json", "The country is Vietnam.", models.ScenarioSpec{}, true},
		{"markdown fenced", "```json\n{\"country\": \"VN\"}\n```", models.ScenarioSpec{}, true},
		{"array", `["VN", 7]`, models.ScenarioSpec{}, true},
		{"fractional delay", `{"country": "VN", "delay_days": 7.5}`, models.ScenarioSpec{}, true},
		{"string delay", `{"country": "VN", "delay_days": "7"}`, models.ScenarioSpec{}, true},
		{"numeric country", `{"country": 84, "delay_days": 7}`, models.ScenarioSpec{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScenarioSpec(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_SeededStore(t *testing.T) {
	ctx := context.Background()
	db, err := sampledata.OpenMemory(ctx)
	require.NoError(t, err)
	defer db.Close()

	model := &scriptedModel{
		extraction: `{"country": "VN", "delay_days": 7}`,
		narration:  "Beta Plastics and Delta Packaging are exposed. Demo analysis based on sample data.",
	}
	h := NewHandler(createTestConfig(), model, store.NewSQLStore(db, store.DialectSQLite, 0, logger.NewNoOpLogger()), createTestLogger(t))

	output, err := h.Execute(ctx, &Input{Question: "What happens if Vietnam suppliers are delayed by 7 days?"})
	require.NoError(t, err)

	assert.Equal(t, "VN", *output.ScenarioSpec.Country)
	assert.Equal(t, 7, output.ScenarioSpec.DelayDays)
	assert.Equal(t, "VN", output.QueriedCountry)
	require.Len(t, output.ImpactRows, 2)
	assert.Equal(t, []string{"supplier_name", "country", "total_pos", "total_qty"}, output.ImpactRows[0].Columns())

	name, _ := output.ImpactRows[0].Get("supplier_name")
	qty, _ := output.ImpactRows[0].Get("total_qty")
	assert.Equal(t, "Beta Plastics", name)
	assert.EqualValues(t, 1400, qty)
	name, _ = output.ImpactRows[1].Get("supplier_name")
	qty, _ = output.ImpactRows[1].Get("total_qty")
	assert.Equal(t, "Delta Packaging", name)
	assert.EqualValues(t, 2200, qty)

	require.Len(t, model.prompts, 2)
	assert.Contains(t, model.prompts[1], `{"country":"VN","delay_days":7}`)
	assert.Contains(t, model.prompts[1], `"supplier_name":"Beta Plastics"`)
	assert.Contains(t, model.prompts[1], "3-5 actionable mitigation recommendations")
	assert.Contains(t, model.prompts[1], "demo analysis based on sample data")
	assert.Equal(t, model.narration, output.Answer)
}

func TestHandler_Execute_UnparseableExtractionFallsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectReadOnly(mock, store.DialectSQLite, func() {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE s.country = ?")).
			WithArgs("VN").
			WillReturnRows(sqlmock.NewRows([]string{"supplier_name", "country", "total_pos", "total_qty"}).
				AddRow("Beta Plastics", "VN", 2, 1400))
	})

	model := &scriptedModel{extraction: "Sorry, I cannot tell which country.", narration: "Impact summary."}
	h := NewHandler(createTestConfig(), model, store.NewSQLStore(db, store.DialectSQLite, 0, logger.NewNoOpLogger()), createTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{Question: "What if shipments are late?"})
	require.NoError(t, err)

	assert.Equal(t, models.DefaultScenarioSpec(), output.ScenarioSpec)
	assert.Nil(t, output.ScenarioSpec.Country)
	assert.Equal(t, 7, output.ScenarioSpec.DelayDays)
	assert.Equal(t, "VN", output.QueriedCountry)
	assert.NotEmpty(t, output.Answer)
	assert.Contains(t, model.prompts[1], `{"country":null,"delay_days":7}`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_CountryIsBoundNotInterpolated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	hostile := "VN' OR '1'='1"
	expectReadOnly(mock, store.DialectPostgres, func() {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE s.country = $1")).
			WithArgs(strings.ToUpper(hostile)).
			WillReturnRows(sqlmock.NewRows([]string{"supplier_name", "country", "total_pos", "total_qty"}))
	})

	model := &scriptedModel{extraction: `{"country": "VN' OR '1'='1", "delay_days": 7}`, narration: "No exposure."}
	h := NewHandler(createTestConfig(), model, store.NewSQLStore(db, store.DialectPostgres, 0, logger.NewNoOpLogger()), createTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{Question: "What if VN is delayed?"})
	require.NoError(t, err)
	assert.Empty(t, output.ImpactRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_ImpactFailureBecomesDiagnosticRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectReadOnly(mock, store.DialectSQLite, func() {
		mock.ExpectQuery("SELECT").WithArgs("CN").WillReturnError(errors.New("database is locked"))
	})

	model := &scriptedModel{extraction: `{"country": "CN", "delay_days": 21}`, narration: "Data unavailable; general mitigations follow."}
	h := NewHandler(createTestConfig(), model, store.NewSQLStore(db, store.DialectSQLite, 0, logger.NewNoOpLogger()), createTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{Question: "What if China suppliers slip three weeks?"})
	require.NoError(t, err)

	require.Len(t, output.ImpactRows, 1)
	msg, ok := output.ImpactRows[0].Get("error")
	require.True(t, ok)
	assert.Contains(t, msg, "database is locked")
	assert.Equal(t, 21, output.ScenarioSpec.DelayDays)
	require.Len(t, model.prompts, 2)
	assert.Contains(t, model.prompts[1], `[{"error":`)
	assert.Equal(t, "Data unavailable; general mitigations follow.", output.Answer)
}

func TestHandler_Execute_ConfiguredFallbackCountry(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectReadOnly(mock, store.DialectSQLite, func() {
		mock.ExpectQuery("SELECT").WithArgs("DE").
			WillReturnRows(sqlmock.NewRows([]string{"supplier_name", "country", "total_pos", "total_qty"}))
	})

	cfg := createTestConfig()
	cfg.FallbackCountry = "DE"
	model := &scriptedModel{extraction: `{"country": null}`, narration: "ok"}
	h := NewHandler(cfg, model, store.NewSQLStore(db, store.DialectSQLite, 0, logger.NewNoOpLogger()), createTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{Question: "What if suppliers are delayed?"})
	require.NoError(t, err)
	assert.Equal(t, "DE", output.QueriedCountry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_GenerationFailurePropagates(t *testing.T) {
	for _, failOn := range []int{1, 2} {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		expectReadOnly(mock, store.DialectSQLite, func() {
			mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"supplier_name"}))
		})

		calls := 0
		model := llm.Func(func(ctx context.Context, prompt string) (string, error) {
			calls++
			if calls == failOn {
				return "", llm.ErrGenerationFailed
			}
			return `{"country": "VN", "delay_days": 7}`, nil
		})
		h := NewHandler(createTestConfig(), model, store.NewSQLStore(db, store.DialectSQLite, 0, logger.NewNoOpLogger()), createTestLogger(t))

		output, err := h.Execute(context.Background(), &Input{Question: "What if VN is delayed?"})
		assert.Nil(t, output)
		assert.True(t, errors.Is(err, ErrGenerationFailed))
		assert.Equal(t, failOn, calls)
		db.Close()
	}
}
