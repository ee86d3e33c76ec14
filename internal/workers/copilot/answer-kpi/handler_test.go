package answerkpi

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
	return &Config{Timeout: 5 * time.Second}
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

// scriptedModel answers the query prompt with sql and the narration prompt
// with narration, recording every prompt it sees.
type scriptedModel struct {
	sql       string
	narration string
	prompts   []string
}

func (m *scriptedModel) Invoke(ctx context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if strings.Contains(prompt, "writing SQL") {
		return m.sql, nil
	}
	return m.narration, nil
}

const alphaOTDQuery = `SELECT s.name AS supplier_name,
       COUNT(*) AS total_orders,
       SUM(CASE WHEN p.delivery_date <= p.due_date THEN 1 ELSE 0 END) AS on_time_orders,
       ROUND(1.0 * SUM(CASE WHEN p.delivery_date <= p.due_date THEN 1 ELSE 0 END) / COUNT(*), 3) AS otd_rate
FROM suppliers s
JOIN purchase_orders p ON s.id = p.supplier_id
WHERE LOWER(s.name) LIKE LOWER('%Alpha Electronics%')
GROUP BY s.name`

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_SeededStore(t *testing.T) {
	ctx := context.Background()
	db, err := sampledata.OpenMemory(ctx)
	require.NoError(t, err)
	defer db.Close()

	model := &scriptedModel{
		sql:       "  " + alphaOTDQuery + "\n",
		narration: "Alpha Electronics delivered 2 of 3 orders on time (66.7%), a strong result for this small sample.",
	}
	tabular := store.NewSQLStore(db, store.DialectSQLite, 0, createTestLogger(t))
	h := NewHandler(createTestConfig(), model, tabular, createTestLogger(t))

	output, err := h.Execute(ctx, &Input{Question: "What is our on-time delivery rate for Alpha Electronics?"})
	require.NoError(t, err)

	assert.Equal(t, alphaOTDQuery, output.SQLQuery)
	require.Len(t, output.SQLResult, 1)
	rate, ok := output.SQLResult[0].Get("otd_rate")
	require.True(t, ok)
	assert.InDelta(t, 2.0/3.0, rate, 0.001)
	assert.Empty(t, output.ExecutionError)
	assert.Equal(t, model.narration, output.Answer)

	require.Len(t, model.prompts, 2)
	assert.Contains(t, model.prompts[0], "delivery_date <= due_date")
	assert.Contains(t, model.prompts[0], "LOWER(s.name) LIKE LOWER('%name%')")
	assert.Contains(t, model.prompts[1], alphaOTDQuery)
	assert.Contains(t, model.prompts[1], `"otd_rate":0.667`)
	assert.Contains(t, model.prompts[1], "6-8 concise sentences")
}

func TestHandler_Execute_ExecutionFailureSkipsNarration(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectReadOnly(mock, store.DialectSQLite, func() {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT otd FROM supplier_kpis")).
			WillReturnError(errors.New("no such table: supplier_kpis"))
	})

	model := &scriptedModel{sql: "SELECT otd FROM supplier_kpis", narration: "should not be used"}
	tabular := store.NewSQLStore(db, store.DialectSQLite, 0, createTestLogger(t))
	h := NewHandler(createTestConfig(), model, tabular, createTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{Question: "OTD for Alpha?"})
	require.NoError(t, err)

	assert.Equal(t, "SELECT otd FROM supplier_kpis", output.SQLQuery)
	assert.NotNil(t, output.SQLResult)
	assert.Empty(t, output.SQLResult)
	assert.True(t, strings.HasPrefix(output.Answer, "Sorry, the KPI query could not be executed: "))
	assert.Contains(t, output.Answer, "no such table: supplier_kpis")
	assert.Len(t, model.prompts, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_RejectedQueryIsFailSoft(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"write statement", "DELETE FROM purchase_orders"},
		{"markdown fenced", "```sql\nSELECT * FROM suppliers\n```"},
		{"empty completion", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			model := &scriptedModel{sql: tt.sql}
			h := NewHandler(createTestConfig(), model, store.NewSQLStore(db, store.DialectSQLite, 0, logger.NewNoOpLogger()), createTestLogger(t))

			output, err := h.Execute(context.Background(), &Input{Question: "OTD?"})
			require.NoError(t, err)
			assert.Equal(t, []models.Row{}, output.SQLResult)
			assert.NotEmpty(t, output.Answer)
			assert.Contains(t, output.ExecutionError, "QUERY_REJECTED")
			assert.Len(t, model.prompts, 1)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_EmptyResultIsNarrated(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectReadOnly(mock, store.DialectSQLite, func() {
		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"supplier_name", "otd_rate"}))
	})

	model := &scriptedModel{sql: "SELECT s.name AS supplier_name, 0 AS otd_rate FROM suppliers s WHERE 1 = 0", narration: "No matching supplier."}
	h := NewHandler(createTestConfig(), model, store.NewSQLStore(db, store.DialectSQLite, 0, logger.NewNoOpLogger()), createTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{Question: "OTD for Omega?"})
	require.NoError(t, err)
	assert.Equal(t, "No matching supplier.", output.Answer)
	assert.Empty(t, output.SQLResult)
	require.Len(t, model.prompts, 2)
	assert.Contains(t, model.prompts[1], "Query Result (JSON list):\n[]")
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_GenerationFailurePropagates(t *testing.T) {
	tests := []struct {
		name       string
		failOnCall int
	}{
		{"query generation", 1},
		{"narration", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			expectReadOnly(mock, store.DialectSQLite, func() {
				mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
			})

			calls := 0
			model := llm.Func(func(ctx context.Context, prompt string) (string, error) {
				calls++
				if calls == tt.failOnCall {
					return "", llm.ErrGenerationFailed
				}
				return "SELECT 1 AS n", nil
			})
			h := NewHandler(createTestConfig(), model, store.NewSQLStore(db, store.DialectSQLite, 0, logger.NewNoOpLogger()), createTestLogger(t))

			output, err := h.Execute(context.Background(), &Input{Question: "OTD?"})
			assert.Nil(t, output)
			assert.True(t, errors.Is(err, ErrGenerationFailed))
			assert.Equal(t, tt.failOnCall, calls)
		})
	}
}
