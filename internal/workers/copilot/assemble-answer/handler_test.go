package assembleanswer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"supplychain-copilot/internal/audit"
	"supplychain-copilot/internal/common/config"
	"supplychain-copilot/internal/common/logger"
	"supplychain-copilot/internal/common/metrics"
	"supplychain-copilot/internal/models"
)

// ==========================
// Mock Implementations
// ==========================

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, resp *models.Response) error {
	args := m.Called(ctx, resp)
	return args.Error(0)
}

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func kpiState() models.QueryState {
	return models.QueryState{
		Question: "OTD for Alpha?",
		Intent:   models.IntentKPIQuery,
		KPI: &models.KPIProvenance{
			SQLQuery:  "SELECT 1",
			SQLResult: []models.Row{models.NewRow("otd_rate", 0.667)},
		},
		Answer: "Alpha delivers on time two thirds of the time.",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_PassesStateThrough(t *testing.T) {
	recorder := new(MockRecorder)
	recorder.On("Record", mock.Anything, mock.AnythingOfType("*models.Response")).Return(nil).Once()

	h := NewHandler(createTestConfig(), recorder, createTestLogger(t))
	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return started.Add(1500 * time.Millisecond) }

	state := kpiState()
	resp, err := h.Execute(context.Background(), &Input{State: state, StartedAt: started})
	require.NoError(t, err)

	assert.Equal(t, state, resp.QueryState)
	require.NotNil(t, resp.Metadata)
	_, parseErr := uuid.Parse(resp.Metadata.RequestID)
	assert.NoError(t, parseErr)
	assert.Equal(t, int64(1500), resp.Metadata.DurationMs)
	assert.Equal(t, started, resp.Metadata.StartedAt)
	assert.Empty(t, resp.Metadata.TraceID)
	recorder.AssertExpectations(t)
}

func TestHandler_Execute_IntentUnchangedForEveryStrategy(t *testing.T) {
	h := NewHandler(createTestConfig(), nil, createTestLogger(t))

	states := []models.QueryState{
		{Intent: models.IntentPolicyQA, Policy: &models.PolicyProvenance{}, Answer: "a"},
		kpiState(),
		{Intent: models.IntentScenarioAnalysis, Scenario: &models.ScenarioProvenance{Spec: models.DefaultScenarioSpec()}, Answer: "b"},
	}
	for _, s := range states {
		resp, err := h.Execute(context.Background(), &Input{State: s})
		require.NoError(t, err)
		assert.Equal(t, s.Intent, resp.Intent)
		assert.Equal(t, int64(0), resp.Metadata.DurationMs)
	}
}

func TestHandler_Execute_TraceID(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "request")
	defer span.End()

	h := NewHandler(createTestConfig(), nil, createTestLogger(t))
	resp, err := h.Execute(ctx, &Input{State: kpiState()})
	require.NoError(t, err)
	assert.Equal(t, span.SpanContext().TraceID().String(), resp.Metadata.TraceID)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_AuditFailureIsNotFatal(t *testing.T) {
	recorder := new(MockRecorder)
	recorder.On("Record", mock.Anything, mock.Anything).
		Return(errors.New("AUDIT_WRITE_FAILED: redis down")).Once()

	before := testutil.ToFloat64(metrics.RequestFailures.WithLabelValues("audit"))

	h := NewHandler(createTestConfig(), recorder, createTestLogger(t))
	resp, err := h.Execute(context.Background(), &Input{State: kpiState()})
	require.NoError(t, err)
	assert.Equal(t, "Alpha delivers on time two thirds of the time.", resp.Answer)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RequestFailures.WithLabelValues("audit")))
}

// ==========================
// Integration Tests
// ==========================

func TestHandler_Execute_RedisAuditTrail(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	h := NewHandler(createTestConfig(), audit.NewRedisStreamRecorder(rdb, "copilot:responses", 10, logger.NewNoOpLogger()), createTestLogger(t))
	resp, err := h.Execute(context.Background(), &Input{State: kpiState()})
	require.NoError(t, err)

	entries, err := rdb.XRange(context.Background(), "copilot:responses", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, resp.Metadata.RequestID, entries[0].Values["request_id"])
	assert.Equal(t, "kpi_query", entries[0].Values["intent"])
}

func TestHandler_StartedAt(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	h := NewHandler(createTestConfig(), audit.NopRecorder{}, logger.NewZapAdapter(zap.New(core)))

	valid := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Variables: `{"question":"q","started_at":"2026-01-02T03:04:05Z"}`}}
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), h.startedAt(valid).UTC())

	missing := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 2, Variables: `{"question":"q"}`}}
	assert.True(t, h.startedAt(missing).IsZero())
	assert.Zero(t, logs.Len())

	malformed := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 3, Variables: `{"question":"q","started_at":"yesterday"}`}}
	assert.True(t, h.startedAt(malformed).IsZero())
	entries := logs.FilterMessage("started_at variable ignored").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.EqualValues(t, 3, entries[0].ContextMap()["jobKey"])
}

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, 10*time.Second, LoadConfig(nil).Timeout)

	cfg := &config.Config{Workers: map[string]config.WorkerConfig{
		TaskType: {Enabled: true, Timeout: 2000},
	}}
	assert.Equal(t, 2*time.Second, LoadConfig(cfg).Timeout)
}
