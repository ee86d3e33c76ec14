package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_Lifecycle(t *testing.T) {
	obs, err := New(Options{ServiceName: "copilot-test"})
	require.NoError(t, err)

	ctx, span := obs.Tracer().Start(context.Background(), "router")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	obs.RecordRequest(ctx, "kpi_query", "ok", 120*time.Millisecond)

	assert.NoError(t, obs.Shutdown(context.Background()))
}
