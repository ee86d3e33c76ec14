package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"supplychain-copilot/internal/common/config"
	"supplychain-copilot/internal/common/logger"
	"supplychain-copilot/internal/common/metrics"
)

func testOptions() Options {
	return Options{Model: "test-model", Temperature: 0, MaxTokens: 256}
}

// ==========================
// OpenAI
// ==========================

func TestOpenAIModel_Invoke(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "classify this", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"kpi_query"}}]}`))
	}))
	defer server.Close()

	model := NewOpenAIModel(server.URL+"/", "sk-test", 5*time.Second, testOptions())
	out, err := model.Invoke(context.Background(), "classify this")

	require.NoError(t, err)
	assert.Equal(t, "kpi_query", out)
}

func TestOpenAIModel_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := NewOpenAIModel(server.URL, "", time.Second, testOptions()).Invoke(context.Background(), "x")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationFailed))
	assert.True(t, errors.Is(err, ErrEmptyCompletion))
}

func TestOpenAIModel_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	calls := 0
	wrapped := Func(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return NewOpenAIModel(server.URL, "", time.Second, testOptions()).Invoke(ctx, prompt)
	})

	_, err := wrapped.Invoke(context.Background(), "x")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationFailed))
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, 1, calls)
}

// ==========================
// Anthropic
// ==========================

func TestAnthropicModel_Invoke(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/v1/messages", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body["model"])
		assert.EqualValues(t, 256, body["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "test-model",
			"content": [{"type": "text", "text": "scenario_"}, {"type": "text", "text": "analysis"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 3}
		}`))
	}))
	defer server.Close()

	model := NewAnthropicModel("test-key", server.URL, testOptions())
	out, err := model.Invoke(context.Background(), "What if VN is delayed?")

	require.NoError(t, err)
	assert.Equal(t, "scenario_analysis", out)
	assert.Equal(t, 1, requests)
}

func TestAnthropicModel_ErrorIsNotRetried(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"overloaded"}}`))
	}))
	defer server.Close()

	_, err := NewAnthropicModel("test-key", server.URL, testOptions()).Invoke(context.Background(), "x")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGenerationFailed))
	assert.Equal(t, 1, requests)
}

// ==========================
// Gemini
// ==========================

func TestGeminiModel_Invoke(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "test-model:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"policy_qa"}]}}]}`))
	}))
	defer server.Close()

	model, err := NewGeminiModel(context.Background(), "test-key", server.URL, testOptions())
	require.NoError(t, err)

	out, err := model.Invoke(context.Background(), "What are the payment terms?")
	require.NoError(t, err)
	assert.Equal(t, "policy_qa", out)
}

// ==========================
// Instrumentation and factory
// ==========================

func TestInstrumentedModel_RecordsOutcome(t *testing.T) {
	log := logger.NewZapAdapter(zaptest.NewLogger(t))

	okBefore := testutil.ToFloat64(metrics.LLMCalls.WithLabelValues("fake", "ok"))
	errBefore := testutil.ToFloat64(metrics.LLMCalls.WithLabelValues("fake", "error"))

	ok := NewInstrumentedModel(Func(func(ctx context.Context, prompt string) (string, error) {
		return "echo: " + prompt, nil
	}), "fake", "m", log)
	out, err := ok.Invoke(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", out)

	failing := NewInstrumentedModel(Func(func(ctx context.Context, prompt string) (string, error) {
		return "", ErrGenerationFailed
	}), "fake", "m", log)
	_, err = failing.Invoke(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrGenerationFailed)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.LLMCalls.WithLabelValues("fake", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(metrics.LLMCalls.WithLabelValues("fake", "error")))
}

func TestNew_Providers(t *testing.T) {
	log := logger.NewNoOpLogger()

	model, err := New(context.Background(), config.LLMConfig{Provider: "openai", Model: "gpt-4.1-mini", Timeout: 1000}, log)
	require.NoError(t, err)
	assert.IsType(t, &InstrumentedModel{}, model)

	model, err = New(context.Background(), config.LLMConfig{Provider: "anthropic", Model: "claude-3-5-haiku-latest", APIKey: "k"}, log)
	require.NoError(t, err)
	assert.NotNil(t, model)

	_, err = New(context.Background(), config.LLMConfig{Provider: "llama"}, log)
	assert.Error(t, err)
}
