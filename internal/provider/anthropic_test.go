package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicCompleteExtractsSystemTurn(t *testing.T) {
	var captured anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.Empty(t, r.Header.Get("anthropic-beta"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"The answer "},{"type":"text","text":"is 4."}]}`))
	}))
	defer srv.Close()

	a := newAnthropic(Config{APIKey: "test-key", BaseURL: srv.URL})

	content, err := a.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "You are terse."},
		{Role: RoleUser, Content: "what is 2+2"},
		{Role: RoleTool, Content: `{"result": 4}`, ToolCallID: "toolu_1"},
	}, Options{})

	require.NoError(t, err)
	assert.Equal(t, "The answer is 4.", content)

	assert.Equal(t, "You are terse.", captured.System)
	// Tool turns are not forwarded on the plain path.
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, RoleUser, captured.Messages[0].Role)
}

func TestAnthropicCompleteWithTools(t *testing.T) {
	var captured anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, anthropicToolsBeta, r.Header.Get("anthropic-beta"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[
			{"type":"text","text":"Let me compute that."},
			{"type":"tool_use","id":"toolu_1","name":"math_eval","input":{"expression":"2 + 2"}}
		]}`))
	}))
	defer srv.Close()

	a := newAnthropic(Config{APIKey: "test-key", BaseURL: srv.URL})

	defs := []ToolDefinition{{Name: "math_eval", Description: "Evaluate math", Parameters: map[string]any{"type": "object"}}}
	content, calls, err := a.CompleteWithTools(context.Background(),
		[]Message{{Role: RoleUser, Content: "what is 2+2"}}, defs, Options{})

	require.NoError(t, err)
	assert.Equal(t, "Let me compute that.", content)
	require.Len(t, calls, 1)
	assert.Equal(t, "toolu_1", calls[0].ID)
	assert.Equal(t, map[string]any{"expression": "2 + 2"}, calls[0].Arguments)

	require.Len(t, captured.Tools, 1)
	assert.Equal(t, "math_eval", captured.Tools[0].Name)
	assert.Equal(t, map[string]any{"type": "object"}, captured.Tools[0].InputSchema)
}

func TestAnthropicForwardsToolResultsOnToolPath(t *testing.T) {
	a := newAnthropic(Config{APIKey: "test-key"})

	req := a.buildRequest([]Message{
		{Role: RoleUser, Content: "what is 2+2"},
		{Role: RoleAssistant, Content: "Let me compute that."},
		{Role: RoleTool, Content: `{"result": 4}`, ToolCallID: "toolu_1"},
	}, Options{}, true)

	require.Len(t, req.Messages, 3)
	assert.Equal(t, RoleUser, req.Messages[2].Role)
	blocks := req.Messages[2].Content.([]map[string]any)
	require.Len(t, blocks, 1)
	assert.Equal(t, "tool_result", blocks[0]["type"])
	assert.Equal(t, "toolu_1", blocks[0]["tool_use_id"])
}

func TestAnthropicStreamComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"event: message_start\n" +
				"data: {\"type\":\"message_start\"}\n\n" +
				"data: {\"type\":\"content_block_delta\",\"delta\":{\"text\":\"Hello\"}}\n\n" +
				"data: {\"type\":\"content_block_delta\",\"delta\":{\"text\":\", world\"}}\n\n" +
				"data: {\"type\":\"message_stop\"}\n\n"))
	}))
	defer srv.Close()

	a := newAnthropic(Config{APIKey: "test-key", BaseURL: srv.URL})

	stream, err := a.StreamComplete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	require.NoError(t, err)

	content, err := Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", content)
}

func TestAnthropicErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("retry-after", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	a := newAnthropic(Config{APIKey: "test-key", BaseURL: srv.URL})

	_, _, err := a.CompleteWithTools(context.Background(),
		[]Message{{Role: RoleUser, Content: "hi"}}, nil, Options{})

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindRateLimited, pe.Kind)
	assert.Equal(t, "rate limited", pe.Message)
	assert.Equal(t, 7*time.Second, pe.RetryAfter)
}

func TestAnthropicListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":"claude-3-haiku-20240307","display_name":"Claude 3 Haiku","created_at":"2024-03-07T00:00:00Z"},
			{"id":"claude-sonnet-4","display_name":"Claude Sonnet 4","created_at":"2025-05-14T00:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	a := newAnthropic(Config{APIKey: "test-key", BaseURL: srv.URL})

	models, err := a.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "claude-sonnet-4", models[0].ID)
	assert.Equal(t, "claude-3-haiku-20240307", models[1].ID)
}

func TestAnthropicListModelsFallsBackOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	a := newAnthropic(Config{APIKey: "test-key", BaseURL: srv.URL})

	models, err := a.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, anthropicFallbackModels, models)
}

func TestAnthropicRequiresAPIKey(t *testing.T) {
	a := newAnthropic(Config{})

	_, err := a.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	assert.True(t, IsAuth(err))

	_, err = a.StreamComplete(context.Background(), nil, Options{})
	assert.True(t, IsAuth(err))
}
