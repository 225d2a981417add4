package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openAITestServer records chat completion request bodies and replies with
// canned OpenAI wire-format responses.
func openAITestServer(t *testing.T, chatResponse string, requests *[]map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/chat/completions":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			*requests = append(*requests, body)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(chatResponse))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestOpenAIRequiresAPIKey(t *testing.T) {
	a := newOpenAICompat(ProviderOpenAI, Config{})

	_, err := a.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	assert.True(t, IsAuth(err))

	_, err = a.ListModels(context.Background())
	assert.True(t, IsAuth(err))
}

func TestOpenAIComplete(t *testing.T) {
	var requests []map[string]any
	srv := openAITestServer(t, `{"choices":[{"message":{"role":"assistant","content":"Paris"}}]}`, &requests)
	defer srv.Close()

	a := newOpenAICompat(ProviderOpenAI, Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	content, err := a.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "You are terse."},
		{Role: RoleUser, Content: "Capital of France?"},
	}, Options{Model: "gpt-4", Temperature: Float64(0.2)})

	require.NoError(t, err)
	assert.Equal(t, "Paris", content)

	require.Len(t, requests, 1)
	assert.Equal(t, "gpt-4", requests[0]["model"])
	msgs := requests[0]["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestOpenAICompleteWithToolsDecodesArguments(t *testing.T) {
	var requests []map[string]any
	srv := openAITestServer(t, `{"choices":[{"message":{
		"role":"assistant","content":"",
		"tool_calls":[{"id":"call_1","type":"function","function":{"name":"math_eval","arguments":"{\"expression\": \"2 + 2\"}"}}]
	}}]}`, &requests)
	defer srv.Close()

	a := newOpenAICompat(ProviderOpenAI, Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	defs := []ToolDefinition{{Name: "math_eval", Description: "Evaluate math", Parameters: map[string]any{"type": "object"}}}
	_, calls, err := a.CompleteWithTools(context.Background(),
		[]Message{{Role: RoleUser, Content: "what is 2+2"}}, defs, Options{Model: "gpt-4"})

	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].ID)
	assert.Equal(t, "math_eval", calls[0].Name)
	assert.Equal(t, map[string]any{"expression": "2 + 2"}, calls[0].Arguments)

	require.Len(t, requests, 1)
	assert.Contains(t, requests[0], "tools")
	assert.Equal(t, "auto", requests[0]["tool_choice"])
}

func TestOpenAIToolFallbackForLegacyModels(t *testing.T) {
	var requests []map[string]any
	srv := openAITestServer(t, `{"choices":[{"message":{"role":"assistant","content":"4"}}]}`, &requests)
	defer srv.Close()

	a := newOpenAICompat(ProviderOpenAI, Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	defs := []ToolDefinition{{Name: "math_eval"}}
	content, calls, err := a.CompleteWithTools(context.Background(),
		[]Message{{Role: RoleUser, Content: "what is 2+2"}}, defs, Options{Model: "gpt-4-0314"})

	require.NoError(t, err)
	assert.Equal(t, "4", content)
	assert.Empty(t, calls)

	// The fallback request must not offer tools.
	require.Len(t, requests, 1)
	assert.NotContains(t, requests[0], "tools")
}

func TestDeepSeekDefaultModel(t *testing.T) {
	var requests []map[string]any
	srv := openAITestServer(t, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`, &requests)
	defer srv.Close()

	a := newOpenAICompat(ProviderDeepSeek, Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	_, err := a.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	require.NoError(t, err)

	require.Len(t, requests, 1)
	assert.Equal(t, "deepseek-chat", requests[0]["model"])
}

func TestOpenAIListModelsFiltersAndSorts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":"gpt-4","owned_by":"openai"},
			{"id":"gpt-3.5-turbo","owned_by":"openai"},
			{"id":"text-embedding-ada-002","owned_by":"openai"},
			{"id":"whisper-1","owned_by":"openai"},
			{"id":"gpt-4-0314","owned_by":"openai"}
		]}`))
	}))
	defer srv.Close()

	a := newOpenAICompat(ProviderOpenAI, Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	models, err := a.ListModels(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"gpt-3.5-turbo", "gpt-4"}, ids)
	assert.Equal(t, "Gpt 4", models[1].Name)
}

func TestOpenAIListModelsFallsBackOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	a := newOpenAICompat(ProviderDeepSeek, Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})

	models, err := a.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, deepSeekDefaults.fallbackModels, models)
}

func TestConvertMessagesToolRoundTrip(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "what is 2+2"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "call_1", Name: "math_eval", Arguments: map[string]any{"expression": "2 + 2"}},
		}},
		{Role: RoleTool, Content: `{"result": 4}`, ToolCallID: "call_1"},
	}

	out := convertMessages(messages)
	require.Len(t, out, 3)

	assert.Equal(t, openai.ChatMessageRoleUser, out[0].Role)

	require.Len(t, out[1].ToolCalls, 1)
	assert.Equal(t, "math_eval", out[1].ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"expression": "2 + 2"}`, out[1].ToolCalls[0].Function.Arguments)

	assert.Equal(t, openai.ChatMessageRoleTool, out[2].Role)
	assert.Equal(t, "call_1", out[2].ToolCallID)
}

func TestWrapErrMapsAPIErrors(t *testing.T) {
	a := newOpenAICompat(ProviderOpenAI, Config{APIKey: "test-key"})

	err := a.wrapErr(&openai.APIError{HTTPStatusCode: 429, Message: "rate limited"})
	assert.True(t, IsRateLimited(err))

	err = a.wrapErr(&openai.APIError{HTTPStatusCode: 401, Message: "bad key"})
	assert.True(t, IsAuth(err))

	err = a.wrapErr(assert.AnError)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindUpstream, pe.Kind)
}
