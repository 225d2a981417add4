package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaCompleteLinearizesPrompt(t *testing.T) {
	var captured ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"4","done":true}`))
	}))
	defer srv.Close()

	a := newOllama(Config{BaseURL: srv.URL, Model: "llama2"})

	content, err := a.Complete(context.Background(), []Message{
		{Role: RoleSystem, Content: "You are terse."},
		{Role: RoleUser, Content: "what is 2+2"},
	}, Options{})

	require.NoError(t, err)
	assert.Equal(t, "4", content)

	assert.Equal(t, "llama2", captured.Model)
	assert.False(t, captured.Stream)
	assert.Equal(t, "System: You are terse.\n\nUser: what is 2+2\n\nAssistant: ", captured.Prompt)
}

func TestOllamaStreamComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.Stream)

		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(
			`{"response":"Hel","done":false}` + "\n" +
				`{"response":"lo","done":false}` + "\n" +
				`{"response":"!","done":true}` + "\n"))
	}))
	defer srv.Close()

	a := newOllama(Config{BaseURL: srv.URL})

	stream, err := a.StreamComplete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	require.NoError(t, err)

	content, err := Collect(stream)
	require.NoError(t, err)
	assert.Equal(t, "Hello!", content)
}

func TestOllamaCompleteWithToolsReportsNoCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"no tools here","done":true}`))
	}))
	defer srv.Close()

	a := newOllama(Config{BaseURL: srv.URL})

	content, calls, err := a.CompleteWithTools(context.Background(),
		[]Message{{Role: RoleUser, Content: "hi"}},
		[]ToolDefinition{{Name: "math_eval"}}, Options{})

	require.NoError(t, err)
	assert.Equal(t, "no tools here", content)
	assert.Nil(t, calls)
}

func TestOllamaListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[{"name":"llama2:7b"},{"name":"mistral:latest"}]}`))
	}))
	defer srv.Close()

	a := newOllama(Config{BaseURL: srv.URL})

	models, err := a.ListModels(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "llama2:7b", models[0].ID)
	assert.Equal(t, "Llama2 7b", models[0].Name)
}

func TestOllamaListModelsUnreachableServer(t *testing.T) {
	// Closed port: connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	a := newOllama(Config{BaseURL: srv.URL})

	models, err := a.ListModels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, models)
}

func TestOllamaServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("model load failed"))
	}))
	defer srv.Close()

	a := newOllama(Config{BaseURL: srv.URL})

	_, err := a.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, Options{})
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindUpstream, pe.Kind)
	assert.Equal(t, 500, pe.Status)
	assert.Equal(t, "model load failed", pe.Message)
}
