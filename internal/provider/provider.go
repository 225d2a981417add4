// Package provider abstracts heterogeneous chat-completion backends behind a
// single Adapter interface. One variant exists per backend family: an
// OpenAI-compatible REST client (OpenAI, DeepSeek), an Anthropic-native REST
// client, and a local-generation client (Ollama).
package provider

import (
	"context"
	"fmt"
	"time"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single turn in a chat conversation. Content may be empty only
// for assistant turns that carry tool calls, or for tool turns, where
// ToolCallID identifies the originating call and Content holds the serialized
// tool result.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolCall is a tool invocation requested by the model. Arguments are always
// a decoded mapping; adapters that receive a serialized-string form decode it
// at the wire boundary.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolDefinition describes a tool offered to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON schema for the arguments object
}

// ModelInfo describes one model advertised by a provider.
type ModelInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// Options carries per-call generation settings. Zero values fall back to the
// adapter's construction-time defaults.
type Options struct {
	Model       string
	Temperature *float64
	MaxTokens   int
}

// Adapter is the uniform capability interface over one chat backend.
type Adapter interface {
	// Complete sends a single round-trip completion request.
	Complete(ctx context.Context, messages []Message, opts Options) (string, error)

	// StreamComplete sends a streaming completion request. The returned
	// Stream is finite and non-restartable; closing it terminates the
	// underlying network exchange.
	StreamComplete(ctx context.Context, messages []Message, opts Options) (*Stream, error)

	// CompleteWithTools sends a single round trip offering the given tools.
	// Backends without tool support fall back to Complete and report zero
	// tool calls.
	CompleteWithTools(ctx context.Context, messages []Message, tools []ToolDefinition, opts Options) (string, []ToolCall, error)

	// ListModels returns the models the provider advertises, best-effort:
	// a provider without a listing endpoint yields a hardcoded known-model
	// list instead of an error.
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// Config holds explicit construction-time configuration for an adapter.
// Adapters hold no run-level mutable state beyond it.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Known provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderDeepSeek  = "deepseek"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// New constructs the adapter variant for the named provider.
func New(name string, cfg Config) (Adapter, error) {
	switch name {
	case ProviderOpenAI:
		return newOpenAICompat(ProviderOpenAI, cfg), nil
	case ProviderDeepSeek:
		return newOpenAICompat(ProviderDeepSeek, cfg), nil
	case ProviderAnthropic:
		return newAnthropic(cfg), nil
	case ProviderOllama:
		return newOllama(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", name)
	}
}

// Float64 returns a pointer to the given float64 value. Useful for
// constructing Options with an explicit temperature.
func Float64(v float64) *float64 {
	return &v
}
