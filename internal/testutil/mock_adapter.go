// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"fmt"

	"github.com/benchpipe/benchpipe/internal/provider"
)

// MockAdapter is a configurable mock for provider.Adapter used across test
// packages.
type MockAdapter struct {
	// Responses maps the last user message to canned responses.
	Responses map[string]string

	// DefaultResponse is returned when no matching key is found in Responses.
	DefaultResponse string

	// Err, when set, is returned by every completion call.
	Err error

	// ToolCalls are reported by CompleteWithTools on its first invocation
	// only, so a follow-up round terminates.
	ToolCalls []provider.ToolCall

	// Models is returned by ListModels.
	Models []provider.ModelInfo

	// Calls tracks the number of completion invocations, tool rounds
	// included.
	Calls int

	// LastMessages stores the most recent message slice for inspection.
	LastMessages []provider.Message

	toolRounds int
}

func (m *MockAdapter) Complete(_ context.Context, messages []provider.Message, _ provider.Options) (string, error) {
	m.Calls++
	m.LastMessages = messages

	if m.Err != nil {
		return "", m.Err
	}
	return m.respond(messages), nil
}

func (m *MockAdapter) StreamComplete(_ context.Context, _ []provider.Message, _ provider.Options) (*provider.Stream, error) {
	return nil, fmt.Errorf("streaming not supported in mock")
}

func (m *MockAdapter) CompleteWithTools(_ context.Context, messages []provider.Message, _ []provider.ToolDefinition, _ provider.Options) (string, []provider.ToolCall, error) {
	m.Calls++
	m.LastMessages = messages

	if m.Err != nil {
		return "", nil, m.Err
	}
	m.toolRounds++
	if m.toolRounds == 1 && len(m.ToolCalls) > 0 {
		return "", m.ToolCalls, nil
	}
	return m.respond(messages), nil, nil
}

func (m *MockAdapter) ListModels(_ context.Context) ([]provider.ModelInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Models, nil
}

func (m *MockAdapter) respond(messages []provider.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != provider.RoleUser {
			continue
		}
		if resp, ok := m.Responses[messages[i].Content]; ok {
			return resp
		}
		break
	}
	if m.DefaultResponse != "" {
		return m.DefaultResponse
	}
	return "mock response"
}
