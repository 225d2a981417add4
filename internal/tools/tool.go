// Package tools holds the registry of capabilities a model may invoke during
// a tool-augmented completion. Tools are executed by the benchmark runner,
// never by the model itself.
package tools

import (
	"context"

	"github.com/benchpipe/benchpipe/internal/provider"
)

// Tool is one externally invocable capability. Execute returns a structured
// result document; the built-in tools report recoverable conditions (bad
// expression, missing credential, transport failure) inside the document's
// error field and reserve the Go error for failures that produced no
// document at all. Either way the runner records the failure on that tool's
// event and keeps going.
type Tool interface {
	Name() string
	Definition() provider.ToolDefinition
	Execute(ctx context.Context, args map[string]any) (map[string]any, error)
}
