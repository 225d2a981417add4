package tools

import (
	"github.com/benchpipe/benchpipe/internal/provider"
)

// Config holds construction-time configuration for the built-in tools.
type Config struct {
	// TavilyAPIKey enables the web search tool. When empty, searches return
	// a structured error instead of results.
	TavilyAPIKey string

	// SearchBaseURL overrides the search API endpoint, used in tests.
	SearchBaseURL string
}

// Registry is a name-keyed collection of tools. One registry value is
// constructed at startup and passed explicitly to the runner.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds a registry with the built-in tools registered.
func NewRegistry(cfg Config) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	r.Register(NewSearchTool(cfg.TavilyAPIKey, cfg.SearchBaseURL))
	r.Register(NewMathTool())
	return r
}

// Register adds a tool, replacing any existing tool with the same name.
func (r *Registry) Register(t Tool) {
	name := t.Name()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = t
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns the machine-readable schema of every registered tool,
// in registration order, in the wire format providers expect for
// tool-augmented completion.
func (r *Registry) Definitions() []provider.ToolDefinition {
	defs := make([]provider.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}
