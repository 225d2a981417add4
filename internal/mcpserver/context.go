// Package mcpserver exposes benchmark execution over the Model Context
// Protocol so MCP clients can drive runs and inspect available models and
// tools.
package mcpserver

import (
	"github.com/benchpipe/benchpipe/internal/bench"
	"github.com/benchpipe/benchpipe/internal/tools"
)

// ServerContext holds shared dependencies for MCP tool handlers.
type ServerContext struct {
	Factory  bench.AdapterFactory
	Registry *tools.Registry
}
