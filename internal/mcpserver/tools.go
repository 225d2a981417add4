package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all MCP tools with the server.
func RegisterTools(s *server.MCPServer, sc *ServerContext) error {
	// run_benchmark
	runTool := mcp.NewTool("run_benchmark",
		mcp.WithDescription("Execute a benchmark request against an LLM provider and return the full event stream"),
		mcp.WithString("request",
			mcp.Required(),
			mcp.Description("Benchmark request as a JSON object: name, provider, model, prompts, eval_type, eval_config, system_prompt"),
		),
	)
	s.AddTool(runTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRunBenchmark(ctx, request, sc)
	})

	// list_models
	modelsTool := mcp.NewTool("list_models",
		mcp.WithDescription("List the models a provider advertises"),
		mcp.WithString("provider",
			mcp.Required(),
			mcp.Description("Provider name: openai, anthropic, ollama or deepseek"),
		),
		mcp.WithString("model",
			mcp.Description("Default model for the adapter (optional)"),
		),
	)
	s.AddTool(modelsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListModels(ctx, request, sc)
	})

	// list_tools
	toolsTool := mcp.NewTool("list_tools",
		mcp.WithDescription("List the tools available to benchmarked models during tool-enabled runs"),
	)
	s.AddTool(toolsTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListTools(ctx, request, sc)
	})

	return nil
}
