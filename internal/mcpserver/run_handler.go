package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/benchpipe/benchpipe/internal/bench"
)

func handleRunBenchmark(ctx context.Context, request mcp.CallToolRequest, sc *ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	reqJSON, ok := args["request"].(string)
	if !ok || reqJSON == "" {
		return mcp.NewToolResultError("request is required"), nil
	}

	var req bench.Request
	if err := json.Unmarshal([]byte(reqJSON), &req); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid request JSON: %v", err)), nil
	}
	if err := req.Validate(); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid request: %v", err)), nil
	}

	// Collect the whole event stream and return it as one document; MCP
	// tool calls have no incremental channel.
	var events []bench.Event
	runner := bench.NewRunner(sc.Factory, sc.Registry)
	runner.Run(ctx, req, func(ev bench.Event) {
		events = append(events, ev)
	})

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal events: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
