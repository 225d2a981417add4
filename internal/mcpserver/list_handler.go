package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func handleListModels(ctx context.Context, request mcp.CallToolRequest, sc *ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	providerName, ok := args["provider"].(string)
	if !ok || providerName == "" {
		return mcp.NewToolResultError("provider is required"), nil
	}
	model, _ := args["model"].(string)

	adapter, err := sc.Factory(providerName, model)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create adapter: %v", err)), nil
	}

	models, err := adapter.ListModels(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list models: %v", err)), nil
	}

	data, err := json.MarshalIndent(models, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal models: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func handleListTools(_ context.Context, _ mcp.CallToolRequest, sc *ServerContext) (*mcp.CallToolResult, error) {
	if sc.Registry == nil {
		return mcp.NewToolResultText("[]"), nil
	}

	data, err := json.MarshalIndent(sc.Registry.Definitions(), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal tool definitions: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
