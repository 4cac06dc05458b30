package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"

	"github.com/ormasoftchile/chainer/pkg/engine"
	"github.com/ormasoftchile/chainer/pkg/schema"
)

// Handlers binds the MCP tool handlers to an engine instance.
type Handlers struct {
	Engine *engine.Engine
}

// HandleRegisterTool implements the register_tool MCP tool.
func (h *Handlers) HandleRegisterTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	spec := schema.ToolSpec{
		ToolID:         cast.ToString(args["tool_id"]),
		ServerCommand:  cast.ToString(args["server_command"]),
		ToolName:       cast.ToString(args["tool_name"]),
		Description:    cast.ToString(args["description"]),
		OutputFormat:   cast.ToString(args["output_format"]),
		TimeoutSeconds: cast.ToInt(args["timeout_seconds"]),
	}

	msg, err := h.Engine.RegisterTool(spec)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(msg), nil
}

// HandleDiscoverTools implements the discover_tools MCP tool.
func (h *Handlers) HandleDiscoverTools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	serverCommand := cast.ToString(args["server_command"])
	if serverCommand == "" {
		return errorResult("server_command argument is required"), nil
	}
	timeout := time.Duration(cast.ToInt(args["timeout_seconds"])) * time.Second

	out, err := h.Engine.DiscoverTools(ctx, serverCommand, timeout)
	if err != nil {
		return errorResult(fmt.Sprintf("discovery failed: %s", err)), nil
	}
	return textResult(out), nil
}

// HandleChainTools implements the chain_tools MCP tool. Steps arrive as an
// array of loosely-typed maps and are decoded through a JSON round trip so
// the same tags govern both the wire shape and the YAML chain files.
func (h *Handlers) HandleChainTools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	chain := schema.Chain{
		ChainID:    cast.ToString(args["chain_id"]),
		SaveToFile: cast.ToString(args["save_to_file"]),
	}

	rawSteps, ok := args["steps"].([]any)
	if !ok || len(rawSteps) == 0 {
		return errorResult("steps argument is required and must be a non-empty array"), nil
	}
	data, err := json.Marshal(rawSteps)
	if err != nil {
		return errorResult(fmt.Sprintf("invalid steps: %s", err)), nil
	}
	if err := json.Unmarshal(data, &chain.Steps); err != nil {
		return errorResult(fmt.Sprintf("invalid steps: %s", err)), nil
	}

	msg, err := h.Engine.DefineChain(chain)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(msg), nil
}

// HandleExecuteChain implements the execute_chain MCP tool.
func (h *Handlers) HandleExecuteChain(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	chainID := cast.ToString(args["chain_id"])
	if chainID == "" {
		return errorResult("chain_id argument is required"), nil
	}
	initialInput := cast.ToString(args["initial_input"])

	vars := make(map[string]string)
	if rawVars, ok := args["variables"].(map[string]any); ok {
		for k, v := range rawVars {
			vars[k] = fmt.Sprint(v)
		}
	}

	timeout := time.Duration(cast.ToInt(args["timeout_seconds"])) * time.Second

	summary, err := h.Engine.ExecuteChain(ctx, chainID, initialInput, vars, timeout)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	// Step failures are reported inside the record, not as Go errors.
	recs := h.Engine.History(1)
	isErr := len(recs) > 0 && !recs[0].Success
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(summary)},
		IsError: isErr,
	}, nil
}

// HandleShowHistory implements the show_history MCP tool.
func (h *Handlers) HandleShowHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	limit := cast.ToInt(args["limit"])
	return textResult(h.Engine.ShowHistory(limit)), nil
}

// HandleClearCache implements the clear_cache MCP tool.
func (h *Handlers) HandleClearCache(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	msg, err := h.Engine.ClearCache()
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(msg), nil
}

// HandleServerInfo implements the server_info MCP tool.
func (h *Handlers) HandleServerInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return textResult(h.Engine.ServerInfo()), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
