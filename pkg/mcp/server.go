package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ormasoftchile/chainer/pkg/engine"
)

// NewServer creates a new MCP server with chainer tools registered against eng.
func NewServer(version string, eng *engine.Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"chainer",
		version,
		server.WithToolCapabilities(true),
	)
	h := &Handlers{Engine: eng}

	// Register tools
	s.AddTool(
		mcp.NewTool("register_tool",
			mcp.WithDescription("Register an external tool so chains can invoke it"),
			mcp.WithString("tool_id", mcp.Required(), mcp.Description("Unique identifier for the tool")),
			mcp.WithString("server_command", mcp.Required(), mcp.Description("Command line that launches the tool server")),
			mcp.WithString("tool_name", mcp.Required(), mcp.Description("Name of the tool on the server")),
			mcp.WithString("description", mcp.Description("Human-readable description")),
			mcp.WithString("output_format", mcp.Description("Expected output format (default text)")),
			mcp.WithNumber("timeout_seconds", mcp.Description("Per-invocation timeout in seconds (default 30)")),
		),
		h.HandleRegisterTool,
	)

	s.AddTool(
		mcp.NewTool("discover_tools",
			mcp.WithDescription("List the tools a server exposes without registering them"),
			mcp.WithString("server_command", mcp.Required(), mcp.Description("Command line that launches the tool server")),
			mcp.WithNumber("timeout_seconds", mcp.Description("Discovery timeout in seconds (default 30)")),
		),
		h.HandleDiscoverTools,
	)

	s.AddTool(
		mcp.NewTool("chain_tools",
			mcp.WithDescription("Define a named chain of registered tools"),
			mcp.WithString("chain_id", mcp.Required(), mcp.Description("Unique identifier for the chain")),
			mcp.WithArray("steps", mcp.Required(), mcp.Description("Ordered steps: {tool_id, arguments, condition, output_to}")),
			mcp.WithString("save_to_file", mcp.Description("Path to write the final result to after each run")),
		),
		h.HandleChainTools,
	)

	s.AddTool(
		mcp.NewTool("execute_chain",
			mcp.WithDescription("Execute a defined chain and report per-step results"),
			mcp.WithString("chain_id", mcp.Required(), mcp.Description("Identifier of the chain to run")),
			mcp.WithString("initial_input", mcp.Description("Value bound to the INITIAL_INPUT variable")),
			mcp.WithObject("variables", mcp.Description("Input variables available to placeholder substitution")),
			mcp.WithNumber("timeout_seconds", mcp.Description("Override the per-step timeout for this run")),
		),
		h.HandleExecuteChain,
	)

	s.AddTool(
		mcp.NewTool("show_history",
			mcp.WithDescription("Show recent chain executions, most recent first"),
			mcp.WithNumber("limit", mcp.Description("Maximum number of records to return (default all)")),
		),
		h.HandleShowHistory,
	)

	s.AddTool(
		mcp.NewTool("clear_cache",
			mcp.WithDescription("Clear execution history; registered tools and chains are preserved"),
		),
		h.HandleClearCache,
	)

	s.AddTool(
		mcp.NewTool("server_info",
			mcp.WithDescription("Report engine version, counts, and state file location"),
		),
		h.HandleServerInfo,
	)

	return s
}
