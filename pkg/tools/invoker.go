// Package tools speaks the file-mediated JSON-RPC protocol to external tool
// server processes: one process per call, request written to a temp file
// whose path is appended to the server command.
package tools

import (
	"context"
	"time"
)

// ToolInfo is one entry from a server's tools/list reply.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Invoker is the capability the chain executor depends on. The executor
// never sees the transport — swapping the temp-file/spawned-process
// implementation for an in-memory fake is how the engine is tested.
type Invoker interface {
	// Invoke calls one named tool on a server and returns its text result.
	// The error carries the tool's own failure message, the captured stderr
	// of a non-zero exit, or the timeout notice.
	Invoke(ctx context.Context, serverCommand, toolName string, args map[string]any, timeout time.Duration) (string, error)

	// ListTools asks a server for its tool catalog via tools/list.
	ListTools(ctx context.Context, serverCommand string, timeout time.Duration) ([]ToolInfo, error)
}
