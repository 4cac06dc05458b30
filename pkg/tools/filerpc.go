package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// rpcRequest is the JSON-RPC 2.0 envelope written to the request file.
type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

// FileRPCInvoker spawns one tool server process per call. The request is
// written to a freshly created temp file and the file path is appended as
// the final argument of the server command.
type FileRPCInvoker struct {
	// TempDir overrides the directory for request files. Empty means the
	// system default.
	TempDir string
}

var _ Invoker = (*FileRPCInvoker)(nil)

// Invoke implements Invoker using the tools/call method.
func (inv *FileRPCInvoker) Invoke(ctx context.Context, serverCommand, toolName string, args map[string]any, timeout time.Duration) (string, error) {
	params := map[string]any{"name": toolName, "arguments": args}
	if args == nil {
		params["arguments"] = map[string]any{}
	}
	stdout, err := inv.roundTrip(ctx, serverCommand, "tools/call", params, timeout)
	if err != nil {
		return "", err
	}
	return parseCallReply(stdout)
}

// ListTools implements Invoker using the tools/list method.
func (inv *FileRPCInvoker) ListTools(ctx context.Context, serverCommand string, timeout time.Duration) ([]ToolInfo, error) {
	stdout, err := inv.roundTrip(ctx, serverCommand, "tools/list", map[string]any{}, timeout)
	if err != nil {
		return nil, err
	}

	out := strings.TrimSpace(stdout)
	if !gjson.Valid(out) {
		return nil, fmt.Errorf("server reply is not JSON: %s", truncateForError(out))
	}
	if errField := gjson.Get(out, "error"); errField.Exists() {
		return nil, fmt.Errorf("tool error: %s", replyErrorMessage(errField))
	}

	var infos []ToolInfo
	for _, entry := range gjson.Get(out, "result.tools").Array() {
		infos = append(infos, ToolInfo{
			Name:        entry.Get("name").String(),
			Description: entry.Get("description").String(),
		})
	}
	return infos, nil
}

// roundTrip writes the request file, spawns the server command with the file
// path appended, and returns raw stdout. The request file is removed on a
// best-effort basis; cleanup failures never change the call's outcome.
func (inv *FileRPCInvoker) roundTrip(ctx context.Context, serverCommand, method string, params any, timeout time.Duration) (string, error) {
	argv := strings.Fields(serverCommand)
	if len(argv) == 0 {
		return "", errors.New("empty server command")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	req := rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params}
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	f, err := os.CreateTemp(inv.TempDir, "chainer-req-*.json")
	if err != nil {
		return "", fmt.Errorf("create request file: %w", err)
	}
	reqPath := f.Name()
	defer os.Remove(reqPath)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("write request file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close request file: %w", err)
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, argv[0], append(argv[1:], reqPath)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// After a timeout kill, orphaned grandchildren may still hold the output
	// pipes; don't let Wait block on them forever.
	cmd.WaitDelay = 3 * time.Second

	runErr := cmd.Run()
	if cctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("tool timed out after %s", timeout)
	}
	if runErr != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = runErr.Error()
		}
		return "", fmt.Errorf("tool process failed: %s", msg)
	}
	return stdout.String(), nil
}

// parseCallReply extracts the success text or error from a tools/call reply.
// Non-JSON stdout is treated as a literal success result, which keeps
// non-conforming tool processes usable.
func parseCallReply(stdout string) (string, error) {
	out := strings.TrimSpace(stdout)
	if !gjson.Valid(out) || (!strings.HasPrefix(out, "{") && !strings.HasPrefix(out, "[")) {
		return out, nil
	}
	if errField := gjson.Get(out, "error"); errField.Exists() {
		return "", fmt.Errorf("tool error: %s", replyErrorMessage(errField))
	}
	if text := gjson.Get(out, "result.content.0.text"); text.Exists() {
		return text.String(), nil
	}
	if result := gjson.Get(out, "result"); result.Exists() {
		if result.Type == gjson.String {
			return result.String(), nil
		}
		return result.Raw, nil
	}
	return "", nil
}

// replyErrorMessage prefers error.message but falls back to the raw error
// value for servers that return bare strings or codes.
func replyErrorMessage(errField gjson.Result) string {
	if msg := errField.Get("message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	return errField.Raw
}

func truncateForError(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
