package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeServerScript writes a shell script that acts as a tool server: it
// receives the request file path as $1 and prints the given body's output.
func writeServerScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script tool servers require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "server.sh")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return "/bin/sh " + path
}

func TestInvoke_SuccessEnvelope(t *testing.T) {
	cmd := writeServerScript(t, `echo '{"jsonrpc":"2.0","id":1,"result":{"content":[{"text":"hello from tool"}]}}'`)

	inv := &FileRPCInvoker{}
	result, err := inv.Invoke(context.Background(), cmd, "echo", map[string]any{"msg": "hi"}, 10*time.Second)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result != "hello from tool" {
		t.Errorf("result = %q", result)
	}
}

func TestInvoke_RequestFileContents(t *testing.T) {
	// The server copies its request file to a known location so the test can
	// inspect what was actually sent.
	dir := t.TempDir()
	captured := filepath.Join(dir, "captured.json")
	cmd := writeServerScript(t, fmt.Sprintf(`cp "$1" %s
echo '{"result":{"content":[{"text":"ok"}]}}'`, captured))

	inv := &FileRPCInvoker{}
	if _, err := inv.Invoke(context.Background(), cmd, "lookup", map[string]any{"city": "Lima"}, 10*time.Second); err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	data, err := os.ReadFile(captured)
	if err != nil {
		t.Fatalf("request file was not passed to the server: %v", err)
	}
	var req struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int    `json:"id"`
		Method  string `json:"method"`
		Params  struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		} `json:"params"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	if req.JSONRPC != "2.0" || req.ID != 1 || req.Method != "tools/call" {
		t.Errorf("envelope = %+v", req)
	}
	if req.Params.Name != "lookup" {
		t.Errorf("params.name = %q", req.Params.Name)
	}
	if req.Params.Arguments["city"] != "Lima" {
		t.Errorf("params.arguments = %v", req.Params.Arguments)
	}
}

func TestInvoke_ErrorEnvelope(t *testing.T) {
	cmd := writeServerScript(t, `echo '{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"city not found"}}'`)

	inv := &FileRPCInvoker{}
	_, err := inv.Invoke(context.Background(), cmd, "lookup", nil, 10*time.Second)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "city not found") {
		t.Errorf("error = %v", err)
	}
}

func TestInvoke_NonJSONOutputIsLiteralResult(t *testing.T) {
	cmd := writeServerScript(t, `echo 'plain text output'`)

	inv := &FileRPCInvoker{}
	result, err := inv.Invoke(context.Background(), cmd, "raw", nil, 10*time.Second)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result != "plain text output" {
		t.Errorf("result = %q", result)
	}
}

func TestInvoke_BareResultFallback(t *testing.T) {
	cmd := writeServerScript(t, `echo '{"jsonrpc":"2.0","id":1,"result":"unwrapped"}'`)

	inv := &FileRPCInvoker{}
	result, err := inv.Invoke(context.Background(), cmd, "raw", nil, 10*time.Second)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if result != "unwrapped" {
		t.Errorf("result = %q", result)
	}
}

func TestInvoke_NonZeroExitCarriesStderr(t *testing.T) {
	cmd := writeServerScript(t, `echo 'boom: config missing' >&2
exit 3`)

	inv := &FileRPCInvoker{}
	_, err := inv.Invoke(context.Background(), cmd, "broken", nil, 10*time.Second)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "boom: config missing") {
		t.Errorf("error should carry stderr, got %v", err)
	}
}

func TestInvoke_Timeout(t *testing.T) {
	cmd := writeServerScript(t, `sleep 30`)

	inv := &FileRPCInvoker{}
	start := time.Now()
	_, err := inv.Invoke(context.Background(), cmd, "slow", nil, 500*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("process was not killed promptly (took %s)", elapsed)
	}
}

func TestInvoke_RequestFileRemoved(t *testing.T) {
	dir := t.TempDir()
	cmd := writeServerScript(t, `echo '{"result":{"content":[{"text":"ok"}]}}'`)

	inv := &FileRPCInvoker{TempDir: dir}
	if _, err := inv.Invoke(context.Background(), cmd, "echo", nil, 10*time.Second); err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "chainer-req-") {
			t.Errorf("request file %s was not cleaned up", e.Name())
		}
	}
}

func TestInvoke_EmptyServerCommand(t *testing.T) {
	inv := &FileRPCInvoker{}
	if _, err := inv.Invoke(context.Background(), "   ", "x", nil, time.Second); err == nil {
		t.Error("expected error for empty server command")
	}
}

func TestListTools(t *testing.T) {
	cmd := writeServerScript(t, `echo '{"jsonrpc":"2.0","id":1,"result":{"tools":[{"name":"lookup","description":"Find a city"},{"name":"echo"}]}}'`)

	inv := &FileRPCInvoker{}
	infos, err := inv.ListTools(context.Background(), cmd, 10*time.Second)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("tools = %d, want 2", len(infos))
	}
	if infos[0].Name != "lookup" || infos[0].Description != "Find a city" {
		t.Errorf("tools[0] = %+v", infos[0])
	}
	if infos[1].Name != "echo" {
		t.Errorf("tools[1] = %+v", infos[1])
	}
}

func TestListTools_NonJSONReplyIsError(t *testing.T) {
	cmd := writeServerScript(t, `echo 'not a catalog'`)

	inv := &FileRPCInvoker{}
	if _, err := inv.ListTools(context.Background(), cmd, 10*time.Second); err == nil {
		t.Error("expected error for non-JSON tools/list reply")
	}
}

func TestParseCallReply(t *testing.T) {
	tests := []struct {
		name    string
		stdout  string
		want    string
		wantErr string
	}{
		{"content text", `{"result":{"content":[{"text":"hi"}]}}`, "hi", ""},
		{"bare string result", `{"result":"raw"}`, "raw", ""},
		{"object result returns raw JSON", `{"result":{"rows":3}}`, `{"rows":3}`, ""},
		{"empty reply", ``, "", ""},
		{"error message", `{"error":{"message":"nope"}}`, "", "nope"},
		{"error without message", `{"error":"bad"}`, "", "bad"},
		{"plain text passthrough", `hello world`, "hello world", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCallReply(tt.stdout)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
