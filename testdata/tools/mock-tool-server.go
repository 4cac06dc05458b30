// mock-tool-server is a test helper binary that implements the file-based
// JSON-RPC protocol chainer uses to invoke tools: the last command-line
// argument is a path to a request file, and the response envelope goes to
// stdout. Useful for exercising register/exec flows by hand:
//
//	go run testdata/tools/mock-tool-server.go <request.json>
//
//go:build ignore

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"params"`
}

type response struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   any    `json:"error,omitempty"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "mock-tool-server: missing request file argument")
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[len(os.Args)-1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "mock-tool-server: %v\n", err)
		os.Exit(1)
	}

	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		fmt.Fprintf(os.Stderr, "mock-tool-server: bad request: %v\n", err)
		os.Exit(1)
	}

	resp := response{JSONRPC: "2.0", ID: req.ID}

	switch req.Method {
	case "tools/list":
		resp.Result = map[string]any{
			"tools": []map[string]any{
				{"name": "echo", "description": "Echo the msg argument back"},
				{"name": "upper", "description": "Uppercase the msg argument"},
				{"name": "fail", "description": "Always return an error"},
			},
		}

	case "tools/call":
		msg, _ := req.Params.Arguments["msg"].(string)
		switch req.Params.Name {
		case "echo":
			resp.Result = map[string]any{
				"content": []map[string]any{{"type": "text", "text": msg}},
			}
		case "upper":
			resp.Result = map[string]any{
				"content": []map[string]any{{"type": "text", "text": strings.ToUpper(msg)}},
			}
		case "fail":
			resp.Error = map[string]any{"code": -32000, "message": "mock failure"}
		default:
			resp.Error = map[string]any{"code": -32601, "message": fmt.Sprintf("unknown tool %q", req.Params.Name)}
		}

	default:
		resp.Error = map[string]any{"code": -32601, "message": fmt.Sprintf("unknown method %q", req.Method)}
	}

	out, _ := json.Marshal(resp)
	fmt.Println(string(out))
}
