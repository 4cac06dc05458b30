// Package main provides the chainer-mcp binary — MCP server for AI agents.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ormasoftchile/chainer/pkg/engine"
	cmcp "github.com/ormasoftchile/chainer/pkg/mcp"
	"github.com/ormasoftchile/chainer/pkg/state"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	eng := engine.New(state.NewStore(statePath()), nil)
	s := cmcp.NewServer(version, eng)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func statePath() string {
	if p := os.Getenv("CHAINER_STATE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".chainer", "state.json")
	}
	return filepath.Join(home, ".chainer", "state.json")
}
