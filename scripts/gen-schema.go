//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/ormasoftchile/chainer/pkg/schema"
)

func main() {
	if err := os.MkdirAll("schemas", 0755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}

	data, err := schema.GenerateChainJSONSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("schemas/chain-v0.json", data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote schemas/chain-v0.json")

	toolData, err := schema.GenerateToolSpecJSONSchema()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error generating tool schema: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("schemas/tool-v0.json", toolData, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("wrote schemas/tool-v0.json")
}
