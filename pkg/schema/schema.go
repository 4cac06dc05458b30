// Package schema defines the Go struct types for tool registrations and
// chain definitions, and provides strict YAML parsing of chain files.
package schema

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults applied by Normalize when a registration leaves them unset.
const (
	DefaultOutputFormat   = "text"
	DefaultTimeoutSeconds = 30
)

// ToolSpec describes a registered external tool server: how to launch it and
// which operation to call. Registrations are last-write-wins by ToolID.
type ToolSpec struct {
	ToolID         string `yaml:"tool_id"                   json:"tool_id"                   jsonschema:"required"`
	ServerCommand  string `yaml:"server_command"            json:"server_command"            jsonschema:"required"`
	ToolName       string `yaml:"tool_name"                 json:"tool_name"                 jsonschema:"required"`
	Description    string `yaml:"description,omitempty"     json:"description,omitempty"`
	OutputFormat   string `yaml:"output_format,omitempty"   json:"output_format,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty" jsonschema:"minimum=1"`
}

// Normalize fills in default output format and timeout.
func (t *ToolSpec) Normalize() {
	if t.OutputFormat == "" {
		t.OutputFormat = DefaultOutputFormat
	}
	if t.TimeoutSeconds <= 0 {
		t.TimeoutSeconds = DefaultTimeoutSeconds
	}
}

// Step is one invocation of a registered tool within a chain. String argument
// values may embed {placeholder} tokens resolved at execution time.
type Step struct {
	ToolID    string         `yaml:"tool_id"             json:"tool_id" jsonschema:"required"`
	Arguments map[string]any `yaml:"arguments,omitempty" json:"arguments,omitempty"`
	Condition string         `yaml:"condition,omitempty" json:"condition,omitempty"`
	OutputTo  string         `yaml:"output_to,omitempty" json:"output_to,omitempty"`
}

// Chain is a named, ordered sequence of steps. SaveToFile optionally names a
// path where the final result of each run is written as plain text.
type Chain struct {
	ChainID    string `yaml:"chain_id"               json:"chain_id" jsonschema:"required"`
	Steps      []Step `yaml:"steps"                  json:"steps"    jsonschema:"required"`
	SaveToFile string `yaml:"save_to_file,omitempty" json:"save_to_file,omitempty"`
}

// LoadChainFile reads and parses a chain YAML file with strict unknown-field
// rejection (yaml.v3 KnownFields). Returns the parsed Chain or an error.
func LoadChainFile(path string) (*Chain, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chain file: %w", err)
	}
	defer f.Close()
	return LoadChain(f)
}

// LoadChain parses a chain definition from an io.Reader with strict
// unknown-field rejection.
func LoadChain(r io.Reader) (*Chain, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Chain
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode chain: %w", err)
	}
	return &c, nil
}
