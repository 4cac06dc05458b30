package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// GenerateChainJSONSchema produces a JSON Schema Draft 2020-12 document from
// the Go Chain struct using invopop/jsonschema.
func GenerateChainJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&Chain{})
	s.ID = "https://github.com/ormasoftchile/chainer/schemas/chain-v0.json"
	s.Title = "Chainer Chain Definition v0"
	s.Description = "Schema for chainer chain definition YAML documents"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal chain schema: %w", err)
	}
	return data, nil
}

// GenerateToolSpecJSONSchema produces a JSON Schema Draft 2020-12 document
// from the Go ToolSpec struct using invopop/jsonschema.
func GenerateToolSpecJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false

	s := r.Reflect(&ToolSpec{})
	s.ID = "https://github.com/ormasoftchile/chainer/schemas/tool-v0.json"
	s.Title = "Chainer Tool Registration v0"
	s.Description = "Schema for chainer tool registration documents"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tool schema: %w", err)
	}
	return data, nil
}
