package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// ValidationError represents a single validation error with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	Path     string `json:"path"`  // JSON-path-like location (e.g., "steps[0].tool_id")
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Phase, e.Path, e.Message)
}

// ValidateChainFile performs the full 3-phase validation pipeline on a chain
// definition file.
// Phase 1: Structural (strict YAML decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (custom Go rules)
//
// Registry membership of step tool ids is not checked here — that is a
// definition-time engine concern, since the registry is runtime state.
func ValidateChainFile(path string) (*Chain, []*ValidationError) {
	c, err := LoadChainFile(path)
	if err != nil {
		return nil, []*ValidationError{{
			Phase:    "structural",
			Message:  err.Error(),
			Severity: "error",
		}}
	}
	return c, ValidateChain(c)
}

// ValidateChain runs the semantic and domain phases on an in-memory chain.
func ValidateChain(c *Chain) []*ValidationError {
	var allErrors []*ValidationError
	allErrors = append(allErrors, validateSemantic(c)...)
	allErrors = append(allErrors, validateDomain(c)...)
	return allErrors
}

// validateSemantic validates the chain against the generated JSON Schema.
func validateSemantic(c *Chain) []*ValidationError {
	data, err := json.Marshal(c)
	if err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("marshal for schema validation: %v", err),
			Severity: "error",
		}}
	}

	schemaJSON, err := GenerateChainJSONSchema()
	if err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("generate schema: %v", err),
			Severity: "error",
		}}
	}

	var schemaDoc interface{}
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("unmarshal schema: %v", err),
			Severity: "error",
		}}
	}

	compiler := sjsonschema.NewCompiler()
	if err := compiler.AddResource("chain-v0.json", schemaDoc); err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("add schema resource: %v", err),
			Severity: "error",
		}}
	}

	sch, err := compiler.Compile("chain-v0.json")
	if err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("compile schema: %v", err),
			Severity: "error",
		}}
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return []*ValidationError{{
			Phase:    "semantic",
			Message:  fmt.Sprintf("unmarshal document: %v", err),
			Severity: "error",
		}}
	}

	if err := sch.Validate(doc); err != nil {
		var errs []*ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flattenValidationErrors(ve) {
				errs = append(errs, &ValidationError{
					Phase:    "semantic",
					Path:     strings.Join(cause.InstanceLocation, "/"),
					Message:  fmt.Sprintf("%v", cause.ErrorKind),
					Severity: "error",
				})
			}
		} else {
			errs = append(errs, &ValidationError{
				Phase:    "semantic",
				Message:  err.Error(),
				Severity: "error",
			})
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// validateDomain performs Phase 3 domain-level validation.
func validateDomain(c *Chain) []*ValidationError {
	var errs []*ValidationError

	if strings.TrimSpace(c.ChainID) == "" {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     "chain_id",
			Message:  "chain_id must not be empty",
			Severity: "error",
		})
	}

	if len(c.Steps) == 0 {
		errs = append(errs, &ValidationError{
			Phase:    "domain",
			Path:     "steps",
			Message:  "chain has no steps",
			Severity: "warning",
		})
	}

	seen := make(map[string]int)
	for i, st := range c.Steps {
		path := fmt.Sprintf("steps[%d]", i)
		if strings.TrimSpace(st.ToolID) == "" {
			errs = append(errs, &ValidationError{
				Phase:    "domain",
				Path:     path + ".tool_id",
				Message:  "tool_id must not be empty",
				Severity: "error",
			})
		}
		if st.OutputTo != "" {
			if prev, ok := seen[st.OutputTo]; ok {
				errs = append(errs, &ValidationError{
					Phase:    "domain",
					Path:     fmt.Sprintf("%s.output_to", path),
					Message:  fmt.Sprintf("output binding %q shadows the binding of step %d", st.OutputTo, prev+1),
					Severity: "warning",
				})
			}
			seen[st.OutputTo] = i
		}
	}
	return errs
}
