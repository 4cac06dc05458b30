package eval

import "testing"

func TestSubstitute(t *testing.T) {
	vars := map[string]string{"city": "Lima", "name": "input-value"}
	outputs := map[string]string{"name": "output-value", "step_1": "42"}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"no placeholders", "plain text", "plain text"},
		{"variable", "weather in {city}", "weather in Lima"},
		{"step output", "got {step_1}", "got 42"},
		{"output shadows variable", "hello {name}", "hello output-value"},
		{"unknown placeholder left intact", "keep {missing} here", "keep {missing} here"},
		{"multiple occurrences", "{city}/{city}", "Lima/Lima"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Substitute(tt.template, vars, outputs)
			if got != tt.want {
				t.Errorf("Substitute(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestSubstituteArgs(t *testing.T) {
	vars := map[string]string{"INITIAL_INPUT": "World"}
	args := map[string]any{
		"msg":   "Hello {INITIAL_INPUT}",
		"count": 3,
		"flag":  true,
	}

	out := SubstituteArgs(args, vars, nil)
	if out["msg"] != "Hello World" {
		t.Errorf("msg = %v", out["msg"])
	}
	// Non-string values pass through untouched.
	if out["count"] != 3 {
		t.Errorf("count = %v (%T)", out["count"], out["count"])
	}
	if out["flag"] != true {
		t.Errorf("flag = %v", out["flag"])
	}

	if SubstituteArgs(nil, vars, nil) != nil {
		t.Error("nil args should stay nil")
	}
}

func TestEvaluateCondition(t *testing.T) {
	vars := map[string]string{"status": "ok", "count": "5"}
	outputs := map[string]string{"status": "failed"}

	tests := []struct {
		name      string
		condition string
		want      bool
	}{
		{"empty is true", "", true},
		{"whitespace is true", "   ", true},
		{"equal numbers", "5 == 5", true},
		{"unequal numbers", "5 == 6", false},
		{"equality with quotes", `"ok" == 'ok'`, true},
		{"inequality", "a != b", true},
		{"inequality false", "same != same", false},
		{"contains", "abc contains b", true},
		{"contains miss", "abc contains z", false},
		{"placeholder uses step output", "{status} == failed", true},
		{"variable placeholder", "{count} == 5", true},
		{"bool literal true", "true", true},
		{"bool literal false", "false", false},
		{"bool literal case insensitive", "TRUE", true},
		{"numeric less-than", "3 < 5", true},
		{"numeric greater-equal", "5 >= 5", true},
		{"numeric less-equal false", "9 <= 5", false},
		{"templated comparison", "{count} > 2", true},
		{"garbage fails closed", "launch the missiles()", false},
		{"non-numeric comparison fails closed", "abc < def", false},
		{"unresolved placeholder fails closed", "{nope}", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateCondition(tt.condition, vars, outputs)
			if got != tt.want {
				t.Errorf("EvaluateCondition(%q) = %v, want %v", tt.condition, got, tt.want)
			}
		})
	}
}
