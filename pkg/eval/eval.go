// Package eval implements {placeholder} substitution and guard condition
// evaluation for chain steps.
//
// Conditions use a deliberately closed grammar: the three string operators
// (" == ", " != ", " contains ") plus boolean literals and a single numeric
// comparison. Anything that fails to parse evaluates to false, which skips
// the step rather than failing the run.
package eval

import (
	"strconv"
	"strings"
)

// Substitute replaces every {key} token in template. Step outputs are
// applied before input variables, so a name present in both maps always
// resolves to the step output's value.
func Substitute(template string, vars, outputs map[string]string) string {
	for k, v := range outputs {
		template = strings.ReplaceAll(template, "{"+k+"}", v)
	}
	for k, v := range vars {
		template = strings.ReplaceAll(template, "{"+k+"}", v)
	}
	return template
}

// SubstituteArgs resolves all string values in a step's argument map.
// Non-string values pass through unchanged.
func SubstituteArgs(args map[string]any, vars, outputs map[string]string) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		switch val := v.(type) {
		case string:
			out[k] = Substitute(val, vars, outputs)
		default:
			out[k] = v
		}
	}
	return out
}

// EvaluateCondition reduces a (possibly templated) guard string to a bool.
// An empty condition is true. The substituted text is tested against the
// operators in fixed order; a condition that matches no operator falls back
// to the closed literal grammar, and any parse failure yields false.
func EvaluateCondition(condition string, vars, outputs map[string]string) bool {
	if strings.TrimSpace(condition) == "" {
		return true
	}
	s := Substitute(condition, vars, outputs)

	if i := strings.Index(s, " == "); i >= 0 {
		return stripQuotes(s[:i]) == stripQuotes(s[i+4:])
	}
	if i := strings.Index(s, " != "); i >= 0 {
		return stripQuotes(s[:i]) != stripQuotes(s[i+4:])
	}
	if i := strings.Index(s, " contains "); i >= 0 {
		left := stripQuotes(s[:i])
		right := stripQuotes(s[i+len(" contains "):])
		return strings.Contains(left, right)
	}
	return evalLiteral(s)
}

// stripQuotes trims whitespace and any surrounding quote characters from an
// operand.
func stripQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}

// evalLiteral handles the closed fallback grammar: a boolean literal, or one
// binary numeric comparison. Unparseable input is false.
func evalLiteral(s string) bool {
	s = strings.TrimSpace(s)
	if b, err := strconv.ParseBool(strings.ToLower(s)); err == nil {
		return b
	}
	// Two-character operators first so "<=" is never split at "<".
	for _, op := range []string{"<=", ">=", "<", ">"} {
		i := strings.Index(s, op)
		if i < 0 {
			continue
		}
		left, lerr := strconv.ParseFloat(strings.TrimSpace(s[:i]), 64)
		right, rerr := strconv.ParseFloat(strings.TrimSpace(s[i+len(op):]), 64)
		if lerr != nil || rerr != nil {
			return false
		}
		switch op {
		case "<=":
			return left <= right
		case ">=":
			return left >= right
		case "<":
			return left < right
		default:
			return left > right
		}
	}
	return false
}
