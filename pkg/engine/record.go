// Package engine implements the chain executor: the registry of tool
// registrations, the chain store, the sequential run loop, and the
// execution history mirrored to a persisted snapshot.
package engine

import "time"

// StepRecord is the audit entry for one step of a run. Skipped steps carry
// zero duration and no arguments; failed steps carry the tool's error text.
type StepRecord struct {
	Index     int            `json:"index"`
	ToolID    string         `json:"tool_id"`
	Condition string         `json:"condition,omitempty"`
	Skipped   bool           `json:"skipped,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Success   bool           `json:"success"`
	Result    string         `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
}

// ExecutionRecord is the full audit trail of one chain run. A record exists
// for every execution attempt that reached the run loop; unknown chain ids
// are rejected before a record is opened.
type ExecutionRecord struct {
	ID             string            `json:"id"`
	ChainID        string            `json:"chain_id"`
	StartedAt      time.Time         `json:"started_at"`
	EndedAt        time.Time         `json:"ended_at"`
	InputVariables map[string]string `json:"input_variables,omitempty"`
	Steps          []StepRecord      `json:"steps"`
	Success        bool              `json:"success"`
	Error          string            `json:"error,omitempty"`
	FinalResult    string            `json:"final_result,omitempty"`
	Duration       time.Duration     `json:"duration_ns"`
	Warning        string            `json:"warning,omitempty"`
}

// StepsSummary counts step records by outcome.
type StepsSummary struct {
	Total    int `json:"total"`
	Executed int `json:"executed"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Summary tallies the record's steps. Failed steps also count as executed.
func (r *ExecutionRecord) Summary() StepsSummary {
	var s StepsSummary
	s.Total = len(r.Steps)
	for _, st := range r.Steps {
		switch {
		case st.Skipped:
			s.Skipped++
		case st.Success:
			s.Executed++
		default:
			s.Executed++
			s.Failed++
		}
	}
	return s
}
