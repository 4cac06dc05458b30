package engine

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ormasoftchile/chainer/pkg/eval"
	"github.com/ormasoftchile/chainer/pkg/schema"
	"github.com/ormasoftchile/chainer/pkg/state"
	"github.com/ormasoftchile/chainer/pkg/tools"
)

// InitialInputVar is the reserved variable name under which a run's initial
// input is exposed to placeholders.
const InitialInputVar = "INITIAL_INPUT"

// UnknownToolError is returned when a chain step references a tool id that
// has no registration.
type UnknownToolError struct {
	ToolID string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool %q is not registered", e.ToolID)
}

// UnknownChainError is returned when execution is requested for a chain id
// that was never defined.
type UnknownChainError struct {
	ChainID string
}

func (e *UnknownChainError) Error() string {
	return fmt.Sprintf("chain %q is not defined", e.ChainID)
}

// snapshot is the persisted document: the full engine state in one JSON file.
type snapshot struct {
	RegisteredTools  map[string]schema.ToolSpec `json:"registered_tools"`
	DefinedChains    map[string]schema.Chain    `json:"defined_chains"`
	ExecutionHistory []*ExecutionRecord         `json:"execution_history"`
}

// Engine owns the tool registry, chain store, and execution history. It is
// constructed once at startup and passed by reference; there are no package
// globals. One mutex serializes every operation including whole chain runs —
// concurrent callers are supported only by waiting their turn.
type Engine struct {
	mu      sync.Mutex
	store   *state.Store
	invoker tools.Invoker
	tools   map[string]schema.ToolSpec
	chains  map[string]schema.Chain
	history []*ExecutionRecord
}

// New creates an engine backed by the given store and invoker. A nil invoker
// selects the temp-file process transport. Previously persisted state is
// loaded; a corrupt state file starts the engine fresh with a warning on
// stderr rather than silently.
func New(store *state.Store, invoker tools.Invoker) *Engine {
	if invoker == nil {
		invoker = &tools.FileRPCInvoker{}
	}
	e := &Engine{
		store:   store,
		invoker: invoker,
		tools:   make(map[string]schema.ToolSpec),
		chains:  make(map[string]schema.Chain),
	}

	var snap snapshot
	ok, err := store.Load(&snap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v — starting with empty state\n", err)
	}
	if ok {
		if snap.RegisteredTools != nil {
			e.tools = snap.RegisteredTools
		}
		if snap.DefinedChains != nil {
			e.chains = snap.DefinedChains
		}
		e.history = snap.ExecutionHistory
	}
	return e
}

// persistLocked writes the full snapshot. Callers must hold e.mu.
func (e *Engine) persistLocked() error {
	return e.store.Save(snapshot{
		RegisteredTools:  e.tools,
		DefinedChains:    e.chains,
		ExecutionHistory: e.history,
	})
}

// RegisterTool stores or overwrites a tool registration (last write wins)
// and persists. There is no deregistration operation.
func (e *Engine) RegisterTool(spec schema.ToolSpec) (string, error) {
	if strings.TrimSpace(spec.ToolID) == "" {
		return "", fmt.Errorf("tool_id must not be empty")
	}
	if strings.TrimSpace(spec.ServerCommand) == "" {
		return "", fmt.Errorf("server_command must not be empty")
	}
	if strings.TrimSpace(spec.ToolName) == "" {
		return "", fmt.Errorf("tool_name must not be empty")
	}
	spec.Normalize()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.tools[spec.ToolID] = spec
	if err := e.persistLocked(); err != nil {
		return "", fmt.Errorf("save state: %w", err)
	}
	return fmt.Sprintf("Registered tool %q: %s via %q (timeout %ds, output %s)",
		spec.ToolID, spec.ToolName, spec.ServerCommand, spec.TimeoutSeconds, spec.OutputFormat), nil
}

// LookupTool returns the registration for a tool id.
func (e *Engine) LookupTool(toolID string) (schema.ToolSpec, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	spec, ok := e.tools[toolID]
	return spec, ok
}

// DefineChain validates every step's tool id against the registry and stores
// the chain, replacing any prior definition with the same id. On the first
// unknown tool id it fails with UnknownToolError and stores nothing.
func (e *Engine) DefineChain(c schema.Chain) (string, error) {
	if strings.TrimSpace(c.ChainID) == "" {
		return "", fmt.Errorf("chain_id must not be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, st := range c.Steps {
		if _, ok := e.tools[st.ToolID]; !ok {
			return "", &UnknownToolError{ToolID: st.ToolID}
		}
	}
	e.chains[c.ChainID] = c
	if err := e.persistLocked(); err != nil {
		return "", fmt.Errorf("save state: %w", err)
	}
	return formatChainSummary(c), nil
}

// ExecuteChain runs a chain start to finish, strictly sequentially, and
// appends the execution record to history. The engine mutex is held for the
// whole run; there is no cancellation path beyond each step's timeout.
func (e *Engine) ExecuteChain(ctx context.Context, chainID, initialInput string, vars map[string]string, timeoutOverride time.Duration) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	chain, ok := e.chains[chainID]
	if !ok {
		return "", &UnknownChainError{ChainID: chainID}
	}

	inputVars := make(map[string]string, len(vars)+1)
	for k, v := range vars {
		inputVars[k] = v
	}
	if initialInput != "" {
		inputVars[InitialInputVar] = initialInput
	}

	rec := &ExecutionRecord{
		ID:             uuid.NewString(),
		ChainID:        chainID,
		StartedAt:      time.Now(),
		InputVariables: inputVars,
	}

	outputs := make(map[string]string)
	lastResult := ""

	for i, st := range chain.Steps {
		index := i + 1

		if !eval.EvaluateCondition(st.Condition, inputVars, outputs) {
			rec.Steps = append(rec.Steps, StepRecord{
				Index:     index,
				ToolID:    st.ToolID,
				Condition: st.Condition,
				Skipped:   true,
				Success:   true,
			})
			continue
		}

		// Re-resolve at execution time: the tool may have been removed from
		// the snapshot between definition and this run.
		spec, ok := e.tools[st.ToolID]
		if !ok {
			rec.Error = fmt.Sprintf("Tool '%s' not registered", st.ToolID)
			break
		}

		args := eval.SubstituteArgs(st.Arguments, inputVars, outputs)

		timeout := timeoutOverride
		if timeout <= 0 {
			seconds := spec.TimeoutSeconds
			if seconds <= 0 {
				seconds = schema.DefaultTimeoutSeconds
			}
			timeout = time.Duration(seconds) * time.Second
		}

		start := time.Now()
		result, err := e.invoker.Invoke(ctx, spec.ServerCommand, spec.ToolName, args, timeout)
		sr := StepRecord{
			Index:     index,
			ToolID:    st.ToolID,
			Condition: st.Condition,
			Arguments: args,
			Duration:  time.Since(start),
		}

		if err != nil {
			sr.Error = err.Error()
			rec.Steps = append(rec.Steps, sr)
			rec.Error = fmt.Sprintf("Step %d failed: %v", index, err)
			break
		}

		sr.Success = true
		sr.Result = result
		rec.Steps = append(rec.Steps, sr)

		key := st.OutputTo
		if key == "" {
			key = fmt.Sprintf("step_%d", index)
		}
		outputs[key] = result
		lastResult = result
	}

	rec.Success = rec.Error == ""
	if rec.Success {
		rec.FinalResult = lastResult
	}
	rec.EndedAt = time.Now()
	rec.Duration = rec.EndedAt.Sub(rec.StartedAt)

	if chain.SaveToFile != "" && rec.FinalResult != "" {
		if err := os.WriteFile(chain.SaveToFile, []byte(rec.FinalResult), 0644); err != nil {
			rec.Warning = fmt.Sprintf("failed to save result to %s: %v", chain.SaveToFile, err)
		}
	}

	e.history = append(e.history, rec)
	if err := e.persistLocked(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: save state after run %s: %v\n", rec.ID, err)
	}

	return FormatRunSummary(rec), nil
}

// DiscoverTools queries a server command for its tool catalog. No state is
// mutated, so nothing is persisted.
func (e *Engine) DiscoverTools(ctx context.Context, serverCommand string, timeout time.Duration) (string, error) {
	infos, err := e.invoker.ListTools(ctx, serverCommand, timeout)
	if err != nil {
		return "", fmt.Errorf("discover tools: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Discovered %d tool(s) from %q:\n", len(infos), serverCommand)
	for _, info := range infos {
		if info.Description != "" {
			fmt.Fprintf(&b, "  - %s: %s\n", info.Name, info.Description)
		} else {
			fmt.Fprintf(&b, "  - %s\n", info.Name)
		}
	}
	return b.String(), nil
}

// History returns up to limit records, most recent first. A non-positive
// limit returns everything.
func (e *Engine) History(limit int) []*ExecutionRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.history)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]*ExecutionRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, e.history[i])
	}
	return out
}

// HistoryLen returns the total number of history records.
func (e *Engine) HistoryLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.history)
}

// ShowHistory formats the most recent limit records.
func (e *Engine) ShowHistory(limit int) string {
	records := e.History(limit)
	return FormatHistory(records, e.HistoryLen())
}

// ClearCache empties the execution history and removes auxiliary cache
// files. Registered tools and chain definitions are untouched.
func (e *Engine) ClearCache() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cleared := len(e.history)
	e.history = nil
	if err := e.store.ClearCacheFiles(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: clear cache files: %v\n", err)
	}
	if err := e.persistLocked(); err != nil {
		return "", fmt.Errorf("save state: %w", err)
	}
	return fmt.Sprintf("Cleared %d execution record(s); registered tools and chain definitions preserved", cleared), nil
}

// Tools returns all registrations sorted by tool id.
func (e *Engine) Tools() []schema.ToolSpec {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]schema.ToolSpec, 0, len(e.tools))
	for _, spec := range e.tools {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ToolID < out[j].ToolID })
	return out
}

// Chains returns all chain definitions sorted by chain id.
func (e *Engine) Chains() []schema.Chain {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]schema.Chain, 0, len(e.chains))
	for _, c := range e.chains {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChainID < out[j].ChainID })
	return out
}

// ServerInfo summarizes the engine's current state.
func (e *Engine) ServerInfo() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var b strings.Builder
	b.WriteString("chainer tool orchestration engine\n")
	fmt.Fprintf(&b, "  registered tools: %d\n", len(e.tools))
	fmt.Fprintf(&b, "  defined chains:   %d\n", len(e.chains))
	fmt.Fprintf(&b, "  history records:  %d\n", len(e.history))
	fmt.Fprintf(&b, "  state file:       %s\n", e.store.Path)
	return b.String()
}
