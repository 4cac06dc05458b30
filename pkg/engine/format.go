package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/chainer/pkg/schema"
)

// Step outcome glyphs, shared with the TUI.
const (
	GlyphPassed  = "✓"
	GlyphFailed  = "✗"
	GlyphSkipped = "⊘"
)

const resultColumnWidth = 60

// formatChainSummary renders the definition-time step listing returned by
// DefineChain.
func formatChainSummary(c schema.Chain) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Defined chain %q (%d step(s)):\n", c.ChainID, len(c.Steps))
	for i, st := range c.Steps {
		fmt.Fprintf(&b, "  %d. %s", i+1, st.ToolID)
		if st.OutputTo != "" {
			fmt.Fprintf(&b, " -> %s", st.OutputTo)
		}
		if st.Condition != "" {
			fmt.Fprintf(&b, " [if %s]", st.Condition)
		}
		b.WriteString("\n")
	}
	if c.SaveToFile != "" {
		fmt.Fprintf(&b, "  final result saved to %s\n", c.SaveToFile)
	}
	return b.String()
}

// FormatRunSummary renders the per-run report returned by ExecuteChain. The
// underlying counts come from Summary so tests can assert them directly.
func FormatRunSummary(rec *ExecutionRecord) string {
	sum := rec.Summary()
	status := "SUCCEEDED"
	if !rec.Success {
		status = "FAILED"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Chain %q %s in %s (%d step(s): %d executed, %d skipped, %d failed)\n",
		rec.ChainID, status, formatDuration(rec.Duration), sum.Total, sum.Executed, sum.Skipped, sum.Failed)

	for _, st := range rec.Steps {
		switch {
		case st.Skipped:
			fmt.Fprintf(&b, "  %d. %s %s (condition false: %s)\n", st.Index, GlyphSkipped, st.ToolID, st.Condition)
		case st.Success:
			fmt.Fprintf(&b, "  %d. %s %s -> %s\n", st.Index, GlyphPassed, st.ToolID, truncateCell(st.Result, resultColumnWidth))
		default:
			fmt.Fprintf(&b, "  %d. %s %s: %s\n", st.Index, GlyphFailed, st.ToolID, st.Error)
		}
	}

	if rec.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", rec.Error)
	}
	if rec.Success && rec.FinalResult != "" {
		fmt.Fprintf(&b, "Final result: %s\n", rec.FinalResult)
	}
	if rec.Warning != "" {
		fmt.Fprintf(&b, "Warning: %s\n", rec.Warning)
	}
	return b.String()
}

// FormatHistory renders records (already most recent first) as a compact
// listing. total is the full history length before the limit was applied.
func FormatHistory(records []*ExecutionRecord, total int) string {
	if len(records) == 0 {
		return "No executions recorded\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Execution history (%d of %d record(s), most recent first):\n", len(records), total)
	for _, rec := range records {
		sum := rec.Summary()
		status := GlyphPassed + " ok"
		detail := truncateCell(rec.FinalResult, resultColumnWidth)
		if !rec.Success {
			status = GlyphFailed + " failed"
			detail = truncateCell(rec.Error, resultColumnWidth)
		}
		fmt.Fprintf(&b, "  %s  %-20s %-9s %d step(s) in %-8s %s\n",
			rec.StartedAt.Format("2006-01-02 15:04:05"),
			truncateCell(rec.ChainID, 20), status, sum.Total,
			formatDuration(rec.Duration), detail)
	}
	return b.String()
}

// truncateCell clips a value to a display width, rune-width aware.
func truncateCell(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return runewidth.Truncate(s, width, "…")
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
