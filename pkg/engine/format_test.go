package engine

import (
	"strings"
	"testing"
	"time"
)

func TestFormatRunSummary(t *testing.T) {
	rec := &ExecutionRecord{
		ID:      "abc",
		ChainID: "deploy",
		Steps: []StepRecord{
			{Index: 1, ToolID: "build", Success: true, Result: "built", Duration: 1200 * time.Millisecond},
			{Index: 2, ToolID: "notify", Skipped: true, Success: true, Condition: "{env} == prod"},
			{Index: 3, ToolID: "deploy", Error: "connection refused"},
		},
		Error:       "Step 3 failed: connection refused",
		FinalResult: "",
		Duration:    2 * time.Second,
	}

	out := FormatRunSummary(rec)
	for _, want := range []string{
		`Chain "deploy" FAILED`,
		"3 step(s): 2 executed, 1 skipped, 1 failed",
		"1. " + GlyphPassed + " build",
		"2. " + GlyphSkipped + " notify",
		"3. " + GlyphFailed + " deploy",
		"{env} == prod",
		"Step 3 failed: connection refused",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestFormatRunSummary_SuccessIncludesFinalResult(t *testing.T) {
	rec := &ExecutionRecord{
		ChainID: "greet",
		Steps: []StepRecord{
			{Index: 1, ToolID: "echo", Success: true, Result: "Hello World"},
		},
		Success:     true,
		FinalResult: "Hello World",
		Warning:     "failed to save result to /tmp/x: permission denied",
	}

	out := FormatRunSummary(rec)
	for _, want := range []string{"SUCCEEDED", "Hello World", "permission denied"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestFormatHistory(t *testing.T) {
	recs := []*ExecutionRecord{
		{ChainID: "latest", StartedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC), Success: true},
		{ChainID: "older", StartedAt: time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC), Error: "Step 1 failed: boom"},
	}

	out := FormatHistory(recs, 5)
	if !strings.Contains(out, "2 of 5 record(s)") {
		t.Errorf("header wrong:\n%s", out)
	}
	if strings.Index(out, "latest") > strings.Index(out, "older") {
		t.Error("records not listed most recent first")
	}
	if !strings.Contains(out, "boom") {
		t.Error("failure detail missing")
	}
}

func TestFormatHistory_Empty(t *testing.T) {
	out := FormatHistory(nil, 0)
	if !strings.Contains(out, "No executions recorded") {
		t.Errorf("empty history message missing: %q", out)
	}
}

func TestTruncateCell(t *testing.T) {
	if got := truncateCell("short", 10); got != "short" {
		t.Errorf("short string altered: %q", got)
	}
	long := strings.Repeat("x", 80)
	got := truncateCell(long, 20)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated cell missing ellipsis: %q", got)
	}
	if len([]rune(got)) > 20 {
		t.Errorf("truncated cell too wide: %d runes", len([]rune(got)))
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{42 * time.Millisecond, "42ms"},
		{1500 * time.Millisecond, "1.5s"},
		{0, "0s"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.in); got != tc.want {
			t.Errorf("formatDuration(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
