// Package tui implements a terminal browser for chain execution history,
// rendered as an interactive Bubble Tea app with a record list and a
// scrollable detail pane.
package tui

import "github.com/charmbracelet/lipgloss"

// Record status glyphs — convey meaning without relying on color alone.
const (
	GlyphCurrent = "▸"
	GlyphPassed  = "✓"
	GlyphFailed  = "✗"
)

// Palette adapts to terminal capabilities via lipgloss.
var (
	colorGreen = lipgloss.Color("42")
	colorRed   = lipgloss.Color("196")
	colorCyan  = lipgloss.Color("51")
	colorDim   = lipgloss.Color("240")
	colorWhite = lipgloss.Color("255")
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorCyan).
	Padding(0, 1)

// --- Record list styles ---

var (
	rowNormal = lipgloss.NewStyle().
			Foreground(colorWhite)

	rowCurrent = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	rowPassed = lipgloss.NewStyle().
			Foreground(colorGreen)

	rowFailed = lipgloss.NewStyle().
			Foreground(colorRed)
)

// --- Detail pane styles ---

var (
	panelBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim)

	panelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)
