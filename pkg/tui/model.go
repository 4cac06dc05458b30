package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/chainer/pkg/engine"
)

const listWidth = 44

// Model is the Bubble Tea model for the history browser. Records are held
// most recent first, matching engine.History.
type Model struct {
	records  []*engine.ExecutionRecord
	selected int
	detail   viewport.Model
	ready    bool
	width    int
	height   int
}

// NewModel creates a history browser over records (most recent first).
func NewModel(records []*engine.ExecutionRecord) Model {
	return Model{records: records}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.syncDetail()
			}
		case "down", "j":
			if m.selected < len(m.records)-1 {
				m.selected++
				m.syncDetail()
			}
		case "pgup", "b":
			m.detail.HalfViewUp()
		case "pgdown", "f":
			m.detail.HalfViewDown()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		detailW := msg.Width - listWidth - 4
		if detailW < 20 {
			detailW = 20
		}
		detailH := msg.Height - 6
		if detailH < 5 {
			detailH = 5
		}
		if !m.ready {
			m.detail = viewport.New(detailW, detailH)
			m.ready = true
		} else {
			m.detail.Width = detailW
			m.detail.Height = detailH
		}
		m.syncDetail()

	default:
		if m.ready {
			m.detail, _ = m.detail.Update(msg)
		}
	}

	return m, nil
}

// syncDetail refreshes the detail pane with the selected record.
func (m *Model) syncDetail() {
	if !m.ready || len(m.records) == 0 {
		return
	}
	rec := m.records[m.selected]
	var b strings.Builder
	b.WriteString(engine.FormatRunSummary(rec))
	if len(rec.InputVariables) > 0 {
		b.WriteString("\nInput variables:\n")
		for k, v := range rec.InputVariables {
			fmt.Fprintf(&b, "  %s = %s\n", k, v)
		}
	}
	m.detail.SetContent(b.String())
	m.detail.GotoTop()
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("chainer history"))
	b.WriteString("\n\n")

	if len(m.records) == 0 {
		b.WriteString(helpStyle.Render("  No executions recorded"))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  q: quit"))
		return b.String()
	}

	rows := make([]string, 0, len(m.records))
	for i, rec := range m.records {
		glyph := GlyphPassed
		style := rowPassed
		if !rec.Success {
			glyph = GlyphFailed
			style = rowFailed
		}
		label := fmt.Sprintf("%s %s  %s", glyph,
			rec.StartedAt.Format("01-02 15:04:05"),
			runewidth.Truncate(rec.ChainID, listWidth-22, "…"))
		if i == m.selected {
			rows = append(rows, rowCurrent.Render(GlyphCurrent+" "+label))
		} else {
			rows = append(rows, style.Render("  "+label))
		}
	}
	list := strings.Join(rows, "\n")

	if !m.ready {
		b.WriteString(list)
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  q: quit  ↑/↓: select"))
		return b.String()
	}

	detail := panelBorder.Render(panelTitle.Render("run detail") + "\n" + m.detail.View())
	b.WriteString(joinHorizontal(list, detail))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("  q: quit  ↑/↓: select  pgup/pgdn: scroll detail"))
	return b.String()
}

// joinHorizontal places the record list beside the detail panel, padding the
// shorter column so the lines align.
func joinHorizontal(left, right string) string {
	leftLines := strings.Split(left, "\n")
	rightLines := strings.Split(right, "\n")

	n := len(leftLines)
	if len(rightLines) > n {
		n = len(rightLines)
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		var l, r string
		if i < len(leftLines) {
			l = leftLines[i]
		}
		if i < len(rightLines) {
			r = rightLines[i]
		}
		pad := listWidth - runewidth.StringWidth(stripANSI(l))
		if pad < 0 {
			pad = 0
		}
		b.WriteString(l)
		b.WriteString(strings.Repeat(" ", pad+2))
		b.WriteString(r)
		b.WriteString("\n")
	}
	return b.String()
}

// stripANSI removes SGR escape sequences for width measurement.
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
