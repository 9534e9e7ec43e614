package results

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/sitewisedb/internal/app"
	"github.com/joacominatel/sitewisedb/internal/tui/theme"
)

// Model is the query results component.
type Model struct {
	result        *app.ResultSet
	err           error
	width         int
	height        int
	focused       bool
	scrollY       int
	cursorX       int
	cursorY       int
	loading       bool
	colWidths     []int
	lastQuery     string
	statusMessage string
}

// New creates a new results model.
func New() Model {
	return Model{}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
}

// Focused returns whether the results pane has focus.
func (m Model) Focused() bool {
	return m.focused
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

// SetResult sets the query result to display along with the query text it
// came from.
func (m *Model) SetResult(query string, r *app.ResultSet) {
	m.result = r
	m.err = nil
	m.scrollY = 0
	m.cursorX = 0
	m.cursorY = 0
	m.loading = false
	m.lastQuery = query
	m.statusMessage = ""
	m.calculateColumnWidths()
}

// SetError sets an error to display.
func (m *Model) SetError(err error) {
	m.err = err
	m.result = nil
	m.scrollY = 0
	m.loading = false
}

func (m *Model) calculateColumnWidths() {
	if m.result == nil || len(m.result.Columns) == 0 {
		m.colWidths = nil
		return
	}

	m.colWidths = make([]int, len(m.result.Columns))

	// Use display width (not byte length) for accurate measurement
	for i, col := range m.result.Columns {
		m.colWidths[i] = lipgloss.Width(col)
	}

	for _, row := range m.result.Rows {
		for i, cell := range row {
			w := lipgloss.Width(cell.String())
			if i < len(m.colWidths) && w > m.colWidths[i] {
				m.colWidths[i] = w
			}
		}
	}

	// Enforce minimum of 1 and cap at 40
	for i := range m.colWidths {
		if m.colWidths[i] < 1 {
			m.colWidths[i] = 1
		}
		if m.colWidths[i] > 40 {
			m.colWidths[i] = 40
		}
	}
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the results pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.result == nil {
		return m, nil
	}

	m.statusMessage = ""
	switch keyMsg.String() {
	case "up", "k":
		if m.cursorY > 0 {
			m.cursorY--
		}
	case "down", "j":
		if m.cursorY < m.result.RowCount-1 {
			m.cursorY++
		}
	case "left", "h":
		if m.cursorX > 0 {
			m.cursorX--
		}
	case "right", "l":
		if m.cursorX < len(m.result.Columns)-1 {
			m.cursorX++
		}
	case "pgup":
		m.cursorY -= m.height / 2
		if m.cursorY < 0 {
			m.cursorY = 0
		}
	case "pgdown":
		m.cursorY += m.height / 2
		if m.cursorY > m.result.RowCount-1 {
			m.cursorY = max(m.result.RowCount-1, 0)
		}
	case "y":
		m.doCopyCell()
	case "Y":
		m.doCopyRowText()
	case "J":
		m.doCopyRowJSON()
	case "C":
		m.doCopyRowCSV()
	case "f":
		return m, m.doFilterByValue()
	case "e":
		return m, m.exportCSVCmd()
	case "E":
		return m, m.exportJSONCmd()
	}
	m.scrollToCursor()

	return m, nil
}

func (m *Model) scrollToCursor() {
	visible := m.visibleRows()
	if m.cursorY < m.scrollY {
		m.scrollY = m.cursorY
	}
	if m.cursorY >= m.scrollY+visible {
		m.scrollY = m.cursorY - visible + 1
	}
}

func (m Model) visibleRows() int {
	return max(m.height-5, 1)
}

// View renders the results pane.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Padding(0, 1)

	if m.loading {
		return titleStyle.Render("Results") + "\n" + theme.StyleMuted.Render("  Executing query...")
	}

	if m.err != nil {
		return titleStyle.Render("Results") + "\n" +
			theme.StyleError.Render("  Error: "+m.err.Error())
	}

	if m.result == nil {
		return titleStyle.Render("Results") + "\n" +
			theme.StyleMuted.Render("  Execute a query to see results")
	}

	// Header with stats
	stats := fmt.Sprintf("%d row(s) | %s",
		m.result.RowCount,
		m.result.Duration.Round(1000).String(),
	)
	if m.result.Truncated {
		stats += " | truncated"
	}
	if n := len(m.result.Warnings); n > 0 {
		stats += fmt.Sprintf(" | %d warning(s)", n)
	}
	header := titleStyle.Render("Results") + "  " +
		theme.StyleMuted.Render(stats)

	if len(m.result.Columns) == 0 {
		return header + "\n" + theme.StyleSuccess.Render("  Query executed successfully")
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")

	b.WriteString(m.renderRow(m.result.Columns, nil, true, -1))
	b.WriteString("\n")
	b.WriteString(m.renderSeparator())
	b.WriteString("\n")

	visibleRows := m.visibleRows()
	for i := m.scrollY; i < len(m.result.Rows) && i < m.scrollY+visibleRows; i++ {
		selected := -1
		if m.focused && i == m.cursorY {
			selected = m.cursorX
		}
		row := m.result.Rows[i]
		text := make([]string, len(row))
		nulls := make([]bool, len(row))
		for j, c := range row {
			text[j], nulls[j] = c.String(), c.Null
		}
		b.WriteString(m.renderRow(text, nulls, false, selected))
		if i < m.scrollY+visibleRows-1 && i < len(m.result.Rows)-1 {
			b.WriteString("\n")
		}
	}

	width := max(m.width-4, 10)
	switch {
	case m.statusMessage != "":
		b.WriteString("\n")
		b.WriteString(theme.StyleMuted.Render("  " + truncateStatus(m.statusMessage, width)))
	case len(m.result.Warnings) > 0:
		b.WriteString("\n")
		b.WriteString(theme.StyleWarning.Render("  " + truncateStatus("Warning: "+m.result.Warnings[0], width)))
	}

	return b.String()
}

// renderRow pads and styles one line of the grid. nulls marks NULL cells and
// is nil for the header.
func (m Model) renderRow(cells []string, nulls []bool, isHeader bool, selected int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		width := 10
		if i < len(m.colWidths) {
			width = m.colWidths[i]
		}
		if width < 1 {
			width = 1
		}

		display := cell
		displayWidth := lipgloss.Width(display)

		// Truncate if display is wider than column
		if displayWidth > width {
			runes := []rune(display)
			if width > 1 && len(runes) > 0 {
				trimmed := runes
				for lipgloss.Width(string(trimmed)) >= width && len(trimmed) > 0 {
					trimmed = trimmed[:len(trimmed)-1]
				}
				display = string(trimmed) + "…"
			} else {
				display = "…"
			}
			displayWidth = lipgloss.Width(display)
		}

		pad := width - displayWidth
		if pad > 0 {
			display += strings.Repeat(" ", pad)
		}

		switch {
		case isHeader:
			parts[i] = lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.ColorPrimary).
				Render(display)
		case i == selected:
			parts[i] = lipgloss.NewStyle().
				Foreground(theme.ColorHighlight).
				Bold(true).
				Render(display)
		case i < len(nulls) && nulls[i]:
			parts[i] = theme.StyleMuted.Render(display)
		default:
			parts[i] = display
		}
	}
	return "  " + strings.Join(parts, " │ ")
}

func (m Model) renderSeparator() string {
	parts := make([]string, len(m.colWidths))
	for i, w := range m.colWidths {
		if w < 1 {
			w = 1
		}
		parts[i] = strings.Repeat("─", w)
	}
	return "  " + lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Join(parts, "─┼─"))
}
