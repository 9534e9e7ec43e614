package editor

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/sitewisedb/internal/tui/theme"
)

// ExecuteQueryMsg is sent when the user triggers query execution.
type ExecuteQueryMsg struct {
	Query string
}

// sqlKeywords are uppercased by Ctrl+L and offered when a statement starts.
// The backend only answers queries, so there are no DML or DDL words.
var sqlKeywords = map[string]bool{
	"select": true, "from": true, "where": true, "and": true, "or": true,
	"join": true, "inner": true, "left": true, "right": true, "cross": true,
	"on": true, "using": true, "not": true, "in": true, "is": true,
	"null": true, "like": true, "order": true, "by": true, "group": true,
	"having": true, "limit": true, "as": true, "distinct": true,
	"count": true, "sum": true, "avg": true, "min": true, "max": true,
	"between": true, "exists": true, "case": true, "when": true,
	"then": true, "else": true, "end": true, "union": true, "all": true,
	"asc": true, "desc": true, "true": true, "false": true, "cast": true,
	"coalesce": true, "now": true, "date_trunc": true, "date_add": true,
	"date_sub": true, "from_unixtime": true, "to_unixtime": true,
	"timestamp_add": true, "timestamp_sub": true, "with": true,
}

// Model is the SQL query editor component.
type Model struct {
	textarea textarea.Model
	width    int
	height   int
	focused  bool
	notice   string

	tables  []string
	columns map[string][]string // by lower-cased table name
	pending map[string]bool

	completing  bool
	completions []string
	compIndex   int
	base        string // editor text before the completed word
}

// New creates a new editor model.
func New() Model {
	ta := textarea.New()
	ta.Placeholder = "Enter SQL query..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0 // unlimited
	ta.Prompt = "│ "
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.BlurredStyle.Base = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(theme.ColorMuted)
	ta.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(theme.ColorMuted)
	ta.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(theme.ColorPrimary)
	ta.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(theme.ColorBorder)

	return Model{
		textarea: ta,
		columns:  make(map[string][]string),
		pending:  make(map[string]bool),
	}
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.textarea.SetWidth(w - 2)
	m.textarea.SetHeight(h - 2)
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
	if f {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}
}

// Focused returns whether the editor has focus.
func (m Model) Focused() bool {
	return m.focused
}

// Value returns the current editor content.
func (m Model) Value() string {
	return m.textarea.Value()
}

// SetQuery replaces the editor content.
func (m *Model) SetQuery(query string) {
	m.textarea.SetValue(query)
}

// SetTableNames replaces the tables offered after FROM and JOIN. Cached
// columns are dropped since they may belong to another database.
func (m *Model) SetTableNames(names []string) {
	m.tables = names
	clear(m.columns)
	clear(m.pending)
}

// SetColumns caches the column names of table for completion.
func (m *Model) SetColumns(table string, names []string) {
	key := strings.ToLower(table)
	m.columns[key] = names
	delete(m.pending, key)
}

// Notice returns the line shown under the editor, if any.
func (m Model) Notice() string {
	return m.notice
}

// Clear empties the editor.
func (m *Model) Clear() {
	m.textarea.Reset()
	m.notice = ""
	m.cancelCompletion()
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the editor.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		key := msg.String()
		if key != "tab" {
			m.notice = ""
		}

		switch key {
		case "ctrl+e", "f5":
			query := strings.TrimSpace(m.textarea.Value())
			if query == "" {
				return m, nil
			}
			m.cancelCompletion()
			if notice, bad := readOnlyViolation(query); bad {
				m.notice = notice
				return m, nil
			}
			return m, func() tea.Msg {
				return ExecuteQueryMsg{Query: query}
			}

		case "ctrl+k":
			m.Clear()
			return m, nil

		case "ctrl+l":
			m.formatKeywords()
			return m, nil

		case "tab":
			if ok, cmd := m.Complete(); ok {
				return m, cmd
			}

		case "esc":
			if m.completing {
				m.cancelCompletion()
				return m, nil
			}
		}

		if m.completing && key != "tab" && key != "esc" {
			m.cancelCompletion()
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// formatKeywords uppercases SQL keywords outside literals and comments.
func (m *Model) formatKeywords() {
	val := m.textarea.Value()
	if val == "" {
		return
	}
	var b strings.Builder
	for _, t := range lex(val) {
		if t.isKeyword() {
			b.WriteString(strings.ToUpper(t.text))
		} else {
			b.WriteString(t.text)
		}
	}
	m.textarea.SetValue(b.String())
}

// View renders the editor.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Padding(0, 1)

	title := titleStyle.Render("Query Editor")

	var completionHint string
	if m.completing && len(m.completions) > 1 {
		hint := make([]string, 0, len(m.completions))
		for i, c := range m.completions {
			if i == m.compIndex {
				hint = append(hint, lipgloss.NewStyle().Foreground(theme.ColorHighlight).Bold(true).Render(c))
			} else {
				hint = append(hint, theme.StyleMuted.Render(c))
			}
		}
		completionHint = "\n" + lipgloss.NewStyle().Padding(0, 1).Render(
			theme.StyleMuted.Render("Tab: ")+strings.Join(hint, " │ "),
		)
	}

	var notice string
	if m.notice != "" {
		notice = "\n" + lipgloss.NewStyle().Padding(0, 1).Render(theme.StyleWarning.Render(m.notice))
	}

	return title + "\n" + m.textarea.View() + completionHint + notice
}
