package statusbar

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/sitewisedb/internal/config"
	"github.com/joacominatel/sitewisedb/internal/tui/theme"
)

// hints are shown whenever there is no message.
const hints = "Ctrl+E: Run │ Tab: Pane │ ?: Help │ q: Quit"

// Model is the status bar component.
type Model struct {
	width      int
	connected  bool
	connName   string
	driverInfo string
	activePane string
	message    string
}

// New creates a new status bar model.
func New() Model {
	return Model{
		activePane: "explorer",
	}
}

// SetWidth updates the component width.
func (m *Model) SetWidth(w int) {
	m.width = w
}

// SetConnected updates the connection status display.
func (m *Model) SetConnected(connected bool, name string) {
	m.connected = connected
	m.connName = name
}

// SetSettings shows the driver modes queries run with.
func (m *Model) SetSettings(s config.Settings) {
	m.driverInfo = DescribeSettings(s)
}

// DescribeSettings renders driver modes compactly, e.g. "odbc3 schema ansi".
func DescribeSettings(s config.Settings) string {
	parts := []string{fmt.Sprintf("odbc%d", s.ODBCVersion)}
	if s.DatabaseAsSchema {
		parts = append(parts, "schema")
	} else {
		parts = append(parts, "catalog")
	}
	if s.AnsiStringOnly {
		parts = append(parts, "ansi")
	} else {
		parts = append(parts, "wide")
	}
	if s.MetadataID {
		parts = append(parts, "id")
	}
	return strings.Join(parts, " ")
}

// SetActivePane updates the displayed active pane name.
func (m *Model) SetActivePane(pane string) {
	m.activePane = pane
}

// SetMessage sets a temporary status message.
func (m *Model) SetMessage(msg string) {
	m.message = msg
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages (status bar has no interactive behavior).
func (m Model) Update(_ tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the status bar.
func (m Model) View() string {
	style := theme.StyleStatusBar.Width(m.width)

	var left string
	if m.connected {
		left = lipgloss.NewStyle().
			Foreground(theme.ColorSuccess).
			Render("●") + " " + m.connName
		if m.driverInfo != "" {
			left += " " + lipgloss.NewStyle().Foreground(theme.ColorSecondary).Render("["+m.driverInfo+"]")
		}
	} else {
		left = lipgloss.NewStyle().
			Foreground(theme.ColorError).
			Render("●") + " disconnected"
	}

	right := hints
	if m.message != "" {
		right = m.message
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4 // borders + spacing
	if padding < 1 {
		padding = 1
	}

	return style.Render(left + strings.Repeat(" ", padding) + right)
}
