package explorer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joacominatel/sitewisedb/internal/app"
	"github.com/joacominatel/sitewisedb/internal/tui/theme"
)

// NodeKind identifies the type of a tree node.
type NodeKind int

const (
	NodeDatabase NodeKind = iota
	NodeTable
	NodeColumn
)

// TreeNode represents a single node in the schema tree.
type TreeNode struct {
	Kind     NodeKind
	Name     string
	Children []*TreeNode
	Expanded bool
	Loaded   bool // whether children have been fetched

	// Metadata
	Table    string // parent table name (for columns)
	DataType string // column data type
	Nullable bool   // column accepts NULL
	RowCount int64  // table row count, -1 until counted
}

// flatItem is a visible item in the flattened tree view.
type flatItem struct {
	node  *TreeNode
	depth int
}

// Model is the explorer (schema tree) component.
type Model struct {
	tree    *TreeNode
	items   []flatItem
	cursor  int
	width   int
	height  int
	focused bool
	loading bool
}

// New creates a new explorer model.
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

// Focused returns whether the explorer has focus.
func (m Model) Focused() bool {
	return m.focused
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

// QuickQueryMsg asks the app to run a query built from the selected table.
type QuickQueryMsg struct {
	Query string
}

// KeysMsg asks the app for the primary or foreign keys of a table.
type KeysMsg struct {
	Table   string
	Foreign bool
}

// DescribeColumnMsg asks the app to show the descriptor of a column.
type DescribeColumnMsg struct {
	Table  string
	Column string
}

// SetTree populates the explorer from a schema tree.
func (m *Model) SetTree(schema *app.SchemaTree) {
	root := &TreeNode{
		Kind:     NodeDatabase,
		Name:     schema.Database,
		Expanded: true,
		Loaded:   true,
	}

	for _, t := range schema.Tables {
		root.Children = append(root.Children, &TreeNode{
			Kind:     NodeTable,
			Name:     t.Name,
			Loaded:   false,
			RowCount: -1,
		})
	}

	m.tree = root
	m.flatten()
	m.loading = false
}

// SetColumns adds column nodes to a table node.
func (m *Model) SetColumns(table string, columns []app.Column) {
	m.visitTable(table, func(node *TreeNode) {
		node.Children = nil
		for _, col := range columns {
			node.Children = append(node.Children, &TreeNode{
				Kind:     NodeColumn,
				Name:     col.Name,
				Table:    table,
				DataType: col.TypeName,
				Nullable: col.Nullable,
			})
		}
		node.Loaded = true
	})
	m.flatten()
}

// SetRowCount records the row count of a table node.
func (m *Model) SetRowCount(table string, count int64) {
	m.visitTable(table, func(node *TreeNode) {
		node.RowCount = count
	})
}

func (m *Model) visitTable(table string, fn func(*TreeNode)) {
	if m.tree == nil {
		return
	}
	for _, t := range m.tree.Children {
		if t.Name == table {
			fn(t)
			return
		}
	}
}

// SelectedTable returns the table name of the currently selected table or
// column node, if any.
func (m Model) SelectedTable() (table string, ok bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return "", false
	}
	node := m.items[m.cursor].node
	switch node.Kind {
	case NodeTable:
		return node.Name, true
	case NodeColumn:
		return node.Table, true
	}
	return "", false
}

// flatten rebuilds the flat item list from the tree.
func (m *Model) flatten() {
	m.items = nil
	if m.tree != nil {
		m.flattenNode(m.tree, 0)
	}
	if m.cursor >= len(m.items) {
		m.cursor = max(0, len(m.items)-1)
	}
}

func (m *Model) flattenNode(node *TreeNode, depth int) {
	m.items = append(m.items, flatItem{node: node, depth: depth})
	if node.Expanded {
		for _, child := range node.Children {
			m.flattenNode(child, depth+1)
		}
	}
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the explorer.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter", "right", "l":
			return m, m.toggleExpand()
		case "left", "h":
			return m, m.collapse()
		case "s":
			if table, ok := m.SelectedTable(); ok {
				q := fmt.Sprintf("SELECT * FROM %s LIMIT 100", table)
				return m, func() tea.Msg { return QuickQueryMsg{Query: q} }
			}
		case "d":
			if table, ok := m.SelectedTable(); ok {
				return m, func() tea.Msg { return requestRowCountMsg{Table: table} }
			}
		case "p", "F":
			if table, ok := m.SelectedTable(); ok {
				km := KeysMsg{Table: table, Foreign: msg.String() == "F"}
				return m, func() tea.Msg { return km }
			}
		case "i":
			if m.cursor >= 0 && m.cursor < len(m.items) {
				if node := m.items[m.cursor].node; node.Kind == NodeColumn {
					msg := DescribeColumnMsg{Table: node.Table, Column: node.Name}
					return m, func() tea.Msg { return msg }
				}
			}
		}
	}

	return m, nil
}

func (m *Model) toggleExpand() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	node := m.items[m.cursor].node

	// Columns have no children
	if node.Kind == NodeColumn {
		return nil
	}

	if node.Expanded {
		node.Expanded = false
		m.flatten()
		return nil
	}

	node.Expanded = true
	m.flatten()

	// If this is a table and columns aren't loaded yet, request them
	if node.Kind == NodeTable && !node.Loaded {
		table := node.Name
		return func() tea.Msg {
			return requestColumnsMsg{Table: table}
		}
	}

	return nil
}

func (m *Model) collapse() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	node := m.items[m.cursor].node

	if node.Expanded {
		node.Expanded = false
		m.flatten()
	}
	return nil
}

// requestColumnsMsg is sent when a table is expanded and needs column data.
type requestColumnsMsg struct {
	Table string
}

// requestRowCountMsg is sent when the row count of a table is asked for.
type requestRowCountMsg struct {
	Table string
}

// IsRequestColumnsMsg reports whether msg asks for the columns of a table.
func IsRequestColumnsMsg(msg tea.Msg) (table string, ok bool) {
	if m, ok := msg.(requestColumnsMsg); ok {
		return m.Table, true
	}
	return "", false
}

// IsRequestRowCountMsg reports whether msg asks for the row count of a table.
func IsRequestRowCountMsg(msg tea.Msg) (table string, ok bool) {
	if m, ok := msg.(requestRowCountMsg); ok {
		return m.Table, true
	}
	return "", false
}

// View renders the explorer.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Padding(0, 1)

	title := titleStyle.Render("Schema Explorer")

	if m.loading {
		return title + "\n" + theme.StyleMuted.Render("  Loading...")
	}

	if m.tree == nil {
		return title + "\n" + theme.StyleMuted.Render("  No connection")
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")

	// Calculate visible area
	visibleHeight := m.height - 2 // title + padding
	if visibleHeight < 1 {
		visibleHeight = 1
	}

	// Scroll offset to keep cursor visible
	scrollOffset := 0
	if m.cursor >= visibleHeight {
		scrollOffset = m.cursor - visibleHeight + 1
	}

	for i := scrollOffset; i < len(m.items) && i < scrollOffset+visibleHeight; i++ {
		item := m.items[i]
		line := m.renderNode(item, i == m.cursor)
		b.WriteString(line)
		if i < scrollOffset+visibleHeight-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (m Model) renderNode(item flatItem, selected bool) string {
	node := item.node
	indent := strings.Repeat("  ", item.depth)

	var icon string
	switch node.Kind {
	case NodeDatabase:
		if node.Expanded {
			icon = "▼ "
		} else {
			icon = "▶ "
		}
	case NodeTable:
		if node.Expanded {
			icon = "▼ "
		} else {
			icon = "▶ "
		}
	case NodeColumn:
		icon = "  "
	}

	name := node.Name
	muted := lipgloss.NewStyle().Foreground(theme.ColorMuted)
	switch {
	case node.Kind == NodeColumn && node.DataType != "":
		typ := node.DataType
		if !node.Nullable {
			typ += " not null"
		}
		name = fmt.Sprintf("%s %s", node.Name, muted.Render(typ))
	case node.Kind == NodeTable && node.RowCount >= 0:
		name = fmt.Sprintf("%s %s", node.Name, muted.Render(fmt.Sprintf("(%d)", node.RowCount)))
	}

	line := indent + icon + name

	// Truncate to width
	if m.width > 0 && lipgloss.Width(line) > m.width-2 {
		line = line[:m.width-4] + ".."
	}

	if selected {
		return lipgloss.NewStyle().
			Foreground(theme.ColorHighlight).
			Bold(true).
			Render(line)
	}

	return line
}
