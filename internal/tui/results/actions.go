package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/sitewisedb/internal/app"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

func (m Model) selectedCell() (app.Cell, string, string, bool) {
	if m.result == nil || m.cursorY < 0 || m.cursorY >= len(m.result.Rows) {
		return app.Cell{}, "", "", false
	}
	row := m.result.Rows[m.cursorY]
	if m.cursorX < 0 || m.cursorX >= len(row) || m.cursorX >= len(m.result.Columns) {
		return app.Cell{}, "", "", false
	}
	return row[m.cursorX], m.result.Columns[m.cursorX], typeAt(m.result.Types, m.cursorX), true
}

func (m Model) selectedRow() ([]app.Cell, bool) {
	if m.result == nil || m.cursorY < 0 || m.cursorY >= len(m.result.Rows) {
		return nil, false
	}
	return m.result.Rows[m.cursorY], true
}

func (m *Model) copyText(text, what string) {
	if err := writeClipboard(text); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.statusMessage = "Copied " + what
}

func (m *Model) doCopyCell() {
	cell, col, _, ok := m.selectedCell()
	switch {
	case !ok:
		m.statusMessage = "Nothing to copy"
	case cell.Null:
		m.statusMessage = col + " is NULL, nothing copied"
	default:
		m.copyText(cell.Text, col+": "+truncateStatus(cell.Text, 40))
	}
}

func (m *Model) doCopyRowText() {
	row, ok := m.selectedRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	parts := make([]string, len(row))
	for i, c := range row {
		parts[i] = c.String()
	}
	m.copyText(strings.Join(parts, "\t"), "row as text")
}

func (m *Model) doCopyRowJSON() {
	row, ok := m.selectedRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	m.copyText(rowToJSON(m.result.Columns, m.result.Types, row), "row as JSON")
}

func (m *Model) doCopyRowCSV() {
	row, ok := m.selectedRow()
	if !ok {
		m.statusMessage = "No row to copy"
		return
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(m.result.Columns)
	_ = w.Write(csvRecord(row))
	w.Flush()
	m.copyText(b.String(), "row as CSV")
}

// filterQuery builds a query over the table of the last statement that keeps
// rows equal to the selected cell.
func (m Model) filterQuery() (string, error) {
	cell, col, typeName, ok := m.selectedCell()
	if !ok {
		return "", fmt.Errorf("no cell selected")
	}
	table, ok := extractTableName(m.lastQuery)
	if !ok {
		return "", fmt.Errorf("the last statement reads no table")
	}
	cond := col + " IS NULL"
	if !cell.Null {
		cond = col + " = " + literal(cell, typeName)
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE %s", table, cond), nil
}

func (m *Model) doFilterByValue() tea.Cmd {
	query, err := m.filterQuery()
	if err != nil {
		m.statusMessage = "Cannot filter: " + err.Error()
		return nil
	}
	return func() tea.Msg {
		return SetEditorQueryMsg{Query: query, Run: true}
	}
}

func exportName(ext string) string {
	return fmt.Sprintf("sitewisedb_export_%s.%s", time.Now().Format("20060102_150405"), ext)
}

func (m Model) exportJSONCmd() tea.Cmd {
	result := m.result
	if result == nil {
		return nil
	}
	return func() tea.Msg {
		filename := exportName("json")
		if err := writeJSON(filename, result); err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error(), Failed: true}
		}
		return StatusNotifyMsg{Message: fmt.Sprintf("Exported %d rows to %s", len(result.Rows), filename)}
	}
}

func writeJSON(filename string, result *app.ResultSet) error {
	var b strings.Builder
	b.WriteString("[")
	for i, row := range result.Rows {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n  ")
		b.WriteString(rowToJSON(result.Columns, result.Types, row))
	}
	b.WriteString("\n]\n")
	return os.WriteFile(filename, []byte(b.String()), 0o644)
}

func (m Model) exportCSVCmd() tea.Cmd {
	result := m.result
	if result == nil {
		return nil
	}
	return func() tea.Msg {
		filename := exportName("csv")
		if err := writeCSV(filename, result); err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error(), Failed: true}
		}
		return StatusNotifyMsg{Message: fmt.Sprintf("Exported %d rows to %s", len(result.Rows), filename)}
	}
}

func writeCSV(filename string, result *app.ResultSet) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	_ = w.Write(result.Columns)
	for _, row := range result.Rows {
		_ = w.Write(csvRecord(row))
	}
	w.Flush()
	return w.Error()
}

// extractTableName finds the table after the first FROM of a query.
func extractTableName(query string) (string, bool) {
	tokens := strings.Fields(query)
	for i, tok := range tokens {
		if strings.EqualFold(tok, "FROM") && i+1 < len(tokens) {
			name := strings.TrimRight(tokens[i+1], ";,()")
			if name != "" {
				return name, true
			}
		}
	}
	return "", false
}

func truncateStatus(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
