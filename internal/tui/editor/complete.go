package editor

import (
	"maps"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// RequestColumnsMsg asks the app to load the columns of Table so they can be
// offered as completions.
type RequestColumnsMsg struct {
	Table string
}

type completionKind int

const (
	completeKeyword completionKind = iota
	completeTable
	completeColumn
)

// completion describes what the word being typed can be completed to.
type completion struct {
	kind    completionKind
	partial string
	tables  []string
}

// keywordList is the uppercased keyword table, sorted for stable cycling.
var keywordList = func() []string {
	out := make([]string, 0, len(sqlKeywords))
	for _, k := range slices.Sorted(maps.Keys(sqlKeywords)) {
		out = append(out, strings.ToUpper(k))
	}
	return out
}()

// clauseKeywords decide whether a position expects tables or columns.
var clauseKeywords = map[string]completionKind{
	"from":   completeTable,
	"join":   completeTable,
	"select": completeColumn,
	"where":  completeColumn,
	"on":     completeColumn,
	"by":     completeColumn,
	"having": completeColumn,
}

// completionAt works out the completion context at the end of toks.
func completionAt(toks []token) (completion, bool) {
	if len(toks) == 0 {
		return completion{}, false
	}

	var c completion
	rest := toks
	switch last := toks[len(toks)-1]; {
	case last.kind == tokWord:
		c.partial = last.text
		rest = toks[:len(toks)-1]
	case last.text == ".":
	default:
		return completion{}, false
	}

	sig := significant(rest)
	refs := referencedTables(toks)

	// alias.col
	if n := len(sig); n >= 2 && sig[n-1].text == "." {
		q, ok := sig[n-2].name()
		if !ok {
			return completion{}, false
		}
		c.kind = completeColumn
		c.tables = []string{resolveQualifier(q, refs)}
		return c, true
	}
	if c.partial == "" {
		return completion{}, false
	}

	clause, found := completeKeyword, false
	for i := len(sig) - 1; i >= 0 && !found; i-- {
		if sig[i].kind == tokWord {
			clause, found = clauseKeywords[strings.ToLower(sig[i].text)]
		}
	}
	if !found {
		c.kind = completeKeyword
		return c, true
	}

	switch clause {
	case completeTable:
		prev := sig[len(sig)-1]
		if !prev.is("from") && !prev.is("join") && prev.text != "," {
			return completion{}, false
		}
		c.kind = completeTable
	default:
		c.kind = completeColumn
		for _, r := range refs {
			c.tables = append(c.tables, r.table)
		}
		if len(c.tables) == 0 {
			c.kind = completeKeyword
		}
	}
	return c, true
}

// Complete completes the word at the end of the query. Repeated calls cycle
// through the candidates. Columns of tables not seen yet are requested
// through the returned command.
func (m *Model) Complete() (bool, tea.Cmd) {
	if m.completing && len(m.completions) > 0 {
		m.compIndex = (m.compIndex + 1) % len(m.completions)
		m.applyCompletion()
		return true, nil
	}

	val := m.textarea.Value()
	c, ok := completionAt(lex(val))
	if !ok {
		return false, nil
	}

	var candidates []string
	var cmd tea.Cmd
	switch c.kind {
	case completeTable:
		candidates = m.tables
	case completeColumn:
		var missing []string
		candidates, missing = m.columnsOf(c.tables)
		cmd = m.requestColumns(missing)
	default:
		candidates = keywordList
	}

	lower := strings.ToLower(c.partial)
	var matches []string
	for _, cand := range candidates {
		if strings.HasPrefix(strings.ToLower(cand), lower) {
			matches = append(matches, cand)
		}
	}
	if len(matches) == 0 {
		if cmd != nil {
			m.notice = "Loading columns..."
			return true, cmd
		}
		return false, nil
	}

	m.completing = true
	m.completions = matches
	m.compIndex = 0
	m.base = strings.TrimSuffix(val, c.partial)
	m.applyCompletion()
	return true, cmd
}

// columnsOf returns the known columns of tables in table order, plus the
// tables whose columns are not loaded yet.
func (m *Model) columnsOf(tables []string) ([]string, []string) {
	var out, missing []string
	seen := make(map[string]bool)
	for _, t := range tables {
		cols, ok := m.columns[strings.ToLower(t)]
		if !ok {
			missing = append(missing, t)
			continue
		}
		for _, c := range cols {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out, missing
}

func (m *Model) requestColumns(tables []string) tea.Cmd {
	var cmds []tea.Cmd
	for _, t := range tables {
		key := strings.ToLower(t)
		if m.pending[key] {
			continue
		}
		m.pending[key] = true
		cmds = append(cmds, func() tea.Msg { return RequestColumnsMsg{Table: t} })
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

func (m *Model) applyCompletion() {
	if len(m.completions) == 0 {
		return
	}
	m.textarea.SetValue(m.base + m.completions[m.compIndex])
}

func (m *Model) cancelCompletion() {
	m.completing = false
	m.completions = nil
	m.compIndex = 0
	m.base = ""
}
