package editor

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// runCmd resolves cmd to its messages, unpacking batches.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func withTables() Model {
	m := New()
	m.SetTableNames([]string{"asset", "asset_property", "raw_time_series", "latest_value_time_series"})
	return m
}

func TestLex(t *testing.T) {
	t.Parallel()

	toks := significant(lex("SELECT 'it''s', \"a b\" -- note\nFROM t1"))
	want := []token{
		{tokWord, "SELECT"},
		{tokString, "'it''s'"},
		{tokSymbol, ","},
		{tokIdent, `"a b"`},
		{tokWord, "FROM"},
		{tokWord, "t1"},
	}
	if len(toks) != len(want) {
		t.Fatalf("tokens = %v, want %v", toks, want)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Errorf("token %d = %+v, want %+v", i, toks[i], want[i])
		}
	}

	if name, _ := toks[3].name(); name != "a b" {
		t.Errorf("quoted identifier name = %q", name)
	}
	if last := lex("SELECT 'open"); last[len(last)-1].text != "'open" {
		t.Errorf("unterminated literal = %q", last[len(last)-1].text)
	}
}

func TestReferencedTables(t *testing.T) {
	t.Parallel()

	refs := referencedTables(lex(`SELECT * FROM asset a, "raw_time_series" AS r JOIN asset_property p ON p.asset_id = a.asset_id WHERE 1 = 1`))
	want := []tableRef{{"asset", "a"}, {"raw_time_series", "r"}, {"asset_property", "p"}}
	if len(refs) != len(want) {
		t.Fatalf("refs = %+v, want %+v", refs, want)
	}
	for i := range want {
		if refs[i] != want[i] {
			t.Errorf("ref %d = %+v, want %+v", i, refs[i], want[i])
		}
	}
	if got := resolveQualifier("R", refs); got != "raw_time_series" {
		t.Errorf("resolveQualifier(R) = %q", got)
	}
	if got := resolveQualifier("unknown", refs); got != "unknown" {
		t.Errorf("resolveQualifier(unknown) = %q", got)
	}
}

func TestReadOnlyViolation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		sql  string
		word string
	}{
		{"SELECT * FROM asset", ""},
		{"with x AS (SELECT 1) SELECT * FROM x", ""},
		{"(SELECT 1)", ""},
		{"SELECT 'delete' FROM asset", ""},
		{"-- drop table\nSELECT 1", ""},
		{"insert into asset values (1)", "INSERT"},
		{"SELECT 1; DROP TABLE asset", "DROP"},
	}
	for _, tc := range cases {
		notice, bad := readOnlyViolation(tc.sql)
		if bad != (tc.word != "") {
			t.Errorf("readOnlyViolation(%q) = %q, %v", tc.sql, notice, bad)
			continue
		}
		if !bad {
			continue
		}
		if !strings.HasPrefix(notice, "01000: ") || !strings.Contains(notice, tc.word+" is not supported") {
			t.Errorf("notice for %q = %q", tc.sql, notice)
		}
	}
}

func TestExecuteBlocksWrites(t *testing.T) {
	t.Parallel()

	m := New()
	m.SetFocused(true)
	m.SetQuery("UPDATE asset SET asset_name = 'x'")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	if cmd != nil {
		t.Fatal("a write statement should not be executed")
	}
	if !strings.Contains(m.Notice(), "UPDATE is not supported") || !strings.Contains(m.View(), "01000") {
		t.Errorf("notice = %q", m.Notice())
	}

	m.SetQuery("SELECT * FROM asset")
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlE})
	if m.Notice() != "" {
		t.Errorf("notice should clear on the next key, got %q", m.Notice())
	}
	msgs := runCmd(cmd)
	if len(msgs) != 1 || msgs[0].(ExecuteQueryMsg).Query != "SELECT * FROM asset" {
		t.Errorf("execute = %v", msgs)
	}
}

func TestFormatKeywords(t *testing.T) {
	t.Parallel()

	m := New()
	m.SetQuery("select 'from' from asset where x is null -- order by")
	m.formatKeywords()
	want := "SELECT 'from' FROM asset WHERE x IS NULL -- order by"
	if got := m.Value(); got != want {
		t.Errorf("formatKeywords = %q, want %q", got, want)
	}
}

func TestCompleteKeywordAndTable(t *testing.T) {
	t.Parallel()

	m := withTables()
	m.SetQuery("sel")
	if ok, _ := m.Complete(); !ok || m.Value() != "SELECT" {
		t.Errorf("keyword completion = %q, %v", m.Value(), ok)
	}

	m = withTables()
	m.SetQuery("SELECT * FROM asset_p")
	if ok, cmd := m.Complete(); !ok || cmd != nil {
		t.Fatalf("table completion = %v, %v", ok, cmd)
	}
	if m.Value() != "SELECT * FROM asset_property" {
		t.Errorf("table completion = %q", m.Value())
	}

	m = withTables()
	m.SetQuery("SELECT * FROM as")
	m.Complete()
	first := m.Value()
	m.Complete()
	if first != "SELECT * FROM asset" || m.Value() != "SELECT * FROM asset_property" {
		t.Errorf("cycling = %q then %q", first, m.Value())
	}
}

func TestCompleteColumns(t *testing.T) {
	t.Parallel()

	m := withTables()
	m.SetQuery("SELECT * FROM raw_time_series r WHERE r.dou")
	ok, cmd := m.Complete()
	if !ok || m.Notice() != "Loading columns..." {
		t.Fatalf("unknown columns = %v, notice %q", ok, m.Notice())
	}
	msgs := runCmd(cmd)
	if len(msgs) != 1 || msgs[0].(RequestColumnsMsg).Table != "raw_time_series" {
		t.Fatalf("requests = %v", msgs)
	}
	if ok, cmd := m.Complete(); ok || cmd != nil {
		t.Error("a pending table should not be requested twice")
	}

	m.SetColumns("raw_time_series", []string{"asset_id", "property_id", "double_value", "event_timestamp"})
	if ok, _ := m.Complete(); !ok {
		t.Fatal("columns should complete once loaded")
	}
	if got := m.Value(); got != "SELECT * FROM raw_time_series r WHERE r.double_value" {
		t.Errorf("column completion = %q", got)
	}

	m = withTables()
	m.SetColumns("asset", []string{"asset_id", "asset_name"})
	m.SetColumns("asset_property", []string{"asset_id", "property_name"})
	m.SetQuery("SELECT * FROM asset a JOIN asset_property p ON a.asset_id = p.asset_id WHERE asset")
	m.Complete()
	if m.completions == nil || len(m.completions) != 2 {
		t.Errorf("completions = %v, want asset_id and asset_name once each", m.completions)
	}
}

func TestSetTableNamesDropsColumns(t *testing.T) {
	t.Parallel()

	m := withTables()
	m.SetColumns("asset", []string{"asset_id"})
	m.SetTableNames([]string{"asset"})
	m.SetQuery("SELECT * FROM asset WHERE asset_")
	_, cmd := m.Complete()
	if msgs := runCmd(cmd); len(msgs) != 1 {
		t.Errorf("columns should be requested again, got %v", msgs)
	}
}
