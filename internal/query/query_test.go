package query

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/joacominatel/sitewisedb/internal/buffer"
	"github.com/joacominatel/sitewisedb/internal/config"
	"github.com/joacominatel/sitewisedb/internal/database"
	"github.com/joacominatel/sitewisedb/internal/database/memory"
	"github.com/joacominatel/sitewisedb/internal/diag"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

// demoConn connects the demo backend and returns a connection with default
// settings adjusted by mutate.
func demoConn(t *testing.T, pageSize int, mutate func(*config.Settings)) (*Connection, *memory.Driver) {
	t.Helper()

	d := memory.Demo(pageSize)
	if err := d.Connect(context.Background(), "windfarm"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	s := config.DefaultSettings()
	if mutate != nil {
		mutate(&s)
	}
	return NewConnection(d, s), d
}

// fetchColumn reads every remaining row's index column as text; NULL reads as "<null>".
func fetchColumn(t *testing.T, q Query, index int) []string {
	t.Helper()

	buf := buffer.NewChar(256)
	var out []string
	for {
		buf.Reset()
		res := q.FetchNextRow(context.Background(), ColumnBindingMap{index: buf})
		if res == NoData {
			return out
		}
		if !res.OK() {
			t.Fatalf("FetchNextRow = %s", res)
		}
		if buf.IsNull() {
			out = append(out, "<null>")
		} else {
			out = append(out, buf.String())
		}
	}
}

func hasWarning(d *diag.Diagnostics, fragment string) bool {
	for _, w := range d.Warnings() {
		if strings.Contains(w, fragment) {
			return true
		}
	}
	return false
}

// pagedDriver serves a fixed list of pages, one per next token.
type pagedDriver struct {
	mu        sync.Mutex
	pages     []*database.Page
	err       error
	failToken string
	calls     []string
}

func (d *pagedDriver) Connect(context.Context, string) error { return nil }
func (d *pagedDriver) Close() error { return nil }
func (d *pagedDriver) Ping(context.Context) error { return nil }
func (d *pagedDriver) DatabaseName() string { return "paged" }

func (d *pagedDriver) ExecuteQuery(ctx context.Context, sql, token string) (*database.Page, error) {
	d.mu.Lock()
	d.calls = append(d.calls, sql)
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.err != nil {
		return nil, d.err
	}
	if token != "" && token == d.failToken {
		return nil, fmt.Errorf("page %s: throttled", token)
	}
	i := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil {
			return nil, err
		}
		i = n
	}
	if i >= len(d.pages) {
		return nil, fmt.Errorf("no page %d", i)
	}
	p := *d.pages[i]
	if i+1 < len(d.pages) {
		p.NextToken = strconv.Itoa(i + 1)
	}
	return &p, nil
}

func namePage(names ...string) *database.Page {
	p := &database.Page{
		Columns: []database.ColumnInfo{database.ScalarColumn("table_name", sqltype.String)},
		Rows:    []database.Row{},
	}
	for _, n := range names {
		p.Rows = append(p.Rows, database.Row{Data: []database.Datum{database.Scalar(n)}})
	}
	return p
}

func TestResultAndTypeStrings(t *testing.T) {
	t.Parallel()

	cases := map[Result]string{
		Success:         "SUCCESS",
		SuccessWithInfo: "SUCCESS_WITH_INFO",
		Error:           "ERROR",
		NoData:          "NO_DATA",
	}
	for r, want := range cases {
		if r.String() != want {
			t.Errorf("%d.String() = %q, want %q", r, r.String(), want)
		}
	}
	if !Success.OK() || !SuccessWithInfo.OK() || Error.OK() || NoData.OK() {
		t.Errorf("OK() mismatch")
	}
	if TypeColumnMetadata.String() != "COLUMN_METADATA" || Type(99).String() != "UNKNOWN" {
		t.Errorf("Type.String() mismatch")
	}
}

func TestUnsupportedQueries(t *testing.T) {
	t.Parallel()

	conn, _ := demoConn(t, 0, nil)
	cases := []struct {
		build    func(*Connection, *diag.Diagnostics) *UnsupportedQuery
		function string
		columns  int
	}{
		{NewForeignKeysQuery, "SQLForeignKeys", 14},
		{NewPrimaryKeysQuery, "SQLPrimaryKeys", 6},
		{NewSpecialColumnsQuery, "SQLSpecialColumns", 8},
		{NewStatisticsQuery, "SQLStatistics", 13},
		{NewProceduresQuery, "SQLProcedures", 8},
		{NewProcedureColumnsQuery, "SQLProcedureColumns", 19},
		{NewColumnPrivilegesQuery, "SQLColumnPrivileges", 8},
		{NewTablePrivilegesQuery, "SQLTablePrivileges", 7},
	}

	for _, tc := range cases {
		t.Run(tc.function, func(t *testing.T) {
			t.Parallel()

			d := diag.New()
			q := tc.build(conn, d)
			if q.Function() != tc.function {
				t.Errorf("Function() = %q", q.Function())
			}
			if n := len(q.Meta()); n != tc.columns {
				t.Errorf("len(Meta()) = %d, want %d", n, tc.columns)
			}
			if res := q.Execute(context.Background()); res != SuccessWithInfo {
				t.Errorf("Execute = %s", res)
			}
			if !hasWarning(d, tc.function+" is not supported. Return empty result set.") {
				t.Errorf("missing execute warning: %v", d.Warnings())
			}
			if res := q.FetchNextRow(context.Background(), nil); res != NoData {
				t.Errorf("FetchNextRow = %s", res)
			}
			if res := q.GetColumn(1, buffer.NewChar(16)); res != NoData {
				t.Errorf("GetColumn = %s", res)
			}
			if !hasWarning(d, tc.function+" is not supported. No data is returned.") {
				t.Errorf("missing fetch warning: %v", d.Warnings())
			}
			if q.DataAvailable() || q.AffectedRows() != 0 || q.NextResultSet() != NoData {
				t.Errorf("unsupported query reported data")
			}
			if q.Cancel() != Success || q.Close() != Success {
				t.Errorf("Cancel/Close should succeed")
			}
		})
	}
}

func TestUnsupportedQueryNullability(t *testing.T) {
	t.Parallel()

	conn, _ := demoConn(t, 0, nil)
	q := NewPrimaryKeysQuery(conn, diag.New())
	cols := q.Meta()
	if cols[0].Name() != "TABLE_CAT" || cols[0].NullableCode() != 1 {
		t.Errorf("TABLE_CAT = %s nullable %d", cols[0].Name(), cols[0].NullableCode())
	}
	if cols[4].Name() != "KEY_SEQ" || cols[4].NullableCode() != 0 {
		t.Errorf("KEY_SEQ = %s nullable %d", cols[4].Name(), cols[4].NullableCode())
	}
	if code, _ := cols[4].SQLType(); code != 4 {
		t.Errorf("KEY_SEQ sql type = %d, want INTEGER", code)
	}
}

func TestStatisticsLabels(t *testing.T) {
	t.Parallel()

	conn, _ := demoConn(t, 0, func(s *config.Settings) { s.ODBCVersion = 2 })
	cols := NewStatisticsQuery(conn, diag.New()).Meta()
	want := map[int]string{0: "TABLE_QUALIFIER", 1: "TABLE_OWNER", 7: "SEQ_IN_INDEX", 9: "COLLATION"}
	for i, name := range want {
		if cols[i].Name() != name {
			t.Errorf("column %d = %q, want %q", i, cols[i].Name(), name)
		}
	}

	conn3, _ := demoConn(t, 0, nil)
	cols = NewStatisticsQuery(conn3, diag.New()).Meta()
	if cols[7].Name() != "ORDINAL_POSITION" || cols[9].Name() != "ASC_OR_DESC" {
		t.Errorf("ODBC 3 labels = %s, %s", cols[7].Name(), cols[9].Name())
	}
}
