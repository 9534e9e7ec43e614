package query

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/joacominatel/sitewisedb/internal/buffer"
	"github.com/joacominatel/sitewisedb/internal/config"
	"github.com/joacominatel/sitewisedb/internal/diag"
	"github.com/joacominatel/sitewisedb/internal/opt"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

func TestColumnQueryAllColumns(t *testing.T) {
	t.Parallel()

	conn, drv := demoConn(t, 0, nil)
	d := diag.New()
	q := NewColumnMetadataQuery(conn, d, none, none, opt.Some("raw_time_series"), none)

	if res := q.Execute(context.Background()); res != Success {
		t.Fatalf("Execute = %s (%v)", res, d.Records())
	}

	rows := q.Rows()
	if len(rows) != 8 {
		t.Fatalf("columns = %d, want 8", len(rows))
	}
	for i, c := range rows {
		if pos, _ := c.OrdinalPosition.Get(); pos != int32(i+1) {
			t.Errorf("%s ordinal = %d, want %d", c.Name(), pos, i+1)
		}
	}
	if rows[0].Name() != "asset_id" || rows[0].NullableCode() != sqltype.NoNulls {
		t.Errorf("asset_id = %+v", rows[0])
	}
	if rows[5].Name() != "int_value" || rows[5].NullableCode() != sqltype.Nullable {
		t.Errorf("int_value = %+v", rows[5])
	}

	want := []string{
		"SELECT table_name FROM system.tables WHERE table_name LIKE 'raw_time_series'",
		"SELECT column_name FROM system.columns WHERE table_name = 'raw_time_series'",
	}
	if got := drv.Statements(); !slices.Equal(got, want) {
		t.Errorf("statements = %q", got)
	}
}

func TestColumnQueryRowShape(t *testing.T) {
	t.Parallel()

	conn, _ := demoConn(t, 0, nil)
	q := NewColumnMetadataQuery(conn, diag.New(), none, none, opt.Some("asset"), opt.Some("asset_id"))
	if res := q.Execute(context.Background()); res != Success {
		t.Fatalf("Execute = %s", res)
	}
	if len(q.Meta()) != 18 {
		t.Errorf("len(Meta()) = %d", len(q.Meta()))
	}

	text := func() *buffer.Buffer { return buffer.NewChar(64) }
	num := func() *buffer.Buffer { return buffer.New(buffer.KindInt32, 0) }
	bindings := ColumnBindingMap{
		ColumnsTableCat:        text(),
		ColumnsTableSchem:      text(),
		ColumnsTableName:       text(),
		ColumnsColumnName:      text(),
		ColumnsDataType:        num(),
		ColumnsTypeName:        text(),
		ColumnsColumnSize:      num(),
		ColumnsBufferLength:    num(),
		ColumnsDecimalDigits:   num(),
		ColumnsNumPrecRadix:    num(),
		ColumnsNullable:        num(),
		ColumnsRemarks:         text(),
		ColumnsColumnDef:       text(),
		ColumnsSQLDataType:     num(),
		ColumnsSQLDatetimeSub:  num(),
		ColumnsCharOctetLength: num(),
		ColumnsOrdinalPosition: num(),
		ColumnsIsNullable:      text(),
	}
	if res := q.FetchNextRow(context.Background(), bindings); res != Success {
		t.Fatalf("FetchNextRow = %s", res)
	}

	for _, idx := range []int{ColumnsTableCat, ColumnsTableSchem, ColumnsColumnDef, ColumnsDecimalDigits, ColumnsSQLDatetimeSub} {
		if !bindings[idx].IsNull() {
			t.Errorf("column %d = %v, want NULL", idx, bindings[idx].Value())
		}
	}
	texts := map[int]string{
		ColumnsTableName:  "asset",
		ColumnsColumnName: "asset_id",
		ColumnsRemarks:    "asset",
		ColumnsIsNullable: "NO",
	}
	for idx, want := range texts {
		if got := bindings[idx].String(); got != want {
			t.Errorf("column %d = %q, want %q", idx, got, want)
		}
	}
	ints := map[int]int64{
		ColumnsDataType:        int64(sqltype.SQLVarchar),
		ColumnsSQLDataType:     int64(sqltype.SQLVarchar),
		ColumnsColumnSize:      sqltype.MaxLength,
		ColumnsBufferLength:    sqltype.MaxLength,
		ColumnsCharOctetLength: sqltype.MaxLength,
		ColumnsNullable:        sqltype.NoNulls,
		ColumnsNumPrecRadix:    0,
		ColumnsOrdinalPosition: 1,
	}
	for idx, want := range ints {
		if got, _ := bindings[idx].Int64(); got != want {
			t.Errorf("column %d = %d, want %d", idx, got, want)
		}
	}
	if res := q.GetColumn(19, text()); res != Error {
		t.Errorf("GetColumn(19) = %s", res)
	}
}

func TestColumnQueryPatterns(t *testing.T) {
	t.Parallel()

	conn, _ := demoConn(t, 0, nil)

	q := NewColumnMetadataQuery(conn, diag.New(), none, none, opt.Some("raw_time_series"), opt.Some("%_VALUE"))
	if res := q.Execute(context.Background()); res != Success {
		t.Fatalf("Execute = %s", res)
	}
	got := fetchColumn(t, q, ColumnsColumnName)
	want := []string{"boolean_value", "int_value", "double_value", "string_value"}
	if !slices.Equal(got, want) {
		t.Errorf("columns = %v, want %v", got, want)
	}
	for i, c := range q.Rows() {
		if pos, _ := c.OrdinalPosition.Get(); pos != int32(i+1) {
			t.Errorf("%s ordinal = %d", c.Name(), pos)
		}
	}

	// Empty strings behave like the % wildcard.
	empty := opt.Some("")
	q = NewColumnMetadataQuery(conn, diag.New(), empty, empty, opt.Some("%time_series"), empty)
	if res := q.Execute(context.Background()); res != Success {
		t.Fatalf("Execute = %s", res)
	}
	if got := fetchColumn(t, q, ColumnsTableName); len(got) != 16 || got[0] != "raw_time_series" || got[15] != "latest_value_time_series" {
		t.Errorf("tables = %v", got)
	}
}

func TestColumnQueryIdempotent(t *testing.T) {
	t.Parallel()

	listing := func(t *testing.T, q *ColumnMetadataQuery) []string {
		t.Helper()
		if res := q.Execute(context.Background()); res != Success {
			t.Fatalf("Execute = %s", res)
		}
		table, column, position := buffer.NewChar(64), buffer.NewChar(64), buffer.NewChar(64)
		bindings := ColumnBindingMap{
			ColumnsTableName:       table,
			ColumnsColumnName:      column,
			ColumnsOrdinalPosition: position,
		}
		var out []string
		for q.FetchNextRow(context.Background(), bindings) == Success {
			out = append(out, table.String()+"."+column.String()+"#"+position.String())
		}
		return out
	}

	tests := []struct {
		name   string
		table  string
		column string
		want   int
	}{
		{"every table", "%", "%", 28},
		{"column pattern", "%time_series", "%_value", 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, _ := demoConn(t, 3, nil)
			q := NewColumnMetadataQuery(conn, diag.New(), none, none, opt.Some(tt.table), opt.Some(tt.column))

			first := listing(t, q)
			if len(first) != tt.want {
				t.Fatalf("columns = %d, want %d: %v", len(first), tt.want, first)
			}
			q.Close()
			if second := listing(t, q); !slices.Equal(first, second) {
				t.Errorf("re-execute = %v, want %v", second, first)
			}
			// Executing again without Close resets the cursor too.
			if third := listing(t, q); !slices.Equal(first, third) {
				t.Errorf("third execute = %v, want %v", third, first)
			}
		})
	}
}

func TestColumnQueryRejections(t *testing.T) {
	t.Parallel()

	conn, drv := demoConn(t, 0, nil)

	d := diag.New()
	q := NewColumnMetadataQuery(conn, d, opt.Some("factory"), none, opt.Some("asset"), none)
	if res := q.Execute(context.Background()); res != SuccessWithInfo {
		t.Errorf("catalog Execute = %s", res)
	}
	if !hasWarning(d, `catalog is set to "factory"`) {
		t.Errorf("warnings = %v", d.Warnings())
	}
	if res := q.FetchNextRow(context.Background(), nil); res != NoData {
		t.Errorf("FetchNextRow = %s", res)
	}
	if len(drv.Statements()) != 0 {
		t.Errorf("rejected catalog reached the backend")
	}

	catConn, _ := demoConn(t, 0, func(s *config.Settings) { s.DatabaseAsSchema = false })
	d = diag.New()
	q = NewColumnMetadataQuery(catConn, d, none, opt.Some("public"), opt.Some("asset"), none)
	if res := q.Execute(context.Background()); res != SuccessWithInfo || !hasWarning(d, `schema is set to "public"`) {
		t.Errorf("schema Execute = %s, warnings %v", res, d.Warnings())
	}

	// The wildcard catalog is not a rejection.
	q = NewColumnMetadataQuery(conn, diag.New(), opt.Some("%"), none, opt.Some("asset"), none)
	if res := q.Execute(context.Background()); res != Success {
		t.Errorf("wildcard catalog Execute = %s", res)
	}
}

func TestColumnQueryNoMatches(t *testing.T) {
	t.Parallel()

	conn, _ := demoConn(t, 0, nil)

	d := diag.New()
	q := NewColumnMetadataQuery(conn, d, none, none, opt.Some("asset"), opt.Some("missing"))
	if res := q.Execute(context.Background()); res != SuccessWithInfo {
		t.Errorf("Execute = %s", res)
	}
	if !hasWarning(d, "No columns with name 'missing' found") {
		t.Errorf("warnings = %v", d.Warnings())
	}

	d = diag.New()
	q = NewColumnMetadataQuery(conn, d, none, none, opt.Some("nope"), none)
	if res := q.Execute(context.Background()); res != SuccessWithInfo {
		t.Errorf("Execute = %s", res)
	}
	if !hasWarning(d, "No columns with name '%' found") {
		t.Errorf("warnings = %v", d.Warnings())
	}
}

func TestColumnQueryBackendErrors(t *testing.T) {
	t.Parallel()

	conn, drv := demoConn(t, 0, nil)
	drv.FailOn("system.tables", errors.New("throttled"))
	d := diag.New()
	q := NewColumnMetadataQuery(conn, d, none, none, opt.Some("asset"), none)
	if res := q.Execute(context.Background()); res != SuccessWithInfo {
		t.Errorf("Execute = %s", res)
	}
	if !hasWarning(d, "Failed to get table metadata for asset") {
		t.Errorf("warnings = %v", d.Warnings())
	}

	conn, drv = demoConn(t, 0, nil)
	drv.FailOn("system.columns", errors.New("throttled"))
	d = diag.New()
	q = NewColumnMetadataQuery(conn, d, none, none, opt.Some("asset"), none)
	var logged bytes.Buffer
	q.log = slog.New(slog.NewTextHandler(&logged, nil))
	if res := q.Execute(context.Background()); res != SuccessWithInfo {
		t.Errorf("Execute = %s", res)
	}
	if !hasWarning(d, "No columns with name '%' found") {
		t.Errorf("warnings = %v", d.Warnings())
	}
	if out := logged.String(); !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "table=asset") {
		t.Errorf("a failed column listing should be logged as an error, got %q", out)
	}
}

func TestColumnQueryMetadataID(t *testing.T) {
	t.Parallel()

	conn, _ := demoConn(t, 0, func(s *config.Settings) { s.MetadataID = true })
	empty := opt.Some("")

	cases := []struct {
		catalog, schema, table, column opt.Value[string]
		message                        string
	}{
		{none, none, opt.Some("asset"), opt.Some("asset_id"), "The SchemaName cannot be NULL."},
		{none, empty, none, opt.Some("asset_id"), "The TableName cannot be NULL."},
		{none, empty, opt.Some("asset"), none, "The ColumnName cannot be NULL."},
	}
	for _, tc := range cases {
		d := diag.New()
		q := NewColumnMetadataQuery(conn, d, tc.catalog, tc.schema, tc.table, tc.column)
		if res := q.Execute(context.Background()); res != Error {
			t.Errorf("Execute = %s", res)
		}
		if rec, _ := d.Last(); rec.State != diag.InvalidUseOfNullPointer || rec.Message != tc.message {
			t.Errorf("last record = %+v, want %q", rec, tc.message)
		}
	}

	catConn, _ := demoConn(t, 0, func(s *config.Settings) {
		s.MetadataID = true
		s.DatabaseAsSchema = false
	})
	d := diag.New()
	q := NewColumnMetadataQuery(catConn, d, none, empty, opt.Some("asset"), opt.Some("asset_id"))
	if res := q.Execute(context.Background()); res != Error {
		t.Errorf("Execute = %s", res)
	}
	if rec, _ := d.Last(); rec.Message != "The CatalogName cannot be NULL." {
		t.Errorf("last record = %+v", rec)
	}

	q = NewColumnMetadataQuery(conn, diag.New(), none, empty, opt.Some("RAW_TIME_SERIES"), opt.Some("INT_VALUE"))
	if res := q.Execute(context.Background()); res != Success {
		t.Fatalf("Execute = %s", res)
	}
	if got := fetchColumn(t, q, ColumnsColumnName); !slices.Equal(got, []string{"int_value"}) {
		t.Errorf("columns = %v", got)
	}

	d = diag.New()
	q = NewColumnMetadataQuery(conn, d, none, empty, empty, opt.Some("asset_id"))
	if res := q.Execute(context.Background()); res != SuccessWithInfo || !hasWarning(d, "Table name should not be empty.") {
		t.Errorf("empty table Execute = %s, warnings %v", res, d.Warnings())
	}

	q = NewColumnMetadataQuery(conn, diag.New(), none, empty, opt.Some("NOPE"), opt.Some("asset_id"))
	if res := q.Execute(context.Background()); res != NoData {
		t.Errorf("unknown table Execute = %s", res)
	}
	if res := q.FetchNextRow(context.Background(), nil); res != NoData {
		t.Errorf("FetchNextRow = %s", res)
	}
	if res := q.GetColumn(ColumnsColumnName, buffer.NewChar(16)); res != NoData {
		t.Errorf("GetColumn = %s", res)
	}
}

func TestColumnQueryCancel(t *testing.T) {
	t.Parallel()

	conn, _ := demoConn(t, 0, nil)
	q := NewColumnMetadataQuery(conn, diag.New(), none, none, opt.Some("asset"), none)
	if res := q.Cancel(); res != Success {
		t.Errorf("Cancel before Execute = %s", res)
	}
	if res := q.Execute(context.Background()); res != Success {
		t.Fatalf("Execute = %s", res)
	}
	if res := q.Cancel(); res != Success {
		t.Errorf("Cancel = %s", res)
	}
	if res := q.FetchNextRow(context.Background(), nil); res != Error {
		t.Errorf("FetchNextRow after Cancel = %s", res)
	}
}
