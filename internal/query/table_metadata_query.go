package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/joacominatel/sitewisedb/internal/buffer"
	"github.com/joacominatel/sitewisedb/internal/diag"
	"github.com/joacominatel/sitewisedb/internal/meta"
	"github.com/joacominatel/sitewisedb/internal/opt"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

// Table enumeration result columns.
const (
	TablesTableCat = iota + 1
	TablesTableSchem
	TablesTableName
	TablesTableType
	TablesRemarks
)

// TableMetadataQuery enumerates tables from system.tables.
type TableMetadataQuery struct {
	catalogQuery[meta.TableMeta]

	catalog   opt.Value[string]
	schema    opt.Value[string]
	table     opt.Value[string]
	tableType opt.Value[string]

	allCatalogs   bool
	allSchemas    bool
	allTableTypes bool
}

// NewTableMetadataQuery creates a table enumeration. The result schema is
// fixed here from the arguments and never changes.
func NewTableMetadataQuery(conn *Connection, d *diag.Diagnostics, catalog, schema, table, tableType opt.Value[string]) *TableMetadataQuery {
	q := &TableMetadataQuery{
		catalogQuery: newCatalogQuery[meta.TableMeta](TypeTableMetadata, conn, d),
		catalog:      catalog,
		schema:       schema,
		table:        table,
		tableType:    tableType,
	}

	settings := conn.Settings
	if !settings.MetadataID {
		q.allCatalogs = catalog.Or("") == sqltype.AllCatalogs && catalog.IsSet() &&
			isEmptyArg(schema) && isEmptyArg(table)
		q.allSchemas = schema.Or("") == sqltype.AllSchemas && schema.IsSet() &&
			isEmptyArg(catalog) && isEmptyArg(table)
	}
	q.allTableTypes = tableType.Or("") == sqltype.AllTableTypes && tableType.IsSet() &&
		isEmptyArg(catalog) && isEmptyArg(schema) && isEmptyArg(table)

	catNull, schNull := meta.Nullable, meta.Nullable
	nameNull, typeNull := meta.Nullable, meta.Nullable
	switch {
	case q.allCatalogs:
		if !settings.DatabaseAsSchema {
			catNull = meta.NoNull
		}
	case q.allSchemas:
		if settings.DatabaseAsSchema {
			schNull = meta.NoNull
		}
	case q.allTableTypes:
		typeNull = meta.NoNull
	default:
		nameNull, typeNull = meta.NoNull, meta.NoNull
	}

	catLabel, schLabel := catalogLabels(settings)
	q.columns = []meta.ColumnMeta{
		varcharColumn(settings, catLabel, catNull),
		varcharColumn(settings, schLabel, schNull),
		varcharColumn(settings, "TABLE_NAME", nameNull),
		varcharColumn(settings, "TABLE_TYPE", typeNull),
		varcharColumn(settings, "REMARKS", meta.Nullable),
	}

	q.log.Debug("created",
		"all_catalogs", q.allCatalogs,
		"all_schemas", q.allSchemas,
		"all_table_types", q.allTableTypes,
		"odbc_version", settings.ODBCVersion)
	return q
}

// Execute resolves the matching tables.
func (q *TableMetadataQuery) Execute(ctx context.Context) Result {
	q.log.Debug("execute",
		"catalog", q.catalog.String(),
		"schema", q.schema.String(),
		"table", q.table.String(),
		"table_type", q.tableType.String())

	if q.cur.executed {
		q.Close()
	}

	rows, res := q.resolve(ctx)
	if res.OK() {
		q.cur.reset(rows)
		q.log.Debug("executed", "tables", len(rows), "result", res.String())
	}
	return res
}

func (q *TableMetadataQuery) resolve(ctx context.Context) ([]meta.TableMeta, Result) {
	if q.allTableTypes {
		return []meta.TableMeta{{TableType: opt.Some(meta.TableTypeTable)}}, Success
	}

	if raw, ok := q.tableType.Get(); ok && !AcceptsTableType(raw) {
		q.diag.AddWarning(diag.GeneralWarning, fmt.Sprintf(
			"Empty result set is returned as tableType is set to \"%s\" and IoT SiteWise only supports \"TABLE\" table type", raw))
		return nil, SuccessWithInfo
	}

	return q.tables(ctx)
}

// AcceptsTableType reports whether a comma separated table type list
// includes TABLE. An empty list or the all-types wildcard accepts.
func AcceptsTableType(list string) bool {
	if list == "" || list == sqltype.AllTableTypes {
		return true
	}
	for _, item := range strings.Split(list, ",") {
		if strings.EqualFold(dequote(strings.TrimSpace(item)), meta.TableTypeTable) {
			return true
		}
	}
	return false
}

func dequote(s string) string {
	if len(s) >= 2 && ((s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"')) {
		return s[1 : len(s)-1]
	}
	return s
}

func (q *TableMetadataQuery) tables(ctx context.Context) ([]meta.TableMeta, Result) {
	metadataID := q.conn.Settings.MetadataID
	if metadataID && !q.table.IsSet() {
		q.diag.AddStatusRecord(diag.InvalidUseOfNullPointer, "The TableName cannot be NULL.")
		return nil, Error
	}

	pattern := q.table.Or("%")
	if pattern == "" {
		pattern = "%"
	}

	names, res := q.matchedTables(ctx, pattern)
	if res != Success {
		return nil, res
	}

	want := strings.ToUpper(q.table.Or(""))
	seen := make(map[string]struct{}, len(names))
	var rows []meta.TableMeta
	for _, name := range names {
		if _, dup := seen[name]; dup {
			q.log.Debug("skipped duplicate table", "table", name)
			continue
		}
		if metadataID && strings.ToUpper(name) != want {
			continue
		}
		seen[name] = struct{}{}
		rows = append(rows, meta.NewTable(name))
	}

	if len(rows) == 0 {
		q.diag.AddWarning(diag.GeneralWarning,
			"Empty result set is returned as we could not find tables with "+pattern)
		return nil, SuccessWithInfo
	}
	return rows, Success
}

// matchedTables asks the backend for the table names matching pattern.
func (q *TableMetadataQuery) matchedTables(ctx context.Context, pattern string) ([]string, Result) {
	sql := "SELECT table_name FROM system.tables"
	if pattern != "%" {
		sql += fmt.Sprintf(" WHERE table_name LIKE '%s'", quoteLiteral(strings.ToLower(pattern)))
	}
	q.log.Debug("listing tables", "sql", sql)

	q.data = NewDataQuery(q.conn, q.diag, sql)
	switch res := q.data.Execute(ctx); res {
	case Success:
	case NoData:
		q.diag.AddWarning(diag.GeneralWarning, fmt.Sprintf("No table is found with pattern '%s'", pattern))
		return nil, SuccessWithInfo
	default:
		q.log.Error("failed to list tables", "sql", sql)
		return nil, Error
	}

	name := buffer.NewChar(stringBufferSize)
	bindings := ColumnBindingMap{1: name}
	var names []string
	for q.data.FetchNextRow(ctx, bindings).OK() {
		names = append(names, name.String())
	}
	return names, Success
}

// FetchNextRow moves to the next table and writes every bound column.
func (q *TableMetadataQuery) FetchNextRow(_ context.Context, bindings ColumnBindingMap) Result {
	return q.fetch(bindings, q.GetColumn)
}

// GetColumn writes one field of the current table.
func (q *TableMetadataQuery) GetColumn(index int, buf *buffer.Buffer) Result {
	return q.column(index, buf, writeTableColumn)
}

func writeTableColumn(t meta.TableMeta, index int, buf *buffer.Buffer) bool {
	switch index {
	case TablesTableCat:
		putOptString(buf, t.CatalogName)
	case TablesTableSchem:
		putOptString(buf, t.SchemaName)
	case TablesTableName:
		putOptString(buf, t.TableName)
	case TablesTableType:
		putOptString(buf, t.TableType)
	case TablesRemarks:
		putOptString(buf, t.Remarks)
	default:
		return false
	}
	return true
}
