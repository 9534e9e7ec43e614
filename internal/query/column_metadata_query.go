package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/joacominatel/sitewisedb/internal/buffer"
	"github.com/joacominatel/sitewisedb/internal/database"
	"github.com/joacominatel/sitewisedb/internal/diag"
	"github.com/joacominatel/sitewisedb/internal/meta"
	"github.com/joacominatel/sitewisedb/internal/opt"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

// Column enumeration result columns.
const (
	ColumnsTableCat = iota + 1
	ColumnsTableSchem
	ColumnsTableName
	ColumnsColumnName
	ColumnsDataType
	ColumnsTypeName
	ColumnsColumnSize
	ColumnsBufferLength
	ColumnsDecimalDigits
	ColumnsNumPrecRadix
	ColumnsNullable
	ColumnsRemarks
	ColumnsColumnDef
	ColumnsSQLDataType
	ColumnsSQLDatetimeSub
	ColumnsCharOctetLength
	ColumnsOrdinalPosition
	ColumnsIsNullable
)

// ColumnMetadataQuery enumerates the columns of the tables matching its
// arguments from system.columns.
type ColumnMetadataQuery struct {
	catalogQuery[meta.ColumnMeta]

	catalog opt.Value[string]
	schema  opt.Value[string]
	table   opt.Value[string]
	pattern opt.Value[string]

	tables *TableMetadataQuery
}

// NewColumnMetadataQuery creates a column enumeration.
func NewColumnMetadataQuery(conn *Connection, d *diag.Diagnostics, catalog, schema, table, column opt.Value[string]) *ColumnMetadataQuery {
	q := &ColumnMetadataQuery{
		catalogQuery: newCatalogQuery[meta.ColumnMeta](TypeColumnMetadata, conn, d),
		catalog:      catalog,
		schema:       schema,
		table:        table,
		pattern:      column,
	}

	s := conn.Settings
	catLabel, schLabel := catalogLabels(s)
	q.columns = []meta.ColumnMeta{
		varcharColumn(s, catLabel, meta.Nullable),
		varcharColumn(s, schLabel, meta.Nullable),
		varcharColumn(s, "TABLE_NAME", meta.NoNull),
		varcharColumn(s, "COLUMN_NAME", meta.NoNull),
		intColumn(s, "DATA_TYPE", meta.NoNull),
		varcharColumn(s, "TYPE_NAME", meta.NoNull),
		intColumn(s, "COLUMN_SIZE", meta.Nullable),
		intColumn(s, "BUFFER_LENGTH", meta.Nullable),
		intColumn(s, "DECIMAL_DIGITS", meta.Nullable),
		intColumn(s, "NUM_PREC_RADIX", meta.Nullable),
		intColumn(s, "NULLABLE", meta.NoNull),
		varcharColumn(s, "REMARKS", meta.Nullable),
		varcharColumn(s, "COLUMN_DEF", meta.Nullable),
		intColumn(s, "SQL_DATA_TYPE", meta.NoNull),
		intColumn(s, "SQL_DATETIME_SUB", meta.Nullable),
		intColumn(s, "CHAR_OCTET_LENGTH", meta.Nullable),
		intColumn(s, "ORDINAL_POSITION", meta.NoNull),
		varcharColumn(s, "IS_NULLABLE", meta.NoNull),
	}
	return q
}

// Execute resolves the tables and collects their matching columns.
func (q *ColumnMetadataQuery) Execute(ctx context.Context) Result {
	q.log.Debug("execute",
		"catalog", q.catalog.String(),
		"schema", q.schema.String(),
		"table", q.table.String(),
		"column", q.pattern.String())

	if q.cur.executed {
		q.Close()
	}

	rows, res := q.resolve(ctx)
	if res.OK() || res == NoData {
		q.cur.reset(rows)
		q.log.Debug("executed", "columns", len(rows), "result", res.String())
	}
	return res
}

func (q *ColumnMetadataQuery) resolve(ctx context.Context) ([]meta.ColumnMeta, Result) {
	s := q.conn.Settings

	if c, ok := q.catalog.Get(); s.DatabaseAsSchema && ok && c != "" && c != sqltype.AllCatalogs {
		q.diag.AddWarning(diag.GeneralWarning, fmt.Sprintf(
			"Empty result set is returned as catalog is set to \"%s\" and IoT SiteWise does not have catalogs", c))
		return nil, SuccessWithInfo
	}
	if sc, ok := q.schema.Get(); !s.DatabaseAsSchema && ok && sc != "" && sc != sqltype.AllSchemas {
		q.diag.AddWarning(diag.GeneralWarning, fmt.Sprintf(
			"Empty result set is returned as schema is set to \"%s\" and IoT SiteWise does not have schemas", sc))
		return nil, SuccessWithInfo
	}

	catalog, schema, table, column := q.catalog, q.schema, q.table, q.pattern
	if s.MetadataID {
		if msg := missingIdentifier(s.DatabaseAsSchema, catalog, schema, table, column); msg != "" {
			q.diag.AddStatusRecord(diag.InvalidUseOfNullPointer, msg)
			return nil, Error
		}
	} else {
		catalog, schema, table, column = wildcard(catalog), wildcard(schema), wildcard(table), wildcard(column)
	}

	if table.Or("") == "" {
		q.diag.AddWarning(diag.GeneralWarning, "Table name should not be empty.")
		return nil, SuccessWithInfo
	}

	q.tables = NewTableMetadataQuery(q.conn, q.diag, catalog, schema, table, opt.None[string]())
	res := q.tables.Execute(ctx)
	if res == Error {
		q.diag.AddWarning(diag.GeneralWarning, "Failed to get table metadata for "+table.Or(""))
		return nil, SuccessWithInfo
	}

	name := buffer.NewChar(stringBufferSize)
	bindings := ColumnBindingMap{TablesTableName: name}
	var tableNames []string
	for q.tables.FetchNextRow(ctx, bindings) == Success {
		tableNames = append(tableNames, name.String())
	}

	if s.MetadataID && len(tableNames) == 0 {
		q.log.Debug("no table matched the identifier", "table", table.Or(""))
		return nil, NoData
	}

	match := columnMatcher(s.MetadataID, column.Or("%"))
	var rows []meta.ColumnMeta
	for _, t := range tableNames {
		rows = append(rows, q.tableColumns(ctx, t, match)...)
	}

	if len(rows) == 0 {
		q.diag.AddWarning(diag.GeneralWarning, fmt.Sprintf("No columns with name '%s' found", column.Or("")))
		return nil, SuccessWithInfo
	}
	return rows, Success
}

func missingIdentifier(databaseAsSchema bool, catalog, schema, table, column opt.Value[string]) string {
	switch {
	case databaseAsSchema && !schema.IsSet():
		return "The SchemaName cannot be NULL."
	case !databaseAsSchema && !catalog.IsSet():
		return "The CatalogName cannot be NULL."
	case !table.IsSet():
		return "The TableName cannot be NULL."
	case !column.IsSet():
		return "The ColumnName cannot be NULL."
	}
	return ""
}

// wildcard turns absent and empty pattern arguments into %.
func wildcard(v opt.Value[string]) opt.Value[string] {
	if v.Or("") == "" {
		return opt.Some("%")
	}
	return v
}

func columnMatcher(metadataID bool, column string) func(string) bool {
	if metadataID {
		return func(name string) bool { return strings.EqualFold(name, column) }
	}
	like := database.CompileLike(column)
	return like.Match
}

// tableColumns lists the matching columns of one table. Failures of the
// per-table query contribute no columns.
func (q *ColumnMetadataQuery) tableColumns(ctx context.Context, table string, match func(string) bool) []meta.ColumnMeta {
	sql := fmt.Sprintf("SELECT column_name FROM system.columns WHERE table_name = '%s'", quoteLiteral(table))
	q.log.Debug("listing columns", "sql", sql)

	q.data = NewDataQuery(q.conn, q.diag, sql)
	switch res := q.data.Execute(ctx); res {
	case Success:
	case NoData:
		q.log.Debug("column listing returned nothing", "table", table)
		return nil
	default:
		q.log.Error("failed to list columns, skipping table", "table", table, "result", res.String())
		return nil
	}

	var cols []meta.ColumnMeta
	var position int32
	for q.data.FetchNextRow(ctx, nil).OK() {
		row, ok := q.data.CurrentRow()
		if !ok || len(row.Data) == 0 || row.Data[0].ScalarValue == nil {
			continue
		}
		if !match(*row.Data[0].ScalarValue) {
			continue
		}
		position++
		m, err := meta.ReadColumnMetadata(q.conn.Settings, row, position)
		if err != nil {
			q.log.Error("read column metadata", "table", table, "error", err)
			position--
			continue
		}
		m.TableName = opt.Some(table)
		m.CatalogName = opt.None[string]()
		m.SchemaName = opt.None[string]()
		m.Remarks = opt.Some(table)
		cols = append(cols, m)
	}
	return cols
}

// Cancel aborts the table resolution and the per-table listing, then closes
// the query.
func (q *ColumnMetadataQuery) Cancel() Result {
	if q.tables != nil {
		q.tables.Cancel()
	}
	return q.catalogQuery.Cancel()
}

// FetchNextRow moves to the next column and writes every bound field.
func (q *ColumnMetadataQuery) FetchNextRow(_ context.Context, bindings ColumnBindingMap) Result {
	return q.fetch(bindings, q.GetColumn)
}

// GetColumn writes one field of the current column.
func (q *ColumnMetadataQuery) GetColumn(index int, buf *buffer.Buffer) Result {
	return q.column(index, buf, writeColumnColumn)
}

func writeColumnColumn(c meta.ColumnMeta, index int, buf *buffer.Buffer) bool {
	t := c.ScalarType()

	switch index {
	case ColumnsTableCat:
		putOptString(buf, c.CatalogName)
	case ColumnsTableSchem:
		putOptString(buf, c.SchemaName)
	case ColumnsTableName:
		putOptString(buf, c.TableName)
	case ColumnsColumnName:
		putOptString(buf, c.ColumnName)
	case ColumnsDataType, ColumnsSQLDataType:
		if code, ok := c.SQLType(); ok {
			buf.PutInt16(code)
		} else {
			buf.PutNull()
		}
	case ColumnsTypeName:
		if name, ok := sqltype.TypeName(t); ok {
			buf.PutString(name)
		} else {
			buf.PutNull()
		}
	case ColumnsColumnSize:
		if v, ok := sqltype.ColumnSize(t); ok {
			buf.PutInt32(v)
		} else {
			buf.PutNull()
		}
	case ColumnsBufferLength:
		if v, ok := sqltype.TransferLength(t); ok {
			buf.PutInt32(v)
		} else {
			buf.PutNull()
		}
	case ColumnsDecimalDigits:
		if v, ok := sqltype.DecimalDigits(t); ok && v >= 0 {
			buf.PutInt16(v)
		} else {
			buf.PutNull()
		}
	case ColumnsNumPrecRadix:
		if v, ok := sqltype.NumPrecRadix(t); ok && v >= 0 {
			buf.PutInt16(int16(v))
		} else {
			buf.PutNull()
		}
	case ColumnsNullable:
		buf.PutInt32(int32(c.NullableCode()))
	case ColumnsRemarks:
		putOptString(buf, c.Remarks)
	case ColumnsColumnDef:
		putOptString(buf, c.ColumnDef)
	case ColumnsSQLDatetimeSub:
		buf.PutNull()
	case ColumnsCharOctetLength:
		if v, ok := sqltype.CharOctetLength(t); ok {
			buf.PutInt32(v)
		} else {
			buf.PutNull()
		}
	case ColumnsOrdinalPosition:
		if v, ok := c.OrdinalPosition.Get(); ok {
			buf.PutInt32(v)
		} else {
			buf.PutNull()
		}
	case ColumnsIsNullable:
		buf.PutString(sqltype.NullableToIsNullable(c.NullableCode()))
	default:
		return false
	}
	return true
}
