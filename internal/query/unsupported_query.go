package query

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joacominatel/sitewisedb/internal/buffer"
	"github.com/joacominatel/sitewisedb/internal/diag"
	"github.com/joacominatel/sitewisedb/internal/meta"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

// UnsupportedQuery answers a catalog function the backend has no data for.
// It exposes the function's result schema and never returns rows.
type UnsupportedQuery struct {
	kind     Type
	function string
	diag     *diag.Diagnostics
	log      *slog.Logger
	columns  []meta.ColumnMeta
}

type columnSpec struct {
	name    string
	integer bool
	noNull  bool
}

func newUnsupportedQuery(conn *Connection, d *diag.Diagnostics, kind Type, function string, specs []columnSpec) *UnsupportedQuery {
	cols := make([]meta.ColumnMeta, len(specs))
	for i, s := range specs {
		n := meta.Nullable
		if s.noNull {
			n = meta.NoNull
		}
		if s.integer {
			cols[i] = intColumn(conn.Settings, s.name, n)
		} else {
			cols[i] = varcharColumn(conn.Settings, s.name, n)
		}
	}
	return &UnsupportedQuery{
		kind:     kind,
		function: function,
		diag:     d,
		log:      conn.logger().With("query_id", uuid.NewString(), "query_type", kind.String()),
		columns:  cols,
	}
}

// NewForeignKeysQuery answers SQLForeignKeys.
func NewForeignKeysQuery(conn *Connection, d *diag.Diagnostics) *UnsupportedQuery {
	return newUnsupportedQuery(conn, d, TypeForeignKeys, "SQLForeignKeys", []columnSpec{
		{name: "PKTABLE_CAT"},
		{name: "PKTABLE_SCHEM"},
		{name: "PKTABLE_NAME", noNull: true},
		{name: "PKCOLUMN_NAME", noNull: true},
		{name: "FKTABLE_CAT"},
		{name: "FKTABLE_SCHEM"},
		{name: "FKTABLE_NAME", noNull: true},
		{name: "FKCOLUMN_NAME", noNull: true},
		{name: "KEY_SEQ", integer: true, noNull: true},
		{name: "UPDATE_RULE", integer: true},
		{name: "DELETE_RULE", integer: true},
		{name: "FK_NAME"},
		{name: "PK_NAME"},
		{name: "DEFERRABILITY", integer: true},
	})
}

// NewPrimaryKeysQuery answers SQLPrimaryKeys.
func NewPrimaryKeysQuery(conn *Connection, d *diag.Diagnostics) *UnsupportedQuery {
	return newUnsupportedQuery(conn, d, TypePrimaryKeys, "SQLPrimaryKeys", []columnSpec{
		{name: "TABLE_CAT"},
		{name: "TABLE_SCHEM"},
		{name: "TABLE_NAME", noNull: true},
		{name: "COLUMN_NAME", noNull: true},
		{name: "KEY_SEQ", integer: true, noNull: true},
		{name: "PK_NAME"},
	})
}

// NewSpecialColumnsQuery answers SQLSpecialColumns.
func NewSpecialColumnsQuery(conn *Connection, d *diag.Diagnostics) *UnsupportedQuery {
	return newUnsupportedQuery(conn, d, TypeSpecialColumns, "SQLSpecialColumns", []columnSpec{
		{name: "SCOPE", integer: true},
		{name: "COLUMN_NAME", noNull: true},
		{name: "DATA_TYPE", integer: true, noNull: true},
		{name: "TYPE_NAME", noNull: true},
		{name: "COLUMN_SIZE", integer: true},
		{name: "BUFFER_LENGTH", integer: true},
		{name: "DECIMAL_DIGITS", integer: true},
		{name: "PSEUDO_COLUMN", integer: true},
	})
}

// NewStatisticsQuery answers SQLStatistics. ODBC 2 applications get the
// older column labels.
func NewStatisticsQuery(conn *Connection, d *diag.Diagnostics) *UnsupportedQuery {
	catLabel, schLabel := catalogLabels(conn.Settings)
	seqLabel, collationLabel := "ORDINAL_POSITION", "ASC_OR_DESC"
	if conn.Settings.ODBCVersion == sqltype.ODBCVersion2 {
		seqLabel, collationLabel = "SEQ_IN_INDEX", "COLLATION"
	}
	return newUnsupportedQuery(conn, d, TypeStatistics, "SQLStatistics", []columnSpec{
		{name: catLabel},
		{name: schLabel},
		{name: "TABLE_NAME", noNull: true},
		{name: "NON_UNIQUE", integer: true},
		{name: "INDEX_QUALIFIER"},
		{name: "INDEX_NAME"},
		{name: "TYPE", integer: true, noNull: true},
		{name: seqLabel, integer: true},
		{name: "COLUMN_NAME"},
		{name: collationLabel},
		{name: "CARDINALITY", integer: true},
		{name: "PAGES", integer: true},
		{name: "FILTER_CONDITION"},
	})
}

// NewProceduresQuery answers SQLProcedures.
func NewProceduresQuery(conn *Connection, d *diag.Diagnostics) *UnsupportedQuery {
	return newUnsupportedQuery(conn, d, TypeProcedures, "SQLProcedures", []columnSpec{
		{name: "PROCEDURE_CAT"},
		{name: "PROCEDURE_SCHEM"},
		{name: "PROCEDURE_NAME", noNull: true},
		{name: "NUM_INPUT_PARAMS"},
		{name: "NUM_OUTPUT_PARAMS"},
		{name: "NUM_RESULT_SETS"},
		{name: "REMARKS"},
		{name: "PROCEDURE_TYPE", integer: true},
	})
}

// NewProcedureColumnsQuery answers SQLProcedureColumns.
func NewProcedureColumnsQuery(conn *Connection, d *diag.Diagnostics) *UnsupportedQuery {
	return newUnsupportedQuery(conn, d, TypeProcedureColumns, "SQLProcedureColumns", []columnSpec{
		{name: "PROCEDURE_CAT"},
		{name: "PROCEDURE_SCHEM"},
		{name: "PROCEDURE_NAME", noNull: true},
		{name: "COLUMN_NAME", noNull: true},
		{name: "COLUMN_TYPE", integer: true, noNull: true},
		{name: "DATA_TYPE", integer: true, noNull: true},
		{name: "TYPE_NAME", noNull: true},
		{name: "COLUMN_SIZE", integer: true},
		{name: "BUFFER_LENGTH", integer: true},
		{name: "DECIMAL_DIGITS", integer: true},
		{name: "NUM_PREC_RADIX", integer: true},
		{name: "NULLABLE", integer: true, noNull: true},
		{name: "REMARKS"},
		{name: "COLUMN_DEF"},
		{name: "SQL_DATA_TYPE", integer: true, noNull: true},
		{name: "SQL_DATETIME_SUB", integer: true},
		{name: "CHAR_OCTET_LENGTH", integer: true},
		{name: "ORDINAL_POSITION", integer: true, noNull: true},
		{name: "IS_NULLABLE"},
	})
}

// NewColumnPrivilegesQuery answers SQLColumnPrivileges.
func NewColumnPrivilegesQuery(conn *Connection, d *diag.Diagnostics) *UnsupportedQuery {
	return newUnsupportedQuery(conn, d, TypeColumnPrivileges, "SQLColumnPrivileges", []columnSpec{
		{name: "TABLE_CAT"},
		{name: "TABLE_SCHEM"},
		{name: "TABLE_NAME", noNull: true},
		{name: "COLUMN_NAME", noNull: true},
		{name: "GRANTOR"},
		{name: "GRANTEE", noNull: true},
		{name: "PRIVILEGE", noNull: true},
		{name: "IS_GRANTABLE"},
	})
}

// NewTablePrivilegesQuery answers SQLTablePrivileges.
func NewTablePrivilegesQuery(conn *Connection, d *diag.Diagnostics) *UnsupportedQuery {
	return newUnsupportedQuery(conn, d, TypeTablePrivileges, "SQLTablePrivileges", []columnSpec{
		{name: "TABLE_CAT"},
		{name: "TABLE_SCHEM"},
		{name: "TABLE_NAME", noNull: true},
		{name: "GRANTOR"},
		{name: "GRANTEE", noNull: true},
		{name: "PRIVILEGE", noNull: true},
		{name: "IS_GRANTABLE"},
	})
}

func (q *UnsupportedQuery) Type() Type { return q.kind }

// Function returns the catalog function name used in status messages.
func (q *UnsupportedQuery) Function() string { return q.function }

func (q *UnsupportedQuery) Meta() []meta.ColumnMeta { return q.columns }

// Execute always yields an empty result with a warning.
func (q *UnsupportedQuery) Execute(context.Context) Result {
	q.log.Debug("execute")
	q.diag.AddWarning(diag.GeneralWarning, q.function+" is not supported. Return empty result set.")
	return SuccessWithInfo
}

func (q *UnsupportedQuery) FetchNextRow(context.Context, ColumnBindingMap) Result {
	q.diag.AddWarning(diag.GeneralWarning, q.function+" is not supported. No data is returned.")
	return NoData
}

func (q *UnsupportedQuery) GetColumn(int, *buffer.Buffer) Result {
	q.diag.AddWarning(diag.GeneralWarning, q.function+" is not supported. No data is returned.")
	return NoData
}

func (q *UnsupportedQuery) Close() Result { return Success }

func (q *UnsupportedQuery) Cancel() Result { return Success }

func (q *UnsupportedQuery) DataAvailable() bool { return false }

func (q *UnsupportedQuery) AffectedRows() int64 { return 0 }

func (q *UnsupportedQuery) RowNumber() int64 { return 0 }

func (q *UnsupportedQuery) NextResultSet() Result { return NoData }

var (
	_ Query = (*DataQuery)(nil)
	_ Query = (*TableMetadataQuery)(nil)
	_ Query = (*ColumnMetadataQuery)(nil)
	_ Query = (*UnsupportedQuery)(nil)
)
