// Package meta holds the relational description of result columns and tables
// and resolves ODBC descriptor fields against it.
package meta

import (
	"errors"

	"github.com/joacominatel/sitewisedb/internal/config"
	"github.com/joacominatel/sitewisedb/internal/database"
	"github.com/joacominatel/sitewisedb/internal/logging"
	"github.com/joacominatel/sitewisedb/internal/opt"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

// Nullability of a column.
type Nullability int

const (
	NoNull Nullability = iota
	Nullable
	NullabilityUnknown
)

// Code returns the SQL nullable code.
func (n Nullability) Code() int {
	switch n {
	case NoNull:
		return sqltype.NoNulls
	case Nullable:
		return sqltype.Nullable
	default:
		return sqltype.NullableUnknown
	}
}

// NullabilityCode maps an optional nullability to its SQL code; absent means unknown.
func NullabilityCode(n opt.Value[Nullability]) int {
	v, ok := n.Get()
	if !ok {
		logging.WithComponent("meta").Debug("nullability is not defined, reporting unknown")
		return sqltype.NullableUnknown
	}
	return v.Code()
}

// measureColumns may be null in the backend even though every other column is not.
var measureColumns = map[string]struct{}{
	"int_value":     {},
	"boolean_value": {},
	"double_value":  {},
	"string_value":  {},
}

// IsMeasureColumn reports whether name is one of the nullable measure columns.
func IsMeasureColumn(name string) bool {
	_, ok := measureColumns[name]
	return ok
}

// ErrNoColumnName is returned when a system.columns row has no readable name.
var ErrNoColumnName = errors.New("column name is missing")

// ColumnMeta describes one result column.
type ColumnMeta struct {
	CatalogName     opt.Value[string]
	SchemaName      opt.Value[string]
	TableName       opt.Value[string]
	ColumnName      opt.Value[string]
	Remarks         opt.Value[string]
	ColumnDef       opt.Value[string]
	IsAutoIncrement string
	DataType        opt.Value[sqltype.ScalarType]
	Precision       opt.Value[int32]
	DecimalDigits   opt.Value[int16]
	Scale           opt.Value[int32]
	Nullability     opt.Value[Nullability]
	OrdinalPosition opt.Value[int32]
	ColumnInfo      opt.Value[database.ColumnInfo]

	// AnsiStringOnly reports strings as SQL_VARCHAR instead of SQL_WVARCHAR.
	AnsiStringOnly bool
}

func newColumnMeta(settings config.Settings) ColumnMeta {
	return ColumnMeta{
		IsAutoIncrement: "NO",
		AnsiStringOnly:  settings.AnsiStringOnly,
	}
}

// NewColumnMeta builds the description of a synthetic result column. The
// database name lands in the schema or the catalog depending on
// settings.DatabaseAsSchema.
func NewColumnMeta(settings config.Settings, databaseName, table, column string, t sqltype.ScalarType, n Nullability) ColumnMeta {
	m := newColumnMeta(settings)
	if settings.DatabaseAsSchema {
		m.SchemaName = opt.Some(databaseName)
	} else {
		m.CatalogName = opt.Some(databaseName)
	}
	m.TableName = opt.Some(table)
	m.ColumnName = opt.Some(column)
	m.DataType = opt.Some(t)
	m.Nullability = opt.Some(n)
	return m
}

// FromColumnInfo describes a column reported by the backend for a query
// result. Columns without a scalar type are treated as strings.
func FromColumnInfo(settings config.Settings, info database.ColumnInfo) ColumnMeta {
	m := newColumnMeta(settings)
	m.ColumnInfo = opt.Some(info)
	m.ColumnName = opt.Some(info.Name)
	m.DataType = opt.Some(info.Type.ScalarType.Or(sqltype.String))
	return m
}

// ReadColumnMetadata describes a column from a system.columns row: the first
// value is the column name and the optional second one the data type name.
func ReadColumnMetadata(settings config.Settings, row database.Row, position int32) (ColumnMeta, error) {
	if len(row.Data) == 0 || row.Data[0].ScalarValue == nil {
		return ColumnMeta{}, ErrNoColumnName
	}
	name := *row.Data[0].ScalarValue

	m := newColumnMeta(settings)
	m.ColumnName = opt.Some(name)
	m.DataType = opt.Some(sqltype.NotSet)
	if len(row.Data) > 1 && row.Data[1].ScalarValue != nil {
		m.DataType = opt.Some(sqltype.ParseScalarType(*row.Data[1].ScalarValue))
	}
	if IsMeasureColumn(name) {
		m.Nullability = opt.Some(Nullable)
	} else {
		m.Nullability = opt.Some(NoNull)
	}
	m.OrdinalPosition = opt.Some(position)
	return m, nil
}

// ScalarType returns the declared type, NOT_SET when absent.
func (m ColumnMeta) ScalarType() sqltype.ScalarType {
	return m.DataType.Or(sqltype.NotSet)
}

// Name returns the column name, empty when absent.
func (m ColumnMeta) Name() string {
	return m.ColumnName.Or("")
}

// SQLType returns the SQL type code honoring AnsiStringOnly.
func (m ColumnMeta) SQLType() (int16, bool) {
	t, ok := m.DataType.Get()
	if !ok {
		return 0, false
	}
	return sqltype.ToSQLType(t, m.AnsiStringOnly)
}

// NullableCode returns the SQL nullable code.
func (m ColumnMeta) NullableCode() int {
	return NullabilityCode(m.Nullability)
}
