package meta

import "github.com/joacominatel/sitewisedb/internal/opt"

// TableTypeTable is the only table type the backend has.
const TableTypeTable = "TABLE"

// TableMeta describes one table row of a table enumeration.
type TableMeta struct {
	CatalogName opt.Value[string]
	SchemaName  opt.Value[string]
	TableName   opt.Value[string]
	TableType   opt.Value[string]
	Remarks     opt.Value[string]
}

// NewTable describes a backend table: no catalog, schema or remarks.
func NewTable(name string) TableMeta {
	return TableMeta{
		TableName: opt.Some(name),
		TableType: opt.Some(TableTypeTable),
	}
}
