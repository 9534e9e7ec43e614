// Package query implements the statement contract: the raw data query and the
// catalog queries synthesized from the backend's introspection tables.
package query

import (
	"context"
	"log/slog"

	"github.com/joacominatel/sitewisedb/internal/buffer"
	"github.com/joacominatel/sitewisedb/internal/config"
	"github.com/joacominatel/sitewisedb/internal/database"
	"github.com/joacominatel/sitewisedb/internal/logging"
	"github.com/joacominatel/sitewisedb/internal/meta"
)

// Result is the outcome of a query operation.
type Result int

const (
	Success Result = iota
	SuccessWithInfo
	Error
	NoData
)

func (r Result) String() string {
	switch r {
	case Success:
		return "SUCCESS"
	case SuccessWithInfo:
		return "SUCCESS_WITH_INFO"
	case Error:
		return "ERROR"
	case NoData:
		return "NO_DATA"
	default:
		return "UNKNOWN"
	}
}

// OK reports whether r is Success or SuccessWithInfo.
func (r Result) OK() bool {
	return r == Success || r == SuccessWithInfo
}

// Type identifies the kind of a query.
type Type int

const (
	TypeData Type = iota
	TypeTableMetadata
	TypeColumnMetadata
	TypeForeignKeys
	TypePrimaryKeys
	TypeSpecialColumns
	TypeStatistics
	TypeProcedures
	TypeProcedureColumns
	TypeColumnPrivileges
	TypeTablePrivileges
)

var typeNames = [...]string{
	TypeData:             "DATA",
	TypeTableMetadata:    "TABLE_METADATA",
	TypeColumnMetadata:   "COLUMN_METADATA",
	TypeForeignKeys:      "FOREIGN_KEYS",
	TypePrimaryKeys:      "PRIMARY_KEYS",
	TypeSpecialColumns:   "SPECIAL_COLUMNS",
	TypeStatistics:       "STATISTICS",
	TypeProcedures:       "PROCEDURES",
	TypeProcedureColumns: "PROCEDURE_COLUMNS",
	TypeColumnPrivileges: "COLUMN_PRIVILEGES",
	TypeTablePrivileges:  "TABLE_PRIVILEGES",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "UNKNOWN"
	}
	return typeNames[t]
}

// ColumnBindingMap maps 1-based column indices to output buffers.
type ColumnBindingMap map[int]*buffer.Buffer

// Query is one statement.
type Query interface {
	// Type returns the query kind.
	Type() Type

	// Execute runs the query. It may be called again after Close.
	Execute(ctx context.Context) Result

	// Meta returns the result column descriptions.
	Meta() []meta.ColumnMeta

	// FetchNextRow moves to the next row and writes every bound column.
	FetchNextRow(ctx context.Context, bindings ColumnBindingMap) Result

	// GetColumn writes one column of the current row into buf.
	GetColumn(index int, buf *buffer.Buffer) Result

	// Close drops the result and returns the query to its unexecuted state.
	Close() Result

	// Cancel aborts in-flight backend work and closes the query.
	Cancel() Result

	// DataAvailable reports whether a current row exists.
	DataAvailable() bool

	// AffectedRows is always zero for this read-only backend.
	AffectedRows() int64

	// RowNumber returns the 1-based position of the current row.
	RowNumber() int64

	// NextResultSet moves to the next result set; there never is one.
	NextResultSet() Result
}

// Connection is the per-connection context queries run in.
type Connection struct {
	Driver   database.Driver
	Settings config.Settings
	Logger   *slog.Logger
}

// NewConnection creates a connection context over driver.
func NewConnection(driver database.Driver, settings config.Settings) *Connection {
	return &Connection{
		Driver:   driver,
		Settings: settings,
		Logger:   logging.WithComponent("query"),
	}
}

func (c *Connection) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logging.WithComponent("query")
}
