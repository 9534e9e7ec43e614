package query

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/joacominatel/sitewisedb/internal/buffer"
	"github.com/joacominatel/sitewisedb/internal/config"
	"github.com/joacominatel/sitewisedb/internal/diag"
	"github.com/joacominatel/sitewisedb/internal/meta"
	"github.com/joacominatel/sitewisedb/internal/opt"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

// stringBufferSize bounds names read back from introspection queries.
const stringBufferSize = 1024

// cursor walks materialized rows. It starts before the first row; the first
// advance after a reset lands on row one.
type cursor[T any] struct {
	rows     []T
	pos      int
	executed bool
	fetched  bool
}

func (c *cursor[T]) reset(rows []T) {
	c.rows = rows
	c.pos = 0
	c.executed = true
	c.fetched = false
}

func (c *cursor[T]) close() {
	c.rows = nil
	c.pos = 0
	c.executed = false
	c.fetched = false
}

func (c *cursor[T]) advance() bool {
	if !c.fetched {
		c.fetched = true
	} else if c.pos < len(c.rows) {
		c.pos++
	}
	return c.pos < len(c.rows)
}

func (c *cursor[T]) current() (T, bool) {
	var zero T
	if !c.executed || !c.fetched || c.pos >= len(c.rows) {
		return zero, false
	}
	return c.rows[c.pos], true
}

// catalogQuery holds what every synthesized catalog query shares: the fixed
// result schema, the row cursor and the delegated data query.
type catalogQuery[T any] struct {
	kind    Type
	conn    *Connection
	diag    *diag.Diagnostics
	log     *slog.Logger
	columns []meta.ColumnMeta
	cur     cursor[T]
	data    *DataQuery
}

func newCatalogQuery[T any](kind Type, conn *Connection, d *diag.Diagnostics) catalogQuery[T] {
	return catalogQuery[T]{
		kind: kind,
		conn: conn,
		diag: d,
		log:  conn.logger().With("query_id", uuid.NewString(), "query_type", kind.String()),
	}
}

func (q *catalogQuery[T]) Type() Type { return q.kind }

func (q *catalogQuery[T]) Meta() []meta.ColumnMeta { return q.columns }

// Rows returns the materialized rows of the last execution.
func (q *catalogQuery[T]) Rows() []T { return q.cur.rows }

func (q *catalogQuery[T]) Close() Result {
	q.cur.close()
	return Success
}

func (q *catalogQuery[T]) Cancel() Result {
	q.log.Debug("cancel")
	q.data.Cancel()
	return q.Close()
}

func (q *catalogQuery[T]) DataAvailable() bool {
	_, ok := q.cur.current()
	return ok
}

func (q *catalogQuery[T]) AffectedRows() int64 { return 0 }

func (q *catalogQuery[T]) RowNumber() int64 {
	if _, ok := q.cur.current(); !ok {
		q.diag.AddWarning(diag.GeneralWarning, "Cursor does not point to any data.")
		return 0
	}
	return int64(q.cur.pos) + 1
}

func (q *catalogQuery[T]) NextResultSet() Result { return NoData }

func (q *catalogQuery[T]) fetch(bindings ColumnBindingMap, get func(int, *buffer.Buffer) Result) Result {
	if !q.cur.executed {
		q.diag.AddStatusRecord(diag.SequenceError, "Query was not executed.")
		return Error
	}
	if !q.cur.advance() {
		return NoData
	}
	for idx, buf := range bindings {
		get(idx, buf)
	}
	return Success
}

// column writes field index of the current row with write, which reports
// false for indices outside the result schema.
func (q *catalogQuery[T]) column(index int, buf *buffer.Buffer, write func(T, int, *buffer.Buffer) bool) Result {
	if !q.cur.executed {
		q.diag.AddStatusRecord(diag.SequenceError, "Query was not executed.")
		return Error
	}
	if len(q.cur.rows) == 0 {
		return NoData
	}
	row, ok := q.cur.current()
	if !ok {
		q.diag.AddStatusRecord(diag.InvalidCursorState, "Cursor has reached end of the result set.")
		return Error
	}
	if !write(row, index, buf) {
		q.diag.AddStatusRecord(diag.InvalidDescriptorIndex, "Invalid index.")
		return Error
	}
	return Success
}

// putOptString writes v, or NULL when absent.
func putOptString(buf *buffer.Buffer, v opt.Value[string]) {
	if s, ok := v.Get(); ok {
		buf.PutString(s)
		return
	}
	buf.PutNull()
}

// catalogLabels returns the catalog and schema column labels for the declared
// protocol version.
func catalogLabels(settings config.Settings) (string, string) {
	if settings.ODBCVersion == sqltype.ODBCVersion2 {
		return "TABLE_QUALIFIER", "TABLE_OWNER"
	}
	return "TABLE_CAT", "TABLE_SCHEM"
}

func varcharColumn(settings config.Settings, name string, n meta.Nullability) meta.ColumnMeta {
	return meta.NewColumnMeta(settings, "", "", name, sqltype.String, n)
}

func intColumn(settings config.Settings, name string, n meta.Nullability) meta.ColumnMeta {
	return meta.NewColumnMeta(settings, "", "", name, sqltype.Int, n)
}

// quoteLiteral escapes s for use inside a single-quoted SQL literal.
func quoteLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// isEmptyArg reports whether v is present and empty.
func isEmptyArg(v opt.Value[string]) bool {
	s, ok := v.Get()
	return ok && s == ""
}
