package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joacominatel/sitewisedb/internal/buffer"
	"github.com/joacominatel/sitewisedb/internal/database"
	"github.com/joacominatel/sitewisedb/internal/diag"
	"github.com/joacominatel/sitewisedb/internal/logging"
	"github.com/joacominatel/sitewisedb/internal/materialize"
	"github.com/joacominatel/sitewisedb/internal/meta"
)

// pendingPage is a page being fetched in the background.
type pendingPage struct {
	group *errgroup.Group
	page  *database.Page
}

// DataQuery runs a query string against the backend and streams its rows,
// one page at a time.
type DataQuery struct {
	id   string
	conn *Connection
	diag *diag.Diagnostics
	sql  string
	log  *slog.Logger

	executed bool
	meta     []meta.ColumnMeta
	columns  []materialize.Column
	page     *database.Page
	rowIdx   int
	rowNum   int64

	ctx     context.Context
	cancel  context.CancelFunc
	pending *pendingPage
}

// NewDataQuery creates a query for sql.
func NewDataQuery(conn *Connection, d *diag.Diagnostics, sql string) *DataQuery {
	id := uuid.NewString()
	return &DataQuery{
		id:     id,
		conn:   conn,
		diag:   d,
		sql:    sql,
		log:    logging.WithQuery(id, TypeData.String()),
		rowIdx: -1,
	}
}

// ID returns the query handle id used in log lines.
func (q *DataQuery) ID() string { return q.id }

// SQL returns the query string.
func (q *DataQuery) SQL() string { return q.sql }

func (q *DataQuery) Type() Type { return TypeData }

func (q *DataQuery) Meta() []meta.ColumnMeta { return q.meta }

// Execute issues the query and loads the first non-empty page.
func (q *DataQuery) Execute(ctx context.Context) Result {
	if q.executed {
		q.Close()
	}
	q.log.Debug("execute", "sql", q.sql)

	q.ctx, q.cancel = context.WithCancel(context.WithoutCancel(ctx))

	page, err := q.conn.Driver.ExecuteQuery(ctx, q.sql, "")
	if err != nil {
		q.backendError(err)
		q.cancel()
		return Error
	}

	q.meta = make([]meta.ColumnMeta, len(page.Columns))
	q.columns = make([]materialize.Column, len(page.Columns))
	for i, info := range page.Columns {
		q.meta[i] = meta.FromColumnInfo(q.conn.Settings, info)
		q.columns[i] = materialize.Column{Index: i + 1, Meta: q.meta[i]}
	}

	for len(page.Rows) == 0 && page.HasNext() {
		next, err := q.conn.Driver.ExecuteQuery(ctx, q.sql, page.NextToken)
		if err != nil {
			q.backendError(err)
			q.cancel()
			return Error
		}
		page = next
	}

	q.executed = true
	q.page = page
	q.rowIdx = -1
	q.rowNum = 0

	if len(page.Rows) == 0 {
		q.log.Debug("query returned no rows")
		return NoData
	}
	q.prefetch()
	return Success
}

func (q *DataQuery) backendError(err error) {
	if errors.Is(err, context.Canceled) {
		q.diag.AddStatusRecord(diag.OperationCanceled, "Operation canceled.")
		return
	}
	q.diag.AddStatusRecord(diag.GeneralError, err.Error())
}

// prefetch starts loading the page after the current one.
func (q *DataQuery) prefetch() {
	if !q.conn.Settings.Prefetch || !q.page.HasNext() || q.ctx == nil {
		return
	}
	token := q.page.NextToken
	g, gctx := errgroup.WithContext(q.ctx)
	p := &pendingPage{group: g}
	g.Go(func() error {
		page, err := q.conn.Driver.ExecuteQuery(gctx, q.sql, token)
		if err != nil {
			return fmt.Errorf("prefetch page %s: %w", token, err)
		}
		p.page = page
		return nil
	})
	q.pending = p
}

// nextPage replaces the current page with the following one, waiting on the
// background fetch when one is running.
func (q *DataQuery) nextPage(ctx context.Context) error {
	var page *database.Page
	if p := q.pending; p != nil {
		q.pending = nil
		if err := p.group.Wait(); err != nil {
			return err
		}
		page = p.page
	} else {
		next, err := q.conn.Driver.ExecuteQuery(ctx, q.sql, q.page.NextToken)
		if err != nil {
			return err
		}
		page = next
	}
	q.page = page
	q.rowIdx = -1
	q.prefetch()
	return nil
}

// FetchNextRow moves to the next row, crossing page boundaries, and writes
// every bound column.
func (q *DataQuery) FetchNextRow(ctx context.Context, bindings ColumnBindingMap) Result {
	if !q.executed {
		q.diag.AddStatusRecord(diag.SequenceError, "Query was not executed.")
		return Error
	}

	q.rowIdx++
	for q.rowIdx >= len(q.page.Rows) {
		if !q.page.HasNext() {
			q.rowIdx = len(q.page.Rows)
			return NoData
		}
		if err := q.nextPage(ctx); err != nil {
			q.backendError(err)
			return Error
		}
		q.rowIdx = 0
	}
	q.rowNum++

	indices := make([]int, 0, len(bindings))
	for idx := range bindings {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	result := Success
	for _, idx := range indices {
		switch res := q.GetColumn(idx, bindings[idx]); res {
		case Error:
			result = Error
		case SuccessWithInfo:
			if result == Success {
				result = SuccessWithInfo
			}
		}
	}
	return result
}

// CurrentRow returns the raw backend row under the cursor.
func (q *DataQuery) CurrentRow() (database.Row, bool) {
	if !q.hasRow() {
		return database.Row{}, false
	}
	return q.page.Rows[q.rowIdx], true
}

func (q *DataQuery) hasRow() bool {
	return q.executed && q.page != nil && q.rowIdx >= 0 && q.rowIdx < len(q.page.Rows)
}

// GetColumn materializes one column of the current row into buf.
func (q *DataQuery) GetColumn(index int, buf *buffer.Buffer) Result {
	if !q.executed {
		q.diag.AddStatusRecord(diag.SequenceError, "Query was not executed.")
		return Error
	}
	if !q.hasRow() {
		q.diag.AddStatusRecord(diag.InvalidCursorState, "Cursor has reached end of the result set.")
		return Error
	}
	if index < 1 || index > len(q.columns) {
		q.diag.AddStatusRecord(diag.InvalidDescriptorIndex, "Invalid index.")
		return Error
	}

	row := q.page.Rows[q.rowIdx]
	if index > len(row.Data) {
		return q.conversion(buf.PutNull(), index)
	}
	return q.conversion(q.columns[index-1].ReadToBuffer(row.Data[index-1], buf), index)
}

func (q *DataQuery) conversion(res buffer.ConversionResult, index int) Result {
	record := func(state diag.SQLState, sev diag.Severity, msg string) {
		q.diag.AddRecord(diag.Record{State: state, Message: msg, Severity: sev, Row: q.rowNum, Column: int32(index)})
	}

	switch res {
	case buffer.ConversionSuccess:
		return Success
	case buffer.ConversionNoData:
		return NoData
	case buffer.ConversionVarlenTruncated:
		record(diag.StringDataRightTruncated, diag.SeverityWarning, "Buffer is too small for the column data. Truncated from the right.")
		return SuccessWithInfo
	case buffer.ConversionFractionalTruncated:
		record(diag.FractionalTruncation, diag.SeverityWarning, "Buffer is too small for the column data. Fraction truncated.")
		return SuccessWithInfo
	case buffer.ConversionIndicatorNeeded:
		record(diag.IndicatorNeeded, diag.SeverityError, "Indicator is needed but not supplied for the column buffer.")
		return Error
	case buffer.ConversionUnsupported:
		record(diag.RestrictedDataTypeViolation, diag.SeverityError, "Data conversion is not supported.")
		return Error
	default:
		record(diag.GeneralError, diag.SeverityError, "Can not retrieve row column.")
		return Error
	}
}

// Close drops the result. A running prefetch is canceled, not awaited.
func (q *DataQuery) Close() Result {
	if q == nil {
		return Success
	}
	if q.cancel != nil {
		q.cancel()
	}
	q.pending = nil
	q.page = nil
	q.meta = nil
	q.columns = nil
	q.rowIdx = -1
	q.rowNum = 0
	q.executed = false
	return Success
}

// Cancel aborts backend work and closes the query. It is safe on a nil query.
func (q *DataQuery) Cancel() Result {
	if q == nil {
		return Success
	}
	q.log.Debug("cancel")
	return q.Close()
}

func (q *DataQuery) DataAvailable() bool {
	return q.hasRow() || (q.executed && q.page != nil && q.page.HasNext())
}

func (q *DataQuery) AffectedRows() int64 { return 0 }

func (q *DataQuery) RowNumber() int64 {
	if !q.hasRow() {
		q.diag.AddWarning(diag.GeneralWarning, "Cursor does not point to any data.")
		return 0
	}
	return q.rowNum
}

func (q *DataQuery) NextResultSet() Result { return NoData }
