// Package memory is an in-process backend holding telemetry tables in memory.
// It answers the system.tables and system.columns introspection statements
// and table scans with an optional single-column filter, and is used by tests
// and the demo mode.
package memory

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/joacominatel/sitewisedb/internal/database"
	"github.com/joacominatel/sitewisedb/internal/logging"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

var (
	reTables  = regexp.MustCompile(`(?is)^\s*SELECT\s+table_name\s+FROM\s+system\.tables(\s+WHERE\s+table_name\s+LIKE\s+'((?:[^']|'')*)')?\s*;?\s*$`)
	reColumns = regexp.MustCompile(`(?is)^\s*SELECT\s+(.+?)\s+FROM\s+system\.columns\s+WHERE\s+table_name\s*=\s*'((?:[^']|'')*)'\s*;?\s*$`)
	reScan    = regexp.MustCompile(`(?is)^\s*SELECT\s+\*\s+FROM\s+"?([\w.]+)"?` +
		`(?:\s+WHERE\s+"?(\w+)"?\s*(?:(IS\s+NULL)|=\s*('(?:[^']|'')*'|[-+\w.]+)))?` +
		`(?:\s+LIMIT\s+(\d+))?\s*;?\s*$`)
)

// Column is one column of an in-memory table. NOT_SET columns carry nested
// values and are described without a scalar type.
type Column struct {
	Name string
	Type sqltype.ScalarType
}

// Table is an in-memory telemetry table.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]database.Datum
}

// Driver implements database.Driver over in-memory tables.
type Driver struct {
	mu         sync.RWMutex
	tables     map[string]*Table
	order      []string
	pageSize   int
	connected  bool
	dbName     string
	statements []string
	failures   map[string]error
}

// New creates a driver that splits results into pages of pageSize rows.
// A pageSize of zero returns every result in one page.
func New(pageSize int, tables ...Table) *Driver {
	d := &Driver{
		tables:   make(map[string]*Table),
		pageSize: pageSize,
		failures: make(map[string]error),
	}
	for _, t := range tables {
		d.AddTable(t)
	}
	return d
}

// AddTable registers or replaces a table.
func (d *Driver) AddTable(t Table) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := strings.ToLower(t.Name)
	if _, ok := d.tables[key]; !ok {
		d.order = append(d.order, key)
	}
	tbl := t
	d.tables[key] = &tbl
}

// FailOn makes every statement containing fragment fail with err.
func (d *Driver) FailOn(fragment string, err error) {
	d.mu.Lock()
	d.failures[strings.ToLower(fragment)] = err
	d.mu.Unlock()
}

// Statements returns the statements executed so far, one entry per page request.
func (d *Driver) Statements() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.statements))
	copy(out, d.statements)
	return out
}

// Connect marks the driver connected. The dsn, when given, names the database.
func (d *Driver) Connect(ctx context.Context, dsn string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = true
	d.dbName = "memory"
	if dsn != "" {
		d.dbName = dsn
	}
	return nil
}

// Close disconnects the driver. Tables are kept.
func (d *Driver) Close() error {
	d.mu.Lock()
	d.connected = false
	d.mu.Unlock()
	return nil
}

// Ping checks if the driver is connected.
func (d *Driver) Ping(ctx context.Context) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.connected {
		return database.ErrNotConnected
	}
	return ctx.Err()
}

// DatabaseName returns the name given to Connect.
func (d *Driver) DatabaseName() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dbName
}

// ExecuteQuery runs sql and returns the page addressed by nextToken.
func (d *Driver) ExecuteQuery(ctx context.Context, sql, nextToken string) (*database.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.statements = append(d.statements, sql)
	connected := d.connected
	var failure error
	lower := strings.ToLower(sql)
	for fragment, err := range d.failures {
		if strings.Contains(lower, fragment) {
			failure = err
			break
		}
	}
	d.mu.Unlock()

	if !connected {
		return nil, database.ErrNotConnected
	}
	if failure != nil {
		return nil, failure
	}

	logging.WithComponent("memory").Debug("execute", "sql", sql, "next_token", nextToken)

	d.mu.RLock()
	full, err := d.run(sql)
	d.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return d.page(full, nextToken)
}

// RowCount returns the number of rows held for table.
func (d *Driver) RowCount(_ context.Context, table string) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	tbl, ok := d.tables[strings.ToLower(table)]
	if !ok {
		return 0, fmt.Errorf("table %q does not exist", table)
	}
	return int64(len(tbl.Rows)), nil
}

func (d *Driver) run(sql string) (*database.Page, error) {
	if m := reTables.FindStringSubmatch(sql); m != nil {
		return d.listTables(m), nil
	}
	if m := reColumns.FindStringSubmatch(sql); m != nil {
		return d.listColumns(m[1], unquote(m[2]))
	}
	if m := reScan.FindStringSubmatch(sql); m != nil {
		var where *predicate
		if m[2] != "" {
			where = &predicate{column: m[2], isNull: m[3] != "", literal: m[4]}
		}
		return d.scan(m[1], where, m[5])
	}
	return nil, fmt.Errorf("unsupported statement: %s", sql)
}

func unquote(s string) string {
	return strings.ReplaceAll(s, "''", "'")
}

func (d *Driver) listTables(m []string) *database.Page {
	page := &database.Page{
		Columns: []database.ColumnInfo{database.ScalarColumn("table_name", sqltype.String)},
		Rows:    []database.Row{},
	}
	var pattern *database.LikePattern
	if m[1] != "" {
		pattern = database.CompileLike(unquote(m[2]))
	}
	for _, key := range d.order {
		name := d.tables[key].Name
		if pattern != nil && !pattern.Match(name) {
			continue
		}
		page.Rows = append(page.Rows, database.Row{Data: []database.Datum{database.Scalar(name)}})
	}
	return page
}

func (d *Driver) listColumns(selectList, table string) (*database.Page, error) {
	var fields []string
	for _, f := range strings.Split(selectList, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case "table_name", "column_name", "data_type":
			fields = append(fields, f)
		default:
			return nil, fmt.Errorf("unknown system.columns column %q", f)
		}
	}

	page := &database.Page{Rows: []database.Row{}}
	for _, f := range fields {
		page.Columns = append(page.Columns, database.ScalarColumn(f, sqltype.String))
	}

	tbl, ok := d.tables[strings.ToLower(table)]
	if !ok {
		return page, nil
	}
	for _, col := range tbl.Columns {
		row := database.Row{Data: make([]database.Datum, len(fields))}
		for i, f := range fields {
			switch f {
			case "table_name":
				row.Data[i] = database.Scalar(tbl.Name)
			case "column_name":
				row.Data[i] = database.Scalar(col.Name)
			case "data_type":
				row.Data[i] = database.Scalar(col.Type.DataTypeName())
			}
		}
		page.Rows = append(page.Rows, row)
	}
	return page, nil
}

// predicate is the single-column WHERE condition a scan accepts: either
// IS NULL or equality with a literal.
type predicate struct {
	column  string
	isNull  bool
	literal string
	index   int
	typ     sqltype.ScalarType
}

func (p *predicate) bind(tbl *Table) error {
	for i, col := range tbl.Columns {
		if strings.EqualFold(col.Name, p.column) {
			p.index, p.typ = i, col.Type
			return nil
		}
	}
	return fmt.Errorf("column %q does not exist in table %q", p.column, tbl.Name)
}

func (p *predicate) match(row []database.Datum) bool {
	if p.index >= len(row) {
		return p.isNull
	}
	d := row[p.index]
	if p.isNull {
		return d.IsNull()
	}
	if !d.IsScalar() {
		return false
	}
	value := *d.ScalarValue
	if strings.HasPrefix(p.literal, "'") {
		return value == unquote(p.literal[1:len(p.literal)-1])
	}
	switch p.typ {
	case sqltype.Int, sqltype.Double:
		want, err := strconv.ParseFloat(p.literal, 64)
		if err != nil {
			return false
		}
		got, err := strconv.ParseFloat(value, 64)
		return err == nil && got == want
	case sqltype.Boolean:
		return strings.EqualFold(value, p.literal)
	}
	return value == p.literal
}

func (d *Driver) scan(name string, where *predicate, limit string) (*database.Page, error) {
	tbl, ok := d.tables[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("table %q does not exist", name)
	}
	if where != nil {
		if err := where.bind(tbl); err != nil {
			return nil, err
		}
	}

	page := &database.Page{Rows: []database.Row{}}
	for _, col := range tbl.Columns {
		info := database.ColumnInfo{Name: col.Name}
		if col.Type != sqltype.NotSet {
			info = database.ScalarColumn(col.Name, col.Type)
		}
		page.Columns = append(page.Columns, info)
	}

	rows := tbl.Rows
	if where != nil {
		rows = nil
		for _, r := range tbl.Rows {
			if where.match(r) {
				rows = append(rows, r)
			}
		}
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return nil, fmt.Errorf("parse limit: %w", err)
		}
		if n < len(rows) {
			rows = rows[:n]
		}
	}
	for _, r := range rows {
		data := make([]database.Datum, len(r))
		copy(data, r)
		page.Rows = append(page.Rows, database.Row{Data: data})
	}
	return page, nil
}

func (d *Driver) page(full *database.Page, token string) (*database.Page, error) {
	if d.pageSize <= 0 {
		if token != "" {
			return nil, fmt.Errorf("invalid next token %q", token)
		}
		return full, nil
	}

	offset := 0
	if token != "" {
		n, err := strconv.Atoi(token)
		if err != nil || n < 0 || n > len(full.Rows) {
			return nil, fmt.Errorf("invalid next token %q", token)
		}
		offset = n
	}

	end := offset + d.pageSize
	out := &database.Page{Columns: full.Columns}
	if end < len(full.Rows) {
		out.Rows = full.Rows[offset:end]
		out.NextToken = strconv.Itoa(end)
	} else {
		out.Rows = full.Rows[offset:]
	}
	return out, nil
}
