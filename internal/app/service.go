package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joacominatel/sitewisedb/internal/buffer"
	"github.com/joacominatel/sitewisedb/internal/config"
	"github.com/joacominatel/sitewisedb/internal/database"
	"github.com/joacominatel/sitewisedb/internal/diag"
	"github.com/joacominatel/sitewisedb/internal/logging"
	"github.com/joacominatel/sitewisedb/internal/meta"
	"github.com/joacominatel/sitewisedb/internal/opt"
	"github.com/joacominatel/sitewisedb/internal/query"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

// NullText is how SQL NULL is displayed.
const NullText = "NULL"

const (
	// DefaultMaxRows caps how many rows ExecuteQuery materializes.
	DefaultMaxRows = 10000

	cellCapacity = 4096
)

// SchemaTree represents the loaded table list for the explorer.
type SchemaTree struct {
	Database string
	Tables   []TableNode
}

// TableNode is one table of the schema tree.
type TableNode struct {
	Name string
	Type string
}

// Column is one row of a column enumeration.
type Column struct {
	Name       string
	TypeName   string
	Nullable   bool
	Ordinal    int64
	ColumnSize int64
	Remarks    string
}

// describedFields are the descriptor fields DescribeColumn reports, in order.
var describedFields = []uint16{
	sqltype.DescName,
	sqltype.DescTableName,
	sqltype.DescSchemaName,
	sqltype.DescCatalogName,
	sqltype.DescTypeName,
	sqltype.DescConciseType,
	sqltype.DescLength,
	sqltype.DescOctetLength,
	sqltype.DescDisplaySize,
	sqltype.DescPrecision,
	sqltype.DescScale,
	sqltype.DescNumPrecRadix,
	sqltype.DescNullable,
	sqltype.DescCaseSensitive,
	sqltype.DescSearchable,
	sqltype.DescUnsigned,
	sqltype.DescFixedPrecScale,
	sqltype.DescAutoUniqueValue,
	sqltype.DescUpdatable,
	sqltype.DescLiteralPrefix,
	sqltype.DescLiteralSuffix,
}

// Cell is one materialized value. Text is empty when Null is set.
type Cell struct {
	Text string
	Null bool
}

// Value returns a cell holding text.
func Value(text string) Cell { return Cell{Text: text} }

// Null returns a NULL cell.
func Null() Cell { return Cell{Null: true} }

// String returns the display form of the cell.
func (c Cell) String() string {
	if c.Null {
		return NullText
	}
	return c.Text
}

// ResultSet is a fully materialized query result. Types holds the SQL type
// name of each column as the driver describes it.
type ResultSet struct {
	Columns   []string
	Types     []string
	Rows      [][]Cell
	RowCount  int
	Duration  time.Duration
	Warnings  []string
	Truncated bool
}

// CatalogFunction names a catalog function the backend has no data for.
type CatalogFunction int

const (
	PrimaryKeys CatalogFunction = iota
	ForeignKeys
	SpecialColumns
	Statistics
	TablePrivileges
	ColumnPrivileges
	Procedures
	ProcedureColumns
)

func (f CatalogFunction) newQuery(conn *query.Connection, d *diag.Diagnostics) *query.UnsupportedQuery {
	switch f {
	case ForeignKeys:
		return query.NewForeignKeysQuery(conn, d)
	case SpecialColumns:
		return query.NewSpecialColumnsQuery(conn, d)
	case Statistics:
		return query.NewStatisticsQuery(conn, d)
	case TablePrivileges:
		return query.NewTablePrivilegesQuery(conn, d)
	case ColumnPrivileges:
		return query.NewColumnPrivilegesQuery(conn, d)
	case Procedures:
		return query.NewProceduresQuery(conn, d)
	case ProcedureColumns:
		return query.NewProcedureColumnsQuery(conn, d)
	default:
		return query.NewPrimaryKeysQuery(conn, d)
	}
}

// Service coordinates application-level operations between the TUI and the
// query engine.
type Service struct {
	driver   database.Driver
	conn     *query.Connection
	settings config.Settings
	maxRows  int
	dsn      string
	log      *slog.Logger
}

// NewService creates a new application service.
func NewService(driver database.Driver, settings config.Settings) *Service {
	return &Service{
		driver:   driver,
		conn:     query.NewConnection(driver, settings),
		settings: settings,
		maxRows:  DefaultMaxRows,
		log:      logging.WithComponent("app"),
	}
}

// SetMaxRows changes the ExecuteQuery row cap. Zero or less removes it.
func (s *Service) SetMaxRows(n int) {
	s.maxRows = n
}

// Settings returns the driver modes queries run with.
func (s *Service) Settings() config.Settings {
	return s.settings
}

// Connect establishes a backend connection.
func (s *Service) Connect(ctx context.Context, dsn string) error {
	if err := s.driver.Connect(ctx, dsn); err != nil {
		return &ErrConnection{Cause: err}
	}
	s.dsn = dsn
	s.log.Info("connected", "database", s.driver.DatabaseName())
	return nil
}

// Disconnect closes the backend connection.
func (s *Service) Disconnect() error {
	return s.driver.Close()
}

// LoadSchemaTree enumerates every table of the connected database.
func (s *Service) LoadSchemaTree(ctx context.Context) (*SchemaTree, error) {
	d := diag.New()
	q := query.NewTableMetadataQuery(s.conn, d,
		opt.None[string](), opt.None[string](), opt.Some("%"), opt.None[string]())
	defer q.Close()

	if res := q.Execute(ctx); !res.OK() {
		return nil, &ErrCatalog{Function: "SQLTables", Cause: d.Err()}
	}

	name := buffer.NewChar(cellCapacity)
	kind := buffer.NewChar(cellCapacity)
	bindings := query.ColumnBindingMap{
		query.TablesTableName: name,
		query.TablesTableType: kind,
	}

	tree := &SchemaTree{Database: s.driver.DatabaseName()}
	for {
		res := q.FetchNextRow(ctx, bindings)
		if res == query.NoData {
			break
		}
		if !res.OK() {
			return nil, &ErrCatalog{Function: "SQLTables", Cause: d.Err()}
		}
		tree.Tables = append(tree.Tables, TableNode{Name: name.String(), Type: kind.String()})
	}
	return tree, nil
}

// LoadColumns enumerates the columns of one table.
func (s *Service) LoadColumns(ctx context.Context, table string) ([]Column, error) {
	d := diag.New()
	q := query.NewColumnMetadataQuery(s.conn, d,
		opt.None[string](), opt.None[string](), opt.Some(escapeLike(table)), opt.None[string]())
	defer q.Close()

	res := q.Execute(ctx)
	if res == query.NoData {
		return nil, nil
	}
	if !res.OK() {
		return nil, &ErrCatalog{Function: "SQLColumns", Cause: d.Err()}
	}

	tableName := buffer.NewChar(cellCapacity)
	name := buffer.NewChar(cellCapacity)
	typeName := buffer.NewChar(cellCapacity)
	size := buffer.New(buffer.KindInt64, 0)
	ordinal := buffer.New(buffer.KindInt64, 0)
	isNullable := buffer.NewChar(8)
	remarks := buffer.NewChar(cellCapacity)
	bindings := query.ColumnBindingMap{
		query.ColumnsTableName:       tableName,
		query.ColumnsColumnName:      name,
		query.ColumnsTypeName:        typeName,
		query.ColumnsColumnSize:      size,
		query.ColumnsRemarks:         remarks,
		query.ColumnsOrdinalPosition: ordinal,
		query.ColumnsIsNullable:      isNullable,
	}

	var columns []Column
	for {
		res := q.FetchNextRow(ctx, bindings)
		if res == query.NoData {
			break
		}
		if !res.OK() {
			return nil, &ErrCatalog{Function: "SQLColumns", Cause: d.Err()}
		}
		if !strings.EqualFold(tableName.String(), table) {
			continue
		}
		col := Column{
			Name:     name.String(),
			TypeName: typeName.String(),
			Nullable: isNullable.String() != "NO",
			Remarks:  remarks.String(),
		}
		col.ColumnSize, _ = size.Int64()
		col.Ordinal, _ = ordinal.Int64()
		columns = append(columns, col)
	}
	return columns, nil
}

// escapeLike makes a table name match itself literally as a LIKE pattern.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// TableRowCount returns the row count of a table when the backend can
// estimate it.
func (s *Service) TableRowCount(ctx context.Context, table string) (int64, error) {
	rc, ok := s.driver.(database.RowCounter)
	if !ok {
		return 0, fmt.Errorf("row count: %w", errors.ErrUnsupported)
	}
	return rc.RowCount(ctx, table)
}

// ExecuteQuery runs a data query and materializes its rows as text.
func (s *Service) ExecuteQuery(ctx context.Context, sql string) (*ResultSet, error) {
	start := time.Now()
	d := diag.New()
	q := query.NewDataQuery(s.conn, d, sql)
	defer q.Close()

	res := q.Execute(ctx)
	if res == query.Error {
		return nil, &ErrQuery{Query: sql, Cause: d.Err()}
	}

	result, err := s.collect(ctx, q, res, d)
	if err != nil {
		return nil, &ErrQuery{Query: sql, Cause: err}
	}
	result.Duration = time.Since(start)
	s.log.Debug("query executed",
		"query_id", q.ID(),
		"rows", result.RowCount,
		"truncated", result.Truncated,
		"duration", result.Duration)
	return result, nil
}

// RunCatalogFunction runs a catalog function the backend cannot answer. The
// result has the function's columns, no rows and the driver's warnings.
func (s *Service) RunCatalogFunction(ctx context.Context, fn CatalogFunction) (*ResultSet, error) {
	start := time.Now()
	d := diag.New()
	q := fn.newQuery(s.conn, d)
	defer q.Close()

	res := q.Execute(ctx)
	if res == query.Error {
		return nil, &ErrCatalog{Function: q.Function(), Cause: d.Err()}
	}
	result, err := s.collect(ctx, q, res, d)
	if err != nil {
		return nil, &ErrCatalog{Function: q.Function(), Cause: err}
	}
	result.Duration = time.Since(start)
	return result, nil
}

// collect binds a text buffer to every column of an executed query and reads
// rows until the query runs dry or maxRows is reached.
func (s *Service) collect(ctx context.Context, q query.Query, res query.Result, d *diag.Diagnostics) (*ResultSet, error) {
	result := &ResultSet{}
	bindings := query.ColumnBindingMap{}
	cells := make([]*buffer.Buffer, len(q.Meta()))
	for i, col := range q.Meta() {
		result.Columns = append(result.Columns, col.Name())
		typeName, _ := col.GetAttributeString(sqltype.DescTypeName)
		result.Types = append(result.Types, typeName)
		cells[i] = buffer.NewChar(cellCapacity)
		bindings[i+1] = cells[i]
	}

	for res != query.NoData {
		if s.maxRows > 0 && len(result.Rows) >= s.maxRows {
			result.Truncated = true
			q.Cancel()
			break
		}
		res = q.FetchNextRow(ctx, bindings)
		if res == query.NoData {
			break
		}
		if res == query.Error {
			return nil, d.Err()
		}
		row := make([]Cell, len(cells))
		for i, cell := range cells {
			if cell.IsNull() {
				row[i] = Null()
			} else {
				row[i] = Value(cell.String())
			}
		}
		result.Rows = append(result.Rows, row)
	}

	result.RowCount = len(result.Rows)
	result.Warnings = d.Warnings()
	return result, nil
}

// DescribeColumn lists the descriptor fields of one result column of table as
// a two-column result set.
func (s *Service) DescribeColumn(ctx context.Context, table, column string) (*ResultSet, error) {
	start := time.Now()
	sql := fmt.Sprintf("SELECT * FROM %s LIMIT 0", table)
	d := diag.New()
	q := query.NewDataQuery(s.conn, d, sql)
	defer q.Close()

	if res := q.Execute(ctx); res == query.Error {
		return nil, &ErrQuery{Query: sql, Cause: d.Err()}
	}

	var col meta.ColumnMeta
	found := false
	for _, m := range q.Meta() {
		if strings.EqualFold(m.Name(), column) {
			col, found = m, true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("column %q not found in %s", column, table)
	}
	col.TableName = opt.Some(table)

	result := &ResultSet{
		Columns: []string{"field", "value"},
		Types:   []string{"VARCHAR", "VARCHAR"},
	}
	for _, field := range describedFields {
		value, ok := col.GetAttributeString(field)
		if !ok {
			n, _ := col.GetAttributeInt(field)
			value = strconv.FormatInt(n, 10)
		}
		result.Rows = append(result.Rows, []Cell{Value(meta.AttrIDString(field)), Value(value)})
	}
	result.RowCount = len(result.Rows)
	result.Duration = time.Since(start)
	return result, nil
}

// AllTableNames extracts every table name from a schema tree.
func (s *Service) AllTableNames(tree *SchemaTree) []string {
	if tree == nil {
		return nil
	}
	names := make([]string, 0, len(tree.Tables))
	for _, t := range tree.Tables {
		names = append(names, t.Name)
	}
	return names
}

// DatabaseName returns the current database name.
func (s *Service) DatabaseName() string {
	return s.driver.DatabaseName()
}
