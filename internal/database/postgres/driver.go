// Package postgres serves the telemetry backend contract from a PostgreSQL
// database. Tables in the current schema are the telemetry tables and the
// system.tables and system.columns views created by Bootstrap describe them.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joacominatel/sitewisedb/internal/database"
	"github.com/joacominatel/sitewisedb/internal/logging"
	"github.com/joacominatel/sitewisedb/internal/opt"
	"github.com/joacominatel/sitewisedb/internal/sqltype"
)

// timestampLayout is the text form the backend uses for timestamps.
const timestampLayout = "2006-01-02 15:04:05.000000000"

// Driver implements database.Driver for PostgreSQL.
type Driver struct {
	pool     *pgxpool.Pool
	dbName   string
	pageSize int
	log      *slog.Logger
}

// New creates a driver returning pages of at most pageSize rows. A pageSize
// of zero returns every result in one page.
func New(pageSize int) *Driver {
	return &Driver{
		pageSize: pageSize,
		log:      logging.WithComponent("postgres"),
	}
}

// Connect establishes a connection pool to PostgreSQL.
func (d *Driver) Connect(ctx context.Context, dsn string) error {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = 5
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping: %w", err)
	}

	d.pool = pool
	d.dbName = cfg.ConnConfig.Database
	d.log.Info("connected", "database", d.dbName, "host", cfg.ConnConfig.Host)
	return nil
}

// Close closes the connection pool.
func (d *Driver) Close() error {
	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
	return nil
}

// Ping checks if the connection is alive.
func (d *Driver) Ping(ctx context.Context) error {
	if d.pool == nil {
		return database.ErrNotConnected
	}
	return d.pool.Ping(ctx)
}

// DatabaseName returns the name of the connected database.
func (d *Driver) DatabaseName() string {
	return d.dbName
}

// Bootstrap creates the system schema and its introspection views over
// information_schema. It is idempotent.
func (d *Driver) Bootstrap(ctx context.Context) error {
	if d.pool == nil {
		return database.ErrNotConnected
	}
	for _, stmt := range []string{queryCreateSystemSchema, queryCreateTablesView, queryCreateColumnsView} {
		if _, err := d.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
	}
	d.log.Info("introspection views ready")
	return nil
}

// RowCount returns the approximate row count using pg_class statistics.
func (d *Driver) RowCount(ctx context.Context, table string) (int64, error) {
	if d.pool == nil {
		return 0, database.ErrNotConnected
	}
	var count int64
	err := d.pool.QueryRow(ctx, queryTableRowCount, table).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("row count: %w", err)
	}
	if count < 0 {
		count = 0
	}
	return count, nil
}

// ExecuteQuery runs sql and returns the page addressed by nextToken, which is
// the row offset of the page.
func (d *Driver) ExecuteQuery(ctx context.Context, sql, nextToken string) (*database.Page, error) {
	if d.pool == nil {
		return nil, database.ErrNotConnected
	}

	offset := 0
	if nextToken != "" {
		n, err := strconv.Atoi(nextToken)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid next token %q", nextToken)
		}
		offset = n
	}

	stmt := strings.TrimRight(strings.TrimSpace(sql), ";")
	if d.pageSize > 0 {
		stmt = fmt.Sprintf(queryPage, stmt, d.pageSize+1, offset)
	} else if offset > 0 {
		return nil, fmt.Errorf("invalid next token %q", nextToken)
	}
	d.log.Debug("execute", "sql", stmt)

	rows, err := d.pool.Query(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	page := &database.Page{
		Columns: make([]database.ColumnInfo, len(fields)),
		Rows:    []database.Row{},
	}
	for i, f := range fields {
		page.Columns[i] = database.ColumnInfo{
			Name: f.Name,
			Type: database.ColumnType{ScalarType: scalarTypeOf(f.DataTypeOID)},
		}
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := database.Row{Data: make([]database.Datum, len(values))}
		for i, v := range values {
			row.Data[i] = toDatum(v)
		}
		page.Rows = append(page.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if d.pageSize > 0 && len(page.Rows) > d.pageSize {
		page.Rows = page.Rows[:d.pageSize]
		page.NextToken = strconv.Itoa(offset + d.pageSize)
	}
	return page, nil
}

// scalarTypeOf maps a column type OID to a backend scalar type. Array and
// composite columns have none.
func scalarTypeOf(oid uint32) opt.Value[sqltype.ScalarType] {
	switch oid {
	case pgtype.BoolOID:
		return opt.Some(sqltype.Boolean)
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID:
		return opt.Some(sqltype.Int)
	case pgtype.Float4OID, pgtype.Float8OID, pgtype.NumericOID:
		return opt.Some(sqltype.Double)
	case pgtype.TimestampOID, pgtype.TimestamptzOID, pgtype.DateOID:
		return opt.Some(sqltype.Timestamp)
	case pgtype.BoolArrayOID, pgtype.Int2ArrayOID, pgtype.Int4ArrayOID, pgtype.Int8ArrayOID,
		pgtype.Float4ArrayOID, pgtype.Float8ArrayOID, pgtype.NumericArrayOID,
		pgtype.TextArrayOID, pgtype.VarcharArrayOID, pgtype.TimestampArrayOID,
		pgtype.TimestamptzArrayOID, pgtype.RecordOID:
		return opt.None[sqltype.ScalarType]()
	default:
		return opt.Some(sqltype.String)
	}
}

// toDatum converts a decoded pgx value to the backend's datum form. Scalars
// travel as text the way the telemetry service returns them.
func toDatum(v any) database.Datum {
	switch x := v.(type) {
	case nil:
		return database.Null()
	case string:
		return database.Scalar(x)
	case bool:
		return database.Scalar(strconv.FormatBool(x))
	case int16:
		return database.Scalar(strconv.FormatInt(int64(x), 10))
	case int32:
		return database.Scalar(strconv.FormatInt(int64(x), 10))
	case int64:
		return database.Scalar(strconv.FormatInt(x, 10))
	case float32:
		return database.Scalar(strconv.FormatFloat(float64(x), 'f', -1, 32))
	case float64:
		return database.Scalar(strconv.FormatFloat(x, 'f', -1, 64))
	case time.Time:
		return database.Scalar(x.UTC().Format(timestampLayout))
	case pgtype.Numeric:
		return numericDatum(x)
	case [16]byte:
		return database.Scalar(uuid.UUID(x).String())
	case []byte:
		return database.Scalar(string(x))
	case []any:
		items := make([]database.Datum, len(x))
		for i, item := range x {
			items[i] = toDatum(item)
		}
		return database.Array(items...)
	case map[string]any:
		raw, err := json.Marshal(x)
		if err != nil {
			return database.Scalar(fmt.Sprintf("%v", x))
		}
		return database.Scalar(string(raw))
	default:
		return database.Scalar(fmt.Sprintf("%v", x))
	}
}

func numericDatum(n pgtype.Numeric) database.Datum {
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return database.Null()
	}
	return database.Scalar(strconv.FormatFloat(f.Float64, 'f', -1, 64))
}
