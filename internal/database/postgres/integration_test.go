//go:build integration

package postgres_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/joacominatel/sitewisedb/internal/buffer"
	"github.com/joacominatel/sitewisedb/internal/config"
	"github.com/joacominatel/sitewisedb/internal/database/postgres"
	"github.com/joacominatel/sitewisedb/internal/diag"
	"github.com/joacominatel/sitewisedb/internal/opt"
	"github.com/joacominatel/sitewisedb/internal/query"
)

const schema = `
	CREATE TABLE raw_time_series (
		asset_id        text NOT NULL,
		property_id     text NOT NULL,
		event_timestamp timestamp NOT NULL,
		quality         text NOT NULL,
		boolean_value   boolean,
		int_value       integer,
		double_value    double precision,
		string_value    text
	);
	CREATE TABLE asset (
		asset_id   text PRIMARY KEY,
		asset_name text NOT NULL,
		asset_tags text[]
	);
	INSERT INTO asset VALUES ('farm-1', 'Wind Farm', ARRAY['site', 'north']);
	INSERT INTO raw_time_series
	SELECT 'turbine-1', 'rpm', TIMESTAMP '2022-11-09 23:52:51.554' + (n || ' minutes')::interval,
	       'GOOD', NULL, NULL, 10 + n, NULL
	FROM generate_series(0, 24) AS n;
`

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("telemetry"),
		tcpostgres.WithUsername("sitewise"),
		tcpostgres.WithPassword("sitewise"),
		tcpostgres.BasicWaitStrategies(),
	)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("seed connect: %v", err)
	}
	defer conn.Close(ctx)
	if _, err := conn.Exec(ctx, schema); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return dsn
}

func TestPostgresBackend(t *testing.T) {
	dsn := startPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	drv := postgres.New(10)
	if err := drv.Connect(ctx, dsn); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer drv.Close()
	if err := drv.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if drv.DatabaseName() != "telemetry" {
		t.Errorf("DatabaseName = %q", drv.DatabaseName())
	}

	conn := query.NewConnection(drv, config.DefaultSettings())

	tables := query.NewTableMetadataQuery(conn, diag.New(), opt.None[string](), opt.None[string](), opt.Some("%"), opt.None[string]())
	if res := tables.Execute(ctx); res != query.Success {
		t.Fatalf("tables Execute = %s", res)
	}
	var names []string
	for _, tm := range tables.Rows() {
		names = append(names, tm.TableName.Or(""))
	}
	if !slices.Equal(names, []string{"asset", "raw_time_series"}) {
		t.Errorf("tables = %v", names)
	}

	cols := query.NewColumnMetadataQuery(conn, diag.New(), opt.None[string](), opt.None[string](), opt.Some("raw_time_series"), opt.Some("%"))
	if res := cols.Execute(ctx); res != query.Success {
		t.Fatalf("columns Execute = %s", res)
	}
	if n := len(cols.Rows()); n != 8 {
		t.Errorf("columns = %d", n)
	}

	data := query.NewDataQuery(conn, diag.New(), "SELECT * FROM raw_time_series ORDER BY event_timestamp")
	if res := data.Execute(ctx); res != query.Success {
		t.Fatalf("data Execute = %s", res)
	}
	ts := buffer.New(buffer.KindTimestamp, 0)
	value := buffer.New(buffer.KindDouble, 0)
	rows := 0
	for data.FetchNextRow(ctx, query.ColumnBindingMap{3: ts, 7: value}) == query.Success {
		rows++
		if rows == 1 {
			got, _ := ts.Timestamp()
			if got.Seconds != 1668037971 || got.Fraction != 554000000 {
				t.Errorf("first timestamp = %+v", got)
			}
		}
	}
	if rows != 25 {
		t.Errorf("rows = %d, want 25", rows)
	}
	if v, _ := value.Float64(); v != 34 {
		t.Errorf("last value = %v", v)
	}

	arr := query.NewDataQuery(conn, diag.New(), "SELECT asset_tags FROM asset")
	if res := arr.Execute(ctx); res != query.Success {
		t.Fatalf("array Execute = %s", res)
	}
	tags := buffer.NewChar(64)
	if res := arr.FetchNextRow(ctx, query.ColumnBindingMap{1: tags}); res != query.Success || tags.String() != "[site,north]" {
		t.Errorf("tags = %s %q", res, tags.String())
	}

	if n, err := drv.RowCount(ctx, "raw_time_series"); err != nil || n < 0 {
		t.Errorf("RowCount = %d, %v", n, err)
	}
}
