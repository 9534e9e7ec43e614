package postgres

// SQL used to page statements and to expose the introspection views.
const (
	// queryPage wraps a statement for paging. It asks for one row more than
	// the page size so a following page can be detected without a count.
	queryPage = `SELECT * FROM (%s) AS page LIMIT %d OFFSET %d`

	queryCreateSystemSchema = `CREATE SCHEMA IF NOT EXISTS system`

	queryCreateTablesView = `
		CREATE OR REPLACE VIEW system.tables AS
		SELECT t.table_name::text AS table_name
		FROM information_schema.tables t
		WHERE t.table_schema = current_schema()
		  AND t.table_type = 'BASE TABLE'
		ORDER BY t.table_name`

	queryCreateColumnsView = `
		CREATE OR REPLACE VIEW system.columns AS
		SELECT
			c.column_name::text AS column_name,
			CASE
				WHEN c.data_type IN ('smallint', 'integer', 'bigint') THEN 'INTEGER'
				WHEN c.data_type IN ('real', 'double precision', 'numeric') THEN 'DOUBLE'
				WHEN c.data_type = 'boolean' THEN 'BOOLEAN'
				WHEN c.data_type LIKE 'timestamp%' OR c.data_type = 'date' THEN 'TIMESTAMP'
				WHEN c.data_type = 'ARRAY' THEN 'NOT_SET'
				ELSE 'STRING'
			END AS data_type,
			c.table_name::text AS table_name
		FROM information_schema.columns c
		WHERE c.table_schema = current_schema()
		ORDER BY c.table_name, c.ordinal_position`

	queryTableRowCount = `
		SELECT COALESCE(reltuples, 0)::bigint
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relname = $1
		  AND n.nspname = current_schema()`
)
