package logging

import "log/slog"

// WithComponent creates a logger tagged with a subsystem name.
//
//	log := logging.WithComponent("query")
//	log.Debug("executing", "sql", sql)
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithTable creates a logger tagged with a table name.
func WithTable(table string) *slog.Logger {
	return GetLogger().With("table", table)
}

// WithQuery creates a logger tagged with a query handle id and kind.
func WithQuery(id, kind string) *slog.Logger {
	return GetLogger().With("component", "query", "query_id", id, "query_type", kind)
}
