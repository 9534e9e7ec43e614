package database

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by drivers used before Connect or after Close.
var ErrNotConnected = errors.New("not connected")

// Driver is the query-only telemetry backend.
// All implementations must be safe for concurrent use.
type Driver interface {
	// Connect establishes a connection to the backend.
	Connect(ctx context.Context, dsn string) error

	// Close closes the connection.
	Close() error

	// Ping checks if the connection is alive.
	Ping(ctx context.Context) error

	// ExecuteQuery runs a query string and returns one page of results.
	// An empty nextToken requests the first page; later pages are requested
	// with the token carried by the previous one.
	ExecuteQuery(ctx context.Context, sql, nextToken string) (*Page, error)

	// DatabaseName returns the name of the connected database.
	DatabaseName() string
}

// RowCounter is implemented by backends that can estimate a table's size.
type RowCounter interface {
	RowCount(ctx context.Context, table string) (int64, error)
}
