// Package cache decorates a backend driver with a time-bounded cache for
// introspection pages, so repeated catalog calls do not reach the backend.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joacominatel/sitewisedb/internal/database"
	"github.com/joacominatel/sitewisedb/internal/logging"
)

// keyPrefix namespaces every cache entry.
const keyPrefix = "sitewisedb:page:"

// Store is a byte-valued key/value store with expiry.
type Store interface {
	// Get returns the value for key. A missing key is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Driver caches the pages of system.tables and system.columns statements.
// Every other statement goes straight to the wrapped driver.
type Driver struct {
	database.Driver

	store Store
	ttl   time.Duration
	log   *slog.Logger
}

// New wraps inner with a cache kept in store.
func New(inner database.Driver, store Store, ttl time.Duration) *Driver {
	return &Driver{
		Driver: inner,
		store:  store,
		ttl:    ttl,
		log:    logging.WithComponent("cache"),
	}
}

// ExecuteQuery serves introspection pages from the cache when possible. Store
// failures are logged and the backend is used instead.
func (d *Driver) ExecuteQuery(ctx context.Context, sql, nextToken string) (*database.Page, error) {
	if !database.IsIntrospection(sql) {
		return d.Driver.ExecuteQuery(ctx, sql, nextToken)
	}

	key := d.key(sql, nextToken)
	if raw, ok, err := d.store.Get(ctx, key); err != nil {
		d.log.Warn("cache read failed", "error", err)
	} else if ok {
		var page database.Page
		if err := json.Unmarshal(raw, &page); err == nil {
			d.log.Debug("cache hit", "sql", sql)
			return &page, nil
		}
		d.log.Warn("discarding unreadable cache entry", "key", key)
	}

	page, err := d.Driver.ExecuteQuery(ctx, sql, nextToken)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(page)
	if err != nil {
		d.log.Warn("cache encode failed", "error", err)
		return page, nil
	}
	if err := d.store.Set(ctx, key, raw, d.ttl); err != nil {
		d.log.Warn("cache write failed", "error", err)
	}
	return page, nil
}

// RowCount forwards to the wrapped driver when it can count rows.
func (d *Driver) RowCount(ctx context.Context, table string) (int64, error) {
	rc, ok := d.Driver.(database.RowCounter)
	if !ok {
		return 0, fmt.Errorf("row count: %w", errors.ErrUnsupported)
	}
	return rc.RowCount(ctx, table)
}

func (d *Driver) key(sql, nextToken string) string {
	sum := sha256.Sum256([]byte(d.Driver.DatabaseName() + "\x00" + sql + "\x00" + nextToken))
	return keyPrefix + hex.EncodeToString(sum[:])
}
