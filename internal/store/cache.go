// Package store persists prepared datasets in a local SQLite cache so a
// restart does not repeat the preparation pipeline. The cache is
// content-addressed (source path + file hash); the flat source files stay
// the only source of truth.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/metroviz/crimedash/internal/model"
)

// Cache is a SQLite-backed dataset cache.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the cache database and configures WAL mode.
func Open(dsn string) (*Cache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &Cache{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS dataset_cache (
	source_path  TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	incidents    TEXT NOT NULL,
	prepared_at  DATETIME NOT NULL,
	PRIMARY KEY (source_path, content_hash)
);

CREATE INDEX IF NOT EXISTS idx_dataset_cache_path ON dataset_cache(source_path);
`

// Migrate creates the cache schema.
func (c *Cache) Migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached incidents for (path, hash), or ok=false on a miss.
func (c *Cache) Get(ctx context.Context, path, hash string) ([]model.Incident, bool, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT incidents FROM dataset_cache WHERE source_path = ? AND content_hash = ?`,
		path, hash,
	)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "store: get cached dataset")
	}

	var incidents []model.Incident
	if err := json.Unmarshal([]byte(payload), &incidents); err != nil {
		return nil, false, eris.Wrap(err, "store: unmarshal cached dataset")
	}
	return incidents, true, nil
}

// Put stores the prepared incidents for (path, hash), evicting entries for
// older content of the same path.
func (c *Cache) Put(ctx context.Context, path, hash string, incidents []model.Incident) error {
	payload, err := json.Marshal(incidents)
	if err != nil {
		return eris.Wrap(err, "store: marshal dataset")
	}

	// Evict and insert atomically so an interrupted Put never leaves the
	// path without any entry.
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin put")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM dataset_cache WHERE source_path = ? AND content_hash != ?`,
		path, hash,
	); err != nil {
		return eris.Wrap(err, "store: evict stale entries")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO dataset_cache (source_path, content_hash, incidents, prepared_at)
		 VALUES (?, ?, ?, ?)`,
		path, hash, string(payload), time.Now().UTC(),
	); err != nil {
		return eris.Wrap(err, "store: put dataset")
	}

	return eris.Wrap(tx.Commit(), "store: commit put")
}

// Invalidate drops every cached entry for the given source path.
func (c *Cache) Invalidate(ctx context.Context, path string) error {
	_, err := c.db.ExecContext(ctx,
		`DELETE FROM dataset_cache WHERE source_path = ?`, path,
	)
	return eris.Wrap(err, "store: invalidate")
}
