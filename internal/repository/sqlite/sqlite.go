// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// The result store is an idempotency cache with three small related tables —
// an embedded database that lives inside the binary is a perfect fit. No
// separate database server to install, configure, or manage, and tests get a
// throwaway store with ":memory:".
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means a C compiler at build time and
// painful cross-compilation. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"

	// Side-effect import: the driver registers itself with database/sql
	// under the name "sqlite" at init time.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements repository.WrappedRepository.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath (":memory:" for an in-memory
// store) and runs migrations.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path or permissions problem
	// surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress — several
	// requests can replay cached results while one pipeline run persists.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// SQLite ships with foreign keys OFF; the snapshot→profile and
	// artifact→snapshot references need them on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the three result-store tables.
//
// The two UNIQUE constraints are not decoration — they are the
// first-writer-wins backstop for the pipeline's idempotency guarantees:
// profiles.username makes "exactly one profile per username" hold under
// races, and artifact_records(snapshot_id, stat_name) makes "exactly one
// artifact per (snapshot, stat)" hold even if a run is ever retried.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			id           TEXT PRIMARY KEY,
			username     TEXT NOT NULL UNIQUE,
			avatar_url   TEXT NOT NULL DEFAULT '',
			display_name TEXT NOT NULL DEFAULT '',
			bio          TEXT NOT NULL DEFAULT '',
			created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating profiles table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS stats_snapshots (
			id                 TEXT PRIMARY KEY,
			profile_id         TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
			total_commits      INTEGER NOT NULL DEFAULT 0,
			total_repositories INTEGER NOT NULL DEFAULT 0,
			stars_received     INTEGER NOT NULL DEFAULT 0,
			contribution_score INTEGER NOT NULL DEFAULT 0,
			most_used_language TEXT,
			collaborator_count INTEGER,
			follower_count     INTEGER NOT NULL DEFAULT 0,
			generated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_profile ON stats_snapshots(profile_id, generated_at);
	`)
	if err != nil {
		return fmt.Errorf("creating stats_snapshots table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS artifact_records (
			id          TEXT PRIMARY KEY,
			snapshot_id TEXT NOT NULL REFERENCES stats_snapshots(id) ON DELETE CASCADE,
			stat_name   TEXT NOT NULL,
			stat_value  TEXT NOT NULL DEFAULT '',
			prompt      TEXT NOT NULL DEFAULT '',
			quotation   TEXT NOT NULL DEFAULT '',
			image_url   TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (snapshot_id, stat_name)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating artifact_records table: %w", err)
	}

	return nil
}
