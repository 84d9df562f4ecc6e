// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database: it lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. Use ":memory:"
// for a throwaway database in tests.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go translation
// of the SQLite C code, so no C compiler is needed.
//
// BOARD TABLES:
// The board is four key-value maps plus two counters. Each map gets a table:
//
//	postings        posting id → posting        (seq column keeps insertion order)
//	posting_owners  posting id → identity
//	replies         reply id   → reply
//	reply_postings  reply id   → posting id     (seq column keeps insertion order)
//	board_state     the two counters; its single row exists once initialized
//
// There is deliberately no foreign key from reply_postings to postings: a
// reply may name a posting that does not exist (yet).
package sqlite

import (
	"database/sql"
	"fmt"

	// BLANK IMPORT:
	// The sqlite package's init() registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
// It implements repository.BoardStore (board.go) and repository.UserRepository (user.go).
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/jobboard.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (great for tests, lost on close)
//
// ONE CONNECTION:
// Every ":memory:" connection is its own empty database, and SQLite allows a
// single writer anyway, so the pool is capped at one connection. All board
// work happens inside a transaction on that connection.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	// Ping verifies the connection actually works.
	// Without this, a bad path or permissions issue would only surface
	// on the first query, which is much harder to debug.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: executing %q: %w", pragma, err)
		}
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
//
// ALWAYS DEFER CLOSE:
//
//	db, err := sqlite.New("data/jobboard.db")
//	if err != nil { ... }
//	defer db.Close()
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate runs all database migrations.
// CREATE TABLE IF NOT EXISTS is safe to run on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS board_state (
			singleton       INTEGER PRIMARY KEY CHECK (singleton = 1),
			next_posting_id INTEGER NOT NULL,
			next_reply_id   INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS postings (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          INTEGER NOT NULL UNIQUE,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			contact     TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS posting_owners (
			posting_id INTEGER PRIMARY KEY,
			identity   TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS replies (
			reply_id    INTEGER PRIMARY KEY,
			github      TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			contact     TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS reply_postings (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			reply_id   INTEGER NOT NULL UNIQUE,
			posting_id INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reply_postings_posting_id ON reply_postings(posting_id, seq);
	`)
	if err != nil {
		return fmt.Errorf("creating board tables: %w", err)
	}

	// github_id is UNIQUE: each GitHub account maps to exactly one row.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         TEXT PRIMARY KEY,
			github_id  INTEGER NOT NULL UNIQUE,
			login      TEXT NOT NULL,
			email      TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	return nil
}
