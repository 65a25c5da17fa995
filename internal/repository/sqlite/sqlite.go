// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// DOCUMENTS IN A RELATIONAL FILE:
// Profiles and posts are aggregates: a post owns its likes and comments, a
// profile owns its experience and education entries. They are always read and
// written as a whole, so each one is stored as a single JSON document in a
// `doc` column, next to the few columns we need to query by (id, user_id,
// created_at). Users are plain rows, as before.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere Go works.
//
// OPTIMISTIC CONCURRENCY:
// Every document row carries a `version`. An update reads (doc, version),
// applies the mutation in memory, then writes with
//
//	UPDATE ... SET doc = ?, version = version + 1 WHERE id = ? AND version = ?
//
// If another request wrote the row in between, zero rows match and we start
// over from a fresh read. Two users liking the same post at the same moment
// both end up in the like list instead of one overwriting the other.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/devconnector/internal/apperror"
	"github.com/sakif/devconnector/internal/repository"
)

// errVersionConflict is reported (wrapped in apperror.Storage) when an update
// keeps losing the version race.
var errVersionConflict = errors.New("sqlite: version conflict")

// DB wraps a sql.DB connection pool and provides repository methods.
// It implements the User, Profile and Post repositories.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/devconnector.db" → file-based database (persistent)
//   - ":memory:"             → in-memory database (great for tests, lost on close)
func New(dbPath string) (*DB, error) {
	inMemory := dbPath == ":memory:"

	dsn := dbPath
	if !inMemory {
		// busy_timeout makes concurrent writers wait for the lock instead of
		// failing immediately with SQLITE_BUSY. Pragmas in the DSN apply to
		// every pooled connection, not only the first one.
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" is its own empty database, so the pool
	// must never open a second one.
	if inMemory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
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

// Ping checks that the database is reachable. Used by the health endpoint.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the tables. CREATE TABLE IF NOT EXISTS is idempotent, so
// this runs on every start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			avatar        TEXT NOT NULL DEFAULT '',
			created_at    INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// user_id is UNIQUE: at most one profile per user.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL UNIQUE,
			doc        TEXT NOT NULL,
			version    INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating profiles table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS posts (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			doc        TEXT NOT NULL,
			version    INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
		CREATE INDEX IF NOT EXISTS idx_posts_user_id ON posts(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating posts table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var se *moderncsqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		(code == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE"))
}

// updateDoc runs the optimistic read-mutate-write loop for one document row.
// table and keyCol are package constants, never user input.
func updateDoc[T any](
	ctx context.Context,
	db *DB,
	table, keyCol, key string,
	notFound func() error,
	mutate func(T) (T, error),
) (*T, error) {
	selectQ := fmt.Sprintf(`SELECT doc, version FROM %s WHERE %s = ?`, table, keyCol)
	updateQ := fmt.Sprintf(`UPDATE %s SET doc = ?, version = version + 1 WHERE %s = ? AND version = ?`, table, keyCol)

	for attempt := 0; attempt < repository.MaxUpdateAttempts; attempt++ {
		var (
			raw     string
			version int64
		)
		err := db.conn.QueryRowContext(ctx, selectQ, key).Scan(&raw, &version)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound()
		}
		if err != nil {
			return nil, apperror.Storage("loading "+table, err)
		}

		var current T
		if err := json.Unmarshal([]byte(raw), &current); err != nil {
			return nil, apperror.Storage("decoding "+table, err)
		}

		next, err := mutate(current)
		if err != nil {
			return nil, err
		}

		doc, err := json.Marshal(next)
		if err != nil {
			return nil, apperror.Storage("encoding "+table, err)
		}

		result, err := db.conn.ExecContext(ctx, updateQ, string(doc), key, version)
		if err != nil {
			return nil, apperror.Storage("updating "+table, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return nil, apperror.Storage("checking rows affected", err)
		}
		if n == 1 {
			return &next, nil
		}
		// lost the race, reload and try again
	}

	return nil, apperror.Storage("updating "+table, errVersionConflict)
}
