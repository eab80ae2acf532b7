// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// memoryDSN opens a private in-memory database, used by tests.
const memoryDSN = ":memory:"

// SQLite is a Registry persisted in a SQLite database. It lets repeated runs
// of the same document into the same output directory reuse images written
// earlier.
//
// Rows are partitioned by scope. Identifiers are file names inside one
// images directory and are assigned from one document's element positions,
// so a registration is only meaningful to runs that share both.
type SQLite struct {
	db    *sql.DB
	scope string
}

// OpenSQLite opens or creates the registry database at path, creates the
// schema if it does not exist and restricts the registry to scope.
func OpenSQLite(path, scope string) (*SQLite, error) {
	dsn := memoryDSN
	if path != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating registry directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening registry database: %w", err)
	}
	if path == memoryDSN {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	s := &SQLite{db: db, scope: scope}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS images (
		scope TEXT NOT NULL,
		hash TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (scope, hash)
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

func (s *SQLite) Claim(ctx context.Context, hash, name string) (string, bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO images (scope, hash, name, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(scope, hash) DO NOTHING`,
		s.scope, hash, name, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", false, fmt.Errorf("claiming image %s: %w", hash, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("claiming image %s: %w", hash, err)
	}
	if n == 1 {
		return name, true, nil
	}

	id, ok, err := s.Lookup(ctx, hash)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, fmt.Errorf("claiming image %s: registration vanished", hash)
	}
	return id, false, nil
}

func (s *SQLite) Forget(ctx context.Context, hash string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE scope = ? AND hash = ?`, s.scope, hash); err != nil {
		return fmt.Errorf("forgetting image %s: %w", hash, err)
	}
	return nil
}

func (s *SQLite) Lookup(ctx context.Context, hash string) (string, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM images WHERE scope = ? AND hash = ?`, s.scope, hash).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("looking up image %s: %w", hash, err)
	}
	return name, true, nil
}
