package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const entriesTable = "journal_entries"

const createEntriesTable = `CREATE TABLE IF NOT EXISTS journal_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL,
	text TEXT NOT NULL,
	source_type TEXT NOT NULL DEFAULT 'text',
	tags TEXT NOT NULL DEFAULT '',
	mood_label TEXT NOT NULL DEFAULT ''
);`

// The (text, date) lookup backs the duplicate guard. It is deliberately not UNIQUE:
// duplicate suppression is advisory and happens in the application.
const createEntriesIndex = `CREATE INDEX IF NOT EXISTS idx_journal_entries_date_text ON journal_entries (date, text);`

// New opens a SQLite database connection at the given path.
// It sets a busy timeout so concurrent import workers wait for the write lock,
// and applies connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000"
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		createEntriesTable,
		createEntriesIndex,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// Reset drops the journal table and recreates it empty.
// Identifiers restart from 1 afterwards.
func Reset(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reset: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmts := []string{
		"DROP TABLE IF EXISTS " + entriesTable,
		// AUTOINCREMENT keeps its counter in sqlite_sequence; clear it so ids restart.
		"DELETE FROM sqlite_sequence WHERE name = '" + entriesTable + "'",
		createEntriesTable,
		createEntriesIndex,
	}
	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			// sqlite_sequence only exists once an AUTOINCREMENT table has been created.
			if i == 1 {
				continue
			}
			return fmt.Errorf("failed to reset journal table: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reset: %w", err)
	}
	return nil
}
