package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_entry_store.go -package=mocks dreamweaver-ai/internal/storage EntryStore,EntrySession,SessionProvider

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

var entryColumns = []string{"id", "date", "text", "source_type", "tags", "mood_label"}

// EntryStore defines the interface for journal entry storage operations.
type EntryStore interface {
	// Insert stores a new entry and sets entry.ID to the assigned identifier.
	Insert(ctx context.Context, entry *JournalEntry) error
	// FindByTextAndDate returns the first entry with exactly this text and date.
	// Returns nil and ErrNotFound if there is none.
	FindByTextAndDate(ctx context.Context, text string, date time.Time) (*JournalEntry, error)
	// GetByID gets an entry by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id int64) (*JournalEntry, error)
	// ListAll returns every entry ordered by date, then id.
	ListAll(ctx context.Context) ([]JournalEntry, error)
	// ListByDate returns the entries attributed to a single day, ordered by id.
	ListByDate(ctx context.Context, date time.Time) ([]JournalEntry, error)
	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)
}

// EntrySession is an EntryStore bound to one pooled connection.
// Close returns the connection to the pool.
type EntrySession interface {
	EntryStore
	Close() error
}

// SessionProvider hands out connection-scoped entry stores.
type SessionProvider interface {
	Session(ctx context.Context) (EntrySession, error)
}

// queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// EntryRepo provides methods for journal entry operations.
// It implements the EntryStore and SessionProvider interfaces.
type EntryRepo struct {
	db   queryer
	pool *sql.DB
}

// NewEntryRepo creates a new EntryRepo.
func NewEntryRepo(db *sql.DB) *EntryRepo {
	return &EntryRepo{db: db, pool: db}
}

// Session acquires a dedicated connection from the pool and returns a store bound to it.
// Callers must Close the session on every exit path.
func (r *EntryRepo) Session(ctx context.Context) (EntrySession, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("entry repo has no connection pool")
	}
	conn, err := r.pool.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &entrySession{EntryRepo: &EntryRepo{db: conn}, conn: conn}, nil
}

type entrySession struct {
	*EntryRepo
	conn *sql.Conn
}

func (s *entrySession) Close() error {
	return s.conn.Close()
}

// Insert stores a new entry and sets entry.ID to the assigned identifier.
func (r *EntryRepo) Insert(ctx context.Context, entry *JournalEntry) error {
	source := entry.SourceType
	if source == "" {
		source = SourceText
	}

	query, args, err := sq.Insert(entriesTable).
		Columns("date", "text", "source_type", "tags", "mood_label").
		Values(entry.DateString(), entry.Text, string(source), entry.Tags, entry.MoodLabel).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	entry.ID = id
	entry.SourceType = source
	return nil
}

// FindByTextAndDate returns the first entry with exactly this text and date.
// Returns nil and ErrNotFound if there is none.
func (r *EntryRepo) FindByTextAndDate(ctx context.Context, text string, date time.Time) (*JournalEntry, error) {
	query, args, err := sq.Select(entryColumns...).
		From(entriesTable).
		Where(sq.Eq{"text": text, "date": date.Format(DateLayout)}).
		OrderBy("id ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build duplicate query: %w", err)
	}

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entry by text and date: %w", err)
	}
	return entry, nil
}

// GetByID gets an entry by its ID. Returns ErrNotFound if not found.
func (r *EntryRepo) GetByID(ctx context.Context, id int64) (*JournalEntry, error) {
	query, args, err := sq.Select(entryColumns...).
		From(entriesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build entry query: %w", err)
	}

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query entry: %w", err)
	}
	return entry, nil
}

// ListAll returns every entry ordered by date, then id.
func (r *EntryRepo) ListAll(ctx context.Context) ([]JournalEntry, error) {
	return r.list(ctx, sq.Select(entryColumns...).From(entriesTable).OrderBy("date ASC", "id ASC"))
}

// ListByDate returns the entries attributed to a single day, ordered by id.
func (r *EntryRepo) ListByDate(ctx context.Context, date time.Time) ([]JournalEntry, error) {
	return r.list(ctx, sq.Select(entryColumns...).
		From(entriesTable).
		Where(sq.Eq{"date": date.Format(DateLayout)}).
		OrderBy("id ASC"))
}

// Count returns the number of stored entries.
func (r *EntryRepo) Count(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From(entriesTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

func (r *EntryRepo) list(ctx context.Context, builder sq.SelectBuilder) ([]JournalEntry, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entries: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*JournalEntry, error) {
	var entry JournalEntry
	var dateStr, source string
	if err := row.Scan(&entry.ID, &dateStr, &entry.Text, &source, &entry.Tags, &entry.MoodLabel); err != nil {
		return nil, err
	}

	date, err := ParseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse entry date %q: %w", dateStr, err)
	}
	entry.Date = date
	entry.SourceType = SourceType(source)
	return &entry, nil
}

// Reset drops and recreates the entries table. Identifiers restart at 1.
// Only a pool-backed repo can reset; sessions return an error.
func (r *EntryRepo) Reset(ctx context.Context) error {
	if r.pool == nil {
		return fmt.Errorf("entry repo has no connection pool")
	}
	return Reset(ctx, r.pool)
}
