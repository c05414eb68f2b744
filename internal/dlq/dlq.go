package dlq

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"turnstile/internal/etl"
)

// Entry is one dead-letter record as stored.
type Entry struct {
	ID        int64
	RunID     string
	Feed      string
	Table     string
	Row       int
	Rule      string
	Message   string
	Payload   []byte
	CreatedAt string
}

// Sink receives rejections during a feed's pipeline. Flush blocks until
// everything appended so far is durable.
type Sink interface {
	Append(runID, feed string, rejection etl.Rejection)
	Flush(ctx context.Context) error
}

// Store reads dead-letter entries from the shared database.
type Store struct {
	db *sql.DB
}

// NewStore wraps the shared database handle.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const entryColumns = "id, run_id, feed, source_table, row, rule, message, payload, created_at"

// List returns entries for a run, newest first, optionally filtered by feed.
func (s *Store) List(ctx context.Context, runID, feed string, limit int) ([]Entry, error) {
	query := "SELECT " + entryColumns + " FROM dlq_entries WHERE run_id = ?"
	args := []any{runID}
	if feed != "" {
		query += " AND feed = ?"
		args = append(args, feed)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list dlq entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Get returns a single entry by id.
func (s *Store) Get(ctx context.Context, id int64) (Entry, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM dlq_entries WHERE id = ?", id)
	return scanEntry(row)
}

// Count returns the number of entries recorded for a run and feed.
func (s *Store) Count(ctx context.Context, runID, feed string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM dlq_entries WHERE run_id = ? AND feed = ?", runID, feed).Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.RunID, &e.Feed, &e.Table, &e.Row, &e.Rule, &e.Message, &e.Payload, &e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("scan dlq entry: %w", err)
	}
	return e, nil
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
