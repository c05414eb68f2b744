// Package runs persists run and per-feed run history in the shared database,
// backing the report surfaces of the CLI.
package runs

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Run is one orchestrator invocation.
type Run struct {
	ID          string
	StartedAt   string
	FinishedAt  string
	DryRun      bool
	FeedsTotal  int
	FeedsFailed int
}

// FeedRun is one feed's outcome within a run.
type FeedRun struct {
	ID               int64
	RunID            string
	Feed             string
	State            string
	RecordsExtracted int
	RecordsLoaded    int
	RecordsRejected  int
	DurationMS       int64
	Degraded         bool
	Error            string
}

// Store reads and writes run history.
type Store struct {
	db *sql.DB
}

// NewStore wraps the shared database handle.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Begin records the start of a run.
func (s *Store) Begin(ctx context.Context, runID string, dryRun bool, feedsTotal int) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs (id, started_at, dry_run, feeds_total) VALUES (?, ?, ?, ?)",
		runID, stamp(), boolInt(dryRun), feedsTotal)
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

// Finish records the end of a run and its failure count.
func (s *Store) Finish(ctx context.Context, runID string, feedsFailed int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE runs SET finished_at = ?, feeds_failed = ? WHERE id = ?",
		stamp(), feedsFailed, runID)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// RecordFeed appends one feed's outcome to the run.
func (s *Store) RecordFeed(ctx context.Context, fr FeedRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO feed_runs (run_id, feed, state, records_extracted, records_loaded, records_rejected, duration_ms, degraded, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fr.RunID, fr.Feed, fr.State, fr.RecordsExtracted, fr.RecordsLoaded, fr.RecordsRejected,
		fr.DurationMS, boolInt(fr.Degraded), fr.Error)
	if err != nil {
		return fmt.Errorf("record feed run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, COALESCE(finished_at, ''), dry_run, feeds_total, feeds_failed
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var dry int
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &dry, &r.FeedsTotal, &r.FeedsFailed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.DryRun = dry != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// FeedRuns returns a run's per-feed outcomes in insertion order.
func (s *Store) FeedRuns(ctx context.Context, runID string) ([]FeedRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, feed, state, records_extracted, records_loaded, records_rejected, duration_ms, degraded, error
		FROM feed_runs WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list feed runs: %w", err)
	}
	defer rows.Close()

	var out []FeedRun
	for rows.Next() {
		var fr FeedRun
		var degraded int
		if err := rows.Scan(&fr.ID, &fr.RunID, &fr.Feed, &fr.State, &fr.RecordsExtracted,
			&fr.RecordsLoaded, &fr.RecordsRejected, &fr.DurationMS, &degraded, &fr.Error); err != nil {
			return nil, fmt.Errorf("scan feed run: %w", err)
		}
		fr.Degraded = degraded != 0
		out = append(out, fr)
	}
	return out, rows.Err()
}

func stamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
