package runs

import (
	"context"
	"path/filepath"
	"testing"

	"turnstile/internal/store"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "turnstile.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return NewStore(s.DB())
}

func TestRunLifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if err := s.Begin(ctx, "run-1", false, 2); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := s.RecordFeed(ctx, FeedRun{
		RunID: "run-1", Feed: "metro", State: "succeeded",
		RecordsExtracted: 100, RecordsLoaded: 97, RecordsRejected: 3,
		DurationMS: 1200, Degraded: false,
	}); err != nil {
		t.Fatalf("RecordFeed: %v", err)
	}
	if err := s.RecordFeed(ctx, FeedRun{
		RunID: "run-1", Feed: "ferries", State: "failed", Error: "source unavailable",
	}); err != nil {
		t.Fatalf("RecordFeed: %v", err)
	}
	if err := s.Finish(ctx, "run-1", 1); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	recent, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("recent = %d runs", len(recent))
	}
	if recent[0].FeedsFailed != 1 || recent[0].FinishedAt == "" {
		t.Fatalf("run = %+v", recent[0])
	}

	feeds, err := s.FeedRuns(ctx, "run-1")
	if err != nil {
		t.Fatalf("FeedRuns: %v", err)
	}
	if len(feeds) != 2 {
		t.Fatalf("feed runs = %d", len(feeds))
	}
	if feeds[0].Feed != "metro" || feeds[0].RecordsLoaded != 97 {
		t.Fatalf("first feed run = %+v", feeds[0])
	}
	if feeds[1].State != "failed" || feeds[1].Error == "" {
		t.Fatalf("second feed run = %+v", feeds[1])
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, id := range []string{"run-a", "run-b", "run-c"} {
		if err := s.Begin(ctx, id, true, 1); err != nil {
			t.Fatalf("Begin %s: %v", id, err)
		}
	}

	recent, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d", len(recent))
	}
	if !recent[0].DryRun {
		t.Fatalf("dry_run flag lost: %+v", recent[0])
	}
}
