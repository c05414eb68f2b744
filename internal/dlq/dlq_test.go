package dlq

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"turnstile/internal/etl"
	"turnstile/internal/store"
)

func openDB(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "turnstile.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func rejection(table string, row int, payload string) etl.Rejection {
	return etl.Rejection{
		Record:  etl.RawRecord{Table: table, Row: row, Raw: []byte(payload)},
		Rule:    "invalid_latitude",
		Message: "stop S1: latitude out of range",
	}
}

func TestWriterPersistsAndFlushAwaits(t *testing.T) {
	s := openDB(t)
	w := NewWriter(s.DB(), nil)
	defer w.Close()

	for i := 1; i <= 10; i++ {
		w.Append("run-1", "metro", rejection("stops", i, "S1,bad"))
	}
	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reader := NewStore(s.DB())
	count, err := reader.Count(context.Background(), "run-1", "metro")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 10 {
		t.Fatalf("count = %d, want 10", count)
	}
}

func TestPayloadRoundTripsByteForByte(t *testing.T) {
	s := openDB(t)
	w := NewWriter(s.DB(), nil)
	defer w.Close()

	payload := "S1,\"Central, Downtown\",47.6,bad-lon\n"
	w.Append("run-1", "metro", rejection("stops", 3, payload))
	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reader := NewStore(s.DB())
	entries, err := reader.List(context.Background(), "run-1", "metro", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	if !bytes.Equal(entries[0].Payload, []byte(payload)) {
		t.Fatalf("payload mismatch: %q", entries[0].Payload)
	}
	if entries[0].Rule != "invalid_latitude" || entries[0].Row != 3 {
		t.Fatalf("entry metadata: %+v", entries[0])
	}
}

func TestListFiltersByFeed(t *testing.T) {
	s := openDB(t)
	w := NewWriter(s.DB(), nil)
	defer w.Close()

	w.Append("run-1", "metro", rejection("stops", 1, "a"))
	w.Append("run-1", "ferries", rejection("stops", 2, "b"))
	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reader := NewStore(s.DB())
	entries, err := reader.List(context.Background(), "run-1", "ferries", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Feed != "ferries" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestGetReturnsEntry(t *testing.T) {
	s := openDB(t)
	w := NewWriter(s.DB(), nil)
	defer w.Close()

	w.Append("run-1", "metro", rejection("routes", 7, "R1,,bad"))
	if err := w.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reader := NewStore(s.DB())
	entries, err := reader.List(context.Background(), "run-1", "", 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got, err := reader.Get(context.Background(), entries[0].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Table != "routes" || got.Row != 7 {
		t.Fatalf("entry = %+v", got)
	}
}

func TestCounterCountsWithoutWrites(t *testing.T) {
	s := openDB(t)
	c := NewCounter()
	c.Append("run-1", "metro", rejection("stops", 1, "x"))
	c.Append("run-1", "metro", rejection("stops", 2, "y"))
	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if c.Count() != 2 {
		t.Fatalf("count = %d", c.Count())
	}

	rows, err := s.CountRows(context.Background(), "dlq_entries")
	if err != nil {
		t.Fatalf("CountRows: %v", err)
	}
	if rows != 0 {
		t.Fatalf("dry-run sink wrote %d rows", rows)
	}
}
