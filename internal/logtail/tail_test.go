package logtail_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"turnstile/internal/logtail"
)

func TestReadLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turnstile.log")
	if err := os.WriteFile(path, []byte("a\nb\nc\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	result, err := logtail.Read(context.Background(), path, logtail.Options{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" || result.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset == 0 {
		t.Fatal("expected offset to advance")
	}
}

func TestReadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turnstile.log")

	result, err := logtail.Read(context.Background(), path, logtail.Options{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("read missing file: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("unexpected result for missing file: %#v", result)
	}
}

func TestReadResumesFromOffset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turnstile.log")
	if err := os.WriteFile(path, []byte("first\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx := context.Background()
	result, err := logtail.Read(ctx, path, logtail.Options{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial read: %v", err)
	}

	appendLine(t, path, "second")
	next, err := logtail.Read(ctx, path, logtail.Options{Offset: result.Offset})
	if err != nil {
		t.Fatalf("resume read: %v", err)
	}
	if len(next.Lines) != 1 || next.Lines[0] != "second" {
		t.Fatalf("unexpected resumed lines: %#v", next.Lines)
	}
}

func TestFollowWaitsForNewLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turnstile.log")
	if err := os.WriteFile(path, []byte("start\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	initial, err := logtail.Read(ctx, path, logtail.Options{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial read: %v", err)
	}

	done := make(chan struct{})
	go func(offset int64) {
		defer close(done)
		res, err := logtail.Read(ctx, path, logtail.Options{
			Offset: offset,
			Follow: true,
			Wait:   5 * time.Second,
		})
		if err != nil {
			t.Errorf("follow read: %v", err)
			return
		}
		if len(res.Lines) != 1 || res.Lines[0] != "later" {
			t.Errorf("unexpected follow lines: %#v", res.Lines)
		}
	}(initial.Offset)

	time.Sleep(200 * time.Millisecond)
	appendLine(t, path, "later")

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("follow read did not return")
	}
}

func TestReadRecoversFromTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turnstile.log")
	if err := os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx := context.Background()
	result, err := logtail.Read(ctx, path, logtail.Options{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial read: %v", err)
	}

	if err := os.WriteFile(path, []byte("fresh\n"), 0o644); err != nil {
		t.Fatalf("truncate log: %v", err)
	}

	next, err := logtail.Read(ctx, path, logtail.Options{Offset: result.Offset})
	if err != nil {
		t.Fatalf("read after truncation: %v", err)
	}
	if len(next.Lines) != 1 || next.Lines[0] != "fresh" {
		t.Fatalf("unexpected lines after truncation: %#v", next.Lines)
	}
}

func appendLine(t *testing.T, path, line string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
}
