package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"turnstile/internal/etl"
	"turnstile/internal/logging"
)

func newFetcher(t *testing.T, opts Options) *Fetcher {
	t.Helper()
	if opts.DataDir == "" {
		opts.DataDir = t.TempDir()
	}
	if opts.Backoff == 0 {
		opts.Backoff = time.Millisecond
	}
	return New(opts, logging.NewNop())
}

func TestFetchLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feed.zip")
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	f := newFetcher(t, Options{Retries: 1})
	got, cleanup, err := f.Fetch(context.Background(), "local", path)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer cleanup()
	if got != path {
		t.Fatalf("expected original path, got %q", got)
	}
}

func TestFetchMissingFileIsSourceUnavailable(t *testing.T) {
	f := newFetcher(t, Options{Retries: 1})
	_, _, err := f.Fetch(context.Background(), "local", "/nonexistent/feed.zip")
	if !errors.Is(err, etl.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestFetchDownloadsURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("zip-bytes"))
	}))
	defer server.Close()

	f := newFetcher(t, Options{Retries: 1})
	path, cleanup, err := f.Fetch(context.Background(), "remote", server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer cleanup()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if string(data) != "zip-bytes" {
		t.Fatalf("unexpected payload: %q", data)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := newFetcher(t, Options{Retries: 3})
	_, cleanup, err := f.Fetch(context.Background(), "flaky", server.URL)
	if err != nil {
		t.Fatalf("Fetch after retries: %v", err)
	}
	defer cleanup()
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := newFetcher(t, Options{Retries: 2})
	_, _, err := f.Fetch(context.Background(), "down", server.URL)
	if !errors.Is(err, etl.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	base := 5 * time.Second
	max := 40 * time.Second
	want := []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second, 40 * time.Second}
	for i, expected := range want {
		if got := backoffDelay(base, max, i+1); got != expected {
			t.Errorf("attempt %d: got %v want %v", i+1, got, expected)
		}
	}
}
