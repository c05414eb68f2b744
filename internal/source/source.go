// Package source fetches feed payloads from HTTP URLs or local paths and
// classifies failures for the retry policy.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"turnstile/internal/etl"
	"turnstile/internal/logging"
)

// Options tunes fetch behavior.
type Options struct {
	// DataDir receives downloaded payloads.
	DataDir string
	// Retries is the maximum number of attempts per fetch.
	Retries int
	// Backoff is the initial delay between attempts; it doubles per attempt.
	Backoff time.Duration
	// BackoffMax caps the doubling.
	BackoffMax time.Duration
	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// Fetcher resolves feed sources into local files.
type Fetcher struct {
	opts   Options
	client *http.Client
	logger *slog.Logger
}

// New constructs a Fetcher.
func New(opts Options, logger *slog.Logger) *Fetcher {
	if opts.Retries < 1 {
		opts.Retries = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 5 * time.Second
	}
	if opts.BackoffMax < opts.Backoff {
		opts.BackoffMax = opts.Backoff
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Fetcher{
		opts:   opts,
		client: client,
		logger: logging.NewComponentLogger(logger, "source"),
	}
}

// Fetch resolves a feed source to a local file path, retrying retryable
// failures with exponential backoff. The cleanup func removes any temporary
// download; it is non-nil on success.
func (f *Fetcher) Fetch(ctx context.Context, feed, src string) (string, func(), error) {
	var lastErr error
	for attempt := 1; attempt <= f.opts.Retries; attempt++ {
		path, cleanup, err := f.fetchOnce(ctx, feed, src)
		if err == nil {
			return path, cleanup, nil
		}
		lastErr = err
		if !etl.Retryable(err) || attempt == f.opts.Retries {
			break
		}

		delay := backoffDelay(f.opts.Backoff, f.opts.BackoffMax, attempt)
		f.logger.Warn("fetch failed; retrying",
			logging.String(logging.FieldFeed, feed),
			logging.Int("attempt", attempt),
			logging.Duration("backoff", delay),
			logging.Error(err),
		)
		select {
		case <-ctx.Done():
			return "", nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return "", nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, feed, src string) (string, func(), error) {
	if isHTTP(src) {
		return f.download(ctx, feed, src)
	}
	info, err := os.Stat(src)
	if err != nil {
		return "", nil, etl.Wrap(etl.ErrSourceUnavailable, "source", "open", src, err)
	}
	if info.IsDir() {
		return "", nil, etl.Wrap(etl.ErrSourceUnavailable, "source", "open",
			fmt.Sprintf("%s is a directory", src), nil)
	}
	return src, func() {}, nil
}

func (f *Fetcher) download(ctx context.Context, feed, src string) (string, func(), error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", nil, etl.Wrap(etl.ErrSourceUnavailable, "source", "build request", src, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil, etl.Wrap(etl.ErrSourceUnavailable, "source", "download", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil, etl.Wrap(etl.ErrSourceUnavailable, "source", "download",
			fmt.Sprintf("%s returned %s", src, resp.Status), nil)
	}

	tmp, err := os.CreateTemp(f.opts.DataDir, "feed-"+sanitize(feed)+"-*.download")
	if err != nil {
		return "", nil, etl.Wrap(etl.ErrSourceUnavailable, "source", "create temp file", f.opts.DataDir, err)
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		name := tmp.Name()
		tmp.Close()
		os.Remove(name)
		return "", nil, etl.Wrap(etl.ErrSourceUnavailable, "source", "download", src, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, etl.Wrap(etl.ErrSourceUnavailable, "source", "flush temp file", tmp.Name(), err)
	}

	path := tmp.Name()
	return path, func() { os.Remove(path) }, nil
}

func isHTTP(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// backoffDelay returns the delay before the given retry attempt (1-based):
// backoff doubles per attempt up to the cap.
func backoffDelay(base, cap time.Duration, attempt int) time.Duration {
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cap {
			return cap
		}
	}
	if delay > cap {
		return cap
	}
	return delay
}
