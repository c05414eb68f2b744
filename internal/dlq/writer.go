package dlq

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"turnstile/internal/etl"
	"turnstile/internal/logging"
)

const defaultBuffer = 256

var (
	_ Sink = (*Writer)(nil)
	_ Sink = (*Counter)(nil)
)

type appendRequest struct {
	runID     string
	feed      string
	rejection etl.Rejection
	// ack marks a flush barrier: the drain goroutine closes it once every
	// earlier append has been written.
	ack chan struct{}
}

// Writer drains appended rejections into the dead-letter table on a
// background goroutine. A write failure is remembered and surfaced by the
// next Flush so the feed's outcome reflects it.
type Writer struct {
	db     *sql.DB
	logger *slog.Logger
	ch     chan appendRequest
	done   chan struct{}

	mu       sync.Mutex
	writeErr error
}

// NewWriter starts the background drain goroutine.
func NewWriter(db *sql.DB, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = logging.NewNop()
	}
	w := &Writer{
		db:     db,
		logger: logging.NewComponentLogger(logger, "dlq"),
		ch:     make(chan appendRequest, defaultBuffer),
		done:   make(chan struct{}),
	}
	go w.drain()
	return w
}

// Append queues one rejection for persistence.
func (w *Writer) Append(runID, feed string, rejection etl.Rejection) {
	w.ch <- appendRequest{runID: runID, feed: feed, rejection: rejection}
}

// Flush waits until every append queued so far has been written and returns
// the first write failure, if any. The channel is FIFO, so a barrier request
// is acknowledged only after all earlier appends have drained.
func (w *Writer) Flush(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case w.ch <- appendRequest{ack: ack}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
	case <-ctx.Done():
		return ctx.Err()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writeErr
}

// Close stops the writer after draining pending appends.
func (w *Writer) Close() error {
	close(w.ch)
	<-w.done
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writeErr
}

func (w *Writer) drain() {
	defer close(w.done)
	for req := range w.ch {
		if req.ack != nil {
			close(req.ack)
			continue
		}
		w.write(req)
	}
}

func (w *Writer) write(req appendRequest) {
	rec := req.rejection.Record
	_, err := w.db.Exec(`
		INSERT INTO dlq_entries (run_id, feed, source_table, row, rule, message, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		req.runID, req.feed, rec.Table, rec.Row, req.rejection.Rule, req.rejection.Message, rec.Raw, nowStamp())
	if err != nil {
		w.logger.Error("dead-letter write failed",
			logging.String(logging.FieldFeed, req.feed),
			logging.Error(err))
		w.mu.Lock()
		if w.writeErr == nil {
			w.writeErr = err
		}
		w.mu.Unlock()
	}
}

// Counter is a Sink that only counts, used for dry runs where no database
// writes may happen.
type Counter struct {
	mu    sync.Mutex
	count int
}

// NewCounter constructs an empty counting sink.
func NewCounter() *Counter { return &Counter{} }

// Append records the rejection without persisting it.
func (c *Counter) Append(string, string, etl.Rejection) {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

// Flush is a no-op for the counting sink.
func (c *Counter) Flush(context.Context) error { return nil }

// Count returns the number of rejections seen.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}
