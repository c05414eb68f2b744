package etl

import (
	"context"
)

// RecordIterator streams raw records out of an extracted source. Iteration
// follows the database/sql pattern: Next advances, Record returns the
// current record, Err reports the first iteration failure after Next
// returns false.
type RecordIterator interface {
	Next() bool
	Record() RawRecord
	Err() error
	Close() error
}

// Processor encapsulates the parsing rules for one wire format.
//
// Extract opens the fetched source (a local file path) and yields raw
// records. It fails with ErrSourceUnavailable when the payload cannot be
// opened and ErrExtract for non-retryable structural failures.
//
// Transform is a pure function: no I/O, and every per-record failure comes
// back as a rejection inside the result, never as an error or panic.
// Transform must not assume referenced records have been seen; reference
// existence is resolved at load time over the feed's full entity set.
type Processor interface {
	Format() string
	Extract(ctx context.Context, path string) (RecordIterator, error)
	Transform(record RawRecord) TransformResult
}
