package etl

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classifying pipeline failures. Wrap tags an error with one
// of these markers; callers classify with errors.Is.
var (
	// ErrSourceUnavailable marks a feed source that could not be fetched or
	// opened. Retryable up to the configured attempt limit.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrUnknownFormat marks a feed descriptor whose type has no registered
	// processor. Fatal for the feed, never for the run.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrExtract marks a non-retryable extraction failure (corrupt archive,
	// unreadable table). Fatal for the feed.
	ErrExtract = errors.New("extract error")
	// ErrLoadTransaction marks a database failure during a feed's load
	// transaction. The feed's entire load is rolled back.
	ErrLoadTransaction = errors.New("load transaction failed")
	// ErrConfiguration marks a malformed configuration or feed catalog.
	// Run-scoped: aborts before any feed runs.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes pipeline context while tagging
// it with the provided marker for later classification.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExtract
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether an error may succeed on a later attempt.
func Retryable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
