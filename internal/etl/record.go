package etl

import (
	"turnstile/internal/transit"
)

// RawRecord is one record as extracted from a feed source, before any
// normalization. Raw holds the verbatim serialization of the record so a
// dead-letter entry can round-trip the original input byte for byte.
type RawRecord struct {
	// Table identifies the source table or element type (e.g. "stops",
	// "StopPlace").
	Table string
	// Row is the 1-based position within the table, for diagnostics.
	Row int
	// Values is the parsed field map the transform operates on.
	Values map[string]string
	// Raw is the original serialized form of the record.
	Raw []byte
}

// Get returns the named field verbatim, or "" when absent. Transforms trim
// where a format calls for it.
func (r RawRecord) Get(key string) string {
	return r.Values[key]
}

// Rejection describes a record that failed transformation or resolution.
type Rejection struct {
	Record RawRecord
	// Rule is the violated-rule identifier (e.g. "invalid_latitude").
	Rule string
	// Message is a human-readable explanation.
	Message string
}

// StagedEntity pairs a canonical entity with the raw record it came from so
// late rejections (unresolved references, shape gaps) keep their provenance.
type StagedEntity struct {
	Entity transit.Entity
	Record RawRecord
}

// TransformResult is the outcome of transforming a single raw record:
// either one staged entity, a rejection, or nothing (record intentionally
// skipped, e.g. an unmapped NeTEx element).
type TransformResult struct {
	Entity    *StagedEntity
	Rejection *Rejection
}

// Transformed builds a successful result.
func Transformed(entity transit.Entity, record RawRecord) TransformResult {
	return TransformResult{Entity: &StagedEntity{Entity: entity, Record: record}}
}

// Rejected builds a failed result carrying the violated rule.
func Rejected(record RawRecord, rule, message string) TransformResult {
	return TransformResult{Rejection: &Rejection{Record: record, Rule: rule, Message: message}}
}

// Skipped builds an empty result for records that map to nothing.
func Skipped() TransformResult {
	return TransformResult{}
}
