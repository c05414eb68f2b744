// Package etl defines the format-processor contract and the error taxonomy
// shared across the ingestion pipeline.
//
// A Processor encapsulates one wire format: Extract turns a fetched source
// into a stream of raw records, Transform converts a single raw record into
// a canonical entity or a rejection. Loading is format-independent and lives
// in the store package. The Registry maps format identifiers to processors;
// it is populated explicitly at startup rather than through init side
// effects so the wiring stays visible in one place.
package etl
