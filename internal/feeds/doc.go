// Package feeds loads and validates the feed catalog.
//
// The catalog is a YAML file listing feed descriptors: one configured transit
// data source per entry. A malformed catalog is a run-scoped configuration
// error; the orchestrator refuses to start a run with an invalid catalog so
// no side effects occur.
package feeds
