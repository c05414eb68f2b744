// Package store persists the canonical transit schema in SQLite. It owns the
// schema and migrations for every table in the database, including the
// dead-letter and run-history tables managed by their own packages, and
// provides the transactional upsert loader plus the load-time resolution pass
// that enforces cross-record invariants over a feed's full entity set.
package store
