// Package preflight provides readiness checks for the filesystem and
// database that an ETL run depends on. The run command calls RunAll before
// starting: a failed check is a run-scoped configuration error, so no feed
// is attempted against a database or data directory that cannot serve it.
package preflight
