// Package logging configures slog for the ETL engine and standardizes the
// structured field vocabulary used across packages.
//
// Two output formats are supported: a compact console handler for interactive
// use and the stock JSON handler for log shippers. Context helpers attach
// run, feed, and stage identifiers so every record emitted inside a feed run
// carries enough detail for unattended diagnosis.
package logging
