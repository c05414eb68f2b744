// Command turnstile is the CLI for the transit feed ingestion engine: it
// runs ETL over the configured feed catalog and inspects run history, the
// dead-letter queue, and configuration.
package main
