// Package orchestrator drives a run: it resolves a processor per feed,
// executes extract, transform, resolve, and load for each feed on a worker
// pool, routes rejections to the dead-letter sink, and aggregates per-feed
// outcomes into a run report. Feeds are isolated: one feed's failure never
// aborts another's pipeline.
package orchestrator
