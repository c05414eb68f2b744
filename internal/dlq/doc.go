// Package dlq records rejected records in the dead-letter table. Writes are
// asynchronous behind a buffered channel so rejection bursts do not stall
// the transform pipeline; callers flush at feed completion so the queue is
// durable before the feed's outcome is reported. The original record payload
// is stored verbatim for replay and inspection.
package dlq
