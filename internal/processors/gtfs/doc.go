// Package gtfs implements the format processor for GTFS static feeds.
//
// Extraction unzips the archive and streams one raw record per CSV row,
// table by table in canonical load order. Transformation maps table fields
// onto canonical entities with type coercion and record-local validation;
// cross-record invariants (foreign keys, shape gaplessness) are left to the
// load stage, which sees the feed's full entity set.
package gtfs
