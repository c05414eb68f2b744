// Package netex implements the format processor for NeTEx publication
// documents, covering the subset needed to populate the canonical schema:
// Operator, Line, StopPlace with its Quays, ServiceJourney with timetabled
// passing times, and DayType with the enclosing ServiceCalendar period.
//
// Extraction streams the XML token by token and flattens each mapped element
// into a raw record whose Raw bytes are the verbatim element text from the
// document. A ServiceJourney yields one trip record plus one record per
// passing time, so record counts stay one-to-one with canonical entities.
// Elements outside the subset are skipped without complaint.
package netex
