// Package transit defines the canonical relational model all format
// processors normalize into, together with its validation rules.
//
// The entity graph forms a DAG rooted at Agency → Route → Trip →
// ScheduleEntry/ShapePoint, with Calendar and CalendarException referenced
// independently by Trip. LoadOrder reflects that DAG; the store applies
// entities in that order so referential integrity holds at every point of a
// feed's transaction.
package transit
