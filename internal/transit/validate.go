package transit

import (
	"fmt"
)

// Violation identifies a broken schema invariant. Rule is the stable
// identifier recorded in dead-letter entries; Message is for humans.
type Violation struct {
	Rule    string
	Message string
}

func violationf(rule, format string, args ...any) *Violation {
	return &Violation{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// Rule identifiers shared between validation and load resolution.
const (
	RuleMissingID            = "missing_id"
	RuleInvalidTimezone      = "invalid_timezone"
	RuleInvalidLatitude      = "invalid_latitude"
	RuleInvalidLongitude     = "invalid_longitude"
	RuleInvalidRouteType     = "invalid_route_type"
	RuleArrivalAfterDepart   = "arrival_after_departure"
	RuleInvalidStopSequence  = "invalid_stop_sequence"
	RuleInvalidTime          = "invalid_time"
	RuleInvalidDate          = "invalid_date"
	RuleInvalidDateRange     = "invalid_date_range"
	RuleInvalidLocationType  = "invalid_location_type"
	RuleInvalidDirection     = "invalid_direction"
	RuleInvalidExceptionType = "invalid_exception_type"
	RuleUnknownAgency        = "unknown_agency"
	RuleUnknownRoute         = "unknown_route"
	RuleUnknownService       = "unknown_service"
	RuleUnknownStop          = "unknown_stop"
	RuleUnknownShape         = "unknown_shape"
	RuleUnknownTrip          = "unknown_trip"
	RuleUnknownParentStation = "unknown_parent_station"
	RuleParentStationCycle   = "parent_station_cycle"
	RuleMissingAgency        = "missing_agency"
	RuleShapeGap             = "shape_gap"
	RuleDuplicateKey         = "duplicate_key"
)

// Validate checks the agency's record-local invariants.
func (a Agency) Validate() *Violation {
	if a.ID == "" {
		return violationf(RuleMissingID, "agency has no id")
	}
	if !ValidTimezone(a.Timezone) {
		return violationf(RuleInvalidTimezone, "agency %s: timezone %q is not a valid IANA zone", a.ID, a.Timezone)
	}
	return nil
}

// Validate checks the route's record-local invariants. The agency reference
// is resolved at load time.
func (r Route) Validate() *Violation {
	if r.ID == "" {
		return violationf(RuleMissingID, "route has no id")
	}
	if r.Type == UnknownRouteType {
		return violationf(RuleInvalidRouteType, "route %s: unrecognized route type", r.ID)
	}
	return nil
}

// Validate checks the stop's record-local invariants.
func (s Stop) Validate() *Violation {
	if s.ID == "" {
		return violationf(RuleMissingID, "stop has no id")
	}
	if s.Lat < -90 || s.Lat > 90 {
		return violationf(RuleInvalidLatitude, "stop %s: latitude %g out of range [-90,90]", s.ID, s.Lat)
	}
	if s.Lon < -180 || s.Lon > 180 {
		return violationf(RuleInvalidLongitude, "stop %s: longitude %g out of range [-180,180]", s.ID, s.Lon)
	}
	if s.ParentStation == s.ID && s.ID != "" {
		return violationf(RuleParentStationCycle, "stop %s: parent_station references itself", s.ID)
	}
	return nil
}

// Validate checks the trip's record-local invariants. Route, service, and
// shape references are resolved at load time.
func (t Trip) Validate() *Violation {
	if t.ID == "" {
		return violationf(RuleMissingID, "trip has no id")
	}
	if t.DirectionID != nil && *t.DirectionID != 0 && *t.DirectionID != 1 {
		return violationf(RuleInvalidDirection, "trip %s: direction_id must be 0 or 1", t.ID)
	}
	return nil
}

// Validate checks the schedule entry's record-local invariants.
func (e ScheduleEntry) Validate() *Violation {
	if e.TripID == "" {
		return violationf(RuleMissingID, "schedule entry has no trip id")
	}
	if e.StopID == "" {
		return violationf(RuleUnknownStop, "schedule entry %s: no stop id", e.TripID)
	}
	if e.StopSequence < 0 {
		return violationf(RuleInvalidStopSequence, "schedule entry %s: negative stop_sequence", e.TripID)
	}
	if e.Arrival != nil && e.Departure != nil && *e.Arrival > *e.Departure {
		return violationf(RuleArrivalAfterDepart,
			"schedule entry %s/%d: arrival %s after departure %s",
			e.TripID, e.StopSequence, e.Arrival, e.Departure)
	}
	return nil
}

// Validate checks the shape point's record-local invariants. Sequence
// gaplessness is a per-shape property checked at load resolution.
func (p ShapePoint) Validate() *Violation {
	if p.ShapeID == "" {
		return violationf(RuleMissingID, "shape point has no shape id")
	}
	if p.Sequence < 0 {
		return violationf(RuleInvalidStopSequence, "shape %s: negative sequence", p.ShapeID)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return violationf(RuleInvalidLatitude, "shape %s/%d: latitude %g out of range", p.ShapeID, p.Sequence, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return violationf(RuleInvalidLongitude, "shape %s/%d: longitude %g out of range", p.ShapeID, p.Sequence, p.Lon)
	}
	return nil
}

// Validate checks the calendar's record-local invariants.
func (c Calendar) Validate() *Violation {
	if c.ServiceID == "" {
		return violationf(RuleMissingID, "calendar has no service id")
	}
	if c.StartDate.After(c.EndDate) {
		return violationf(RuleInvalidDateRange,
			"calendar %s: start date %s after end date %s", c.ServiceID, c.StartDate, c.EndDate)
	}
	return nil
}

// Validate checks the calendar exception's record-local invariants.
func (e CalendarException) Validate() *Violation {
	if e.ServiceID == "" {
		return violationf(RuleMissingID, "calendar exception has no service id")
	}
	if e.Type != ServiceAdded && e.Type != ServiceRemoved {
		return violationf(RuleInvalidExceptionType,
			"calendar exception %s/%s: exception_type must be 1 or 2", e.ServiceID, e.Date)
	}
	return nil
}

// ValidateEntity dispatches to the concrete entity's Validate method.
func ValidateEntity(entity Entity) *Violation {
	switch e := entity.(type) {
	case Agency:
		return e.Validate()
	case Route:
		return e.Validate()
	case Stop:
		return e.Validate()
	case Trip:
		return e.Validate()
	case ScheduleEntry:
		return e.Validate()
	case ShapePoint:
		return e.Validate()
	case Calendar:
		return e.Validate()
	case CalendarException:
		return e.Validate()
	default:
		return violationf("unknown_entity", "unsupported entity kind %T", entity)
	}
}
