package gtfs

import (
	"fmt"
	"strconv"
	"strings"

	"turnstile/internal/etl"
	"turnstile/internal/transit"
)

// Transform maps a single table row onto a canonical entity. Unknown tables
// are skipped; every malformed row comes back as a rejection, never an error.
func (*Processor) Transform(record etl.RawRecord) etl.TransformResult {
	switch record.Table {
	case "agency":
		return transformAgency(record)
	case "routes":
		return transformRoute(record)
	case "stops":
		return transformStop(record)
	case "trips":
		return transformTrip(record)
	case "stop_times":
		return transformStopTime(record)
	case "shapes":
		return transformShape(record)
	case "calendar":
		return transformCalendar(record)
	case "calendar_dates":
		return transformCalendarDate(record)
	default:
		return etl.Skipped()
	}
}

func transformAgency(record etl.RawRecord) etl.TransformResult {
	agency := transit.Agency{
		ID:       field(record, "agency_id"),
		Name:     field(record, "agency_name"),
		URL:      field(record, "agency_url"),
		Timezone: field(record, "agency_timezone"),
	}
	// A single-agency feed may omit agency_id entirely.
	if agency.ID == "" && agency.Name != "" {
		agency.ID = agency.Name
	}
	return validated(agency, record)
}

func transformRoute(record etl.RawRecord) etl.TransformResult {
	rawType := field(record, "route_type")
	code, err := strconv.Atoi(rawType)
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidRouteType,
			fmt.Sprintf("route %s: route_type %q is not numeric", field(record, "route_id"), rawType))
	}
	routeType, ok := transit.NewRouteType(code)
	if !ok {
		return etl.Rejected(record, transit.RuleInvalidRouteType,
			fmt.Sprintf("route %s: unrecognized route_type %d", field(record, "route_id"), code))
	}

	route := transit.Route{
		ID:        field(record, "route_id"),
		AgencyID:  field(record, "agency_id"),
		ShortName: field(record, "route_short_name"),
		LongName:  field(record, "route_long_name"),
		Type:      routeType,
		Color:     fieldOr(record, "route_color", transit.DefaultRouteColor),
		TextColor: fieldOr(record, "route_text_color", transit.DefaultRouteTextColor),
	}
	return validated(route, record)
}

func transformStop(record etl.RawRecord) etl.TransformResult {
	stopID := field(record, "stop_id")

	lat, err := strconv.ParseFloat(field(record, "stop_lat"), 64)
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidLatitude,
			fmt.Sprintf("stop %s: stop_lat %q is not numeric", stopID, field(record, "stop_lat")))
	}
	lon, err := strconv.ParseFloat(field(record, "stop_lon"), 64)
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidLongitude,
			fmt.Sprintf("stop %s: stop_lon %q is not numeric", stopID, field(record, "stop_lon")))
	}

	locationType := transit.LocationStop
	if raw := field(record, "location_type"); raw != "" {
		code, err := strconv.Atoi(raw)
		if err != nil || code < 0 || code > 4 {
			return etl.Rejected(record, transit.RuleInvalidLocationType,
				fmt.Sprintf("stop %s: location_type %q is not in 0-4", stopID, raw))
		}
		locationType = transit.LocationType(code)
	}

	stop := transit.Stop{
		ID:            stopID,
		Name:          field(record, "stop_name"),
		Lat:           lat,
		Lon:           lon,
		ParentStation: field(record, "parent_station"),
		LocationType:  locationType,
	}
	return validated(stop, record)
}

func transformTrip(record etl.RawRecord) etl.TransformResult {
	trip := transit.Trip{
		ID:        field(record, "trip_id"),
		RouteID:   field(record, "route_id"),
		ServiceID: field(record, "service_id"),
		ShapeID:   field(record, "shape_id"),
		Headsign:  field(record, "trip_headsign"),
	}
	if raw := field(record, "direction_id"); raw != "" {
		direction, err := strconv.Atoi(raw)
		if err != nil {
			return etl.Rejected(record, transit.RuleInvalidDirection,
				fmt.Sprintf("trip %s: direction_id %q is not numeric", trip.ID, raw))
		}
		trip.DirectionID = &direction
	}
	return validated(trip, record)
}

func transformStopTime(record etl.RawRecord) etl.TransformResult {
	tripID := field(record, "trip_id")

	sequence, err := strconv.Atoi(field(record, "stop_sequence"))
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidStopSequence,
			fmt.Sprintf("stop time %s: stop_sequence %q is not numeric", tripID, field(record, "stop_sequence")))
	}

	entry := transit.ScheduleEntry{
		TripID:       tripID,
		StopID:       field(record, "stop_id"),
		StopSequence: sequence,
	}

	if raw := field(record, "arrival_time"); raw != "" {
		arrival, err := transit.ParseTimeOfDay(raw)
		if err != nil {
			return etl.Rejected(record, transit.RuleInvalidTime,
				fmt.Sprintf("stop time %s/%d: %v", tripID, sequence, err))
		}
		entry.Arrival = &arrival
	}
	if raw := field(record, "departure_time"); raw != "" {
		departure, err := transit.ParseTimeOfDay(raw)
		if err != nil {
			return etl.Rejected(record, transit.RuleInvalidTime,
				fmt.Sprintf("stop time %s/%d: %v", tripID, sequence, err))
		}
		entry.Departure = &departure
	}
	return validated(entry, record)
}

func transformShape(record etl.RawRecord) etl.TransformResult {
	shapeID := field(record, "shape_id")

	sequence, err := strconv.Atoi(field(record, "shape_pt_sequence"))
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidStopSequence,
			fmt.Sprintf("shape %s: shape_pt_sequence %q is not numeric", shapeID, field(record, "shape_pt_sequence")))
	}
	lat, err := strconv.ParseFloat(field(record, "shape_pt_lat"), 64)
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidLatitude,
			fmt.Sprintf("shape %s/%d: shape_pt_lat is not numeric", shapeID, sequence))
	}
	lon, err := strconv.ParseFloat(field(record, "shape_pt_lon"), 64)
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidLongitude,
			fmt.Sprintf("shape %s/%d: shape_pt_lon is not numeric", shapeID, sequence))
	}

	point := transit.ShapePoint{ShapeID: shapeID, Sequence: sequence, Lat: lat, Lon: lon}
	return validated(point, record)
}

func transformCalendar(record etl.RawRecord) etl.TransformResult {
	serviceID := field(record, "service_id")

	start, err := transit.ParseDate(field(record, "start_date"))
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidDate,
			fmt.Sprintf("calendar %s: %v", serviceID, err))
	}
	end, err := transit.ParseDate(field(record, "end_date"))
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidDate,
			fmt.Sprintf("calendar %s: %v", serviceID, err))
	}

	cal := transit.Calendar{
		ServiceID: serviceID,
		Monday:    field(record, "monday") == "1",
		Tuesday:   field(record, "tuesday") == "1",
		Wednesday: field(record, "wednesday") == "1",
		Thursday:  field(record, "thursday") == "1",
		Friday:    field(record, "friday") == "1",
		Saturday:  field(record, "saturday") == "1",
		Sunday:    field(record, "sunday") == "1",
		StartDate: start,
		EndDate:   end,
	}
	return validated(cal, record)
}

func transformCalendarDate(record etl.RawRecord) etl.TransformResult {
	serviceID := field(record, "service_id")

	date, err := transit.ParseDate(field(record, "date"))
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidDate,
			fmt.Sprintf("calendar exception %s: %v", serviceID, err))
	}
	exceptionType, err := strconv.Atoi(field(record, "exception_type"))
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidExceptionType,
			fmt.Sprintf("calendar exception %s/%s: exception_type %q is not numeric",
				serviceID, date, field(record, "exception_type")))
	}

	exception := transit.CalendarException{
		ServiceID: serviceID,
		Date:      date,
		Type:      transit.ExceptionType(exceptionType),
	}
	return validated(exception, record)
}

// validated runs record-local validation and converts a violation into a
// rejection carrying the rule identifier.
func validated(entity transit.Entity, record etl.RawRecord) etl.TransformResult {
	if violation := transit.ValidateEntity(entity); violation != nil {
		return etl.Rejected(record, violation.Rule, violation.Message)
	}
	return etl.Transformed(entity, record)
}

func field(record etl.RawRecord, key string) string {
	return strings.TrimSpace(record.Values[key])
}

func fieldOr(record etl.RawRecord, key, fallback string) string {
	if value := field(record, key); value != "" {
		return value
	}
	return fallback
}
