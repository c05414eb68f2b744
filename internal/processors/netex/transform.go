package netex

import (
	"fmt"
	"strconv"
	"strings"

	"turnstile/internal/etl"
	"turnstile/internal/transit"
)

// Transform maps a flattened element record onto a canonical entity.
func (*Processor) Transform(record etl.RawRecord) etl.TransformResult {
	switch record.Table {
	case "Operator":
		return transformOperator(record)
	case "Line":
		return transformLine(record)
	case "StopPlace":
		return transformStopPlace(record, transit.LocationStation, "")
	case "Quay":
		return transformStopPlace(record, transit.LocationStop, record.Get("parent"))
	case "ServiceJourney":
		return transformServiceJourney(record)
	case "TimetabledPassingTime":
		return transformPassingTime(record)
	case "DayType":
		return transformDayType(record)
	default:
		return etl.Skipped()
	}
}

func transformOperator(record etl.RawRecord) etl.TransformResult {
	agency := transit.Agency{
		ID:       record.Get("id"),
		Name:     record.Get("name"),
		URL:      record.Get("url"),
		Timezone: record.Get("timezone"),
	}
	return validated(agency, record)
}

// transportModes maps NeTEx transport mode vocabulary onto route types.
var transportModes = map[string]transit.RouteType{
	"bus":        transit.Bus,
	"coach":      transit.Bus,
	"trolleyBus": transit.TrolleyBus,
	"tram":       transit.Tram,
	"rail":       transit.Rail,
	"metro":      transit.Subway,
	"water":      transit.Ferry,
	"ferry":      transit.Ferry,
	"cableway":   transit.AerialLift,
	"funicular":  transit.Funicular,
}

func transformLine(record etl.RawRecord) etl.TransformResult {
	mode := record.Get("transport_mode")
	routeType, ok := transportModes[mode]
	if !ok {
		return etl.Rejected(record, transit.RuleInvalidRouteType,
			fmt.Sprintf("line %s: unrecognized transport mode %q", record.Get("id"), mode))
	}

	color := strings.TrimPrefix(record.Get("colour"), "#")
	if color == "" {
		color = transit.DefaultRouteColor
	}
	textColor := strings.TrimPrefix(record.Get("text_colour"), "#")
	if textColor == "" {
		textColor = transit.DefaultRouteTextColor
	}

	route := transit.Route{
		ID:        record.Get("id"),
		AgencyID:  record.Get("operator_ref"),
		ShortName: record.Get("public_code"),
		LongName:  record.Get("name"),
		Type:      routeType,
		Color:     color,
		TextColor: textColor,
	}
	return validated(route, record)
}

func transformStopPlace(record etl.RawRecord, locationType transit.LocationType, parent string) etl.TransformResult {
	id := record.Get("id")

	lat, err := strconv.ParseFloat(record.Get("latitude"), 64)
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidLatitude,
			fmt.Sprintf("stop place %s: latitude %q is not numeric", id, record.Get("latitude")))
	}
	lon, err := strconv.ParseFloat(record.Get("longitude"), 64)
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidLongitude,
			fmt.Sprintf("stop place %s: longitude %q is not numeric", id, record.Get("longitude")))
	}

	stop := transit.Stop{
		ID:            id,
		Name:          record.Get("name"),
		Lat:           lat,
		Lon:           lon,
		ParentStation: parent,
		LocationType:  locationType,
	}
	return validated(stop, record)
}

func transformServiceJourney(record etl.RawRecord) etl.TransformResult {
	trip := transit.Trip{
		ID:        record.Get("id"),
		RouteID:   record.Get("line_ref"),
		ServiceID: record.Get("day_type_ref"),
		Headsign:  record.Get("name"),
	}
	return validated(trip, record)
}

func transformPassingTime(record etl.RawRecord) etl.TransformResult {
	journey := record.Get("journey_ref")

	order, err := strconv.Atoi(record.Get("order"))
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidStopSequence,
			fmt.Sprintf("passing time %s: order %q is not numeric", journey, record.Get("order")))
	}

	entry := transit.ScheduleEntry{
		TripID:       journey,
		StopID:       record.Get("stop_ref"),
		StopSequence: order,
	}

	if raw := record.Get("arrival"); raw != "" {
		arrival, err := parseTime(raw, record.Get("arrival_offset"))
		if err != nil {
			return etl.Rejected(record, transit.RuleInvalidTime,
				fmt.Sprintf("passing time %s/%d: %v", journey, order, err))
		}
		entry.Arrival = &arrival
	}
	if raw := record.Get("departure"); raw != "" {
		departure, err := parseTime(raw, record.Get("departure_offset"))
		if err != nil {
			return etl.Rejected(record, transit.RuleInvalidTime,
				fmt.Sprintf("passing time %s/%d: %v", journey, order, err))
		}
		entry.Departure = &departure
	}
	return validated(entry, record)
}

// parseTime converts a NeTEx HH:MM:SS time with an optional day offset into
// seconds after midnight on the service day.
func parseTime(value, dayOffset string) (transit.TimeOfDay, error) {
	t, err := transit.ParseTimeOfDay(value)
	if err != nil {
		return 0, err
	}
	if dayOffset != "" {
		offset, err := strconv.Atoi(dayOffset)
		if err != nil || offset < 0 {
			return 0, fmt.Errorf("day offset %q is not a non-negative integer", dayOffset)
		}
		t += transit.TimeOfDay(offset * 24 * 3600)
	}
	return t, nil
}

func transformDayType(record etl.RawRecord) etl.TransformResult {
	id := record.Get("id")

	from, err := parseDate(record.Get("from_date"))
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidDate,
			fmt.Sprintf("day type %s: calendar period start: %v", id, err))
	}
	to, err := parseDate(record.Get("to_date"))
	if err != nil {
		return etl.Rejected(record, transit.RuleInvalidDate,
			fmt.Sprintf("day type %s: calendar period end: %v", id, err))
	}

	cal := transit.Calendar{ServiceID: id, StartDate: from, EndDate: to}
	for _, day := range strings.Fields(record.Get("days_of_week")) {
		switch day {
		case "Monday":
			cal.Monday = true
		case "Tuesday":
			cal.Tuesday = true
		case "Wednesday":
			cal.Wednesday = true
		case "Thursday":
			cal.Thursday = true
		case "Friday":
			cal.Friday = true
		case "Saturday":
			cal.Saturday = true
		case "Sunday":
			cal.Sunday = true
		case "Weekdays":
			cal.Monday, cal.Tuesday, cal.Wednesday, cal.Thursday, cal.Friday = true, true, true, true, true
		case "Weekend":
			cal.Saturday, cal.Sunday = true, true
		case "Everyday":
			cal.Monday, cal.Tuesday, cal.Wednesday, cal.Thursday, cal.Friday = true, true, true, true, true
			cal.Saturday, cal.Sunday = true, true
		}
	}
	return validated(cal, record)
}

// parseDate converts a NeTEx ISO date (optionally with a time component)
// into a service date.
func parseDate(value string) (transit.Date, error) {
	value = strings.TrimSpace(value)
	if len(value) > 10 {
		value = value[:10]
	}
	return transit.ParseDate(strings.ReplaceAll(value, "-", ""))
}

func validated(entity transit.Entity, record etl.RawRecord) etl.TransformResult {
	if violation := transit.ValidateEntity(entity); violation != nil {
		return etl.Rejected(record, violation.Rule, violation.Message)
	}
	return etl.Transformed(entity, record)
}
