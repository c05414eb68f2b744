package transit

import (
	"fmt"
)

// Kind identifies a canonical entity type.
type Kind string

const (
	KindAgency            Kind = "agency"
	KindCalendar          Kind = "calendar"
	KindCalendarException Kind = "calendar_exception"
	KindStop              Kind = "stop"
	KindRoute             Kind = "route"
	KindShapePoint        Kind = "shape_point"
	KindTrip              Kind = "trip"
	KindScheduleEntry     Kind = "schedule_entry"
)

// LoadOrder lists entity kinds in dependency order: parents before anything
// that references them.
func LoadOrder() []Kind {
	return []Kind{
		KindAgency,
		KindCalendar,
		KindCalendarException,
		KindStop,
		KindRoute,
		KindShapePoint,
		KindTrip,
		KindScheduleEntry,
	}
}

// Entity is implemented by every canonical record type.
type Entity interface {
	Kind() Kind
	// Key returns the entity's natural key, used for diagnostics and
	// conflict reporting.
	Key() string
}

// Agency is a transit operator.
type Agency struct {
	ID       string
	Name     string
	URL      string
	Timezone string
}

func (Agency) Kind() Kind    { return KindAgency }
func (a Agency) Key() string { return a.ID }

// Route is a named service line operated by an agency.
type Route struct {
	ID        string
	AgencyID  string
	ShortName string
	LongName  string
	Type      RouteType
	Color     string
	TextColor string
}

func (Route) Kind() Kind    { return KindRoute }
func (r Route) Key() string { return r.ID }

// Stop is a boarding location. ParentStation, when set, references another
// Stop; cycles are forbidden and rejected at load resolution.
type Stop struct {
	ID            string
	Name          string
	Lat           float64
	Lon           float64
	ParentStation string
	LocationType  LocationType
}

func (Stop) Kind() Kind    { return KindStop }
func (s Stop) Key() string { return s.ID }

// Trip is one run of a route under a service calendar.
type Trip struct {
	ID          string
	RouteID     string
	ServiceID   string
	ShapeID     string
	Headsign    string
	DirectionID *int
}

func (Trip) Kind() Kind    { return KindTrip }
func (t Trip) Key() string { return t.ID }

// ScheduleEntry is a timed stop within a trip, unique on (trip, sequence).
type ScheduleEntry struct {
	TripID       string
	StopID       string
	StopSequence int
	Arrival      *TimeOfDay
	Departure    *TimeOfDay
}

func (ScheduleEntry) Kind() Kind { return KindScheduleEntry }
func (e ScheduleEntry) Key() string {
	return fmt.Sprintf("%s:%d", e.TripID, e.StopSequence)
}

// ShapePoint is one vertex of a trip geometry, unique on (shape, sequence).
// Sequences must be gapless per shape for rendering correctness.
type ShapePoint struct {
	ShapeID  string
	Sequence int
	Lat      float64
	Lon      float64
}

func (ShapePoint) Kind() Kind { return KindShapePoint }
func (p ShapePoint) Key() string {
	return fmt.Sprintf("%s:%d", p.ShapeID, p.Sequence)
}

// Calendar is a weekly service pattern.
type Calendar struct {
	ServiceID string
	Monday    bool
	Tuesday   bool
	Wednesday bool
	Thursday  bool
	Friday    bool
	Saturday  bool
	Sunday    bool
	StartDate Date
	EndDate   Date
}

func (Calendar) Kind() Kind    { return KindCalendar }
func (c Calendar) Key() string { return c.ServiceID }

// ExceptionType distinguishes calendar exception semantics.
type ExceptionType int

const (
	ServiceAdded   ExceptionType = 1
	ServiceRemoved ExceptionType = 2
)

// CalendarException adds or removes service on a single date.
type CalendarException struct {
	ServiceID string
	Date      Date
	Type      ExceptionType
}

func (CalendarException) Kind() Kind { return KindCalendarException }
func (e CalendarException) Key() string {
	return fmt.Sprintf("%s:%s", e.ServiceID, e.Date)
}

// LocationType distinguishes stop roles.
type LocationType int

const (
	LocationStop        LocationType = 0
	LocationStation     LocationType = 1
	LocationEntrance    LocationType = 2
	LocationGenericNode LocationType = 3
	LocationBoarding    LocationType = 4
)

// Point returns the stop's derived point geometry in WKT form, suitable for
// geometry-aware consumers.
func (s Stop) Point() string {
	return fmt.Sprintf("POINT(%g %g)", s.Lon, s.Lat)
}

// DefaultRouteColor and DefaultRouteTextColor apply when a source omits
// route colors.
const (
	DefaultRouteColor     = "FFFFFF"
	DefaultRouteTextColor = "000000"
)
