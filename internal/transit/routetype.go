package transit

// RouteType is the transport mode of a route, following the GTFS base
// vocabulary.
type RouteType int

const (
	Tram       RouteType = 0
	Subway     RouteType = 1
	Rail       RouteType = 2
	Bus        RouteType = 3
	Ferry      RouteType = 4
	CableTram  RouteType = 5
	AerialLift RouteType = 6
	Funicular  RouteType = 7
	TrolleyBus RouteType = 11
	Monorail   RouteType = 12

	UnknownRouteType RouteType = -1
)

// NewRouteType maps a numeric code to a route type. Extended transport-mode
// codes (the 100-1700 hierarchy) collapse onto their base category so feeds
// using the extension still normalize cleanly.
func NewRouteType(i int) (RouteType, bool) {
	switch i {
	case 0, 1, 2, 3, 4, 5, 6, 7, 11, 12:
		return RouteType(i), true
	}
	if t, ok := extendedRouteType(i); ok {
		return t, true
	}
	return UnknownRouteType, false
}

func extendedRouteType(i int) (RouteType, bool) {
	switch {
	case i >= 100 && i < 200: // railway service
		return Rail, true
	case i >= 200 && i < 300: // coach service
		return Bus, true
	case i >= 400 && i < 500: // urban railway service
		return Subway, true
	case i >= 700 && i < 800: // bus service
		return Bus, true
	case i >= 800 && i < 900: // trolleybus service
		return TrolleyBus, true
	case i >= 900 && i < 1000: // tram service
		return Tram, true
	case i >= 1000 && i < 1100: // water transport service
		return Ferry, true
	case i >= 1200 && i < 1300: // ferry service
		return Ferry, true
	case i >= 1300 && i < 1400: // aerial lift service
		return AerialLift, true
	case i >= 1400 && i < 1500: // funicular service
		return Funicular, true
	}
	return UnknownRouteType, false
}

func (t RouteType) String() string {
	switch t {
	case Tram:
		return "tram"
	case Subway:
		return "subway"
	case Rail:
		return "rail"
	case Bus:
		return "bus"
	case Ferry:
		return "ferry"
	case CableTram:
		return "cable_tram"
	case AerialLift:
		return "gondola"
	case Funicular:
		return "funicular"
	case TrolleyBus:
		return "trolleybus"
	case Monorail:
		return "monorail"
	}
	return "unknown"
}
