package store

import (
	"fmt"
	"sort"

	"turnstile/internal/etl"
	"turnstile/internal/transit"
)

// Resolution is the outcome of the load-time invariant pass: entities that
// may be written, in dependency order, and late rejections for records whose
// cross-record invariants failed.
type Resolution struct {
	Accepted []etl.StagedEntity
	Rejected []etl.Rejection
}

// Resolve enforces cross-record invariants over a feed's complete entity
// set: reference existence, parent-station acyclicity, shape gaplessness,
// the single-agency default, and key uniqueness within the feed. Rejections
// cascade, so a trip whose route was rejected is rejected too, along with
// its schedule entries.
func Resolve(staged []etl.StagedEntity) Resolution {
	r := newResolver()
	for _, s := range staged {
		r.admit(s)
	}
	r.applySingleAgencyDefault()
	r.resolveStops()
	r.resolveRoutes()
	r.resolveShapes()
	r.resolveTrips()
	r.resolveScheduleEntries()
	return r.finish()
}

type resolver struct {
	byKind   map[transit.Kind][]etl.StagedEntity
	seen     map[transit.Kind]map[string]bool
	rejected []etl.Rejection

	agencies map[string]bool
	services map[string]bool
	stops    map[string]bool
	routes   map[string]bool
	shapes   map[string]bool
	trips    map[string]bool
}

func newResolver() *resolver {
	return &resolver{
		byKind:   make(map[transit.Kind][]etl.StagedEntity),
		seen:     make(map[transit.Kind]map[string]bool),
		agencies: make(map[string]bool),
		services: make(map[string]bool),
		stops:    make(map[string]bool),
		routes:   make(map[string]bool),
		shapes:   make(map[string]bool),
		trips:    make(map[string]bool),
	}
}

// admit stages an entity, rejecting duplicate natural keys within the feed.
func (r *resolver) admit(s etl.StagedEntity) {
	kind := s.Entity.Kind()
	key := s.Entity.Key()
	keys := r.seen[kind]
	if keys == nil {
		keys = make(map[string]bool)
		r.seen[kind] = keys
	}
	if keys[key] {
		r.reject(s, transit.RuleDuplicateKey,
			fmt.Sprintf("%s %s: duplicate key within feed", kind, key))
		return
	}
	keys[key] = true
	r.byKind[kind] = append(r.byKind[kind], s)

	switch e := s.Entity.(type) {
	case transit.Agency:
		r.agencies[e.ID] = true
	case transit.Calendar:
		r.services[e.ServiceID] = true
	case transit.CalendarException:
		r.services[e.ServiceID] = true
	}
}

func (r *resolver) reject(s etl.StagedEntity, rule, message string) {
	r.rejected = append(r.rejected, etl.Rejection{Record: s.Record, Rule: rule, Message: message})
}

// applySingleAgencyDefault fills empty route agency references when the feed
// declares exactly one agency.
func (r *resolver) applySingleAgencyDefault() {
	if len(r.byKind[transit.KindAgency]) != 1 {
		return
	}
	only := r.byKind[transit.KindAgency][0].Entity.(transit.Agency).ID
	routes := r.byKind[transit.KindRoute]
	for i, s := range routes {
		route := s.Entity.(transit.Route)
		if route.AgencyID == "" {
			route.AgencyID = only
			routes[i].Entity = route
		}
	}
}

// resolveStops checks parent references and detects parent-station cycles.
func (r *resolver) resolveStops() {
	staged := r.byKind[transit.KindStop]
	parents := make(map[string]string, len(staged))
	for _, s := range staged {
		stop := s.Entity.(transit.Stop)
		parents[stop.ID] = stop.ParentStation
	}

	var kept []etl.StagedEntity
	for _, s := range staged {
		stop := s.Entity.(transit.Stop)
		if stop.ParentStation != "" {
			if _, ok := parents[stop.ParentStation]; !ok {
				r.reject(s, transit.RuleUnknownParentStation,
					fmt.Sprintf("stop %s: parent_station %s not in feed", stop.ID, stop.ParentStation))
				continue
			}
		}
		if inParentCycle(stop.ID, parents) {
			r.reject(s, transit.RuleParentStationCycle,
				fmt.Sprintf("stop %s: parent_station chain forms a cycle", stop.ID))
			continue
		}
		kept = append(kept, s)
		r.stops[stop.ID] = true
	}
	r.byKind[transit.KindStop] = kept
}

// inParentCycle follows the parent chain from id, reporting whether it ever
// revisits a stop.
func inParentCycle(id string, parents map[string]string) bool {
	visited := map[string]bool{}
	for current := id; current != ""; current = parents[current] {
		if visited[current] {
			return true
		}
		visited[current] = true
		if _, ok := parents[current]; !ok {
			return false
		}
	}
	return false
}

func (r *resolver) resolveRoutes() {
	var kept []etl.StagedEntity
	for _, s := range r.byKind[transit.KindRoute] {
		route := s.Entity.(transit.Route)
		if route.AgencyID == "" {
			r.reject(s, transit.RuleMissingAgency,
				fmt.Sprintf("route %s: no agency reference and feed has multiple agencies", route.ID))
			continue
		}
		if !r.agencies[route.AgencyID] {
			r.reject(s, transit.RuleUnknownAgency,
				fmt.Sprintf("route %s: agency %s not in feed", route.ID, route.AgencyID))
			continue
		}
		kept = append(kept, s)
		r.routes[route.ID] = true
	}
	r.byKind[transit.KindRoute] = kept
}

// resolveShapes enforces gapless, strictly increasing sequences per shape.
// A gap rejects every point of the shape so trips cannot reference a partial
// geometry.
func (r *resolver) resolveShapes() {
	staged := r.byKind[transit.KindShapePoint]
	grouped := make(map[string][]int, len(staged))
	for _, s := range staged {
		point := s.Entity.(transit.ShapePoint)
		grouped[point.ShapeID] = append(grouped[point.ShapeID], point.Sequence)
	}

	broken := make(map[string]bool)
	for shapeID, sequences := range grouped {
		sort.Ints(sequences)
		for i := 1; i < len(sequences); i++ {
			if sequences[i] != sequences[i-1]+1 {
				broken[shapeID] = true
				break
			}
		}
	}

	var kept []etl.StagedEntity
	for _, s := range staged {
		point := s.Entity.(transit.ShapePoint)
		if broken[point.ShapeID] {
			r.reject(s, transit.RuleShapeGap,
				fmt.Sprintf("shape %s: sequence has gaps", point.ShapeID))
			continue
		}
		kept = append(kept, s)
		r.shapes[point.ShapeID] = true
	}
	r.byKind[transit.KindShapePoint] = kept
}

func (r *resolver) resolveTrips() {
	var kept []etl.StagedEntity
	for _, s := range r.byKind[transit.KindTrip] {
		trip := s.Entity.(transit.Trip)
		switch {
		case !r.routes[trip.RouteID]:
			r.reject(s, transit.RuleUnknownRoute,
				fmt.Sprintf("trip %s: route %s not in feed", trip.ID, trip.RouteID))
		case !r.services[trip.ServiceID]:
			r.reject(s, transit.RuleUnknownService,
				fmt.Sprintf("trip %s: service %s not in feed", trip.ID, trip.ServiceID))
		case trip.ShapeID != "" && !r.shapes[trip.ShapeID]:
			r.reject(s, transit.RuleUnknownShape,
				fmt.Sprintf("trip %s: shape %s not in feed", trip.ID, trip.ShapeID))
		default:
			kept = append(kept, s)
			r.trips[trip.ID] = true
		}
	}
	r.byKind[transit.KindTrip] = kept
}

func (r *resolver) resolveScheduleEntries() {
	var kept []etl.StagedEntity
	for _, s := range r.byKind[transit.KindScheduleEntry] {
		entry := s.Entity.(transit.ScheduleEntry)
		switch {
		case !r.trips[entry.TripID]:
			r.reject(s, transit.RuleUnknownTrip,
				fmt.Sprintf("schedule entry %s/%d: trip not in feed", entry.TripID, entry.StopSequence))
		case !r.stops[entry.StopID]:
			r.reject(s, transit.RuleUnknownStop,
				fmt.Sprintf("schedule entry %s/%d: stop %s not in feed", entry.TripID, entry.StopSequence, entry.StopID))
		default:
			kept = append(kept, s)
		}
	}
	r.byKind[transit.KindScheduleEntry] = kept
}

func (r *resolver) finish() Resolution {
	var accepted []etl.StagedEntity
	for _, kind := range transit.LoadOrder() {
		accepted = append(accepted, r.byKind[kind]...)
	}
	return Resolution{Accepted: accepted, Rejected: r.rejected}
}
