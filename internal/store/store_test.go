package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"turnstile/internal/etl"
	"turnstile/internal/transit"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "turnstile.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func staged(entities ...transit.Entity) []etl.StagedEntity {
	out := make([]etl.StagedEntity, 0, len(entities))
	for i, e := range entities {
		out = append(out, etl.StagedEntity{
			Entity: e,
			Record: etl.RawRecord{Table: string(e.Kind()), Row: i + 1},
		})
	}
	return out
}

func baseFeed() []transit.Entity {
	return []transit.Entity{
		transit.Agency{ID: "A1", Name: "Metro", Timezone: "America/Los_Angeles"},
		transit.Calendar{ServiceID: "WK", Monday: true, StartDate: "20260101", EndDate: "20261231"},
		transit.Stop{ID: "S1", Name: "Central", Lat: 47.6, Lon: -122.3},
		transit.Stop{ID: "S2", Name: "Harbor", Lat: 47.61, Lon: -122.34},
		transit.Route{ID: "R1", AgencyID: "A1", ShortName: "10", Type: transit.Bus},
		transit.Trip{ID: "T1", RouteID: "R1", ServiceID: "WK"},
		transit.ScheduleEntry{TripID: "T1", StopID: "S1", StopSequence: 1},
		transit.ScheduleEntry{TripID: "T1", StopID: "S2", StopSequence: 2},
	}
}

func TestOpenAppliesSchemaAndMigrations(t *testing.T) {
	s := openStore(t)
	for _, table := range []string{"agencies", "stops", "dlq_entries", "runs", "feed_runs"} {
		if _, err := s.CountRows(context.Background(), table); err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "turnstile.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.DB().Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestResolveAcceptsConsistentFeed(t *testing.T) {
	res := Resolve(staged(baseFeed()...))
	if len(res.Rejected) != 0 {
		t.Fatalf("unexpected rejections: %+v", res.Rejected)
	}
	if len(res.Accepted) != len(baseFeed()) {
		t.Fatalf("accepted %d of %d", len(res.Accepted), len(baseFeed()))
	}
	if res.Accepted[0].Entity.Kind() != transit.KindAgency {
		t.Fatalf("load order starts with %s", res.Accepted[0].Entity.Kind())
	}
}

func TestResolveRejectsUnknownReferences(t *testing.T) {
	entities := append(baseFeed(),
		transit.Trip{ID: "T2", RouteID: "R-missing", ServiceID: "WK"},
		transit.ScheduleEntry{TripID: "T2", StopID: "S1", StopSequence: 1},
	)
	res := Resolve(staged(entities...))

	rules := make(map[string]int)
	for _, rej := range res.Rejected {
		rules[rej.Rule]++
	}
	if rules[transit.RuleUnknownRoute] != 1 {
		t.Errorf("unknown_route rejections = %d", rules[transit.RuleUnknownRoute])
	}
	if rules[transit.RuleUnknownTrip] != 1 {
		t.Errorf("cascaded unknown_trip rejections = %d", rules[transit.RuleUnknownTrip])
	}
	if got := len(res.Accepted) + len(res.Rejected); got != len(entities) {
		t.Fatalf("conservation broken: %d accounted of %d", got, len(entities))
	}
}

func TestResolveRejectsParentStationCycle(t *testing.T) {
	entities := []transit.Entity{
		transit.Stop{ID: "S1", ParentStation: "S2", Lat: 1, Lon: 1},
		transit.Stop{ID: "S2", ParentStation: "S1", Lat: 1, Lon: 1},
		transit.Stop{ID: "S3", Lat: 1, Lon: 1},
	}
	res := Resolve(staged(entities...))
	if len(res.Accepted) != 1 || res.Accepted[0].Entity.Key() != "S3" {
		t.Fatalf("expected only S3 accepted, got %+v", res.Accepted)
	}
	for _, rej := range res.Rejected {
		if rej.Rule != transit.RuleParentStationCycle {
			t.Errorf("rule = %q", rej.Rule)
		}
	}
}

func TestResolveRejectsShapeGapAndDependentTrip(t *testing.T) {
	entities := append(baseFeed(),
		transit.ShapePoint{ShapeID: "SH1", Sequence: 1, Lat: 1, Lon: 1},
		transit.ShapePoint{ShapeID: "SH1", Sequence: 3, Lat: 2, Lon: 2},
		transit.Trip{ID: "T9", RouteID: "R1", ServiceID: "WK", ShapeID: "SH1"},
	)
	res := Resolve(staged(entities...))

	rules := make(map[string]int)
	for _, rej := range res.Rejected {
		rules[rej.Rule]++
	}
	if rules[transit.RuleShapeGap] != 2 {
		t.Errorf("shape_gap rejections = %d", rules[transit.RuleShapeGap])
	}
	if rules[transit.RuleUnknownShape] != 1 {
		t.Errorf("unknown_shape rejections = %d", rules[transit.RuleUnknownShape])
	}
}

func TestResolveSingleAgencyDefault(t *testing.T) {
	entities := []transit.Entity{
		transit.Agency{ID: "A1", Name: "Metro", Timezone: "UTC"},
		transit.Route{ID: "R1", Type: transit.Bus},
	}
	res := Resolve(staged(entities...))
	if len(res.Rejected) != 0 {
		t.Fatalf("unexpected rejections: %+v", res.Rejected)
	}
	for _, s := range res.Accepted {
		if route, ok := s.Entity.(transit.Route); ok && route.AgencyID != "A1" {
			t.Fatalf("agency not defaulted: %+v", route)
		}
	}
}

func TestResolveMultiAgencyRequiresReference(t *testing.T) {
	entities := []transit.Entity{
		transit.Agency{ID: "A1", Name: "Metro", Timezone: "UTC"},
		transit.Agency{ID: "A2", Name: "Ferries", Timezone: "UTC"},
		transit.Route{ID: "R1", Type: transit.Bus},
	}
	res := Resolve(staged(entities...))
	if len(res.Rejected) != 1 || res.Rejected[0].Rule != transit.RuleMissingAgency {
		t.Fatalf("expected missing_agency, got %+v", res.Rejected)
	}
}

func TestResolveRejectsDuplicateKeys(t *testing.T) {
	entities := []transit.Entity{
		transit.Stop{ID: "S1", Lat: 1, Lon: 1},
		transit.Stop{ID: "S1", Lat: 2, Lon: 2},
	}
	res := Resolve(staged(entities...))
	if len(res.Accepted) != 1 {
		t.Fatalf("accepted = %d", len(res.Accepted))
	}
	if len(res.Rejected) != 1 || res.Rejected[0].Rule != transit.RuleDuplicateKey {
		t.Fatalf("expected duplicate_key, got %+v", res.Rejected)
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	res := Resolve(staged(baseFeed()...))

	first, err := s.Load(ctx, "metro", res.Accepted)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := s.Load(ctx, "metro", res.Accepted)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if first != second {
		t.Fatalf("load counts differ: %d vs %d", first, second)
	}

	stops, err := s.CountRows(ctx, "stops")
	if err != nil {
		t.Fatalf("count stops: %v", err)
	}
	if stops != 2 {
		t.Fatalf("stops = %d after reload", stops)
	}
	entries, err := s.CountRows(ctx, "schedule_entries")
	if err != nil {
		t.Fatalf("count schedule_entries: %v", err)
	}
	if entries != 2 {
		t.Fatalf("schedule_entries = %d after reload", entries)
	}
}

func TestLoadUpsertsChangedFields(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	res := Resolve(staged(baseFeed()...))
	if _, err := s.Load(ctx, "metro", res.Accepted); err != nil {
		t.Fatalf("load: %v", err)
	}

	renamed := baseFeed()
	renamed[2] = transit.Stop{ID: "S1", Name: "Central Renamed", Lat: 47.6, Lon: -122.3}
	res = Resolve(staged(renamed...))
	if _, err := s.Load(ctx, "metro", res.Accepted); err != nil {
		t.Fatalf("reload: %v", err)
	}

	var name string
	if err := s.DB().QueryRow("SELECT name FROM stops WHERE id = 'S1'").Scan(&name); err != nil {
		t.Fatalf("query: %v", err)
	}
	if name != "Central Renamed" {
		t.Fatalf("name = %q", name)
	}
}

func TestLoadFailureIsTagged(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	// A route without its agency violates the declared foreign key.
	bad := []etl.StagedEntity{{
		Entity: transit.Route{ID: "R1", AgencyID: "missing", Type: transit.Bus},
		Record: etl.RawRecord{Table: "routes", Row: 1},
	}}
	_, err := s.Load(ctx, "broken", bad)
	if !errors.Is(err, etl.ErrLoadTransaction) {
		t.Fatalf("expected ErrLoadTransaction, got %v", err)
	}

	routes, err := s.CountRows(ctx, "routes")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if routes != 0 {
		t.Fatalf("rollback left %d routes", routes)
	}
}
