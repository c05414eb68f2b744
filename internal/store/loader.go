package store

import (
	"context"
	"database/sql"
	"fmt"

	"turnstile/internal/etl"
	"turnstile/internal/transit"
)

// Load writes a feed's resolved entities inside a single transaction.
// Upserts are idempotent on natural keys, so reloading an unchanged feed
// converges to the same row set. Any database failure rolls back the feed's
// entire load and comes back tagged ErrLoadTransaction.
func (s *Store) Load(ctx context.Context, feed string, accepted []etl.StagedEntity) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, etl.Wrap(etl.ErrLoadTransaction, "store", "begin", feed, err)
	}
	defer func() { _ = tx.Rollback() }()

	stamp := now()
	loaded := 0
	for _, staged := range accepted {
		if err := ctx.Err(); err != nil {
			return 0, etl.Wrap(etl.ErrLoadTransaction, "store", "load", feed, err)
		}
		if err := upsert(ctx, tx, staged.Entity, stamp); err != nil {
			return 0, etl.Wrap(etl.ErrLoadTransaction, "store", "upsert", feed, err)
		}
		loaded++
	}

	if err := tx.Commit(); err != nil {
		return 0, etl.Wrap(etl.ErrLoadTransaction, "store", "commit", feed, err)
	}
	return loaded, nil
}

func upsert(ctx context.Context, tx *sql.Tx, entity transit.Entity, stamp string) error {
	switch e := entity.(type) {
	case transit.Agency:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO agencies (id, name, url, timezone, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				url = excluded.url,
				timezone = excluded.timezone,
				updated_at = excluded.updated_at`,
			e.ID, e.Name, e.URL, e.Timezone, stamp)
		return err
	case transit.Calendar:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO calendars (service_id, monday, tuesday, wednesday, thursday, friday, saturday, sunday, start_date, end_date, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(service_id) DO UPDATE SET
				monday = excluded.monday,
				tuesday = excluded.tuesday,
				wednesday = excluded.wednesday,
				thursday = excluded.thursday,
				friday = excluded.friday,
				saturday = excluded.saturday,
				sunday = excluded.sunday,
				start_date = excluded.start_date,
				end_date = excluded.end_date,
				updated_at = excluded.updated_at`,
			e.ServiceID, boolInt(e.Monday), boolInt(e.Tuesday), boolInt(e.Wednesday), boolInt(e.Thursday),
			boolInt(e.Friday), boolInt(e.Saturday), boolInt(e.Sunday), e.StartDate.String(), e.EndDate.String(), stamp)
		return err
	case transit.CalendarException:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO calendar_exceptions (service_id, date, exception_type, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(service_id, date) DO UPDATE SET
				exception_type = excluded.exception_type,
				updated_at = excluded.updated_at`,
			e.ServiceID, e.Date.String(), int(e.Type), stamp)
		return err
	case transit.Stop:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO stops (id, name, lat, lon, parent_station, location_type, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				lat = excluded.lat,
				lon = excluded.lon,
				parent_station = excluded.parent_station,
				location_type = excluded.location_type,
				updated_at = excluded.updated_at`,
			e.ID, e.Name, e.Lat, e.Lon, e.ParentStation, int(e.LocationType), stamp)
		return err
	case transit.Route:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO routes (id, agency_id, short_name, long_name, route_type, color, text_color, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				agency_id = excluded.agency_id,
				short_name = excluded.short_name,
				long_name = excluded.long_name,
				route_type = excluded.route_type,
				color = excluded.color,
				text_color = excluded.text_color,
				updated_at = excluded.updated_at`,
			e.ID, e.AgencyID, e.ShortName, e.LongName, int(e.Type), e.Color, e.TextColor, stamp)
		return err
	case transit.ShapePoint:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO shape_points (shape_id, sequence, lat, lon, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(shape_id, sequence) DO UPDATE SET
				lat = excluded.lat,
				lon = excluded.lon,
				updated_at = excluded.updated_at`,
			e.ShapeID, e.Sequence, e.Lat, e.Lon, stamp)
		return err
	case transit.Trip:
		var direction any
		if e.DirectionID != nil {
			direction = *e.DirectionID
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO trips (id, route_id, service_id, shape_id, headsign, direction_id, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				route_id = excluded.route_id,
				service_id = excluded.service_id,
				shape_id = excluded.shape_id,
				headsign = excluded.headsign,
				direction_id = excluded.direction_id,
				updated_at = excluded.updated_at`,
			e.ID, e.RouteID, e.ServiceID, e.ShapeID, e.Headsign, direction, stamp)
		return err
	case transit.ScheduleEntry:
		var arrival, departure any
		if e.Arrival != nil {
			arrival = e.Arrival.Seconds()
		}
		if e.Departure != nil {
			departure = e.Departure.Seconds()
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_entries (trip_id, stop_id, stop_sequence, arrival_seconds, departure_seconds, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(trip_id, stop_sequence) DO UPDATE SET
				stop_id = excluded.stop_id,
				arrival_seconds = excluded.arrival_seconds,
				departure_seconds = excluded.departure_seconds,
				updated_at = excluded.updated_at`,
			e.TripID, e.StopID, e.StopSequence, arrival, departure, stamp)
		return err
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CountRows returns the row count of a canonical table, used by reports and
// tests.
func (s *Store) CountRows(ctx context.Context, table string) (int, error) {
	allowed := map[string]bool{
		"agencies": true, "calendars": true, "calendar_exceptions": true,
		"stops": true, "routes": true, "shape_points": true,
		"trips": true, "schedule_entries": true, "dlq_entries": true,
		"runs": true, "feed_runs": true,
	}
	if !allowed[table] {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM "+table).Scan(&count)
	return count, err
}
