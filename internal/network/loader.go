package network

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Loader builds a Network from a relational schedule schema: stops,
// lines (routes), line_stops (ordered route membership), trips, and
// stop_times. It mirrors the teacher's routing.Loader, adapted from a
// single transit-agency GTFS-derived schema to the generic
// (stop, route, trip, stop_time) shape spec.md §3 requires.
type Loader struct {
	db *pgxpool.Pool
}

// NewLoader constructs a Loader over an existing connection pool.
func NewLoader(db *pgxpool.Pool) *Loader {
	return &Loader{db: db}
}

// Load reads the full network for the given service date.
func (l *Loader) Load(ctx context.Context, date time.Time) (*Network, error) {
	log.Println("network: loading timetable from database...")
	start := time.Now()

	n := &Network{
		Date:      date,
		nameIndex: make(map[string]StopIndex),
	}

	dbIDToIdx := make(map[int]StopIndex)

	rows, err := l.db.Query(ctx, "SELECT id, name FROM stops ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("network: query stops: %w", err)
	}
	for rows.Next() {
		var dbID int
		var s Stop
		if err := rows.Scan(&dbID, &s.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("network: scan stop: %w", err)
		}
		s.Index = StopIndex(len(n.Stops))
		dbIDToIdx[dbID] = s.Index
		if _, exists := n.nameIndex[s.Name]; !exists {
			n.nameIndex[s.Name] = s.Index
		}
		n.Stops = append(n.Stops, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("network: stops rows: %w", err)
	}
	log.Printf("network: loaded %d stops", len(n.Stops))

	lineRows, err := l.db.Query(ctx, "SELECT id FROM lines ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("network: query lines: %w", err)
	}
	var lineIDs []int
	for lineRows.Next() {
		var id int
		if err := lineRows.Scan(&id); err != nil {
			lineRows.Close()
			return nil, fmt.Errorf("network: scan line: %w", err)
		}
		lineIDs = append(lineIDs, id)
	}
	lineRows.Close()
	if err := lineRows.Err(); err != nil {
		return nil, fmt.Errorf("network: line rows: %w", err)
	}

	for _, lineID := range lineIDs {
		stopRows, err := l.db.Query(ctx,
			"SELECT stop_id FROM line_stops WHERE line_id=$1 ORDER BY stop_sequence", lineID)
		if err != nil {
			return nil, fmt.Errorf("network: query line_stops for line %d: %w", lineID, err)
		}
		var stopIdxs []StopIndex
		for stopRows.Next() {
			var dbID int
			if err := stopRows.Scan(&dbID); err != nil {
				stopRows.Close()
				return nil, fmt.Errorf("network: scan line_stop: %w", err)
			}
			idx, ok := dbIDToIdx[dbID]
			if !ok {
				continue
			}
			stopIdxs = append(stopIdxs, idx)
		}
		stopRows.Close()
		if err := stopRows.Err(); err != nil {
			return nil, fmt.Errorf("network: line_stops rows: %w", err)
		}
		if len(stopIdxs) < 2 {
			continue
		}

		route := Route{Index: RouteIndex(len(n.Routes)), Stops: stopIdxs}

		tripRows, err := l.db.Query(ctx,
			"SELECT id, trip_id FROM trips WHERE line_id=$1 AND service_date=$2 ORDER BY id",
			lineID, date)
		if err != nil {
			return nil, fmt.Errorf("network: query trips for line %d: %w", lineID, err)
		}
		var tripDBIDs []int
		var tripIDs []string
		for tripRows.Next() {
			var dbID int
			var tripID string
			if err := tripRows.Scan(&dbID, &tripID); err != nil {
				tripRows.Close()
				return nil, fmt.Errorf("network: scan trip: %w", err)
			}
			tripDBIDs = append(tripDBIDs, dbID)
			tripIDs = append(tripIDs, tripID)
		}
		tripRows.Close()
		if err := tripRows.Err(); err != nil {
			return nil, fmt.Errorf("network: trip rows: %w", err)
		}

		for i, tripDBID := range tripDBIDs {
			stStart := len(n.StopTimes)
			stRows, err := l.db.Query(ctx,
				"SELECT arrival, departure FROM stop_times WHERE trip_id=$1 ORDER BY stop_sequence", tripDBID)
			if err != nil {
				return nil, fmt.Errorf("network: query stop_times for trip %d: %w", tripDBID, err)
			}
			count := 0
			for stRows.Next() {
				var arr, dep int
				if err := stRows.Scan(&arr, &dep); err != nil {
					stRows.Close()
					return nil, fmt.Errorf("network: scan stop_time: %w", err)
				}
				n.StopTimes = append(n.StopTimes, StopTime{Arrival: Seconds(arr), Departure: Seconds(dep)})
				count++
			}
			stRows.Close()
			if err := stRows.Err(); err != nil {
				return nil, fmt.Errorf("network: stop_times rows: %w", err)
			}
			if count != len(stopIdxs) {
				// Malformed trip: doesn't cover the route's full stop sequence.
				// Drop the partial entries we just appended and skip the trip.
				n.StopTimes = n.StopTimes[:stStart]
				continue
			}
			route.Trips = append(route.Trips, Trip{ID: tripIDs[i], Start: stStart})
		}

		n.Routes = append(n.Routes, route)
	}
	log.Printf("network: loaded %d routes", len(n.Routes))
	log.Printf("network: load complete in %s", time.Since(start))

	return n, nil
}
