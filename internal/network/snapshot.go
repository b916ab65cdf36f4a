package network

import (
	"encoding/json"
	"io"
	"time"
)

// Snapshot is the on-disk JSON shape for a network, used by batch
// tooling that runs against a prepared network file instead of a live
// database connection. Its shape mirrors FromStatic's input types
// directly so the two stay interchangeable.
type Snapshot struct {
	Date   time.Time       `json:"date"`
	Stops  []StaticStop    `json:"stops"`
	Routes []SnapshotRoute `json:"routes"`
}

// SnapshotRoute is one route's on-disk representation.
type SnapshotRoute struct {
	StopNames []string       `json:"stop_names"`
	Trips     []SnapshotTrip `json:"trips"`
}

// SnapshotTrip is one trip's on-disk representation.
type SnapshotTrip struct {
	ID        string     `json:"id"`
	StopTimes []StopTime `json:"stop_times"`
}

// LoadSnapshotJSON reads a Snapshot and builds a Network from it via
// FromStatic.
func LoadSnapshotJSON(r io.Reader) (*Network, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, err
	}

	routes := make([]StaticRoute, len(snap.Routes))
	for i, sr := range snap.Routes {
		trips := make([]StaticTrip, len(sr.Trips))
		for j, t := range sr.Trips {
			trips[j] = StaticTrip{ID: t.ID, StopTimes: t.StopTimes}
		}
		routes[i] = StaticRoute{StopNames: sr.StopNames, Trips: trips}
	}

	return FromStatic(snap.Date, snap.Stops, routes)
}

// DumpSnapshotJSON writes a Network back out in the Snapshot format,
// for round-tripping and for generating test fixtures.
func DumpSnapshotJSON(w io.Writer, n *Network) error {
	snap := Snapshot{Date: n.Date}
	for _, s := range n.Stops {
		snap.Stops = append(snap.Stops, StaticStop{Name: s.Name, Lat: s.Lat, Lon: s.Lon})
	}
	for _, r := range n.Routes {
		names := make([]string, len(r.Stops))
		for i, idx := range r.Stops {
			names[i] = n.Stops[idx].Name
		}
		sr := SnapshotRoute{StopNames: names}
		for _, trip := range r.Trips {
			start, end := trip.Start, trip.Start+len(r.Stops)
			sr.Trips = append(sr.Trips, SnapshotTrip{ID: trip.ID, StopTimes: n.StopTimes[start:end]})
		}
		snap.Routes = append(snap.Routes, sr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}
