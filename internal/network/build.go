package network

import (
	"fmt"
	"time"
)

// StaticStop is one named, located stop for FromStatic input.
type StaticStop struct {
	Name string
	Lat  float64
	Lon  float64
}

// StaticRoute is the input shape for FromStatic: a route's ordered stop
// names and, per trip, the stop-time pairs aligned to that stop order.
type StaticRoute struct {
	StopNames []string
	// Trips[i] has one StopTime per entry in StopNames, in the same order.
	Trips []StaticTrip
}

// StaticTrip is one trip's identifier and per-stop timetable entries.
type StaticTrip struct {
	ID        string
	StopTimes []StopTime
}

// FromStatic builds a Network directly from in-memory route/trip data,
// laying stop-times out flat with one contiguous range per trip and
// routes' trips in contiguous subranges, per spec.md §3. This is the
// entry point tests and pre-parsed-feed callers use; parsing a static
// transit feed into this shape is out of scope (spec.md §1).
func FromStatic(date time.Time, stops []StaticStop, routes []StaticRoute) (*Network, error) {
	n := &Network{
		Date:      date,
		nameIndex: make(map[string]StopIndex, len(stops)),
	}

	n.Stops = make([]Stop, len(stops))
	for i, s := range stops {
		n.Stops[i] = Stop{Index: StopIndex(i), Name: s.Name, Lat: s.Lat, Lon: s.Lon}
		if _, exists := n.nameIndex[s.Name]; !exists {
			n.nameIndex[s.Name] = StopIndex(i)
		}
	}

	nameToIdx := n.nameIndex

	n.Routes = make([]Route, len(routes))
	for ri, sr := range routes {
		stopIdxs := make([]StopIndex, len(sr.StopNames))
		for i, name := range sr.StopNames {
			idx, ok := nameToIdx[name]
			if !ok {
				return nil, fmt.Errorf("network: route %d references unknown stop %q", ri, name)
			}
			stopIdxs[i] = idx
		}

		trips := make([]Trip, len(sr.Trips))
		for ti, st := range sr.Trips {
			if len(st.StopTimes) != len(stopIdxs) {
				return nil, fmt.Errorf("network: route %d trip %d has %d stop-times, want %d",
					ri, ti, len(st.StopTimes), len(stopIdxs))
			}
			start := len(n.StopTimes)
			n.StopTimes = append(n.StopTimes, st.StopTimes...)
			trips[ti] = Trip{ID: st.ID, Start: start}
		}

		n.Routes[ri] = Route{Index: RouteIndex(ri), Stops: stopIdxs, Trips: trips}
	}

	return n, nil
}
