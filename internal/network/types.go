// Package network holds the read-only in-memory timetable representation
// the assignment engine plans against: stops, routes, trips, and a flat
// array of stop-time entries laid out so each trip occupies a contiguous
// range.
package network

import "time"

// StopIndex identifies a stop within a Network. Stop indices fit in a
// compact unsigned integer per spec.
type StopIndex uint32

// RouteIndex identifies a route within a Network.
type RouteIndex uint32

// TripOrder identifies a trip's position within its route's trip list.
type TripOrder uint32

// Seconds counts seconds since service-day start.
type Seconds int32

// Stop is a boarding location.
type Stop struct {
	Index StopIndex
	Name  string
	Lat   float64
	Lon   float64
}

// StopTime is one (route, trip, stop-order) timetable entry.
type StopTime struct {
	Arrival   Seconds
	Departure Seconds
}

// Trip is a scheduled traversal of a route's stop sequence, identified
// by a string ID and occupying a contiguous range of the network's flat
// stop-time array.
type Trip struct {
	ID string
	// Start is the index into Network.StopTimes of this trip's first
	// stop-order entry; the trip's range is [Start, Start+len(Route.Stops)).
	Start int
}

// Route is an ordered sequence of stops served by a set of trips.
type Route struct {
	Index RouteIndex
	Stops []StopIndex
	Trips []Trip
}

// TripRange returns the contiguous [a,b) range of stop-time indices
// occupied by the trip at the given order within this route.
func (r *Route) TripRange(order TripOrder) (start, end int) {
	start = r.Trips[order].Start
	end = start + len(r.Stops)
	return start, end
}

// GlobalTripIndex names one trip unambiguously within a Network.
type GlobalTripIndex struct {
	RouteIdx  RouteIndex
	TripOrder TripOrder
}

// Network is the read-only, immutable timetable the assignment engine
// plans against. It is built once (via Loader or FromStatic) and never
// mutated afterward.
type Network struct {
	Date   time.Time
	Stops  []Stop
	Routes []Route

	// StopTimes is the flat layout described in spec.md §3: every trip
	// occupies a contiguous range [a,b) of this slice, and a route's
	// trips occupy contiguous subranges of it.
	StopTimes []StopTime

	nameIndex map[string]StopIndex
}

// NumStops returns the number of stops in the network.
func (n *Network) NumStops() int { return len(n.Stops) }

// NumStopTimes returns S, the total count of stop-time entries.
func (n *Network) NumStopTimes() int { return len(n.StopTimes) }

// StopIndexByName resolves a stop name to its index. It is monotonic
// and side-effect free: repeated calls never mutate the Network.
func (n *Network) StopIndexByName(name string) (StopIndex, bool) {
	idx, ok := n.nameIndex[name]
	return idx, ok
}

// TripStopTimes returns the stop-time entries for one trip, in stop-order.
func (n *Network) TripStopTimes(routeIdx RouteIndex, order TripOrder) []StopTime {
	route := &n.Routes[routeIdx]
	start, end := route.TripRange(order)
	return n.StopTimes[start:end]
}
