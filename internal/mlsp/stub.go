package mlsp

import (
	"context"
	"math"

	"github.com/antigravity/transit-assign/internal/network"
)

// maxRounds bounds the number of route-relaxation passes Stub performs.
// Each pass can extend a journey by one more boarded leg (one more
// transfer), so this is the maximum number of transfers Stub will ever
// route through; it mirrors the round cap of the teacher's FindRoute,
// which stops once a pass makes no improvement.
const maxRounds = 8

// parentInfo backtracks one stop's best label to the leg that produced
// it, so a Journey can be reconstructed once relaxation settles.
type parentInfo struct {
	fromStop     network.StopIndex
	routeIdx     network.RouteIndex
	tripOrder    network.TripOrder
	boardOrder   int
	arrivalOrder int
}

// Stub is a deterministic, single-label earliest-arrival search used
// in place of a real multi-label shortest-path engine. It adapts the
// teacher's round-based RAPTOR relaxation (backend/internal/routing/raptor.go)
// to this package's Network and Leg/Journey shapes, collapsed to one
// label per stop: the scalar utility arrival_time + CostUtility*cost,
// rather than a Pareto-maintained bag. It satisfies the Query interface
// for every bag size but never produces more than one journey per
// destination, which is sufficient for round 0 (bag size 1 by
// definition) and acceptable for later rounds in tests and the CLI.
type Stub struct{}

// Query implements Query.
func (s *Stub) Query(
	_ context.Context,
	net *network.Network,
	origin network.StopIndex,
	departureTime network.Seconds,
	destinations []network.StopIndex,
	crowdingCostPerSegment []float64,
	prefs JourneyPreferences,
	_ int,
) ([]Result, error) {
	stopRoutes := routesServing(net)

	const inf = math.MaxFloat64

	numStops := net.NumStops()
	bestUtility := make([]float64, numStops)
	bestArrival := make([]network.Seconds, numStops)
	bestCost := make([]float64, numStops)
	parent := make([]*parentInfo, numStops)
	reached := make([]bool, numStops)
	for i := range bestUtility {
		bestUtility[i] = inf
	}

	bestUtility[origin] = float64(departureTime)
	bestArrival[origin] = departureTime
	reached[origin] = true

	marked := map[network.StopIndex]bool{origin: true}

	for round := 0; round < maxRounds && len(marked) > 0; round++ {
		// routesToScan is the set of routes serving any marked stop.
		routesToScan := map[network.RouteIndex]bool{}
		for stop := range marked {
			for _, r := range stopRoutes[stop] {
				routesToScan[r] = true
			}
		}
		marked = map[network.StopIndex]bool{}

		for routeIdx := range routesToScan {
			route := &net.Routes[routeIdx]
			s.scanRoute(net, route, routeIdx, crowdingCostPerSegment, prefs,
				reached, bestUtility, bestArrival, bestCost, parent, marked)
		}
	}

	results := make([]Result, len(destinations))
	for i, dest := range destinations {
		if !reached[dest] {
			results[i] = Result{Err: ErrNoJourneyFound}
			continue
		}
		duration := bestArrival[dest] - departureTime
		journey, err := reconstruct(parent, dest, duration, bestCost[dest])
		results[i] = Result{Journey: journey, Err: err}
	}
	return results, nil
}

// scanRoute performs one RAPTOR-style pass over a route: it tracks the
// earliest trip boardable given each stop's best-known arrival so far,
// and relaxes every later stop on that trip.
func (s *Stub) scanRoute(
	net *network.Network,
	route *network.Route,
	routeIdx network.RouteIndex,
	crowdingCostPerSegment []float64,
	prefs JourneyPreferences,
	reached []bool,
	bestUtility []float64,
	bestArrival []network.Seconds,
	bestCost []float64,
	parent []*parentInfo,
	marked map[network.StopIndex]bool,
) {
	boardedTrip := -1
	boardStopOrder := -1
	boardCost := 0.0

	for stopOrder, stopIdx := range route.Stops {
		// Can we board (or re-board onto a better trip) at this stop?
		if reached[stopIdx] {
			candidate := s.earliestTripFrom(net, route, stopOrder, bestArrival[stopIdx])
			if candidate >= 0 && (boardedTrip < 0 || candidate <= boardedTrip) && boardedTrip != candidate {
				boardedTrip = candidate
				boardStopOrder = stopOrder
				boardCost = bestCost[stopIdx]
			}
		}

		if boardedTrip < 0 {
			continue
		}

		stopTimes := net.TripStopTimes(routeIdx, network.TripOrder(boardedTrip))
		arrival := stopTimes[stopOrder].Arrival

		segStart, _ := route.TripRange(network.TripOrder(boardedTrip))
		legCost := boardCost
		if stopOrder > boardStopOrder {
			legCost += segmentCost(crowdingCostPerSegment, segStart, boardStopOrder, stopOrder)
		}

		utility := float64(arrival) + prefs.CostUtility*legCost
		if stopOrder > boardStopOrder && utility < bestUtility[stopIdx] {
			bestUtility[stopIdx] = utility
			bestArrival[stopIdx] = arrival
			bestCost[stopIdx] = legCost
			reached[stopIdx] = true
			parent[stopIdx] = &parentInfo{
				fromStop:     route.Stops[boardStopOrder],
				routeIdx:     routeIdx,
				tripOrder:    network.TripOrder(boardedTrip),
				boardOrder:   boardStopOrder,
				arrivalOrder: stopOrder,
			}
			marked[stopIdx] = true
		}
	}
}

// earliestTripFrom returns the order of the earliest trip on route that
// can be boarded at stopOrder no earlier than notBefore, or -1 if none
// exists. Trips are assumed ordered by departure time at their first
// stop, matching how Loader and FromStatic accept them.
func (s *Stub) earliestTripFrom(net *network.Network, route *network.Route, stopOrder int, notBefore network.Seconds) int {
	for ti := range route.Trips {
		stopTimes := net.TripStopTimes(route.Index, network.TripOrder(ti))
		if stopTimes[stopOrder].Departure >= notBefore {
			return ti
		}
	}
	return -1
}

// segmentCost sums the per-stop-time crowding cost across
// [boardOrder, arrivalOrder) within a trip's range starting at
// segStart, matching the flat crowdingCostPerSegment indexing.
func segmentCost(costs []float64, segStart, boardOrder, arrivalOrder int) float64 {
	if costs == nil {
		return 0
	}
	var sum float64
	for i := boardOrder; i < arrivalOrder; i++ {
		idx := segStart + i + 1
		if idx < len(costs) {
			sum += costs[idx]
		}
	}
	return sum
}

// routesServing inverts Network.Routes into a stop -> routes index.
func routesServing(net *network.Network) map[network.StopIndex][]network.RouteIndex {
	idx := make(map[network.StopIndex][]network.RouteIndex)
	for ri := range net.Routes {
		route := &net.Routes[ri]
		for _, stop := range route.Stops {
			idx[stop] = append(idx[stop], network.RouteIndex(ri))
		}
	}
	return idx
}

// reconstruct walks parent pointers backward from dest to build a
// Journey's ordered leg list.
func reconstruct(parent []*parentInfo, dest network.StopIndex, duration network.Seconds, cost float64) (*Journey, error) {
	var legs []Leg
	cur := dest
	for {
		p := parent[cur]
		if p == nil {
			break
		}
		legs = append([]Leg{{
			RouteIdx:         p.routeIdx,
			TripOrder:        p.tripOrder,
			BoardedStopOrder: p.boardOrder,
			ArrivalStopOrder: p.arrivalOrder,
		}}, legs...)
		cur = p.fromStop
	}
	if len(legs) == 0 {
		return nil, ErrNoJourneyFound
	}
	return &Journey{Legs: legs, Duration: duration, Cost: cost}, nil
}
