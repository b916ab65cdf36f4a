// Package occupancy accumulates per-trip-segment ridership counts
// during a simulation round and turns them into per-segment crowding
// costs once every agent leg has been applied.
package occupancy

import (
	"fmt"
	"sync/atomic"

	"github.com/antigravity/transit-assign/internal/capacity"
	"github.com/antigravity/transit-assign/internal/crowding"
	"github.com/antigravity/transit-assign/internal/network"
)

// Buffer accumulates agent counts over one network's flat stop-time
// array using the range-coding technique: boarding a trip segment adds
// to a running count at the boarding stop-order and subtracts it again
// at the alighting stop-order, so a single forward prefix sum per trip
// recovers the occupancy on every intervening segment. Every ApplyLeg
// call only touches two counters, so concurrent callers never contend
// on a shared running total.
type Buffer struct {
	net    *network.Network
	counts []atomic.Int64
}

// NewBuffer allocates a Buffer sized to the network's total stop-time
// count (S in spec terms). It is safe to share one Buffer across
// goroutines calling ApplyLeg concurrently; Finalize must run only
// after every ApplyLeg call for the round has returned.
func NewBuffer(net *network.Network) *Buffer {
	return &Buffer{
		net:    net,
		counts: make([]atomic.Int64, net.NumStopTimes()),
	}
}

// ApplyLeg records count agents riding one trip segment, from the stop
// at boardOrder (inclusive) to the stop at alightOrder (exclusive),
// within the trip identified by routeIdx and tripOrder. boardOrder and
// alightOrder are positions within the route's stop sequence, with
// 0 <= boardOrder < alightOrder < len(route.Stops).
func (b *Buffer) ApplyLeg(routeIdx network.RouteIndex, tripOrder network.TripOrder, boardOrder, alightOrder int, count int64) error {
	route := &b.net.Routes[routeIdx]
	if boardOrder < 0 || alightOrder >= len(route.Stops) || boardOrder >= alightOrder {
		return fmt.Errorf("occupancy: invalid leg range [%d,%d) on route %d with %d stops",
			boardOrder, alightOrder, routeIdx, len(route.Stops))
	}
	start, _ := route.TripRange(tripOrder)
	b.counts[start+boardOrder].Add(count)
	b.counts[start+alightOrder].Add(-count)
	return nil
}

// SegmentCost is one trip segment's resulting occupancy and crowding
// cost after Finalize.
type SegmentCost struct {
	Occupancy int64
	Cost      float64
}

// Finalize computes the per-segment occupancy of every trip in the
// network by prefix-summing each trip's range-coded counters in stop
// order, then evaluates costFn against each trip's capacity and
// time-weights the result by the arc's duration (departure at this
// stop minus arrival at the previous one), turning the per-unit-time
// discomfort costFn returns into a summable arc cost. A trip's first
// stop-time has no preceding arrival to weight against, so its cost is
// always zero regardless of occupancy. A decreasing or malformed
// timetable (next departure earlier than previous arrival) coerces the
// weight to zero rather than going negative.
//
// It asserts every prefix sum is nonnegative — a negative value
// indicates more agents alighted a segment than boarded it, which is a
// programming error in the caller, not a recoverable condition.
func (b *Buffer) Finalize(costFn crowding.Func, caps *capacity.Registry) []SegmentCost {
	out := make([]SegmentCost, len(b.counts))

	for ri := range b.net.Routes {
		route := &b.net.Routes[ri]
		for to := range route.Trips {
			start, end := route.TripRange(network.TripOrder(to))
			trip := network.GlobalTripIndex{RouteIdx: network.RouteIndex(ri), TripOrder: network.TripOrder(to)}
			cap := caps.Get(trip)

			var running int64
			for i := start; i < end; i++ {
				running += b.counts[i].Load()
				if running < 0 {
					panic(fmt.Sprintf("occupancy: negative running count %d at stop-time %d (trip %+v)", running, i, trip))
				}

				var weight network.Seconds
				if i > start {
					weight = b.net.StopTimes[i].Departure - b.net.StopTimes[i-1].Arrival
					if weight < 0 {
						weight = 0
					}
				}
				out[i] = SegmentCost{Occupancy: running, Cost: costFn(cap, running) * float64(weight)}
			}
		}
	}

	return out
}
