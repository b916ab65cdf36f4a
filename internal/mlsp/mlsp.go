// Package mlsp describes and stubs the multi-label shortest-path query
// the assignment core treats as an external collaborator: a per-step
// journey search over a crowding-cost-weighted network, parameterized
// by a target Pareto-set width ("bag size"). The full multi-criteria
// search is out of scope here — only the contract and a deterministic
// single-label implementation used for tests and the CLI are provided.
package mlsp

import (
	"context"
	"errors"
	"fmt"

	"github.com/antigravity/transit-assign/internal/network"
)

// Sentinel per-journey failures. These are data, not faults: a query
// reports them inline in its per-destination results rather than
// returning an error from Query itself.
var (
	ErrNoJourneyFound = errors.New("mlsp: no journey found")
	ErrInfiniteLoop   = errors.New("mlsp: infinite loop detected")
)

// Leg is one boarded trip segment of a Journey: board the trip
// identified by (RouteIdx, TripOrder) at BoardedStopOrder and alight at
// ArrivalStopOrder.
type Leg struct {
	RouteIdx         network.RouteIndex
	TripOrder        network.TripOrder
	BoardedStopOrder int
	ArrivalStopOrder int
}

// Journey is a complete agent itinerary: an ordered sequence of boarded
// legs, its total duration, and the path-integrated crowding cost the
// query accumulated while building it.
type Journey struct {
	Legs     []Leg
	Duration network.Seconds
	Cost     float64
}

// NumTransfers counts the boardings after the first.
func (j Journey) NumTransfers() int {
	if len(j.Legs) == 0 {
		return 0
	}
	return len(j.Legs) - 1
}

// JourneyPreferences weights the query's utility function:
// utility = arrival_time - start_time + CostUtility * path_cost.
type JourneyPreferences struct {
	CostUtility float64
}

// Result is one destination's outcome: either a Journey or a sentinel
// per-journey error (ErrNoJourneyFound, ErrInfiniteLoop).
type Result struct {
	Journey *Journey
	Err     error
}

// Query is the external collaborator interface the assignment core
// assumes: given an origin, departure time, and set of destinations,
// return one Result per destination, in the same order, searching a
// Pareto set of the given target width. Implementations must be
// thread-safe and stateless with respect to any shared mutable state —
// the core calls Query concurrently across simulation steps.
type Query interface {
	Query(
		ctx context.Context,
		net *network.Network,
		origin network.StopIndex,
		departureTime network.Seconds,
		destinations []network.StopIndex,
		crowdingCostPerSegment []float64,
		prefs JourneyPreferences,
		bagSize int,
	) ([]Result, error)
}

// Facade dispatches a runtime bag size (1..5) to a pre-registered Query
// implementation, mirroring a compile-time-specialized search engine
// that only supports a fixed set of Pareto-set widths.
type Facade struct {
	byWidth map[int]Query
}

// NewFacade builds an empty Facade; register widths with Register.
func NewFacade() *Facade {
	return &Facade{byWidth: make(map[int]Query)}
}

// Register binds a Query implementation to a bag-size width.
func (f *Facade) Register(width int, q Query) {
	f.byWidth[width] = q
}

// Query dispatches to the registered implementation for bagSize,
// rejecting widths for which no implementation was registered as
// unreachable rather than silently falling back.
func (f *Facade) Query(
	ctx context.Context,
	net *network.Network,
	origin network.StopIndex,
	departureTime network.Seconds,
	destinations []network.StopIndex,
	crowdingCostPerSegment []float64,
	prefs JourneyPreferences,
	bagSize int,
) ([]Result, error) {
	q, ok := f.byWidth[bagSize]
	if !ok {
		return nil, fmt.Errorf("mlsp: unreachable bag size %d (no query registered)", bagSize)
	}
	return q.Query(ctx, net, origin, departureTime, destinations, crowdingCostPerSegment, prefs, bagSize)
}

// NewDefaultFacade returns a Facade with Stub registered for every
// width 1..5: Stub's earliest-arrival search ignores bag size (there is
// only one label per stop regardless of requested width), which
// satisfies the interface for round-0's degenerate width-1 case and for
// every later round without implementing the full Pareto search.
func NewDefaultFacade() *Facade {
	f := NewFacade()
	stub := &Stub{}
	for w := 1; w <= 5; w++ {
		f.Register(w, stub)
	}
	return f
}
