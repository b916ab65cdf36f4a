// Package assignment implements the iterative, crowding-aware transit
// assignment loop: it groups agent demand into simulation steps, routes
// each step through an MLSP query, accumulates the resulting occupancy
// with range-coded atomic counters, and feeds each round's crowding
// cost into the next.
package assignment

import "github.com/antigravity/transit-assign/internal/network"

// SimulationStep is one (departure_time, origin_stop) demand group: a
// set of destinations each with an agent count to route from the same
// origin at the same time.
type SimulationStep struct {
	DepartureTime network.Seconds
	OriginStop    network.StopIndex
	DestStops     []network.StopIndex
	Counts        []int64
}

// Push appends one (destination, count) pair to the step.
func (s *SimulationStep) Push(dest network.StopIndex, count int64) {
	s.DestStops = append(s.DestStops, dest)
	s.Counts = append(s.Counts, count)
}

// Len returns the number of destinations in this step.
func (s *SimulationStep) Len() int {
	return len(s.DestStops)
}

// TotalCount sums every destination's agent count.
func (s *SimulationStep) TotalCount() int64 {
	var total int64
	for _, c := range s.Counts {
		total += c
	}
	return total
}

// AgentJourney is one routed group of agents: count identical agents
// sharing an origin, destination, departure time, and resulting path.
type AgentJourney struct {
	OriginStop   network.StopIndex
	DestStop     network.StopIndex
	Count        int64
	Duration     network.Seconds
	CrowdingCost float64
	NumTransfers int
}

// AgentJourneyResult is one destination's outcome within a step: either
// a routed AgentJourney or a per-journey error (mlsp.ErrNoJourneyFound,
// mlsp.ErrInfiniteLoop). StepIndex and JourneyIndex locate it within the
// round's input for reproducible ordering.
type AgentJourneyResult struct {
	StepIndex    int
	JourneyIndex int
	Journey      *AgentJourney
	Err          error
}

// SimulationRoundResult is one round's complete output: the resulting
// per-stop-time occupancy, the crowding cost derived from it (fed into
// the next round's MLSP queries), and every agent journey outcome in
// input order.
type SimulationRoundResult struct {
	PopulationCount []int64
	CrowdingCost    []float64
	AgentJourneys   []AgentJourneyResult
}

// SimulationResult is the complete output of running N rounds: the
// final round's occupancy (no convergence check is made) and every round's
// agent journeys, in round order.
type SimulationResult struct {
	PopulationCount    []int64
	RoundAgentJourneys [][]AgentJourneyResult
}
