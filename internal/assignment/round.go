package assignment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/antigravity/transit-assign/internal/capacity"
	"github.com/antigravity/transit-assign/internal/crowding"
	"github.com/antigravity/transit-assign/internal/mlsp"
	"github.com/antigravity/transit-assign/internal/network"
)

// RunConfig holds one run's configuration options (spec §6's
// Configuration options table).
type RunConfig struct {
	NumRounds           uint16
	BagSize             int
	CostUtility         float64
	CrowdingFunction    crowding.Config
	DefaultTripCapacity capacity.TripCapacity
	TripCapacities      *capacity.Registry
	ProgressReporting   bool
	Workers             int
}

// Run executes NumRounds assignment rounds in sequence, threading round
// k's crowding cost into round k+1's MLSP queries. The final round's
// occupancy becomes the result's population count; every round's agent
// journeys are retained in round order.
func Run(
	ctx context.Context,
	net *network.Network,
	steps []SimulationStep,
	cfg RunConfig,
	query mlsp.Query,
	progressCh chan<- Event,
) (*SimulationResult, error) {
	if net == nil {
		return nil, fmt.Errorf("assignment: prerequisite unsatisfied: network not built")
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("assignment: prerequisite unsatisfied: no demand imported")
	}
	if cfg.NumRounds == 0 {
		return nil, fmt.Errorf("assignment: num_rounds must be >= 1, got 0")
	}

	costFn, err := cfg.CrowdingFunction.Func()
	if err != nil {
		return nil, fmt.Errorf("assignment: crowding function: %w", err)
	}

	caps := cfg.TripCapacities
	if caps == nil {
		caps = capacity.NewRegistry(cfg.DefaultTripCapacity)
	} else {
		caps = caps.Clone()
	}

	prefs := mlsp.JourneyPreferences{CostUtility: cfg.CostUtility}

	if cfg.ProgressReporting && progressCh != nil {
		select {
		case progressCh <- Started{NumRounds: cfg.NumRounds, NumSteps: len(steps)}:
		default:
		}
	}

	result := &SimulationResult{
		RoundAgentJourneys: make([][]AgentJourneyResult, 0, cfg.NumRounds),
	}

	var crowdingCost []float64
	for round := 0; round < int(cfg.NumRounds); round++ {
		slog.Info("assignment: starting round", "round", round, "steps", len(steps))

		var roundProgress chan<- Event
		if cfg.ProgressReporting {
			roundProgress = progressCh
		}

		roundResult, err := RunRound(ctx, net, steps, round, crowdingCost, cfg.BagSize, query, prefs, caps, costFn, cfg.Workers, roundProgress)
		if err != nil {
			return nil, fmt.Errorf("assignment: round %d: %w", round, err)
		}

		slog.Info("assignment: round complete", "round", round, "journeys", len(roundResult.AgentJourneys))

		result.RoundAgentJourneys = append(result.RoundAgentJourneys, roundResult.AgentJourneys)
		result.PopulationCount = roundResult.PopulationCount
		crowdingCost = roundResult.CrowdingCost
	}

	return result, nil
}
