package assignment

import (
	"context"

	"github.com/antigravity/transit-assign/internal/capacity"
	"github.com/antigravity/transit-assign/internal/crowding"
	"github.com/antigravity/transit-assign/internal/mlsp"
	"github.com/antigravity/transit-assign/internal/network"
	"github.com/antigravity/transit-assign/internal/occupancy"
	"github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

// bagSizeForRound applies the clamp rule: round 0 always queries with a
// single label (no crowding signal exists yet, so the query degenerates
// to fastest-arrival); later rounds target the configured width,
// clamped to the [2,5] range the façade supports beyond width 1.
func bagSizeForRound(round int, configured int) int {
	if round == 0 {
		return 1
	}
	if configured < 2 {
		return 2
	}
	if configured > 5 {
		return 5
	}
	return configured
}

// RunRound executes one assignment round: it dispatches every step to
// the worker pool, queries the MLSP façade for each, applies every
// resulting journey's legs to the occupancy buffer, and finalizes the
// buffer into the round's population count and crowding cost. Progress
// events are emitted on progressCh if non-nil; delivery is best-effort
// and the channel is never blocked on by the round itself past its
// buffer.
func RunRound(
	ctx context.Context,
	net *network.Network,
	steps []SimulationStep,
	roundIndex int,
	crowdingCostIn []float64,
	configuredBagSize int,
	query mlsp.Query,
	prefs mlsp.JourneyPreferences,
	caps *capacity.Registry,
	costFn crowding.Func,
	workers int,
	progressCh chan<- Event,
) (*SimulationRoundResult, error) {
	bagSize := bagSizeForRound(roundIndex, configuredBagSize)
	buf := occupancy.NewBuffer(net)

	results := make([]AgentJourneyResult, 0, len(steps))
	resultsByStep := make([][]AgentJourneyResult, len(steps))

	stepChans := make([]<-chan Event, len(steps))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i := range steps {
		i := i
		evCh := make(chan Event, 1)
		stepChans[i] = evCh

		g.Go(func() error {
			defer close(evCh)
			step := steps[i]

			stepResults, err := runStep(gctx, net, &step, i, crowdingCostIn, bagSize, query, prefs, buf)
			if err != nil {
				return err
			}
			resultsByStep[i] = stepResults

			select {
			case evCh <- StepCompleted{RoundIndex: roundIndex, StepIndex: i}:
			default:
			}
			return nil
		})
	}

	done := make(chan struct{})
	var merged <-chan Event
	if progressCh != nil {
		merged = channels.Merge(done, stepChans...)
		go func() {
			for ev := range merged {
				select {
				case progressCh <- ev:
				default:
				}
			}
		}()
	}

	err := g.Wait()
	close(done)
	if err != nil {
		return nil, err
	}

	for _, stepResults := range resultsByStep {
		results = append(results, stepResults...)
	}

	segments := buf.Finalize(costFn, caps)
	population := make([]int64, len(segments))
	costOut := make([]float64, len(segments))
	for i, s := range segments {
		population[i] = s.Occupancy
		costOut[i] = s.Cost
	}

	return &SimulationRoundResult{
		PopulationCount: population,
		CrowdingCost:    costOut,
		AgentJourneys:   results,
	}, nil
}

// runStep handles a single simulation step: a zero-demand step short
// circuits to a NoJourneyFound result per destination without invoking
// the MLSP, matching the zero-demand-idempotence requirement.
func runStep(
	ctx context.Context,
	net *network.Network,
	step *SimulationStep,
	stepIndex int,
	crowdingCostIn []float64,
	bagSize int,
	query mlsp.Query,
	prefs mlsp.JourneyPreferences,
	buf *occupancy.Buffer,
) ([]AgentJourneyResult, error) {
	out := make([]AgentJourneyResult, step.Len())

	if step.TotalCount() == 0 {
		for j := range step.DestStops {
			out[j] = AgentJourneyResult{
				StepIndex: stepIndex, JourneyIndex: j,
				Err: mlsp.ErrNoJourneyFound,
			}
		}
		return out, nil
	}

	mlspResults, err := query.Query(ctx, net, step.OriginStop, step.DepartureTime,
		step.DestStops, crowdingCostIn, prefs, bagSize)
	if err != nil {
		return nil, err
	}

	for j, res := range mlspResults {
		count := step.Counts[j]
		if res.Err != nil {
			out[j] = AgentJourneyResult{StepIndex: stepIndex, JourneyIndex: j, Err: res.Err}
			continue
		}

		if count != 0 {
			for _, leg := range res.Journey.Legs {
				if err := buf.ApplyLeg(leg.RouteIdx, leg.TripOrder, leg.BoardedStopOrder, leg.ArrivalStopOrder, count); err != nil {
					return nil, err
				}
			}
		}

		out[j] = AgentJourneyResult{
			StepIndex: stepIndex, JourneyIndex: j,
			Journey: &AgentJourney{
				OriginStop:   step.OriginStop,
				DestStop:     step.DestStops[j],
				Count:        count,
				Duration:     res.Journey.Duration,
				CrowdingCost: res.Journey.Cost,
				NumTransfers: res.Journey.NumTransfers(),
			},
		}
	}

	return out, nil
}
