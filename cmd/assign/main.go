package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/antigravity/transit-assign/internal/assignment"
	"github.com/antigravity/transit-assign/internal/capacity"
	"github.com/antigravity/transit-assign/internal/crowding"
	"github.com/antigravity/transit-assign/internal/demand"
	"github.com/antigravity/transit-assign/internal/mlsp"
	"github.com/antigravity/transit-assign/internal/network"
	"github.com/spf13/cobra"
)

type opts struct {
	networkPath    string
	demandPath     string
	capacitiesPath string

	numRounds   uint16
	bagSize     int
	costUtility float64
	crowdingTag string

	defaultSeated   int
	defaultStanding int
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "assign",
		Short: "Run a crowding-aware transit assignment batch job",
		Long: `assign loads a network snapshot and a demand CSV from disk, runs N
rounds of crowding-aware assignment, and prints a per-round summary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), o)
		},
	}

	root.Flags().StringVar(&o.networkPath, "network", "", "path to a network snapshot JSON file (required)")
	root.Flags().StringVar(&o.demandPath, "demand", "", "path to a demand CSV file (required)")
	root.Flags().StringVar(&o.capacitiesPath, "trip-capacities", "", "path to a trip capacity CSV file (optional)")

	root.Flags().Uint16Var(&o.numRounds, "rounds", 3, "number of assignment rounds")
	root.Flags().IntVar(&o.bagSize, "bag-size", 3, "target MLSP Pareto-set width for rounds after 0 (clamped to [2,5])")
	root.Flags().Float64Var(&o.costUtility, "cost-utility", 1.0, "weight of crowding cost in the MLSP utility")
	root.Flags().StringVar(&o.crowdingTag, "crowding", "linear", "crowding function: linear, quadratic, one_step, two_step")

	root.Flags().IntVar(&o.defaultSeated, "default-seated", 264, "default trip seated capacity")
	root.Flags().IntVar(&o.defaultStanding, "default-standing", 133, "default trip standing capacity")

	_ = root.MarkFlagRequired("network")
	_ = root.MarkFlagRequired("demand")

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, o opts) error {
	netFile, err := os.Open(o.networkPath)
	if err != nil {
		return fmt.Errorf("opening network snapshot: %w", err)
	}
	defer netFile.Close()

	net, err := network.LoadSnapshotJSON(netFile)
	if err != nil {
		return fmt.Errorf("loading network snapshot: %w", err)
	}
	slog.Info("loaded network", "stops", net.NumStops(), "routes", len(net.Routes))

	demandFile, err := os.Open(o.demandPath)
	if err != nil {
		return fmt.Errorf("opening demand file: %w", err)
	}
	defer demandFile.Close()

	records, err := demand.ImportCSV(demandFile, net)
	if err != nil {
		return fmt.Errorf("importing demand: %w", err)
	}

	sb := demand.NewStepBuilder()
	for _, rec := range records {
		sb.Add(rec)
	}
	steps := sb.BuildSorted()
	slog.Info("built simulation steps", "steps", len(steps), "records", len(records))

	defCap := capacity.TripCapacity{Seated: o.defaultSeated, Standing: o.defaultStanding}
	var caps *capacity.Registry
	if o.capacitiesPath != "" {
		capFile, err := os.Open(o.capacitiesPath)
		if err != nil {
			return fmt.Errorf("opening trip capacities file: %w", err)
		}
		defer capFile.Close()

		caps, err = demand.ImportTripCapacitiesCSV(capFile, net, defCap)
		if err != nil {
			return fmt.Errorf("importing trip capacities: %w", err)
		}
	} else {
		caps = capacity.NewRegistry(defCap)
	}

	crowdingCfg := crowding.Config{Kind: crowding.Kind(o.crowdingTag), Weight: 1, Exponent: 2}

	cfg := assignment.RunConfig{
		NumRounds:           o.numRounds,
		BagSize:             o.bagSize,
		CostUtility:         o.costUtility,
		CrowdingFunction:    crowdingCfg,
		DefaultTripCapacity: defCap,
		TripCapacities:      caps,
		ProgressReporting:   true,
		Workers:             4,
	}

	facade := mlsp.NewDefaultFacade()

	events := make(chan assignment.Event, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			switch e := ev.(type) {
			case assignment.Started:
				slog.Info("run started", "rounds", e.NumRounds, "steps", e.NumSteps)
			case assignment.StepCompleted:
				slog.Debug("step completed", "round", e.RoundIndex, "step", e.StepIndex)
			}
		}
	}()

	result, err := assignment.Run(ctx, net, steps, cfg, facade, events)
	close(events)
	<-done
	if err != nil {
		return fmt.Errorf("running assignment: %w", err)
	}

	for round, journeys := range result.RoundAgentJourneys {
		var found, failed int
		for _, j := range journeys {
			if j.Journey != nil {
				found++
			} else {
				failed++
			}
		}
		slog.Info("round summary", "round", round, "journeys_found", found, "journeys_failed", failed)
	}

	var peak int64
	for _, c := range result.PopulationCount {
		if c > peak {
			peak = c
		}
	}
	slog.Info("assignment complete", "peak_occupancy", peak)

	return nil
}
