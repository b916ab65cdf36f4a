// Package repository persists assignment runs and their per-round
// results in Postgres, adapted from the teacher's line/stop repository
// pattern to this domain's run/round shape.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/antigravity/transit-assign/internal/assignment"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RunRepository persists assignment run metadata and round results.
type RunRepository struct {
	db *pgxpool.Pool
}

// NewRunRepository constructs a RunRepository over an existing pool.
func NewRunRepository(db *pgxpool.Pool) *RunRepository {
	return &RunRepository{db: db}
}

// RunSummary is a run's top-level record.
type RunSummary struct {
	ID        int64
	CreatedAt time.Time
	NumRounds uint16
	NumSteps  int
	Status    string
}

// CreateRun inserts a new run row in the "running" status and returns
// its generated ID.
func (r *RunRepository) CreateRun(ctx context.Context, numRounds uint16, numSteps int) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO assignment_runs (num_rounds, num_steps, status, created_at)
		VALUES ($1, $2, 'running', now())
		RETURNING id
	`, numRounds, numSteps).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CompleteRun marks a run finished (or failed) and updates its status.
func (r *RunRepository) CompleteRun(ctx context.Context, runID int64, status string) error {
	_, err := r.db.Exec(ctx, `UPDATE assignment_runs SET status=$1, completed_at=now() WHERE id=$2`, status, runID)
	return err
}

// SaveRoundResult persists one round's result. AgentJourneys and
// PopulationCount are stored as JSON; round results are typically in
// the tens of thousands of entries, well within Postgres's jsonb
// column limits for this workload.
func (r *RunRepository) SaveRoundResult(ctx context.Context, runID int64, roundIndex int, result *assignment.SimulationRoundResult) error {
	population, err := json.Marshal(result.PopulationCount)
	if err != nil {
		return err
	}
	journeys, err := json.Marshal(result.AgentJourneys)
	if err != nil {
		return err
	}
	crowdingCost, err := json.Marshal(result.CrowdingCost)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO assignment_round_results (run_id, round_index, population_count, crowding_cost, agent_journeys)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (run_id, round_index) DO UPDATE
			SET population_count = EXCLUDED.population_count,
			    crowding_cost = EXCLUDED.crowding_cost,
			    agent_journeys = EXCLUDED.agent_journeys
	`, runID, roundIndex, population, crowdingCost, journeys)
	return err
}

// GetRunSummary reads a run's top-level metadata.
func (r *RunRepository) GetRunSummary(ctx context.Context, runID int64) (*RunSummary, error) {
	var s RunSummary
	err := r.db.QueryRow(ctx, `
		SELECT id, created_at, num_rounds, num_steps, status
		FROM assignment_runs WHERE id=$1
	`, runID).Scan(&s.ID, &s.CreatedAt, &s.NumRounds, &s.NumSteps, &s.Status)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetRoundResult reads one run's stored round result.
func (r *RunRepository) GetRoundResult(ctx context.Context, runID int64, roundIndex int) (*assignment.SimulationRoundResult, error) {
	var population, crowdingCost, journeys []byte
	err := r.db.QueryRow(ctx, `
		SELECT population_count, crowding_cost, agent_journeys
		FROM assignment_round_results WHERE run_id=$1 AND round_index=$2
	`, runID, roundIndex).Scan(&population, &crowdingCost, &journeys)
	if err != nil {
		return nil, err
	}

	var result assignment.SimulationRoundResult
	if err := json.Unmarshal(population, &result.PopulationCount); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(crowdingCost, &result.CrowdingCost); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(journeys, &result.AgentJourneys); err != nil {
		return nil, err
	}
	return &result, nil
}

// IsNoRows reports whether err is pgx's "no rows in result set"
// sentinel, matching the teacher's repository helper.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
