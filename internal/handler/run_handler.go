// Package handler exposes the assignment engine over HTTP, adapted
// from the teacher's transport_handler.go to submit and inspect
// assignment runs instead of transit line/stop lookups.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/antigravity/transit-assign/internal/assignment"
	"github.com/antigravity/transit-assign/internal/capacity"
	"github.com/antigravity/transit-assign/internal/crowding"
	"github.com/antigravity/transit-assign/internal/demand"
	"github.com/antigravity/transit-assign/internal/mlsp"
	"github.com/antigravity/transit-assign/internal/network"
	"github.com/antigravity/transit-assign/internal/repository"
	"github.com/go-chi/chi/v5"
)

// RunHandler wires the HTTP surface to a loaded network, an MLSP
// façade, and a run repository for persistence.
type RunHandler struct {
	Repo  *repository.RunRepository
	Net   *network.Network
	Query mlsp.Query
}

// NewRunHandler constructs a RunHandler.
func NewRunHandler(repo *repository.RunRepository, net *network.Network, query mlsp.Query) *RunHandler {
	return &RunHandler{Repo: repo, Net: net, Query: query}
}

// createRunRequest is the POST /api/v1/runs request body.
type createRunRequest struct {
	NumRounds           uint16                `json:"num_rounds"`
	BagSize             int                   `json:"bag_size"`
	CostUtility         float64               `json:"cost_utility"`
	CrowdingFunction    crowding.Config       `json:"crowding_function"`
	DefaultTripCapacity capacity.TripCapacity `json:"default_trip_capacity"`
	Demand              []demand.Record       `json:"demand"`
}

// CreateRun runs the full assignment loop synchronously and persists
// its result, returning the new run's ID.
func (h *RunHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	sb := demand.NewStepBuilder()
	for _, rec := range req.Demand {
		sb.Add(rec)
	}
	steps := sb.BuildSorted()

	cfg := assignment.RunConfig{
		NumRounds:           req.NumRounds,
		BagSize:             req.BagSize,
		CostUtility:         req.CostUtility,
		CrowdingFunction:    req.CrowdingFunction,
		DefaultTripCapacity: req.DefaultTripCapacity,
		Workers:             4,
	}

	runID, err := h.Repo.CreateRun(r.Context(), cfg.NumRounds, len(steps))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result, err := assignment.Run(r.Context(), h.Net, steps, cfg, h.Query, nil)
	if err != nil {
		_ = h.Repo.CompleteRun(r.Context(), runID, "failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for i, rounds := range result.RoundAgentJourneys {
		roundResult := &assignment.SimulationRoundResult{AgentJourneys: rounds}
		if i == len(result.RoundAgentJourneys)-1 {
			roundResult.PopulationCount = result.PopulationCount
		}
		if err := h.Repo.SaveRoundResult(r.Context(), runID, i, roundResult); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	if err := h.Repo.CompleteRun(r.Context(), runID, "completed"); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"run_id": runID})
}

// GetRoundResult serves one run's round result.
func (h *RunHandler) GetRoundResult(w http.ResponseWriter, r *http.Request) {
	runID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}
	round, err := strconv.Atoi(chi.URLParam(r, "round"))
	if err != nil {
		http.Error(w, "invalid round index", http.StatusBadRequest)
		return
	}

	result, err := h.Repo.GetRoundResult(r.Context(), runID, round)
	if err != nil {
		if repository.IsNoRows(err) {
			http.Error(w, "round result not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}
