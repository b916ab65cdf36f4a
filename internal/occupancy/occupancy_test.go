package occupancy

import (
	"testing"
	"time"

	"github.com/antigravity/transit-assign/internal/capacity"
	"github.com/antigravity/transit-assign/internal/crowding"
	"github.com/antigravity/transit-assign/internal/network"
	"github.com/stretchr/testify/require"

	"github.com/stretchr/testify/assert"
)

func buildTestNetwork(t *testing.T) *network.Network {
	t.Helper()
	net, err := network.FromStatic(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		[]network.StaticStop{
			{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"},
		},
		[]network.StaticRoute{
			{
				StopNames: []string{"A", "B", "C", "D"},
				Trips: []network.StaticTrip{
					{
						ID: "T1",
						StopTimes: []network.StopTime{
							{Arrival: 0, Departure: 0},
							{Arrival: 100, Departure: 100},
							{Arrival: 200, Departure: 200},
							{Arrival: 300, Departure: 300},
						},
					},
				},
			},
		},
	)
	require.NoError(t, err)
	return net
}

func TestApplyLegAndFinalize(t *testing.T) {
	net := buildTestNetwork(t)
	buf := NewBuffer(net)

	// One agent boards at A (order 0), alights at C (order 2).
	require.NoError(t, buf.ApplyLeg(0, 0, 0, 2, 1))
	// One agent boards at B (order 1), alights at D (order 3).
	require.NoError(t, buf.ApplyLeg(0, 0, 1, 3, 1))

	reg := capacity.NewRegistry(capacity.TripCapacity{Seated: 10, Standing: 0})
	fn, err := crowding.DefaultLinearConfig().Func()
	require.NoError(t, err)

	segs := buf.Finalize(fn, reg)

	// Segment A->B: only agent 1 aboard.
	assert.Equal(t, int64(1), segs[0].Occupancy)
	// Segment B->C: both agents aboard.
	assert.Equal(t, int64(2), segs[1].Occupancy)
	// Segment C->D: only agent 2 aboard.
	assert.Equal(t, int64(1), segs[2].Occupancy)
	// Final entry (D, no outgoing segment in this layout) nets to zero.
	assert.Equal(t, int64(0), segs[3].Occupancy)
}

func TestApplyLegRejectsInvalidRange(t *testing.T) {
	net := buildTestNetwork(t)
	buf := NewBuffer(net)

	err := buf.ApplyLeg(0, 0, 2, 1, 1)
	assert.Error(t, err)

	err = buf.ApplyLeg(0, 0, 0, 10, 1)
	assert.Error(t, err)
}

func TestFinalizeAppliesPerArcTimeWeight(t *testing.T) {
	net := buildTestNetwork(t)
	buf := NewBuffer(net)

	// One agent rides the whole trip: A (order 0) to D (order 3).
	require.NoError(t, buf.ApplyLeg(0, 0, 0, 3, 1))

	reg := capacity.NewRegistry(capacity.TripCapacity{Seated: 1, Standing: 0})
	fn, err := crowding.DefaultLinearConfig().Func()
	require.NoError(t, err)

	segs := buf.Finalize(fn, reg)

	// The trip's first stop-time has no preceding arrival to weight
	// against, so its cost is always zero even with an agent aboard.
	assert.Equal(t, int64(1), segs[0].Occupancy)
	assert.Equal(t, 0.0, segs[0].Cost)

	// Each later stop-time's arc spans 100s (departure - previous arrival)
	// at load factor 1 (1 agent / 1 seat), so cost == 100.
	assert.InDelta(t, 100.0, segs[1].Cost, 1e-9)
	assert.InDelta(t, 100.0, segs[2].Cost, 1e-9)
}

func TestFinalizeCoercesDecreasingStopTimesToZeroWeight(t *testing.T) {
	net, err := network.FromStatic(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		[]network.StaticStop{{Name: "A"}, {Name: "B"}, {Name: "C"}},
		[]network.StaticRoute{
			{
				StopNames: []string{"A", "B", "C"},
				Trips: []network.StaticTrip{
					{
						ID: "T1",
						// B's departure is earlier than A's arrival: a malformed
						// timetable entry that must coerce to zero weight, not
						// a negative one.
						StopTimes: []network.StopTime{
							{Arrival: 100, Departure: 100},
							{Arrival: 50, Departure: 50},
							{Arrival: 150, Departure: 150},
						},
					},
				},
			},
		},
	)
	require.NoError(t, err)

	buf := NewBuffer(net)
	require.NoError(t, buf.ApplyLeg(0, 0, 0, 2, 1))

	reg := capacity.NewRegistry(capacity.TripCapacity{Seated: 1, Standing: 0})
	fn, ferr := crowding.DefaultLinearConfig().Func()
	require.NoError(t, ferr)

	segs := buf.Finalize(fn, reg)
	assert.Equal(t, int64(1), segs[1].Occupancy)
	assert.Equal(t, 0.0, segs[1].Cost)
}

func TestFinalizeZeroDemandIsZeroCost(t *testing.T) {
	net := buildTestNetwork(t)
	buf := NewBuffer(net)

	reg := capacity.NewRegistry(capacity.TripCapacity{Seated: 10, Standing: 0})
	fn, err := crowding.DefaultLinearConfig().Func()
	require.NoError(t, err)

	segs := buf.Finalize(fn, reg)
	for _, s := range segs {
		assert.Equal(t, int64(0), s.Occupancy)
		assert.Equal(t, 0.0, s.Cost)
	}
}
