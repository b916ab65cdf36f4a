package mlsp

import (
	"context"
	"testing"
	"time"

	"github.com/antigravity/transit-assign/internal/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioANetwork(t *testing.T) *network.Network {
	t.Helper()
	net, err := network.FromStatic(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		[]network.StaticStop{{Name: "S0"}, {Name: "S1"}, {Name: "S2"}, {Name: "S3"}, {Name: "S4"}},
		[]network.StaticRoute{
			{
				StopNames: []string{"S0", "S1", "S2", "S3", "S4"},
				Trips: []network.StaticTrip{
					{
						ID: "T1",
						StopTimes: []network.StopTime{
							{Arrival: 0, Departure: 0},
							{Arrival: 60, Departure: 60},
							{Arrival: 120, Departure: 120},
							{Arrival: 180, Departure: 180},
							{Arrival: 240, Departure: 240},
						},
					},
				},
			},
		},
	)
	require.NoError(t, err)
	return net
}

func TestStubFindsDirectJourney(t *testing.T) {
	net := scenarioANetwork(t)
	stub := &Stub{}

	results, err := stub.Query(context.Background(), net, 0, 0,
		[]network.StopIndex{3}, nil, JourneyPreferences{}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	journey := results[0].Journey
	require.NotNil(t, journey)
	assert.Equal(t, network.Seconds(180), journey.Duration)
	assert.Equal(t, 0, journey.NumTransfers())
	require.Len(t, journey.Legs, 1)
	assert.Equal(t, 0, journey.Legs[0].BoardedStopOrder)
	assert.Equal(t, 3, journey.Legs[0].ArrivalStopOrder)
}

func TestStubUnreachableDestination(t *testing.T) {
	net := scenarioANetwork(t)
	// Add an isolated stop with no serving route by appending one extra
	// stop to this network's stop list.
	net.Stops = append(net.Stops, network.Stop{Index: network.StopIndex(len(net.Stops)), Name: "Island"})

	stub := &Stub{}
	results, err := stub.Query(context.Background(), net, 0, 0,
		[]network.StopIndex{network.StopIndex(len(net.Stops) - 1)}, nil, JourneyPreferences{}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, ErrNoJourneyFound)
}

func TestFacadeDispatchesRegisteredWidth(t *testing.T) {
	net := scenarioANetwork(t)
	facade := NewDefaultFacade()

	results, err := facade.Query(context.Background(), net, 0, 0,
		[]network.StopIndex{3}, nil, JourneyPreferences{}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
}

func TestFacadeRejectsUnregisteredWidth(t *testing.T) {
	facade := NewFacade()
	_, err := facade.Query(context.Background(), scenarioANetwork(t), 0, 0, nil, nil, JourneyPreferences{}, 9)
	assert.Error(t, err)
}
