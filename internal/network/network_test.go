package network

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStaticNetwork() (time.Time, []StaticStop, []StaticRoute) {
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	stops := []StaticStop{{Name: "A", Lat: 1, Lon: 2}, {Name: "B"}, {Name: "C"}}
	routes := []StaticRoute{
		{
			StopNames: []string{"A", "B", "C"},
			Trips: []StaticTrip{
				{ID: "T1", StopTimes: []StopTime{{Arrival: 0, Departure: 0}, {Arrival: 60, Departure: 60}, {Arrival: 120, Departure: 120}}},
				{ID: "T2", StopTimes: []StopTime{{Arrival: 300, Departure: 300}, {Arrival: 360, Departure: 360}, {Arrival: 420, Departure: 420}}},
			},
		},
	}
	return date, stops, routes
}

func TestFromStaticBuildsFlatStopTimes(t *testing.T) {
	date, stops, routes := sampleStaticNetwork()
	net, err := FromStatic(date, stops, routes)
	require.NoError(t, err)

	assert.Equal(t, 3, net.NumStops())
	assert.Equal(t, 6, net.NumStopTimes())

	idx, ok := net.StopIndexByName("B")
	require.True(t, ok)
	assert.Equal(t, StopIndex(1), idx)

	t1 := net.TripStopTimes(0, 0)
	require.Len(t, t1, 3)
	assert.Equal(t, Seconds(120), t1[2].Arrival)

	t2 := net.TripStopTimes(0, 1)
	require.Len(t, t2, 3)
	assert.Equal(t, Seconds(300), t2[0].Arrival)
}

func TestFromStaticUnknownStopErrors(t *testing.T) {
	date, stops, _ := sampleStaticNetwork()
	_, err := FromStatic(date, stops, []StaticRoute{
		{StopNames: []string{"A", "Nope"}, Trips: nil},
	})
	assert.Error(t, err)
}

func TestFromStaticMismatchedStopTimesErrors(t *testing.T) {
	date, stops, _ := sampleStaticNetwork()
	_, err := FromStatic(date, stops, []StaticRoute{
		{
			StopNames: []string{"A", "B", "C"},
			Trips: []StaticTrip{
				{ID: "bad", StopTimes: []StopTime{{Arrival: 0, Departure: 0}}},
			},
		},
	})
	assert.Error(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	date, stops, routes := sampleStaticNetwork()
	net, err := FromStatic(date, stops, routes)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, DumpSnapshotJSON(&buf, net))

	roundTripped, err := LoadSnapshotJSON(&buf)
	require.NoError(t, err)

	assert.Equal(t, net.NumStops(), roundTripped.NumStops())
	assert.Equal(t, net.NumStopTimes(), roundTripped.NumStopTimes())
	assert.Equal(t, net.Date.Unix(), roundTripped.Date.Unix())
}
