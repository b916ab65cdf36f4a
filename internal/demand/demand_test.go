package demand

import (
	"strings"
	"testing"
	"time"

	"github.com/antigravity/transit-assign/internal/capacity"
	"github.com/antigravity/transit-assign/internal/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNetwork(t *testing.T) *network.Network {
	t.Helper()
	net, err := network.FromStatic(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		[]network.StaticStop{{Name: "Alpha"}, {Name: "Beta"}, {Name: "Gamma"}},
		[]network.StaticRoute{
			{
				StopNames: []string{"Alpha", "Beta", "Gamma"},
				Trips: []network.StaticTrip{
					{
						ID: "trip-1",
						StopTimes: []network.StopTime{
							{Arrival: 0, Departure: 0},
							{Arrival: 60, Departure: 60},
							{Arrival: 120, Departure: 120},
						},
					},
				},
			},
		},
	)
	require.NoError(t, err)
	return net
}

func TestImportCSVBasic(t *testing.T) {
	net := testNetwork(t)
	csvData := `Origin_Station,Destination_Station,Departure_Time,Agent_Count
Alpha,Gamma,00:00:00,5
Beta,Gamma,00:01:00,3
`
	records, err := ImportCSV(strings.NewReader(csvData), net)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, network.Seconds(0), records[0].DepartureTime)
	assert.Equal(t, int64(5), records[0].AgentCount)
	assert.Equal(t, network.Seconds(60), records[1].DepartureTime)
}

func TestImportCSVMicrosecondPrecision(t *testing.T) {
	net := testNetwork(t)
	csvData := `Origin_Station,Destination_Station,Departure_Time,Agent_Count
Alpha,Gamma,00:00:00.123456,5
`
	records, err := ImportCSV(strings.NewReader(csvData), net)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, network.Seconds(0), records[0].DepartureTime)
}

// Scenario D — unresolved station.
func TestScenarioD_UnresolvedStation(t *testing.T) {
	net := testNetwork(t)
	csvData := `Origin_Station,Destination_Station,Departure_Time,Agent_Count
Alpha,Gamma,00:00:00,5
Alpha,Nowhere,00:00:00,2
Beta,Gamma,00:01:00,3
`
	records, err := ImportCSV(strings.NewReader(csvData), net)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestScenarioD_AllUnresolvedReturnsNoDataForDate(t *testing.T) {
	net := testNetwork(t)
	csvData := `Origin_Station,Destination_Station,Departure_Time,Agent_Count
Nowhere,Gamma,00:00:00,5
`
	_, err := ImportCSV(strings.NewReader(csvData), net)
	require.Error(t, err)
	var nd NoDataForDate
	assert.ErrorAs(t, err, &nd)
}

func TestImportCSVMissingColumn(t *testing.T) {
	net := testNetwork(t)
	csvData := `Origin_Station,Departure_Time,Agent_Count
Alpha,00:00:00,5
`
	_, err := ImportCSV(strings.NewReader(csvData), net)
	assert.Error(t, err)
}

func TestImportTripCapacitiesCSV(t *testing.T) {
	net := testNetwork(t)
	csvData := `trip_id,seated,standing
trip-1,40,10
`
	reg, err := ImportTripCapacitiesCSV(strings.NewReader(csvData), net, capacity.TripCapacity{Seated: 0, Standing: 0})
	require.NoError(t, err)

	gti := network.GlobalTripIndex{RouteIdx: 0, TripOrder: 0}
	c := reg.Get(gti)
	assert.Equal(t, 50, c.Total())
}

func TestImportTripCapacitiesCSVUnknownTripSkipped(t *testing.T) {
	net := testNetwork(t)
	csvData := `trip_id,seated,standing
unknown-trip,40,10
trip-1,20,5
`
	reg, err := ImportTripCapacitiesCSV(strings.NewReader(csvData), net, capacity.TripCapacity{Seated: 0, Standing: 0})
	require.NoError(t, err)

	gti := network.GlobalTripIndex{RouteIdx: 0, TripOrder: 0}
	assert.Equal(t, 25, reg.Get(gti).Total())
}

func TestStepBuilderGroupsByDepartureAndOrigin(t *testing.T) {
	sb := NewStepBuilder()
	sb.Add(Record{Origin: 0, Destination: 2, DepartureTime: 0, AgentCount: 2})
	sb.Add(Record{Origin: 0, Destination: 3, DepartureTime: 0, AgentCount: 4})
	sb.Add(Record{Origin: 1, Destination: 4, DepartureTime: 60, AgentCount: 3})
	// Same key and destination as the first: should accumulate, not duplicate.
	sb.Add(Record{Origin: 0, Destination: 2, DepartureTime: 0, AgentCount: 1})

	steps := sb.Build()
	require.Len(t, steps, 2)

	assert.Equal(t, network.StopIndex(0), steps[0].OriginStop)
	require.Len(t, steps[0].DestStops, 2)
	assert.Equal(t, int64(3), steps[0].Counts[0])
	assert.Equal(t, int64(4), steps[0].Counts[1])

	assert.Equal(t, network.StopIndex(1), steps[1].OriginStop)
}
