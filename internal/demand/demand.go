// Package demand ingests patronage records and trip capacities from CSV
// files and groups demand rows into the simulation steps the
// assignment core consumes.
package demand

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/antigravity/transit-assign/internal/assignment"
	"github.com/antigravity/transit-assign/internal/capacity"
	"github.com/antigravity/transit-assign/internal/network"
)

// ErrNoData indicates a CSV had a valid header but no surviving data
// rows at all.
var ErrNoData = errors.New("demand: no data rows")

// NoDataForDate indicates every row in a demand file referenced a
// station name absent from the loaded network, for the network's
// service date — there is nothing left to route once unresolved rows
// are skipped.
type NoDataForDate struct {
	Date time.Time
}

func (e NoDataForDate) Error() string {
	return fmt.Sprintf("demand: no resolvable rows for date %s", e.Date.Format("2006-01-02"))
}

// Record is one parsed patronage row, already resolved to stop indices.
type Record struct {
	Origin        network.StopIndex
	Destination   network.StopIndex
	DepartureTime network.Seconds
	AgentCount    int64
}

const demandHeader = "Origin_Station,Destination_Station,Departure_Time,Agent_Count"

// ImportCSV reads the demand contract CSV (spec §6): required columns
// Origin_Station, Destination_Station, Departure_Time, Agent_Count.
// Departure_Time is a time-of-day string; both HH:MM:SS and
// HH:MM:SS.ffffff / HH:MM:SS.fffffffff precision are accepted, mirroring
// the original importer's Time64Microsecond/Time64Nanosecond handling.
// Rows naming an unresolved station are skipped, logging one warning
// per distinct unresolved name. If every row is skipped, ImportCSV
// returns NoDataForDate.
func ImportCSV(r io.Reader, net *network.Network) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("demand: reading header: %w", err)
	}
	col, err := columnIndex(header, "Origin_Station", "Destination_Station", "Departure_Time", "Agent_Count")
	if err != nil {
		return nil, err
	}

	warned := make(map[string]bool)
	var records []Record
	rowNum := 1

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("demand: row %d: %w", rowNum, err)
		}
		rowNum++

		origin := row[col["Origin_Station"]]
		dest := row[col["Destination_Station"]]

		originIdx, ok := net.StopIndexByName(origin)
		if !ok {
			warnUnresolved(warned, origin)
			continue
		}
		destIdx, ok := net.StopIndexByName(dest)
		if !ok {
			warnUnresolved(warned, dest)
			continue
		}

		depTime, err := parseTimeOfDay(row[col["Departure_Time"]])
		if err != nil {
			return nil, fmt.Errorf("demand: row %d: %w", rowNum, err)
		}

		count, err := strconv.ParseInt(row[col["Agent_Count"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("demand: row %d: Agent_Count: %w", rowNum, err)
		}

		records = append(records, Record{
			Origin:        originIdx,
			Destination:   destIdx,
			DepartureTime: depTime,
			AgentCount:    count,
		})
	}

	if len(records) == 0 {
		return nil, NoDataForDate{Date: net.Date}
	}
	return records, nil
}

func warnUnresolved(warned map[string]bool, name string) {
	if warned[name] {
		return
	}
	warned[name] = true
	slog.Warn("demand: station not found, skipping rows", "station", name)
}

func columnIndex(header []string, names ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	for _, name := range names {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("demand: missing required column %q", name)
		}
	}
	return idx, nil
}

// parseTimeOfDay accepts "HH:MM:SS", "HH:MM:SS.ffffff" (microsecond),
// and "HH:MM:SS.fffffffff" (nanosecond) time-of-day strings and returns
// seconds since midnight, truncating any sub-second component.
func parseTimeOfDay(s string) (network.Seconds, error) {
	for _, layout := range []string{"15:04:05.999999999", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return network.Seconds(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
		}
	}
	return 0, fmt.Errorf("demand: unparseable time-of-day %q", s)
}

// ImportTripCapacitiesCSV reads the trip capacity contract CSV (spec
// §6): header trip_id,seated,standing. Values must be nonnegative
// integers. The returned Registry's overrides are keyed by the trip's
// position within its route, resolved by matching trip_id against the
// network; trip_ids absent from the network are skipped with a warning.
func ImportTripCapacitiesCSV(r io.Reader, net *network.Network, def capacity.TripCapacity) (*capacity.Registry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("demand: reading trip capacity header: %w", err)
	}
	col, err := columnIndex(header, "trip_id", "seated", "standing")
	if err != nil {
		return nil, err
	}

	tripByID := indexTripsByID(net)
	reg := capacity.NewRegistry(def)

	rows := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("demand: trip capacity row: %w", err)
		}

		tripID := row[col["trip_id"]]
		gti, ok := tripByID[tripID]
		if !ok {
			slog.Warn("demand: unknown trip_id in capacity file, skipping", "trip_id", tripID)
			continue
		}

		seated, err := strconv.Atoi(row[col["seated"]])
		if err != nil || seated < 0 {
			return nil, fmt.Errorf("demand: trip %q: invalid seated value %q", tripID, row[col["seated"]])
		}
		standing, err := strconv.Atoi(row[col["standing"]])
		if err != nil || standing < 0 {
			return nil, fmt.Errorf("demand: trip %q: invalid standing value %q", tripID, row[col["standing"]])
		}

		reg.Set(gti, capacity.TripCapacity{Seated: seated, Standing: standing})
		rows++
	}

	if rows == 0 {
		return nil, ErrNoData
	}
	return reg, nil
}

func indexTripsByID(net *network.Network) map[string]network.GlobalTripIndex {
	idx := make(map[string]network.GlobalTripIndex)
	for ri := range net.Routes {
		route := &net.Routes[ri]
		for ti, trip := range route.Trips {
			idx[trip.ID] = network.GlobalTripIndex{RouteIdx: network.RouteIndex(ri), TripOrder: network.TripOrder(ti)}
		}
	}
	return idx
}

// StepBuilder groups resolved demand records into simulation steps
// keyed by (departure_time, origin_stop), the unit the assignment core
// schedules per round.
type StepBuilder struct {
	steps map[stepKey]*assignment.SimulationStep
	order []stepKey
}

type stepKey struct {
	departure network.Seconds
	origin    network.StopIndex
}

// NewStepBuilder returns an empty StepBuilder.
func NewStepBuilder() *StepBuilder {
	return &StepBuilder{steps: make(map[stepKey]*assignment.SimulationStep)}
}

// Add folds one resolved record into its (departure, origin) step,
// creating the step on first use. Multiple records sharing a key and
// destination accumulate into a single destination entry.
func (b *StepBuilder) Add(rec Record) {
	key := stepKey{departure: rec.DepartureTime, origin: rec.Origin}
	step, ok := b.steps[key]
	if !ok {
		step = &assignment.SimulationStep{DepartureTime: rec.DepartureTime, OriginStop: rec.Origin}
		b.steps[key] = step
		b.order = append(b.order, key)
	}

	for i, dest := range step.DestStops {
		if dest == rec.Destination {
			step.Counts[i] += rec.AgentCount
			return
		}
	}
	step.Push(rec.Destination, rec.AgentCount)
}

// Build returns the accumulated steps in the order their keys were
// first seen, which keeps step ordering stable and input-derived as
// spec's determinism property requires.
func (b *StepBuilder) Build() []assignment.SimulationStep {
	out := make([]assignment.SimulationStep, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, *b.steps[key])
	}
	return out
}

// BuildSorted returns the accumulated steps sorted by (departure_time,
// origin_stop), useful for reproducible output independent of input
// row order.
func (b *StepBuilder) BuildSorted() []assignment.SimulationStep {
	out := b.Build()
	sort.Slice(out, func(i, j int) bool {
		if out[i].DepartureTime != out[j].DepartureTime {
			return out[i].DepartureTime < out[j].DepartureTime
		}
		return out[i].OriginStop < out[j].OriginStop
	})
	return out
}
