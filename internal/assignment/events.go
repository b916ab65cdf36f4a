package assignment

// Event is the marker interface for the round driver's best-effort
// progress stream, shaped after the simulator event types in the
// teacher pack's bus-simulation reference (sim/events.go): a closed
// set of concrete event structs rather than a single tagged struct.
type Event interface {
	isEvent()
}

// Started is emitted once, before the first round begins.
type Started struct {
	NumRounds uint16
	NumSteps  int
}

func (Started) isEvent() {}

// StepCompleted is emitted once per (step, round) pair. It carries only
// the round and step indices: consumers that need the result read it from the round's
// SimulationRoundResult once the round finishes, consistent with
// treating this stream as best-effort progress only.
type StepCompleted struct {
	RoundIndex int
	StepIndex  int
}

func (StepCompleted) isEvent() {}
