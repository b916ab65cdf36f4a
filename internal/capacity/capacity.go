// Package capacity holds per-trip vehicle capacity data used to turn
// raw occupancy counts into load factors for the crowding cost family.
package capacity

import "github.com/antigravity/transit-assign/internal/network"

// TripCapacity is the seated/standing split the original's
// X'Trapolis-class example (main.rs: "264 seated, 133 standing")
// documents for a single rolling-stock configuration.
type TripCapacity struct {
	Seated   int
	Standing int
}

// Total returns the combined capacity used for crowding cost
// evaluation.
func (c TripCapacity) Total() int {
	return c.Seated + c.Standing
}

// Registry resolves per-trip capacity, falling back to a network-wide
// default for any trip without an explicit override.
type Registry struct {
	Default   TripCapacity
	overrides map[network.GlobalTripIndex]TripCapacity
}

// NewRegistry builds a Registry with the given network-wide default.
func NewRegistry(def TripCapacity) *Registry {
	return &Registry{
		Default:   def,
		overrides: make(map[network.GlobalTripIndex]TripCapacity),
	}
}

// Set overrides the capacity for one trip.
func (r *Registry) Set(trip network.GlobalTripIndex, c TripCapacity) {
	r.overrides[trip] = c
}

// Get returns the capacity for the given trip, falling back to Default.
func (r *Registry) Get(trip network.GlobalTripIndex) TripCapacity {
	if c, ok := r.overrides[trip]; ok {
		return c
	}
	return r.Default
}

// SetDefault replaces the network-wide fallback capacity.
func (r *Registry) SetDefault(c TripCapacity) {
	r.Default = c
}

// Clone returns a deep copy, so callers can derive a variant registry
// (e.g. for a what-if run) without mutating the original.
func (r *Registry) Clone() *Registry {
	cp := &Registry{
		Default:   r.Default,
		overrides: make(map[network.GlobalTripIndex]TripCapacity, len(r.overrides)),
	}
	for k, v := range r.overrides {
		cp.overrides[k] = v
	}
	return cp
}
