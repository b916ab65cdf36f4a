package capacity

import (
	"testing"

	"github.com/antigravity/transit-assign/internal/network"
	"github.com/stretchr/testify/assert"
)

func TestRegistryDefaultFallback(t *testing.T) {
	reg := NewRegistry(TripCapacity{Seated: 264, Standing: 133})

	trip := network.GlobalTripIndex{RouteIdx: 0, TripOrder: 0}
	assert.Equal(t, 397, reg.Get(trip).Total())
}

func TestRegistryOverride(t *testing.T) {
	reg := NewRegistry(TripCapacity{Seated: 264, Standing: 133})

	trip := network.GlobalTripIndex{RouteIdx: 1, TripOrder: 2}
	reg.Set(trip, TripCapacity{Seated: 40, Standing: 0})

	assert.Equal(t, 40, reg.Get(trip).Total())
	// Unrelated trip still falls back to default.
	other := network.GlobalTripIndex{RouteIdx: 1, TripOrder: 3}
	assert.Equal(t, 397, reg.Get(other).Total())
}

func TestRegistryCloneIsIndependent(t *testing.T) {
	reg := NewRegistry(TripCapacity{Seated: 100, Standing: 0})
	trip := network.GlobalTripIndex{RouteIdx: 0, TripOrder: 0}
	reg.Set(trip, TripCapacity{Seated: 10, Standing: 0})

	clone := reg.Clone()
	clone.Set(trip, TripCapacity{Seated: 999, Standing: 0})

	assert.Equal(t, 10, reg.Get(trip).Total())
	assert.Equal(t, 999, clone.Get(trip).Total())
}
