// Package crowding implements the family of per-leg crowding cost
// functions the assignment engine applies to occupancy counts, and a
// serializable configuration for selecting among them.
package crowding

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/antigravity/transit-assign/internal/capacity"
)

// Func maps a trip's capacity and an occupancy count (agents already
// riding a trip segment) to a nonnegative per-unit-time discomfort
// value. Implementations must be pure and side-effect free: the
// occupancy buffer calls Func once per stop-time entry during
// Finalize.
type Func func(cap capacity.TripCapacity, occupancy int64) float64

// Kind names one of the supported cost function shapes. It is the
// discriminant of Config's tagged union.
type Kind string

const (
	KindLinear    Kind = "linear"
	KindQuadratic Kind = "quadratic"
	KindOneStep   Kind = "one_step"
	KindTwoStep   Kind = "two_step"
)

// Config is a serializable description of a crowding cost function: a
// tag plus the parameters that shape it, rather than a closure, so a
// run's cost model can be stored, logged, and replayed. Build with
// Func to get the callable form.
type Config struct {
	Kind Kind `json:"kind"`

	// Linear: cost = Weight * (occupancy/capacity); Exponent is ignored.
	// Quadratic: cost = Weight * (occupancy/capacity)^Exponent, with a
	// non-positive Exponent treated as 2.
	Weight   float64 `json:"weight,omitempty"`
	Exponent float64 `json:"exponent,omitempty"`

	// OneStep: cost = 0 at x=0, otherwise
	//   max(A0, A0*s/x + (1-s/x)*A0*(1+B*exp(A*(x/s-1))))
	// with s = cap.Seated.
	//
	// TwoStep: cost = 0 at x=0, otherwise
	//   A0 + (A1-A0)/(1+exp(A*(cap.Seated-x))) + B*exp(C*(x-cap.Total()))
	A0 float64 `json:"a0,omitempty"`
	A1 float64 `json:"a1,omitempty"`
	A  float64 `json:"a,omitempty"`
	B  float64 `json:"b,omitempty"`
	C  float64 `json:"c,omitempty"`
}

// DefaultLinearConfig returns a Linear config with weight 1, exponent 1:
// cost equals the load factor directly.
func DefaultLinearConfig() Config {
	return Config{Kind: KindLinear, Weight: 1, Exponent: 1}
}

// Func compiles a Config into a callable cost function. It errors only
// if the configuration names an unknown Kind; a non-positive exponent
// for Quadratic falls back to 2.
func (c Config) Func() (Func, error) {
	switch c.Kind {
	case KindLinear:
		return linear(c.Weight, 1), nil
	case KindQuadratic:
		exp := c.Exponent
		if exp <= 0 {
			exp = 2
		}
		return linear(c.Weight, exp), nil
	case KindOneStep:
		return oneStep(c.A0, c.A, c.B), nil
	case KindTwoStep:
		return twoStep(c.A0, c.A1, c.A, c.B, c.C), nil
	default:
		return nil, fmt.Errorf("crowding: unknown kind %q", c.Kind)
	}
}

func loadFactor(cap capacity.TripCapacity, occupancy int64) float64 {
	total := cap.Total()
	if total <= 0 {
		return 0
	}
	return float64(occupancy) / float64(total)
}

// linear returns a cost function of the form weight * loadFactor^exp.
// With exp == 1 this is the Linear variant; any other positive exponent
// gives the Quadratic family (exp == 2 being the common case).
func linear(weight, exp float64) Func {
	return func(cap capacity.TripCapacity, occupancy int64) float64 {
		lf := loadFactor(cap, occupancy)
		if lf <= 0 {
			return 0
		}
		return weight * math.Pow(lf, exp)
	}
}

// oneStep blends a flat baseline a0 (for any load at or below seated
// capacity) into an exponential crush-load penalty as occupancy
// exceeds the seated capacity s. The max(a0, ...) clamp keeps the
// blended value from dipping under the baseline while x is still
// ramping up toward s.
func oneStep(a0, a, b float64) Func {
	return func(cap capacity.TripCapacity, occupancy int64) float64 {
		if occupancy == 0 {
			return 0
		}
		x := float64(occupancy)
		s := float64(cap.Seated)
		if s <= 0 {
			return a0 * (1 + b*math.Exp(a*(x-1)))
		}
		ratio := s / x
		crushTerm := a0 * (1 + b*math.Exp(a*(x/s-1)))
		blended := ratio*a0 + (1-ratio)*crushTerm
		return math.Max(a0, blended)
	}
}

// twoStep sigmoid-transitions from baseline a0 to a1 around the seated
// capacity, then adds an exponential crush-load tail once occupancy
// passes the vehicle's total capacity.
func twoStep(a0, a1, a, b, c float64) Func {
	return func(cap capacity.TripCapacity, occupancy int64) float64 {
		if occupancy == 0 {
			return 0
		}
		x := float64(occupancy)
		s := float64(cap.Seated)
		total := float64(cap.Total())
		return a0 + (a1-a0)/(1+math.Exp(a*(s-x))) + b*math.Exp(c*(x-total))
	}
}

// MarshalJSON round-trips a Config through encoding/json as a plain
// object; defined explicitly only to document that the zero-valued
// omitempty fields are intentional, not missing data.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	return json.Marshal(alias(c))
}

// DumpCSV writes a table of (occupancy, capacity, cost) samples for the
// given config across a swept range of load factors, for inspection or
// plotting of a run's chosen cost curve.
func DumpCSV(w io.Writer, cfg Config, cap capacity.TripCapacity, steps int) error {
	fn, err := cfg.Func()
	if err != nil {
		return err
	}
	if steps <= 0 {
		steps = 20
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"occupancy", "capacity", "cost"}); err != nil {
		return err
	}
	total := cap.Total()
	maxOccupancy := int64(total) * 2
	for i := 0; i <= steps; i++ {
		occ := maxOccupancy * int64(i) / int64(steps)
		cost := fn(cap, occ)
		row := []string{
			strconv.FormatInt(occ, 10),
			strconv.Itoa(total),
			strconv.FormatFloat(cost, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}
