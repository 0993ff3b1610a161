package metrics

import (
	"math"

	"github.com/san-kum/vessim/internal/environment"
	"github.com/san-kum/vessim/internal/sim"
)

// SpecificEnergy returns v²/2 + Φ for obj, measured in the root frame.
func SpecificEnergy(sys *sim.System, obj *sim.Object) (float64, error) {
	st, err := obj.State()
	if err != nil {
		return 0, err
	}
	st = st.Convert(sys.RootFrame())
	phi, _, err := environment.GravitationalField(sys, st.Position)
	if err != nil {
		return 0, err
	}
	v := st.Velocity.Length()
	return 0.5*v*v + phi, nil
}

// Energy is the mean specific orbital energy of an object.
type Energy struct {
	tracked
	total   float64
	samples int
}

func NewEnergy(ref string) *Energy {
	return &Energy{tracked: tracked{ref: ref}}
}

func (e *Energy) Name() string { return "energy:" + e.ref }

func (e *Energy) Observe(sys *sim.System, t float64) {
	if _, ok := e.state(sys); !ok {
		return
	}
	energy, err := SpecificEnergy(sys, e.obj)
	if err != nil {
		return
	}
	e.total += energy
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.tracked.reset()
	e.total = 0
	e.samples = 0
}

// EnergyDrift is the largest relative change of specific orbital energy
// since the first observation.
type EnergyDrift struct {
	tracked
	initial  float64
	current  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift(ref string) *EnergyDrift {
	return &EnergyDrift{tracked: tracked{ref: ref}}
}

func (e *EnergyDrift) Name() string { return "energy_drift:" + e.ref }

func (e *EnergyDrift) Observe(sys *sim.System, t float64) {
	if _, ok := e.state(sys); !ok {
		return
	}
	energy, err := SpecificEnergy(sys, e.obj)
	if err != nil {
		return
	}
	if e.samples == 0 {
		e.initial = energy
	}
	e.current = energy
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / math.Abs(e.initial)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

func (e *EnergyDrift) Reset() {
	e.tracked.reset()
	e.initial = 0
	e.current = 0
	e.maxDrift = 0
	e.samples = 0
}
