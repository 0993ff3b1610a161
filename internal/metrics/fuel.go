package metrics

import (
	"github.com/san-kum/vessim/internal/sim"
)

// FuelUsed is the fuel mass consumed by a tank since the first observation.
type FuelUsed struct {
	tracked
	initial, current float64
	samples          int
}

func NewFuelUsed(ref string) *FuelUsed {
	return &FuelUsed{tracked: tracked{ref: ref}}
}

func (f *FuelUsed) Name() string { return "fuel_used:" + f.ref }

func (f *FuelUsed) Observe(sys *sim.System, t float64) {
	if _, ok := f.state(sys); !ok {
		return
	}
	fuel, err := f.obj.RealVariable("fuel_mass")
	if err != nil {
		return
	}
	if f.samples == 0 {
		f.initial = fuel
	}
	f.current = fuel
	f.samples++
}

func (f *FuelUsed) Value() float64 { return f.initial - f.current }

func (f *FuelUsed) Reset() {
	f.tracked.reset()
	f.initial, f.current = 0, 0
	f.samples = 0
}
