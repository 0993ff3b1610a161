package physics

import (
	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/sim"
)

// FuelTank drains fuel at "flow_rate" kilograms per second and keeps "mass"
// equal to "dry_mass" plus the remaining fuel.
//
// The remaining fuel lives in the solver data while the tank runs. Saving the
// solver state writes it to "fuel_mass"; loading reads it back, so edits to
// the variable take effect only through OnStateLoad.
type FuelTank struct{}

func NewFuelTank() *FuelTank { return &FuelTank{} }

func (f *FuelTank) Name() string { return "fuel_tank" }

type tank struct {
	fuel float64
}

func (f *FuelTank) OnInitialize(_ *sim.System, obj *sim.Object) (sim.Claim, error) {
	if obj.CheckType("fuel_tank") != nil {
		return sim.Ignore, nil
	}
	fuel, err := ensureReal(obj, "fuel_mass", 0)
	if err != nil {
		return sim.Ignore, err
	}
	if fuel < 0 {
		return sim.Ignore, errcode.BadParameter
	}
	if _, err := ensureReal(obj, "flow_rate", 0); err != nil {
		return sim.Ignore, err
	}
	if _, err := ensureReal(obj, "dry_mass", 0); err != nil {
		return sim.Ignore, err
	}
	st := &tank{fuel: fuel}
	if err := st.flush(obj); err != nil {
		return sim.Ignore, err
	}
	obj.SetSolverData(st)
	return sim.Claimed, nil
}

func (f *FuelTank) OnSolve(_ *sim.System, obj *sim.Object, dt float64) error {
	st, ok := obj.SolverData().(*tank)
	if !ok {
		return errcode.BadState
	}
	rate, err := obj.RealVariable("flow_rate")
	if err != nil {
		return err
	}
	st.fuel = max(st.fuel-rate*dt, 0)
	return st.flush(obj)
}

func (f *FuelTank) OnStateSave(_ *sim.System, obj *sim.Object) error {
	st, ok := obj.SolverData().(*tank)
	if !ok {
		return errcode.BadState
	}
	return st.flush(obj)
}

func (f *FuelTank) OnStateLoad(_ *sim.System, obj *sim.Object) error {
	st, ok := obj.SolverData().(*tank)
	if !ok {
		return errcode.BadState
	}
	fuel, err := obj.RealVariable("fuel_mass")
	if err != nil {
		return err
	}
	st.fuel = max(fuel, 0)
	return st.flush(obj)
}

func (f *FuelTank) OnDeinitialize(_ *sim.System, obj *sim.Object) error {
	obj.SetSolverData(nil)
	return nil
}

func (t *tank) flush(obj *sim.Object) error {
	dry, err := obj.RealVariable("dry_mass")
	if err != nil {
		return err
	}
	if err := setReal(obj, "fuel_mass", t.fuel); err != nil {
		return err
	}
	return setReal(obj, "mass", dry+t.fuel)
}
