package physics

import (
	"errors"

	"github.com/san-kum/vessim/internal/control"
	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/variable"
	"github.com/san-kum/vessim/internal/vecmath"
)

// Thruster holds its parent vessel at "target_radius" from the origin of
// the vessel's parent frame. A PID controller on the radius error sets the
// vessel's "force" variable along the radial direction, limited to
// "max_thrust" newtons. "delta_v" accumulates the velocity change spent.
//
// Without "target_radius" the vessel's radius at the first solve becomes
// the setpoint.
type Thruster struct{}

func NewThruster() *Thruster { return &Thruster{} }

func (t *Thruster) Name() string { return "thruster" }

type thruster struct {
	pid    *control.PID
	locked bool
}

func (t *Thruster) OnInitialize(_ *sim.System, obj *sim.Object) (sim.Claim, error) {
	if obj.CheckType("thruster") != nil {
		return sim.Ignore, nil
	}
	var gains [4]float64
	for i, name := range []string{"kp", "ki", "kd", "max_thrust"} {
		v, err := realOr(obj, name, 0)
		if err != nil {
			return sim.Ignore, err
		}
		if v < 0 {
			return sim.Ignore, errcode.BadParameter
		}
		gains[i] = v
	}
	pid := control.NewPID(gains[0], gains[1], gains[2], 0)
	pid.Limit = gains[3]

	st := &thruster{pid: pid}
	target, err := obj.RealVariable("target_radius")
	switch {
	case err == nil:
		pid.Target, st.locked = target, true
	case !errors.Is(err, errcode.NotFound):
		return sim.Ignore, err
	}
	if _, err := ensureReal(obj, "delta_v", 0); err != nil {
		return sim.Ignore, err
	}
	obj.SetSolverData(st)
	return sim.Claimed, nil
}

func (t *Thruster) OnSolve(_ *sim.System, obj *sim.Object, dt float64) error {
	st, ok := obj.SolverData().(*thruster)
	if !ok {
		return errcode.BadState
	}
	vessel, err := obj.Parent()
	if err != nil {
		return err
	}
	x, err := vessel.State()
	if err != nil {
		return err
	}
	r := x.Position.Length()
	if r == 0 {
		return nil
	}
	if !st.locked {
		st.pid.Target, st.locked = r, true
		if err := setReal(obj, "target_radius", r); err != nil {
			return err
		}
	}

	thrust := st.pid.Update(r, dt)
	dir := x.Position.Normalize().Vec().Scale(thrust)
	if err := setForce(vessel, vecmath.NewVector(x.Frame(), vecmath.Force, dir.X, dir.Y, dir.Z)); err != nil {
		return err
	}

	mass, err := vessel.RealVariable("mass")
	if err != nil {
		return err
	}
	if mass <= 0 {
		return errcode.BadParameter
	}
	dv, err := obj.RealVariable("delta_v")
	if err != nil {
		return err
	}
	if thrust < 0 {
		thrust = -thrust
	}
	return setReal(obj, "delta_v", dv+thrust/mass*dt)
}

func (t *Thruster) OnDeinitialize(_ *sim.System, obj *sim.Object) error {
	obj.SetSolverData(nil)
	return nil
}

// setForce overwrites the vessel's "force" variable, creating it if needed.
func setForce(vessel *sim.Object, f vecmath.Vector) error {
	v, err := vessel.Variable("force")
	if errors.Is(err, errcode.NotFound) {
		v, err = vessel.AddVariable("force", variable.Vector)
	}
	if err != nil {
		return err
	}
	return v.SetVector(f)
}
