package integrators

import (
	"errors"

	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/vecmath"
)

// Propagator is a solver claiming objects of type "propagator_<scheme>". On
// Solve it integrates every child that has an integrate callback and solves
// the rest directly.
type Propagator struct {
	integ Integrator
}

func NewPropagator(integ Integrator) *Propagator {
	return &Propagator{integ: integ}
}

func (p *Propagator) Name() string { return "propagator_" + p.integ.Name() }

func (p *Propagator) Integrator() Integrator { return p.integ }

func (p *Propagator) OnInitialize(_ *sim.System, obj *sim.Object) (sim.Claim, error) {
	if obj.CheckType(p.Name()) != nil {
		return sim.Ignore, nil
	}
	return sim.Claimed, nil
}

func (p *Propagator) OnSolve(sys *sim.System, obj *sim.Object, dt float64) error {
	children, err := obj.Children()
	if err != nil {
		return err
	}
	for _, c := range children {
		if !c.CanIntegrate() {
			if err := c.Solve(dt); err != nil {
				return err
			}
			continue
		}
		x, err := c.State()
		if err != nil {
			return err
		}
		next, err := p.integ.Step(ObjectDynamics(c), x, dt)
		if err != nil {
			sys.Logger().Debug("integration failed", "solver", p.Name(), "object", name(c), "err", err)
			return err
		}
		if err := c.AdvanceState(next); err != nil {
			return err
		}
		if err := c.SolveChildren(dt); err != nil {
			return err
		}
	}
	return nil
}

func name(o *sim.Object) string {
	n, _ := o.Name()
	return n
}

// objectDynamics evaluates an object's integrate callback and reads its mass
// properties from variables.
type objectDynamics struct {
	obj *sim.Object
}

// ObjectDynamics adapts obj to Dynamics. Mass comes from the "mass" variable
// and inertia from "ixx", "iyy", "izz" and the optional products "ixy",
// "ixz", "iyz", given in the object's own frame.
func ObjectDynamics(obj *sim.Object) Dynamics {
	return objectDynamics{obj: obj}
}

func (d objectDynamics) Derive(dt float64, x vecmath.StateVector) (vecmath.Derivative, error) {
	return d.obj.Integrate(dt, x)
}

func (d objectDynamics) Mass() (float64, error) {
	return d.obj.RealVariable("mass")
}

func (d objectDynamics) InertiaTensor(x vecmath.StateVector) (vecmath.Tensor, error) {
	get := func(name string, optional bool) (float64, error) {
		v, err := d.obj.RealVariable(name)
		if optional && errors.Is(err, errcode.NotFound) {
			return 0, nil
		}
		return v, err
	}
	var c [6]float64
	for i, n := range []string{"ixx", "iyy", "izz", "ixy", "ixz", "iyz"} {
		v, err := get(n, i >= 3)
		if err != nil {
			return vecmath.Tensor{}, err
		}
		c[i] = v
	}
	body := vecmath.Tensor{
		Rows: [3]vecmath.Vec3{
			{X: c[0], Y: c[3], Z: c[4]},
			{X: c[3], Y: c[1], Z: c[5]},
			{X: c[4], Y: c[5], Z: c[2]},
		},
		Frame: d.obj.Frame(),
	}
	return body.Rotate(x.Orientation), nil
}
