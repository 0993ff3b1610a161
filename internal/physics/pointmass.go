package physics

import (
	"errors"

	"github.com/san-kum/vessim/internal/environment"
	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/variable"
	"github.com/san-kum/vessim/internal/vecmath"
)

// PointMass falls freely in the field of every planet. Optional "force" and
// "torque" vector variables add loads, which need "mass" and an inertia
// tensor for the propagator to resolve.
type PointMass struct{}

func NewPointMass() *PointMass { return &PointMass{} }

func (p *PointMass) Name() string { return "point_mass" }

func (p *PointMass) OnInitialize(_ *sim.System, obj *sim.Object) (sim.Claim, error) {
	if obj.CheckType("point_mass") != nil {
		return sim.Ignore, nil
	}
	return sim.Claimed, nil
}

func (p *PointMass) OnIntegrate(sys *sim.System, obj *sim.Object, _ float64, x vecmath.StateVector) (vecmath.Derivative, error) {
	f := x.Frame()
	d := vecmath.NewDerivative(f)
	d.Velocity = x.Velocity
	d.AngularVelocity = x.AngularVelocity

	// Gravity is inertial; converting it with the body's motion attached
	// yields the acceleration relative to a moving parent.
	xr := x.Convert(sys.RootFrame())
	_, g, err := environment.GravitationalField(sys, xr.Position)
	if err != nil {
		return d, err
	}
	d.Acceleration = g.SetPosition(xr.Position).SetVelocity(xr.Velocity).Convert(f).NullifyPositionAndVelocity()

	if d.Force, err = load(obj, "force", vecmath.Force, f); err != nil {
		return d, err
	}
	if d.Torque, err = load(obj, "torque", vecmath.Torque, f); err != nil {
		return d, err
	}
	return d, nil
}

func load(obj *sim.Object, name string, k vecmath.Kind, f vecmath.Frame) (vecmath.Vector, error) {
	v, err := obj.Variable(name)
	if errors.Is(err, errcode.NotFound) {
		return vecmath.Zero(f, k), nil
	}
	if err != nil {
		return vecmath.Vector{}, err
	}
	if v.Type() != variable.Vector {
		return vecmath.Vector{}, errcode.InvalidType
	}
	vec, err := v.Vector()
	if err != nil {
		return vecmath.Vector{}, err
	}
	vec.Kind = k
	if vec.Frame.IsZero() {
		vec.Frame = f
	}
	return vec.Convert(f), nil
}
