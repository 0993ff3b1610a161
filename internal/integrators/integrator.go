// Package integrators advances state vectors with fixed-step schemes and
// exposes them to a System as propagator solvers.
package integrators

import (
	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/vecmath"
)

// Dynamics evaluates the time derivative of x. dt is the offset of the
// evaluation point from the start of the step.
type Dynamics interface {
	Derive(dt float64, x vecmath.StateVector) (vecmath.Derivative, error)
}

// MassProperties lets an integrator turn force and torque into accelerations.
type MassProperties interface {
	Mass() (float64, error)
	// InertiaTensor returns the inertia in the frame of x.
	InertiaTensor(x vecmath.StateVector) (vecmath.Tensor, error)
}

type Integrator interface {
	Name() string
	Step(dyn Dynamics, x vecmath.StateVector, dt float64) (vecmath.StateVector, error)
}

// derive evaluates dyn and folds force and torque into the acceleration
// channels.
func derive(dyn Dynamics, dt float64, x vecmath.StateVector) (vecmath.Derivative, error) {
	d, err := dyn.Derive(dt, x)
	if err != nil {
		return d, err
	}
	d = complete(d, x.Frame())
	if !d.HasLoads() {
		return d, nil
	}
	mp, ok := dyn.(MassProperties)
	if !ok {
		return d, errcode.BadState
	}
	f := x.Frame()

	if !d.Force.IsZero() {
		m, err := mp.Mass()
		if err != nil {
			return d, err
		}
		if m <= 0 {
			return d, errcode.BadParameter
		}
		a := d.Force.NullifyPositionAndVelocity().Convert(f).Scale(1 / m)
		a.Kind = vecmath.Acceleration
		d.Acceleration = d.Acceleration.Add(a)
	}

	if !d.Torque.IsZero() {
		inertia, err := mp.InertiaTensor(x)
		if err != nil {
			return d, err
		}
		inv, ok := inertia.InvertSymmetric()
		if !ok {
			return d, errcode.BadParameter
		}
		// Euler's equations in the parent frame: I·α = τ − ω × (I·ω).
		w := x.AngularVelocity
		w.Kind = vecmath.Direction
		w = w.Convert(inertia.Frame)
		iw := inertia.MultiplyByVector(w).Vec()
		tau := d.Torque.NullifyPositionAndVelocity().Convert(inertia.Frame).Vec()
		net := tau.Sub(w.Vec().Cross(iw))
		alpha := inv.MultiplyByVector(vecmath.NewVector(inertia.Frame, vecmath.AngularAcceleration, net.X, net.Y, net.Z))
		d.AngularAcceleration = d.AngularAcceleration.Add(alpha)
	}

	d.Force = vecmath.Zero(f, vecmath.Force)
	d.Torque = vecmath.Zero(f, vecmath.Torque)
	return d, nil
}

// complete gives channels left as zero values a frame and their proper kind.
func complete(d vecmath.Derivative, f vecmath.Frame) vecmath.Derivative {
	fill := func(v *vecmath.Vector, k vecmath.Kind) {
		if v.Frame.IsZero() {
			*v = vecmath.NewVector(f, k, v.X, v.Y, v.Z)
		}
	}
	fill(&d.Velocity, vecmath.Velocity)
	fill(&d.Acceleration, vecmath.Acceleration)
	fill(&d.AngularVelocity, vecmath.AngularVelocity)
	fill(&d.AngularAcceleration, vecmath.AngularAcceleration)
	fill(&d.Force, vecmath.Force)
	fill(&d.Torque, vecmath.Torque)
	return d
}
