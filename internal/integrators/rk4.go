package integrators

import "github.com/san-kum/vessim/internal/vecmath"

// RK4 is the classical fourth-order Runge-Kutta scheme. It keeps no state
// between steps, so one instance can serve concurrent propagators.
type RK4 struct{}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Step(dyn Dynamics, x vecmath.StateVector, dt float64) (vecmath.StateVector, error) {
	k1, err := derive(dyn, 0, x)
	if err != nil {
		return x, err
	}
	k2, err := derive(dyn, dt*0.5, x.Advance(k1, dt*0.5))
	if err != nil {
		return x, err
	}
	k3, err := derive(dyn, dt*0.5, x.Advance(k2, dt*0.5))
	if err != nil {
		return x, err
	}
	k4, err := derive(dyn, dt, x.Advance(k3, dt))
	if err != nil {
		return x, err
	}

	sum := k1.MultiplyAndAdd(k2, 2).MultiplyAndAdd(k3, 2).MultiplyAndAdd(k4, 1)
	return x.Advance(sum.Scale(1.0/6.0), dt), nil
}
