package integrators

import "github.com/san-kum/vessim/internal/vecmath"

// Heun predicts a full Euler step, evaluates the derivative there and steps
// with the average of both derivatives.
type Heun struct{}

func NewHeun() *Heun {
	return &Heun{}
}

func (h *Heun) Name() string { return "heun" }

func (h *Heun) Step(dyn Dynamics, x vecmath.StateVector, dt float64) (vecmath.StateVector, error) {
	k1, err := derive(dyn, 0, x)
	if err != nil {
		return x, err
	}
	predicted := x.AdvanceKinematic(k1, dt)
	k2, err := derive(dyn, dt, predicted)
	if err != nil {
		return x, err
	}
	return x.Advance(k1.Scale(0.5).MultiplyAndAdd(k2, 0.5), dt), nil
}
