package integrators

import "github.com/san-kum/vessim/internal/vecmath"

// Euler is forward Euler with the second-order kinematic terms, useful for
// debugging only.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(dyn Dynamics, x vecmath.StateVector, dt float64) (vecmath.StateVector, error) {
	dx, err := derive(dyn, 0, x)
	if err != nil {
		return x, err
	}
	return x.AdvanceKinematic(dx, dt), nil
}
