package sim

import (
	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/vecmath"
)

func (o *Object) initialized() error {
	if err := o.readable(); err != nil {
		return err
	}
	if o.n.lifecycle() != Initialized {
		return errcode.NotInitialized
	}
	return nil
}

// Solve advances the object by dt seconds through its solve callback. Objects
// without one solve their children instead.
func (o *Object) Solve(dt float64) error {
	if err := o.initialized(); err != nil {
		return err
	}
	o.n.mu.RLock()
	solve := o.n.calls.solve
	o.n.mu.RUnlock()
	if solve == nil {
		return o.SolveChildren(dt)
	}
	return solve(o.n.sys, o, dt)
}

// SolveChildren calls Solve on each initialized child in order and stops at
// the first error.
func (o *Object) SolveChildren(dt float64) error {
	children, err := o.Children()
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := c.Solve(dt); err != nil {
			return err
		}
	}
	return nil
}

// Integrate evaluates the object's derivative at state without changing the
// object. It fails with NotImplemented when no integrate callback is set.
func (o *Object) Integrate(dt float64, state vecmath.StateVector) (vecmath.Derivative, error) {
	if err := o.initialized(); err != nil {
		return vecmath.Derivative{}, err
	}
	o.n.mu.RLock()
	integrate := o.n.calls.integrate
	o.n.mu.RUnlock()
	if integrate == nil {
		return vecmath.Derivative{}, errcode.NotImplemented
	}
	return integrate(o.n.sys, o, dt, state)
}

// CanIntegrate reports whether Integrate would reach a callback.
func (o *Object) CanIntegrate() bool {
	if o == nil || o.n == nil {
		return false
	}
	o.n.mu.RLock()
	defer o.n.mu.RUnlock()
	return o.n.calls.integrate != nil
}

// SetSolveFunc overrides the solve callback. Solvers call it from
// OnInitialize to install per-object behaviour.
func (o *Object) SetSolveFunc(fn SolveFunc) error {
	if err := o.writable(); err != nil {
		return err
	}
	o.n.mu.Lock()
	o.n.calls.solve = fn
	o.n.mu.Unlock()
	return nil
}

func (o *Object) SetIntegrateFunc(fn IntegrateFunc) error {
	if err := o.writable(); err != nil {
		return err
	}
	o.n.mu.Lock()
	o.n.calls.integrate = fn
	o.n.mu.Unlock()
	return nil
}

// SaveSolverState asks the solver to snapshot its internal state.
func (o *Object) SaveSolverState() error {
	if err := o.initialized(); err != nil {
		return err
	}
	o.n.mu.RLock()
	fn := o.n.calls.stateSave
	o.n.mu.RUnlock()
	if fn == nil {
		return errcode.NotImplemented
	}
	return fn(o.n.sys, o)
}

// LoadSolverState restores the last snapshot.
func (o *Object) LoadSolverState() error {
	if err := o.initialized(); err != nil {
		return err
	}
	o.n.mu.RLock()
	fn := o.n.calls.stateLoad
	o.n.mu.RUnlock()
	if fn == nil {
		return errcode.NotImplemented
	}
	return fn(o.n.sys, o)
}
