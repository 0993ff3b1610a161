package sim

import "github.com/san-kum/vessim/internal/vecmath"

// Claim is the outcome of offering an object to a solver.
type Claim int

const (
	Ignore Claim = iota
	Claimed
)

func (c Claim) String() string {
	if c == Claimed {
		return "claimed"
	}
	return "ignored"
}

// Solver is a plugin registered with a System. Its behaviour comes from the
// optional interfaces below; a solver without Initializer never claims.
type Solver interface {
	Name() string
}

// Initializer inspects an Initializing object. Returning Ignore must leave the
// object as it was found.
type Initializer interface {
	OnInitialize(sys *System, obj *Object) (Claim, error)
}

type Deinitializer interface {
	OnDeinitialize(sys *System, obj *Object) error
}

// Solving advances an object by mutating it directly.
type Solving interface {
	OnSolve(sys *System, obj *Object, dt float64) error
}

// Integrating returns the time derivative of state without touching obj.
type Integrating interface {
	OnIntegrate(sys *System, obj *Object, dt float64, state vecmath.StateVector) (vecmath.Derivative, error)
}

type StateSaver interface {
	OnStateSave(sys *System, obj *Object) error
}

type StateLoader interface {
	OnStateLoad(sys *System, obj *Object) error
}

type Starter interface {
	OnStartup(sys *System) error
}

type Stopper interface {
	OnShutdown(sys *System) error
}

// Finalizer releases resources when the object's memory is reclaimed.
type Finalizer interface {
	OnFinalize(sys *System, obj *Object) error
}

type (
	SolveFunc     func(sys *System, obj *Object, dt float64) error
	IntegrateFunc func(sys *System, obj *Object, dt float64, state vecmath.StateVector) (vecmath.Derivative, error)
	ObjectFunc    func(sys *System, obj *Object) error
)

// GlobalCallbacks run for every object regardless of its solver. Nil fields
// are skipped. OnInitialize runs before the solvers and may claim the object
// itself.
type GlobalCallbacks struct {
	OnInitialize     func(sys *System, obj *Object) (Claim, error)
	OnPostInitialize ObjectFunc
	OnDeinitialize   ObjectFunc
}

// dispatch is the callback table installed on an object when it is claimed.
type dispatch struct {
	solve     SolveFunc
	integrate IntegrateFunc
	deinit    ObjectFunc
	finalize  ObjectFunc
	stateSave ObjectFunc
	stateLoad ObjectFunc
}

func dispatchFor(s Solver) dispatch {
	var d dispatch
	if x, ok := s.(Solving); ok {
		d.solve = x.OnSolve
	}
	if x, ok := s.(Integrating); ok {
		d.integrate = x.OnIntegrate
	}
	if x, ok := s.(Deinitializer); ok {
		d.deinit = x.OnDeinitialize
	}
	if x, ok := s.(Finalizer); ok {
		d.finalize = x.OnFinalize
	}
	if x, ok := s.(StateSaver); ok {
		d.stateSave = x.OnStateSave
	}
	if x, ok := s.(StateLoader); ok {
		d.stateLoad = x.OnStateLoad
	}
	return d
}
