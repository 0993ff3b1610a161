package experiment

import (
	"fmt"
	"maps"
	"slices"

	"github.com/san-kum/vessim/internal/integrators"
	"github.com/san-kum/vessim/internal/physics"
	"github.com/san-kum/vessim/internal/sim"
)

// PropagatorType is the object type scenes use for "the propagator chosen by
// the run configuration".
const PropagatorType = "propagator"

type Registry struct {
	solvers     map[string]func() sim.Solver
	integrators map[string]func() integrators.Integrator
	// registration order of solvers
	order []string
}

func NewRegistry() *Registry {
	r := &Registry{
		solvers:     make(map[string]func() sim.Solver),
		integrators: make(map[string]func() integrators.Integrator),
	}

	r.integrators["euler"] = func() integrators.Integrator { return integrators.NewEuler() }
	r.integrators["heun"] = func() integrators.Integrator { return integrators.NewHeun() }
	r.integrators["rk4"] = func() integrators.Integrator { return integrators.NewRK4() }

	for _, name := range r.ListIntegrators() {
		newInteg := r.integrators[name]
		r.add(PropagatorType+"_"+name, func() sim.Solver {
			return integrators.NewPropagator(newInteg())
		})
	}
	r.add("planet", func() sim.Solver { return physics.NewPlanet() })
	r.add("point_mass", func() sim.Solver { return physics.NewPointMass() })
	r.add("fuel_tank", func() sim.Solver { return physics.NewFuelTank() })
	r.add("antenna", func() sim.Solver { return physics.NewAntenna() })
	r.add("thruster", func() sim.Solver { return physics.NewThruster() })

	return r
}

func (r *Registry) add(name string, fn func() sim.Solver) {
	if _, ok := r.solvers[name]; !ok {
		r.order = append(r.order, name)
	}
	r.solvers[name] = fn
}

func (r *Registry) GetSolver(name string) (sim.Solver, error) {
	fn, ok := r.solvers[name]
	if !ok {
		return nil, fmt.Errorf("unknown solver: %s", name)
	}
	return fn(), nil
}

func (r *Registry) GetIntegrator(name string) (integrators.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

// PropagatorFor names the propagator solver driving integrator.
func (r *Registry) PropagatorFor(integrator string) (string, error) {
	if _, ok := r.integrators[integrator]; !ok {
		return "", fmt.Errorf("unknown integrator: %s", integrator)
	}
	return PropagatorType + "_" + integrator, nil
}

func (r *Registry) ListSolvers() []string {
	return slices.Sorted(maps.Keys(r.solvers))
}

func (r *Registry) ListIntegrators() []string {
	return slices.Sorted(maps.Keys(r.integrators))
}

// RegisterAll registers a fresh instance of every solver with sys. The order
// is fixed: propagators first, then the physics solvers.
func (r *Registry) RegisterAll(sys *sim.System) error {
	for _, name := range r.order {
		if err := sys.Register(r.solvers[name]()); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}
	return nil
}

var defaultRegistry = NewRegistry()

// RegisterAll registers every built-in solver with sys.
func RegisterAll(sys *sim.System) error {
	return defaultRegistry.RegisterAll(sys)
}
