package physics

import (
	"math"

	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/vecmath"
)

// Planet moves uniformly and spins at a constant rate. A planet given only
// "mass" gets a matching "mu".
type Planet struct{}

func NewPlanet() *Planet { return &Planet{} }

func (p *Planet) Name() string { return "planet" }

func (p *Planet) OnInitialize(_ *sim.System, obj *sim.Object) (sim.Claim, error) {
	if obj.CheckType("planet") != nil {
		return sim.Ignore, nil
	}
	mu, err := realOr(obj, "mu", math.NaN())
	if err != nil {
		return sim.Ignore, err
	}
	if math.IsNaN(mu) {
		mass, err := realOr(obj, "mass", math.NaN())
		if err != nil {
			return sim.Ignore, err
		}
		if !math.IsNaN(mass) {
			if err := setReal(obj, "mu", vecmath.GravitationalConstant*mass); err != nil {
				return sim.Ignore, err
			}
		}
	}
	return sim.Claimed, nil
}

func (p *Planet) OnIntegrate(_ *sim.System, _ *sim.Object, _ float64, x vecmath.StateVector) (vecmath.Derivative, error) {
	d := vecmath.NewDerivative(x.Frame())
	d.Velocity = x.Velocity
	d.AngularVelocity = x.AngularVelocity
	return d, nil
}
