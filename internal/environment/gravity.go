// Package environment computes fields that act on every object of a System.
package environment

import (
	"errors"
	"math"

	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/vecmath"
)

// FieldFunc is a custom gravity model stored in a planet's
// "gravitational_field" variable. r points from the planet to the query
// point; field must be an acceleration.
type FieldFunc func(planet *sim.Object, r vecmath.Vector) (phi float64, field vecmath.Vector, err error)

// planet holds the gravity parameters of one body. Missing values are NaN.
type planet struct {
	mu, j2, radius, rs float64
	field              FieldFunc
}

func optional(obj *sim.Object, name string) (float64, error) {
	v, err := obj.RealVariable(name)
	if errors.Is(err, errcode.NotFound) {
		return math.NaN(), nil
	}
	return v, err
}

func readPlanet(obj *sim.Object) (planet, error) {
	var p planet
	var err error
	if p.mu, err = optional(obj, "mu"); err != nil {
		return p, err
	}
	if math.IsNaN(p.mu) {
		mass, err := optional(obj, "mass")
		if err != nil {
			return p, err
		}
		p.mu = vecmath.GravitationalConstant * mass
	}
	if p.j2, err = optional(obj, "j2"); err != nil {
		return p, err
	}
	if p.radius, err = optional(obj, "radius"); err != nil {
		return p, err
	}
	if p.rs, err = optional(obj, "rs"); err != nil {
		return p, err
	}

	v, err := obj.Variable("gravitational_field")
	switch {
	case errors.Is(err, errcode.NotFound):
	case err != nil:
		return p, err
	default:
		fp, err := v.FunctionPointer()
		if err != nil {
			return p, err
		}
		switch fn := fp.(type) {
		case FieldFunc:
			p.field = fn
		case func(*sim.Object, vecmath.Vector) (float64, vecmath.Vector, error):
			p.field = fn
		default:
			return p, errcode.InvalidType
		}
	}
	return p, nil
}

// GravitationalField sums the potential and field of every initialized
// "planet" object at pos. A planet contributes when it has "mu" or "mass", or
// a custom field function. "j2" together with "radius" adds the oblateness
// term about the planet's z axis, and a positive "rs" limits the
// contribution to a sphere of influence. The field is an acceleration in pos's frame.
func GravitationalField(sys *sim.System, pos vecmath.Vector) (float64, vecmath.Vector, error) {
	if sys == nil || pos.Frame.IsZero() || pos.Kind != vecmath.Position {
		return 0, vecmath.Vector{}, errcode.BadParameter
	}
	f := pos.Frame
	pos = pos.NullifyPositionAndVelocity()
	total := vecmath.Zero(f, vecmath.Acceleration)
	phi := 0.0

	for _, obj := range sys.ObjectsByType("planet") {
		p, err := readPlanet(obj)
		if err != nil {
			return 0, vecmath.Vector{}, err
		}

		origin := vecmath.Zero(obj.Frame(), vecmath.Position).Convert(f)
		r := pos.Sub(origin)
		r.Kind = vecmath.Direction
		r2 := r.Dot(r)
		if r2 == 0 {
			r2 = vecmath.Eps
		}
		if p.rs > 0 && r2 > p.rs*p.rs {
			continue
		}

		if p.field != nil {
			gphi, g, err := p.field(obj, r)
			if err != nil {
				return 0, vecmath.Vector{}, err
			}
			total = total.Add(g)
			phi += gphi
			continue
		}
		if math.IsNaN(p.mu) {
			continue
		}

		var gphi float64
		var g vecmath.Vector
		if !math.IsNaN(p.j2) && !math.IsNaN(p.radius) {
			gphi, g = oblate(p, pos.Convert(obj.Frame()))
		} else {
			gphi, g = spherical(p.mu, r, r2)
		}
		g = g.Convert(f)
		g.Kind = vecmath.Acceleration
		total = total.Add(g)
		phi += gphi
	}
	return phi, total, nil
}

func spherical(mu float64, r vecmath.Vector, r2 float64) (float64, vecmath.Vector) {
	n := math.Sqrt(r2)
	return -mu / n, r.Scale(-mu / (r2 * n))
}

// oblate evaluates the J2 model for r given in the planet's own frame. The
// result is a Direction in that frame.
func oblate(p planet, r vecmath.Vector) (float64, vecmath.Vector) {
	x, y, z := r.Get()
	r2 := x*x + y*y + z*z
	if r2 == 0 {
		r2 = vecmath.Eps
	}
	n := math.Sqrt(r2)
	k := 1.5 * p.j2 * p.radius * p.radius / r2
	zz := z * z / r2

	phi := -p.mu / n * (1 - k*(3*zz-1)/3)
	s := -p.mu / (r2 * n)
	g := vecmath.NewVector(r.Frame, vecmath.Direction,
		s*x*(1-k*(5*zz-1)),
		s*y*(1-k*(5*zz-1)),
		s*z*(1-k*(5*zz-3)),
	)
	return phi, g
}
