package environment

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/san-kum/vessim/internal/errcode"
	"github.com/san-kum/vessim/internal/logging"
	"github.com/san-kum/vessim/internal/sim"
	"github.com/san-kum/vessim/internal/variable"
	"github.com/san-kum/vessim/internal/vecmath"
)

func newSystem(t *testing.T) *sim.System {
	t.Helper()
	sys := sim.New(sim.WithLogger(logging.Discard()))
	t.Cleanup(func() { sys.Close() })
	return sys
}

func addPlanet(t *testing.T, sys *sim.System, name string, x, y, z float64, vars map[string]float64) *sim.Object {
	t.Helper()
	p, err := sys.CreateNamed(nil, "planet", name)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetPosition(vecmath.NewVector(sys.RootFrame(), vecmath.Position, x, y, z)); err != nil {
		t.Fatal(err)
	}
	for k, v := range vars {
		if _, err := p.AddRealVariable(k, v); err != nil {
			t.Fatal(err)
		}
	}
	return p
}

func initAll(t *testing.T, objs ...*sim.Object) {
	t.Helper()
	for _, o := range objs {
		if err := o.Initialize(true); err != nil {
			t.Fatal(err)
		}
	}
}

func approx(t *testing.T, what string, got, want vecmath.Vec3, tol float64) {
	t.Helper()
	if got.Sub(want).Norm() > tol*math.Max(1, want.Norm()) {
		t.Errorf("%s = %+v, want %+v", what, got, want)
	}
}

func inverseSquare(mu float64, from, at vecmath.Vec3) vecmath.Vec3 {
	r := at.Sub(from)
	n := r.Norm()
	return r.Scale(-mu / (n * n * n))
}

func TestSuperposition(t *testing.T) {
	sys := newSystem(t)
	a := addPlanet(t, sys, "a", 0, 0, 0, map[string]float64{"mu": 4e14})
	b := addPlanet(t, sys, "b", 1e7, 0, 0, map[string]float64{"mu": 5e12})
	initAll(t, a, b)

	at := vecmath.Vec3{X: 3e6, Y: 4e6}
	phi, g, err := GravitationalField(sys, vecmath.NewVector(sys.RootFrame(), vecmath.Position, at.X, at.Y, at.Z))
	if err != nil {
		t.Fatal(err)
	}
	want := inverseSquare(4e14, vecmath.Vec3{}, at).Add(inverseSquare(5e12, vecmath.Vec3{X: 1e7}, at))
	approx(t, "field", g.Vec(), want, 1e-12)
	if g.Kind != vecmath.Acceleration || g.Frame != sys.RootFrame() {
		t.Errorf("field kind %v frame mismatch", g.Kind)
	}
	wantPhi := -4e14/5e6 - 5e12/math.Hypot(7e6, 4e6)
	if math.Abs(phi-wantPhi) > 1e-9*math.Abs(wantPhi) {
		t.Errorf("phi = %v, want %v", phi, wantPhi)
	}
}

func TestSphereOfInfluence(t *testing.T) {
	sys := newSystem(t)
	a := addPlanet(t, sys, "a", 0, 0, 0, map[string]float64{"mu": 4e14})
	b := addPlanet(t, sys, "b", 1e7, 0, 0, map[string]float64{"mu": 5e12, "rs": 1e6})
	initAll(t, a, b)

	at := vecmath.Vec3{X: 3e6, Y: 4e6}
	_, g, err := GravitationalField(sys, vecmath.NewVector(sys.RootFrame(), vecmath.Position, at.X, at.Y, at.Z))
	if err != nil {
		t.Fatal(err)
	}
	approx(t, "field", g.Vec(), inverseSquare(4e14, vecmath.Vec3{}, at), 1e-12)

	near := vecmath.Vec3{X: 1e7 - 5e5}
	_, g, _ = GravitationalField(sys, vecmath.NewVector(sys.RootFrame(), vecmath.Position, near.X, 0, 0))
	want := inverseSquare(4e14, vecmath.Vec3{}, near).Add(inverseSquare(5e12, vecmath.Vec3{X: 1e7}, near))
	approx(t, "inside sphere", g.Vec(), want, 1e-12)
}

func TestSphereOfInfluenceUnlimited(t *testing.T) {
	at := vecmath.Vec3{X: 7e6}
	for _, rs := range []float64{0, -1e6} {
		sys := newSystem(t)
		p := addPlanet(t, sys, "p", 0, 0, 0, map[string]float64{"mu": 4e14, "rs": rs})
		initAll(t, p)

		_, g, err := GravitationalField(sys, vecmath.NewVector(sys.RootFrame(), vecmath.Position, at.X, 0, 0))
		if err != nil {
			t.Fatal(err)
		}
		approx(t, fmt.Sprintf("rs=%g", rs), g.Vec(), inverseSquare(4e14, vecmath.Vec3{}, at), 1e-12)
	}
}

func TestMassFallbackAndSkip(t *testing.T) {
	sys := newSystem(t)
	a := addPlanet(t, sys, "a", 0, 0, 0, map[string]float64{"mass": 5.97e24})
	b := addPlanet(t, sys, "b", 1e7, 0, 0, map[string]float64{"radius": 1e6})
	initAll(t, a, b)

	at := vecmath.Vec3{Z: 7e6}
	_, g, err := GravitationalField(sys, vecmath.NewVector(sys.RootFrame(), vecmath.Position, 0, 0, at.Z))
	if err != nil {
		t.Fatal(err)
	}
	approx(t, "field", g.Vec(), inverseSquare(vecmath.GravitationalConstant*5.97e24, vecmath.Vec3{}, at), 1e-12)
}

func TestJ2(t *testing.T) {
	const mu, j2, radius, r = 3.986e14, 1.08263e-3, 6.378e6, 7e6
	k := 1.5 * j2 * radius * radius / (r * r)

	sys := newSystem(t)
	p := addPlanet(t, sys, "earth", 0, 0, 0, map[string]float64{"mu": mu, "j2": j2, "radius": radius})
	initAll(t, p)
	root := sys.RootFrame()

	_, g, _ := GravitationalField(sys, vecmath.NewVector(root, vecmath.Position, r, 0, 0))
	approx(t, "equator", g.Vec(), vecmath.Vec3{X: -mu / (r * r) * (1 + k)}, 1e-12)

	_, g, _ = GravitationalField(sys, vecmath.NewVector(root, vecmath.Position, 0, 0, r))
	approx(t, "pole", g.Vec(), vecmath.Vec3{Z: -mu / (r * r) * (1 - 2*k)}, 1e-12)

	// Tilting the planet moves its pole with it.
	if err := p.SetOrientationQuaternion(vecmath.FromAxisAngle(vecmath.NewVector(root, vecmath.Direction, 1, 0, 0), math.Pi/2)); err != nil {
		t.Fatal(err)
	}
	_, g, _ = GravitationalField(sys, vecmath.NewVector(root, vecmath.Position, 0, -r, 0))
	approx(t, "tilted pole", g.Vec(), vecmath.Vec3{Y: mu / (r * r) * (1 - 2*k)}, 1e-9)
}

func TestQueryInChildFrame(t *testing.T) {
	sys := newSystem(t)
	p := addPlanet(t, sys, "a", 0, 0, 0, map[string]float64{"mu": 1e14})
	initAll(t, p)
	probe, _ := sys.CreateNamed(p, "frame", "probe")
	probe.SetPosition(vecmath.NewVector(p.Frame(), vecmath.Position, 1e6, 0, 0))
	initAll(t, probe)

	_, g, err := GravitationalField(sys, vecmath.Zero(probe.Frame(), vecmath.Position))
	if err != nil {
		t.Fatal(err)
	}
	if g.Frame != probe.Frame() {
		t.Error("field not expressed in the query frame")
	}
	approx(t, "field", g.Vec(), vecmath.Vec3{X: -1e14 / 1e12}, 1e-12)
}

func TestCustomField(t *testing.T) {
	sys := newSystem(t)
	p := addPlanet(t, sys, "custom", 0, 0, 0, nil)
	v, _ := p.AddVariable("gravitational_field", variable.FunctionPointer)
	var fn FieldFunc = func(_ *sim.Object, r vecmath.Vector) (float64, vecmath.Vector, error) {
		return -1, vecmath.NewVector(r.Frame, vecmath.Acceleration, 0, 0, -1), nil
	}
	v.SetFunctionPointer(fn)
	initAll(t, p)

	phi, g, err := GravitationalField(sys, vecmath.NewVector(sys.RootFrame(), vecmath.Position, 5, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if phi != -1 || g.Z != -1 {
		t.Errorf("phi = %v, field = %v", phi, g)
	}
}

func TestBadParameter(t *testing.T) {
	sys := newSystem(t)
	if _, _, err := GravitationalField(sys, vecmath.NewVector(sys.RootFrame(), vecmath.Velocity, 1, 0, 0)); !errors.Is(err, errcode.BadParameter) {
		t.Errorf("velocity query: %v", err)
	}
	if _, _, err := GravitationalField(sys, vecmath.Vector{}); !errors.Is(err, errcode.BadParameter) {
		t.Errorf("frameless query: %v", err)
	}
}
